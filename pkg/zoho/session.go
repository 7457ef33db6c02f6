// Package zoho provides OAuth session management and REST API access to
// Zoho CRM, including the browser-driven login fallback used when no
// machine-to-machine grant is available.
package zoho

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultScopes are the CRM scopes requested during authorization.
var DefaultScopes = []string{"ZohoCRM.modules.ALL", "ZohoCRM.settings.ALL"}

// Credentials configures the OAuth client for one Zoho tenant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// LoginAutomator recovers an authorization code interactively when neither
// a stored token nor a refresh path is usable.
type LoginAutomator interface {
	Authorize(ctx context.Context) (code string, err error)
}

// Session guarantees a currently-valid access token before any CRM call.
// It is the sole owner of the in-memory token record and the sole writer to
// the token store.
type Session struct {
	oauth *oauth2.Config
	store TokenStore
	login LoginAutomator
	http  *http.Client
	now   func() time.Time

	mu    sync.Mutex
	token *TokenRecord
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionHTTPClient sets the HTTP client used for token endpoint calls.
func WithSessionHTTPClient(hc *http.Client) SessionOption {
	return func(s *Session) {
		s.http = hc
	}
}

// WithClock overrides the time source (for testing expiry handling).
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates a session over the given credentials, token store and
// login automator. The automator may be nil, in which case an expired or
// missing token without a refresh path is a hard failure.
func NewSession(creds Credentials, store TokenStore, login LoginAutomator, opts ...SessionOption) *Session {
	scopes := creds.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	s := &Session{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  creds.AuthURL,
				TokenURL: creds.TokenURL,
			},
		},
		store: store,
		login: login,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureValidToken makes sure a usable access token is cached, trying in
// order: the cached token, the stored token, a refresh-token exchange, and
// finally the interactive login. It performs no network call when the
// cached token is still valid, so it is safe to call before every request.
func (s *Session) EnsureValidToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := zap.L().With(zap.String("component", "zoho.session"))

	if s.token == nil && s.store != nil {
		rec, err := s.store.Load()
		if err != nil {
			log.Warn("could not load stored token", zap.Error(err))
		} else if rec != nil {
			s.token = rec
		}
	}

	if s.token.Usable(s.now()) {
		return nil
	}

	if s.token != nil && s.token.RefreshToken != "" {
		if err := s.refresh(ctx); err == nil {
			return nil
		} else {
			log.Warn("token refresh failed, falling back to interactive login", zap.Error(err))
		}
	}

	return s.interactiveLogin(ctx)
}

// AccessToken returns the cached access token, or "" when none is held.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// Reauthorize forces a full interactive login regardless of cached state.
func (s *Session) Reauthorize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interactiveLogin(ctx)
}

// refresh exchanges the refresh token for a new access token. The refresh
// token itself is retained unless the endpoint issues a replacement.
func (s *Session) refresh(ctx context.Context) error {
	src := s.oauth.TokenSource(s.oauthCtx(ctx), &oauth2.Token{RefreshToken: s.token.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return eris.Wrap(err, "zoho: refresh access token")
	}

	s.adopt(tok)
	return s.persist()
}

func (s *Session) interactiveLogin(ctx context.Context) error {
	if s.login == nil {
		return eris.New("zoho: no usable token and no login automator configured")
	}

	code, err := s.login.Authorize(ctx)
	if err != nil {
		return eris.Wrap(err, "zoho: interactive login")
	}

	tok, err := s.oauth.Exchange(s.oauthCtx(ctx), code)
	if err != nil {
		return eris.Wrap(err, "zoho: exchange authorization code")
	}

	s.adopt(tok)
	return s.persist()
}

// adopt replaces the cached record with the exchanged token, carrying the
// previous refresh token forward when the response omits one.
func (s *Session) adopt(tok *oauth2.Token) {
	rec := &TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.UTC(),
		ClientID:     s.oauth.ClientID,
	}
	if rec.RefreshToken == "" && s.token != nil {
		rec.RefreshToken = s.token.RefreshToken
	}
	if tok.Expiry.IsZero() {
		rec.ExpiresAt = s.now().Add(time.Hour).UTC()
	}
	s.token = rec
}

func (s *Session) persist() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(s.token); err != nil {
		return eris.Wrap(err, "zoho: persist token record")
	}
	return nil
}

func (s *Session) oauthCtx(ctx context.Context) context.Context {
	if s.http == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.http)
}
