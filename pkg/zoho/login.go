package zoho

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const loginUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LoginConfig configures the browser-driven authorization-code flow.
type LoginConfig struct {
	AuthURL     string
	ClientID    string
	RedirectURL string
	Scopes      []string
	Email       string
	Password    string
	Headless    bool
	// Timeout bounds the whole flow; defaults to 3 minutes.
	Timeout time.Duration
}

// BrowserLogin drives a Chrome session through the hosted Zoho sign-in and
// consent pages and captures the authorization code from the final
// redirect. Every sub-step failure is reported as an error rather than a
// panic; the login page is an external UI surface that changes without
// notice, so callers must treat failures as "retry later", not as bugs.
type BrowserLogin struct {
	cfg LoginConfig
	log *zap.Logger
}

// NewBrowserLogin creates the login automator.
func NewBrowserLogin(cfg LoginConfig) *BrowserLogin {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	return &BrowserLogin{
		cfg: cfg,
		log: zap.L().With(zap.String("component", "zoho.login")),
	}
}

// locator is one candidate element selector. Candidates are tried in
// priority order because the sign-in pages vary by account and rollout.
type locator struct {
	query string
	xpath bool
}

func css(q string) locator { return locator{query: q} }
func xp(q string) locator  { return locator{query: q, xpath: true} }

func (l locator) opt() chromedp.QueryOption {
	if l.xpath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// jsElem returns a JS expression resolving the locator to an element.
func (l locator) jsElem() string {
	if l.xpath {
		return fmt.Sprintf(
			"document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue",
			l.query,
		)
	}
	return fmt.Sprintf("document.querySelector(%q)", l.query)
}

var (
	emailLocators = []locator{
		css("#login_id"),
		css("input[name='LOGIN_ID']"),
		css("input[type='email']"),
		xp("//input[@placeholder='Email ID']"),
		xp("//input[contains(@class, 'email')]"),
	}
	nextLocators = []locator{
		css("#nextbtn"),
		css("#signin_submit"),
		xp("//button[contains(text(), 'Next')]"),
		xp("//button[contains(text(), 'Continue')]"),
		xp("//input[@value='Next']"),
		xp("//input[@value='Continue']"),
		css("button[type='submit']"),
	}
	passwordLocators = []locator{
		css("#password"),
		css("input[name='PASSWORD']"),
		css("input[type='password']"),
		xp("//input[contains(@class, 'password')]"),
	}
	signInLocators = []locator{
		css("#nextbtn"),
		css("#signin_submit"),
		xp("//button[contains(text(), 'Sign in')]"),
		xp("//button[contains(text(), 'Sign In')]"),
		xp("//button[contains(text(), 'Login')]"),
		xp("//input[@value='Sign in']"),
		css("button[type='submit']"),
	}
	interstitialLocators = []locator{
		xp("//button[contains(text(), 'Continue')]"),
		xp("//button[contains(text(), 'Skip')]"),
		xp("//button[contains(text(), 'Later')]"),
		xp("//button[contains(text(), 'Not now')]"),
		xp("//a[contains(text(), 'Continue')]"),
		xp("//a[contains(text(), 'Skip')]"),
		xp("//input[@value='Continue']"),
		xp("//input[@value='Skip']"),
		css("#continue"),
		css("#skip"),
		css("#later"),
		css(".continue-btn"),
		css(".skip-btn"),
		css("button.primary"),
		css("a.primary"),
	}
	consentLocators = []locator{
		xp("//button[contains(text(), 'Accept')]"),
		xp("//button[contains(text(), 'Allow')]"),
		xp("//button[contains(text(), 'Authorize')]"),
		xp("//input[@value='Accept']"),
		xp("//input[@value='Allow']"),
		css("#accept"),
		css("#allow"),
		css("button.accept"),
		css("button.allow"),
	}
)

// Authorize runs the full flow and returns the authorization code. The
// browser is released on every exit path, success or failure.
func (b *BrowserLogin) Authorize(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(loginUserAgent),
	}
	if b.cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browser, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browser,
		chromedp.Navigate(b.authCodeURL()),
		chromedp.Evaluate(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`, nil),
	); err != nil {
		return "", eris.Wrap(err, "zoho: open authorization page")
	}

	if err := b.signIn(browser); err != nil {
		b.dumpElements(browser)
		return "", err
	}

	code, err := b.waitForCode(browser)
	if err != nil {
		b.dumpElements(browser)
		return "", err
	}
	return code, nil
}

// authCodeURL builds the hosted authorization page URL.
func (b *BrowserLogin) authCodeURL() string {
	params := url.Values{}
	params.Set("scope", strings.Join(b.cfg.Scopes, ","))
	params.Set("client_id", b.cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("access_type", "offline")
	params.Set("redirect_uri", b.cfg.RedirectURL)
	return b.cfg.AuthURL + "?" + params.Encode()
}

// signIn walks the email, password and consent pages.
func (b *BrowserLogin) signIn(ctx context.Context) error {
	email, ok := b.waitFind(ctx, 30*time.Second, emailLocators)
	if !ok {
		return eris.New("zoho: email field never appeared")
	}
	if err := b.safeType(ctx, email, b.cfg.Email); err != nil {
		return eris.Wrap(err, "zoho: enter email")
	}

	// Some account flows go straight to the password field.
	if next, ok := b.waitFind(ctx, 15*time.Second, nextLocators); ok {
		if err := b.safeClick(ctx, next); err == nil {
			b.settle(ctx, 2*time.Second)
		}
	} else {
		b.log.Debug("no next button, continuing to password")
	}

	password, ok := b.waitFind(ctx, 30*time.Second, passwordLocators)
	if !ok {
		return eris.New("zoho: password field never appeared")
	}
	if err := b.safeType(ctx, password, b.cfg.Password); err != nil {
		return eris.Wrap(err, "zoho: enter password")
	}

	signIn, ok := b.waitFind(ctx, 15*time.Second, signInLocators)
	if !ok {
		return eris.New("zoho: sign-in button never appeared")
	}
	if err := b.safeClick(ctx, signIn); err != nil {
		return eris.Wrap(err, "zoho: click sign in")
	}
	b.settle(ctx, 4*time.Second)

	b.handleInterstitial(ctx)

	// The consent page is skipped for already-authorized apps.
	if consent, ok := b.waitFind(ctx, 10*time.Second, consentLocators); ok {
		if err := b.safeClick(ctx, consent); err != nil {
			return eris.Wrap(err, "zoho: click consent")
		}
		b.settle(ctx, 2*time.Second)
	} else {
		b.log.Info("no consent page found, app may already be authorized")
	}

	return nil
}

// waitForCode polls the current URL until it lands on the redirect target
// with a code parameter, re-checking for interstitial pages on every poll.
func (b *BrowserLogin) waitForCode(ctx context.Context) (string, error) {
	redirect, err := url.Parse(b.cfg.RedirectURL)
	if err != nil {
		return "", eris.Wrap(err, "zoho: parse redirect url")
	}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		var current string
		if err := chromedp.Run(ctx, chromedp.Location(&current)); err != nil {
			return "", eris.Wrap(err, "zoho: read current url")
		}

		if strings.Contains(current, redirect.Host) && strings.Contains(current, "code=") {
			u, err := url.Parse(current)
			if err != nil {
				return "", eris.Wrap(err, "zoho: parse redirect result")
			}
			code := u.Query().Get("code")
			if code == "" {
				return "", eris.New("zoho: redirect carried no authorization code")
			}
			return code, nil
		}

		if strings.Contains(current, "tfa-banner") || strings.Contains(current, "announcement") {
			b.handleInterstitial(ctx)
		}

		select {
		case <-ctx.Done():
			return "", eris.Wrap(ctx.Err(), "zoho: authorization flow cancelled")
		case <-time.After(2 * time.Second):
		}
	}

	return "", eris.New("zoho: redirect with authorization code never observed")
}

// handleInterstitial dismisses two-factor banners and announcement pages.
// When no dismiss button is found, it falls back to the serviceurl query
// parameter and navigates there directly.
func (b *BrowserLogin) handleInterstitial(ctx context.Context) {
	var current string
	if err := chromedp.Run(ctx, chromedp.Location(&current)); err != nil {
		return
	}
	if !strings.Contains(current, "tfa-banner") && !strings.Contains(current, "announcement") {
		return
	}

	b.log.Info("interstitial page detected", zap.String("url", current))

	if loc, ok := b.waitFind(ctx, 10*time.Second, interstitialLocators); ok {
		if err := b.safeClick(ctx, loc); err == nil {
			b.settle(ctx, 3*time.Second)
			return
		}
	}

	u, err := url.Parse(current)
	if err != nil {
		return
	}
	if service := u.Query().Get("serviceurl"); service != "" {
		if decoded, err := url.QueryUnescape(service); err == nil {
			b.log.Info("navigating to serviceurl", zap.String("url", decoded))
			_ = chromedp.Run(ctx, chromedp.Navigate(decoded))
			b.settle(ctx, 3*time.Second)
		}
	}
}

// waitFind polls the candidate locators in priority order until one
// matches or the timeout elapses.
func (b *BrowserLogin) waitFind(ctx context.Context, timeout time.Duration, candidates []locator) (locator, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, loc := range candidates {
			var nodes []*cdp.Node
			short, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := chromedp.Run(short, chromedp.Nodes(loc.query, &nodes, loc.opt(), chromedp.AtLeast(0)))
			cancel()
			if err == nil && len(nodes) > 0 {
				return loc, true
			}
		}

		select {
		case <-ctx.Done():
			return locator{}, false
		case <-time.After(500 * time.Millisecond):
		}
	}
	return locator{}, false
}

// safeClick tries a native click, then a direct DOM click via script, then
// a simulated pointer click. Each tier runs only if the previous one
// raised an interaction error.
func (b *BrowserLogin) safeClick(ctx context.Context, loc locator) error {
	short, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := chromedp.Run(short, chromedp.Click(loc.query, loc.opt(), chromedp.NodeVisible))
	cancel()
	if err == nil {
		return nil
	}
	b.log.Debug("native click failed, trying script click", zap.String("selector", loc.query), zap.Error(err))

	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) { throw new Error("element not found"); }
		el.click();
		return true;
	})()`, loc.jsElem())
	var clicked bool
	short, cancel = context.WithTimeout(ctx, 5*time.Second)
	err = chromedp.Run(short, chromedp.Evaluate(script, &clicked))
	cancel()
	if err == nil && clicked {
		return nil
	}

	short, cancel = context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = chromedp.Run(short, chromedp.QueryAfter(loc.query,
		func(ctx context.Context, _ runtime.ExecutionContextID, nodes ...*cdp.Node) error {
			if len(nodes) == 0 {
				return eris.New("no node to click")
			}
			return chromedp.MouseClickNode(nodes[0]).Do(ctx)
		}, loc.opt()))
	if err != nil {
		return eris.Wrapf(err, "zoho: click %s", loc.query)
	}
	return nil
}

// safeType clears the field and types text, falling back to setting the
// value through script injection when keyboard input is rejected.
func (b *BrowserLogin) safeType(ctx context.Context, loc locator, text string) error {
	short, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := chromedp.Run(short,
		chromedp.Clear(loc.query, loc.opt()),
		chromedp.SendKeys(loc.query, text, loc.opt()),
	)
	cancel()
	if err == nil {
		return nil
	}
	b.log.Debug("native typing failed, trying script injection", zap.String("selector", loc.query), zap.Error(err))

	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) { throw new Error("element not found"); }
		el.value = %q;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, loc.jsElem(), text)
	var typed bool
	short, cancel = context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(short, chromedp.Evaluate(script, &typed)); err != nil {
		return eris.Wrapf(err, "zoho: type into %s", loc.query)
	}
	return nil
}

// settle waits briefly for a page transition, bounded by ctx.
func (b *BrowserLogin) settle(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// pageElement is one interactive element in a failure snapshot.
type pageElement struct {
	Tag       string `json:"tag"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Class     string `json:"class"`
	Text      string `json:"text"`
	Displayed bool   `json:"displayed"`
	Enabled   bool   `json:"enabled"`
}

// dumpElements logs a snapshot of the first interactive elements on the
// page for post-mortem debugging of selector drift.
func (b *BrowserLogin) dumpElements(ctx context.Context) {
	const script = `(() => {
		const out = [];
		for (const tag of ['input', 'button', 'a']) {
			const els = document.getElementsByTagName(tag);
			for (let i = 0; i < Math.min(els.length, 10); i++) {
				const el = els[i];
				const style = window.getComputedStyle(el);
				out.push({
					tag: tag,
					id: el.id || '',
					name: el.getAttribute('name') || '',
					type: el.getAttribute('type') || '',
					class: el.className || '',
					text: (el.textContent || '').trim().slice(0, 50),
					displayed: style.display !== 'none' && style.visibility !== 'hidden',
					enabled: !el.disabled,
				});
			}
		}
		return out;
	})()`

	var elements []pageElement
	short, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(short, chromedp.Evaluate(script, &elements)); err != nil {
		b.log.Warn("could not capture page snapshot", zap.Error(err))
		return
	}

	for _, el := range elements {
		b.log.Info("page element",
			zap.String("tag", el.Tag),
			zap.String("id", el.ID),
			zap.String("name", el.Name),
			zap.String("type", el.Type),
			zap.String("class", el.Class),
			zap.String("text", el.Text),
			zap.Bool("displayed", el.Displayed),
			zap.Bool("enabled", el.Enabled),
		)
	}
}
