package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Zoho   ZohoConfig   `yaml:"zoho" mapstructure:"zoho"`
	Assign AssignConfig `yaml:"assign" mapstructure:"assign"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ZohoConfig holds Zoho CRM OAuth credentials and API settings.
type ZohoConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	RedirectURL  string `yaml:"redirect_url" mapstructure:"redirect_url"`
	AuthURL      string `yaml:"auth_url" mapstructure:"auth_url"`
	TokenURL     string `yaml:"token_url" mapstructure:"token_url"`
	APIBaseURL   string `yaml:"api_base_url" mapstructure:"api_base_url"`
	Module       string `yaml:"module" mapstructure:"module"`

	// Login credentials for the browser-driven OAuth flow. Zoho offers no
	// machine-to-machine grant for this integration, so a real sign-in is
	// automated when no refresh path exists.
	Email    string `yaml:"email" mapstructure:"email"`
	Password string `yaml:"password" mapstructure:"password"`

	TokenFile        string  `yaml:"token_file" mapstructure:"token_file"`
	BatchSize        int     `yaml:"batch_size" mapstructure:"batch_size"`
	BatchRPS         float64 `yaml:"batch_rps" mapstructure:"batch_rps"`
	Headless         bool    `yaml:"headless" mapstructure:"headless"`
	LoginTimeoutSecs int     `yaml:"login_timeout_secs" mapstructure:"login_timeout_secs"`
}

// AssignConfig configures area-to-salesperson resolution.
type AssignConfig struct {
	TablePath string `yaml:"table_path" mapstructure:"table_path"`
	// FuzzyThreshold is the minimum similarity (0..1) for a fuzzy area
	// match. Values >= 1.0 disable fuzzy matching entirely.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
}

// IngestConfig configures spreadsheet ingestion.
type IngestConfig struct {
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
	// Keywords qualify a row for import when its nature-of-development
	// column contains any of them and no dwelling-unit count is present.
	Keywords []string `yaml:"keywords" mapstructure:"keywords"`
}

// NotifyConfig configures the unmatched-areas alert mail.
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	From     string `yaml:"from" mapstructure:"from"`
	Password string `yaml:"password" mapstructure:"password"`
	To       string `yaml:"to" mapstructure:"to"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("zoho.auth_url", "https://accounts.zoho.com/oauth/v2/auth")
	v.SetDefault("zoho.token_url", "https://accounts.zoho.com/oauth/v2/token")
	v.SetDefault("zoho.api_base_url", "https://www.zohoapis.com/crm/v2")
	v.SetDefault("zoho.module", "Leads")
	v.SetDefault("zoho.token_file", "zoho_tokens.json")
	v.SetDefault("zoho.batch_size", 100)
	v.SetDefault("zoho.batch_rps", 1.0)
	v.SetDefault("zoho.headless", true)
	v.SetDefault("zoho.login_timeout_secs", 180)
	v.SetDefault("assign.table_path", "areas.yaml")
	v.SetDefault("assign.fuzzy_threshold", 0.85)
	v.SetDefault("ingest.keywords", []string{
		"premium fsi", "units", "mall", "theatre building", "screens",
		"dwelling units", "dwellings", "school building", "hospital",
		"college", "inst", "kalyana mandapam", "auditorium",
		"service apartment", "service apartments",
	})
	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.smtp_host", "smtp.gmail.com")
	v.SetDefault("notify.smtp_port", 465)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
