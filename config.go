package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-account-settings/gateway"
	"github.com/goliatone/go-account-settings/internal/transport"
)

// EnvPrefix prefixes every variable read by ConfigFromEnv.
const EnvPrefix = "ACCOUNT_SETTINGS_"

const (
	accountsAPIPath    = "/api/user/v1/accounts"
	preferencesAPIPath = "/api/user/v1/preferences"
)

// LoggingConfig selects the go-logger output used when no LoggerProvider is
// supplied.
type LoggingConfig struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// ActivityConfig controls activity emission.
type ActivityConfig struct {
	Enabled bool
	Channel string
}

// Config holds resource locations and runtime switches. It is an explicit
// value handed to New; nothing reads it from package state.
type Config struct {
	LMSBaseURL string
	// AccountsAPIBaseURL and PreferencesAPIBaseURL default to the LMS
	// user API paths.
	AccountsAPIBaseURL    string
	PreferencesAPIBaseURL string
	DemographicsBaseURL   string
	DeleteAccountURL      string
	PasswordResetURL      string

	SiteLanguages       []gateway.SiteLanguage
	DemographicsEnabled bool
	HandlerTimeout      time.Duration

	Logging  LoggingConfig
	Activity ActivityConfig
}

// DefaultConfig returns the configuration used for local development.
func DefaultConfig() Config {
	return Config{
		LMSBaseURL:       "http://localhost:18000",
		DeleteAccountURL: "http://localhost:18000/api/user/v1/accounts/deactivate_logout/",
		PasswordResetURL: "http://localhost:18000/account/password",
		SiteLanguages: []gateway.SiteLanguage{
			{Code: "en", Name: "English"},
		},
		HandlerTimeout: 30 * time.Second,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Activity: ActivityConfig{
			Enabled: true,
		},
	}
}

// WithDefaults fills the derived resource URLs.
func (c Config) WithDefaults() Config {
	if c.AccountsAPIBaseURL == "" && c.LMSBaseURL != "" {
		c.AccountsAPIBaseURL = transport.JoinURL(c.LMSBaseURL, accountsAPIPath)
	}
	if c.PreferencesAPIBaseURL == "" && c.LMSBaseURL != "" {
		c.PreferencesAPIBaseURL = transport.JoinURL(c.LMSBaseURL, preferencesAPIPath)
	}
	return c
}

// Validate checks presence and shape only.
func (c Config) Validate() error {
	c = c.WithDefaults()
	return validation.ValidateStruct(&c,
		validation.Field(&c.LMSBaseURL, validation.Required, is.URL),
		validation.Field(&c.AccountsAPIBaseURL, validation.Required, is.URL),
		validation.Field(&c.PreferencesAPIBaseURL, validation.Required, is.URL),
		validation.Field(&c.DeleteAccountURL, validation.Required, is.URL),
		validation.Field(&c.PasswordResetURL, validation.Required, is.URL),
		validation.Field(&c.DemographicsBaseURL,
			validation.When(c.DemographicsEnabled, validation.Required),
			is.URL,
		),
		validation.Field(&c.SiteLanguages, validation.By(validateSiteLanguages)),
		validation.Field(&c.HandlerTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Logging),
	)
}

// Validate checks the logging switches.
func (c LoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("", "trace", "debug", "info", "warn", "warning", "error", "fatal")),
		validation.Field(&c.Format, validation.In("", "json", "console", "pretty")),
	)
}

func validateSiteLanguages(value any) error {
	languages, _ := value.([]gateway.SiteLanguage)
	seen := make(map[string]bool, len(languages))
	for _, lang := range languages {
		code := strings.TrimSpace(lang.Code)
		if code == "" {
			return validation.NewError("validation_site_language_code", "site language code must not be empty")
		}
		if seen[code] {
			return validation.NewError("validation_site_language_duplicate", fmt.Sprintf("site language %q listed twice", code))
		}
		seen[code] = true
	}
	return nil
}

// ConfigFromEnv starts from DefaultConfig and applies ACCOUNT_SETTINGS_*
// variables. Each named env file is loaded first when it exists; with no
// names, .env is tried. Variables already set in the process win over file
// values.
func ConfigFromEnv(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Config{}, fmt.Errorf("settings: load %s: %w", file, err)
		}
	}

	cfg := DefaultConfig()
	var errs []error

	setString(&cfg.LMSBaseURL, "LMS_BASE_URL")
	setString(&cfg.AccountsAPIBaseURL, "ACCOUNTS_API_BASE_URL")
	setString(&cfg.PreferencesAPIBaseURL, "PREFERENCES_API_BASE_URL")
	setString(&cfg.DemographicsBaseURL, "DEMOGRAPHICS_BASE_URL")
	setString(&cfg.DeleteAccountURL, "DELETE_ACCOUNT_URL")
	setString(&cfg.PasswordResetURL, "PASSWORD_RESET_URL")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Activity.Channel, "ACTIVITY_CHANNEL")

	if raw, ok := lookup("SITE_LANGUAGES"); ok {
		languages, err := parseSiteLanguages(raw)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.SiteLanguages = languages
		}
	}
	if raw, ok := lookup("LOG_FOCUS"); ok {
		cfg.Logging.Focus = splitList(raw)
	}
	errs = append(errs,
		setBool(&cfg.DemographicsEnabled, "DEMOGRAPHICS_ENABLED"),
		setBool(&cfg.Logging.AddSource, "LOG_ADD_SOURCE"),
		setBool(&cfg.Activity.Enabled, "ACTIVITY_ENABLED"),
	)
	if raw, ok := lookup("HANDLER_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("settings: %sHANDLER_TIMEOUT: %w", EnvPrefix, err))
		} else {
			cfg.HandlerTimeout = timeout
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg.WithDefaults(), nil
}

func lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func setString(dst *string, name string) {
	if value, ok := lookup(name); ok {
		*dst = value
	}
}

func setBool(dst *bool, name string) error {
	raw, ok := lookup(name)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("settings: %s%s: %w", EnvPrefix, name, err)
	}
	*dst = value
	return nil
}

// parseSiteLanguages reads "code:Name" pairs separated by commas. A pair
// without a name uses the code.
func parseSiteLanguages(raw string) ([]gateway.SiteLanguage, error) {
	var languages []gateway.SiteLanguage
	for _, entry := range splitList(raw) {
		code, name, _ := strings.Cut(entry, ":")
		code, name = strings.TrimSpace(code), strings.TrimSpace(name)
		if code == "" {
			return nil, fmt.Errorf("settings: %sSITE_LANGUAGES: empty code in %q", EnvPrefix, entry)
		}
		if name == "" {
			name = code
		}
		languages = append(languages, gateway.SiteLanguage{Code: code, Name: name})
	}
	return languages, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
