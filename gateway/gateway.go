// Package gateway performs the network round trips behind the settings
// resources. It composes multi-resource reads and writes and hands back
// values in the unified settings shape.
package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/internal/transport"
	"github.com/goliatone/go-account-settings/layering"
	"github.com/goliatone/go-account-settings/pkg/interfaces"
	"github.com/goliatone/go-account-settings/translate"
)

const (
	thirdPartyAuthPath    = "/api/third_party_auth/v0/providers/user_status"
	timeZonesPath         = "/user_api/v1/preferences/time_zones/"
	enterpriseLearnerPath = "/enterprise/api/v1/enterprise-learner/"
	setLanguagePath       = "/i18n/setlang/"

	enterpriseLearnerRole = "enterprise_learner"
)

// Scope names used when layering resource snapshots. Preferences outrank the
// account resource so its time_zone always wins.
const (
	ScopeAccount     = "account"
	ScopePreferences = "preferences"

	accountPriority     = 100
	preferencesPriority = 200
)

// SiteLanguage is one selectable interface language.
type SiteLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Config holds the resource locations. It is set once at startup.
type Config struct {
	AccountsAPIBaseURL    string
	PreferencesAPIBaseURL string
	LMSBaseURL            string
	DeleteAccountURL      string
	PasswordResetURL      string
	SiteLanguages         []SiteLanguage
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClient sets the transport client.
func WithClient(client *transport.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Gateway talks to the account, preferences and LMS resources.
type Gateway struct {
	cfg    Config
	client *transport.Client
	logger interfaces.Logger
}

// New builds a Gateway.
func New(cfg Config, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:    cfg,
		client: transport.New(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// FetchAllSettings reads the account, preferences, third-party-auth status,
// profile data manager and time zone list concurrently. Any failure except
// the profile data manager lookup fails the whole fetch; that lookup
// degrades to nil instead.
func (g *Gateway) FetchAllSettings(ctx context.Context, username string, roles []string) (*Settings, error) {
	logger := logging.FromContext(ctx, g.logger)
	logger.Debug("gateway.fetch.start", "username", username)

	var (
		account   translate.Unified
		prefs     translate.Unified
		providers []translate.AuthProvider
		manager   *string
		zones     []translate.TimeZone
		group     errgroup.Group
	)

	group.Go(func() error {
		var err error
		account, err = g.FetchAccount(ctx, username)
		return err
	})
	group.Go(func() error {
		var err error
		prefs, err = g.FetchPreferences(ctx, username)
		return err
	})
	group.Go(func() error {
		var err error
		providers, err = g.FetchThirdPartyAuthProviders(ctx)
		return err
	})
	group.Go(func() error {
		var err error
		manager, err = g.FetchProfileDataManager(ctx, username, roles)
		if err != nil {
			logger.Warn("gateway.fetch.profile_data_manager_failed", "username", username, "error", err)
			manager = nil
		}
		return nil
	})
	group.Go(func() error {
		var err error
		zones, err = g.FetchCountryTimeZones(ctx, "")
		return err
	})

	if err := group.Wait(); err != nil {
		logger.Error("gateway.fetch.failed", "username", username, "error", err)
		return nil, err
	}

	merged, err := mergeResources(account, prefs)
	if err != nil {
		return nil, err
	}

	logger.Debug("gateway.fetch.success", "username", username, "fields", len(merged.Value))
	return &Settings{
		Values:             merged.Value,
		AuthProviders:      providers,
		ProfileDataManager: manager,
		TimeZones:          zones,
		merged:             merged,
	}, nil
}

// FetchAccount reads the account resource.
func (g *Gateway) FetchAccount(ctx context.Context, username string) (translate.Unified, error) {
	var wire map[string]any
	if err := g.client.GetJSON(ctx, g.accountURL(username), &wire); err != nil {
		return nil, fmt.Errorf("gateway: fetch account: %w", err)
	}
	return translate.AccountToUnified(wire), nil
}

// FetchPreferences reads the preferences resource.
func (g *Gateway) FetchPreferences(ctx context.Context, username string) (translate.Unified, error) {
	var wire map[string]any
	if err := g.client.GetJSON(ctx, g.preferencesURL(username), &wire); err != nil {
		return nil, fmt.Errorf("gateway: fetch preferences: %w", err)
	}
	return translate.PreferencesToUnified(wire), nil
}

// FetchThirdPartyAuthProviders reads the connection status of every provider.
func (g *Gateway) FetchThirdPartyAuthProviders(ctx context.Context) ([]translate.AuthProvider, error) {
	resp, err := g.client.Get(ctx, transport.JoinURL(g.cfg.LMSBaseURL, thirdPartyAuthPath))
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch auth providers: %w", err)
	}
	providers, err := translate.ProvidersFromWire(g.cfg.LMSBaseURL, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch auth providers: %w", err)
	}
	return providers, nil
}

// FetchProfileDataManager returns the enterprise that manages the user's
// profile data. The lookup is only issued for enterprise learners.
func (g *Gateway) FetchProfileDataManager(ctx context.Context, username string, roles []string) (*string, error) {
	if !hasRole(roles, enterpriseLearnerRole) {
		return nil, nil
	}
	resp, err := g.client.Get(ctx, transport.JoinURL(g.cfg.LMSBaseURL, enterpriseLearnerPath),
		transport.WithQuery(url.Values{"username": {username}}))
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch profile data manager: %w", err)
	}
	manager, err := translate.ProfileDataManagerFromWire(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch profile data manager: %w", err)
	}
	return manager, nil
}

// FetchCountryTimeZones reads the time zone list, narrowed to country when
// one is given.
func (g *Gateway) FetchCountryTimeZones(ctx context.Context, country string) ([]translate.TimeZone, error) {
	var opts []transport.RequestOption
	if country != "" {
		opts = append(opts, transport.WithQuery(url.Values{"country_code": {country}}))
	}
	resp, err := g.client.Get(ctx, transport.JoinURL(g.cfg.LMSBaseURL, timeZonesPath), opts...)
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch time zones: %w", err)
	}
	zones, err := translate.TimeZonesFromWire(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: fetch time zones: %w", err)
	}
	return zones, nil
}

// SiteLanguages returns the configured interface languages.
func (g *Gateway) SiteLanguages() []SiteLanguage {
	return append([]SiteLanguage(nil), g.cfg.SiteLanguages...)
}

func (g *Gateway) accountURL(username string) string {
	return transport.JoinURL(g.cfg.AccountsAPIBaseURL, url.PathEscape(username))
}

func (g *Gateway) preferencesURL(username string) string {
	return transport.JoinURL(g.cfg.PreferencesAPIBaseURL, url.PathEscape(username))
}

// mergeResources layers the preferences snapshot over the account snapshot.
// Either side may be nil when its partition was not involved.
func mergeResources(account, prefs translate.Unified) (layering.Merged[translate.Unified], error) {
	var layers []layering.Layer[translate.Unified]
	if account != nil {
		layers = append(layers, layering.NewLayer(
			layering.NewScope(ScopeAccount, accountPriority, layering.WithScopeLabel("Account")),
			account,
		))
	}
	if prefs != nil {
		layers = append(layers, layering.NewLayer(
			layering.NewScope(ScopePreferences, preferencesPriority, layering.WithScopeLabel("Preferences")),
			prefs,
		))
	}
	if len(layers) == 0 {
		return layering.Merged[translate.Unified]{Value: translate.Unified{}}, nil
	}
	stack, err := layering.NewStack(layers...)
	if err != nil {
		return layering.Merged[translate.Unified]{}, fmt.Errorf("gateway: layer resources: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return layering.Merged[translate.Unified]{}, fmt.Errorf("gateway: merge resources: %w", err)
	}
	if merged.Value == nil {
		merged.Value = translate.Unified{}
	}
	return merged, nil
}

func hasRole(roles []string, name string) bool {
	for _, role := range roles {
		prefix, _, _ := strings.Cut(role, ":")
		if prefix == name {
			return true
		}
	}
	return false
}
