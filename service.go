// Package settings wires the account settings data layer: the remote
// gateway, the demographics resource, the state store, the field rules and
// the orchestration coordinators.
package settings

import (
	"context"
	"fmt"
	"net/http"

	usertypes "github.com/goliatone/go-users/pkg/types"

	"github.com/goliatone/go-account-settings/demographics"
	"github.com/goliatone/go-account-settings/gateway"
	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/internal/logging/gologger"
	"github.com/goliatone/go-account-settings/internal/transport"
	"github.com/goliatone/go-account-settings/orchestrate"
	"github.com/goliatone/go-account-settings/pkg/activity"
	"github.com/goliatone/go-account-settings/pkg/activity/usersink"
	"github.com/goliatone/go-account-settings/pkg/interfaces"
	"github.com/goliatone/go-account-settings/pkg/state"
	"github.com/goliatone/go-account-settings/translate"
)

// Doer executes HTTP requests. *http.Client satisfies it; hosts usually pass
// one that carries the session credentials.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// User identifies the signed-in user.
type User = orchestrate.User

// UserProvider resolves the signed-in user.
type UserProvider = orchestrate.UserProvider

// ServiceOption configures New.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	doer     Doer
	provider interfaces.LoggerProvider
	users    UserProvider
	hooks    activity.Hooks
	rules    []Rule
	ruleOpts []Option
	initial  *state.State
}

// WithHTTPDoer sets the HTTP executor. Defaults to http.DefaultClient.
func WithHTTPDoer(doer Doer) ServiceOption {
	return func(o *serviceOptions) {
		o.doer = doer
	}
}

// WithLoggerProvider replaces the go-logger provider built from
// Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithUserProvider sets how the signed-in user is resolved. Required.
func WithUserProvider(users UserProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.users = users
	}
}

// WithStaticUser resolves every request to user.
func WithStaticUser(user User) ServiceOption {
	return WithUserProvider(orchestrate.StaticUser(user))
}

// WithActivityHooks appends activity hooks.
func WithActivityHooks(hooks ...activity.ActivityHook) ServiceOption {
	return func(o *serviceOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithActivitySink forwards activity events to a go-users activity sink.
func WithActivitySink(sink usertypes.ActivitySink) ServiceOption {
	return func(o *serviceOptions) {
		if sink != nil {
			o.hooks = append(o.hooks, usersink.Hook{Sink: sink})
		}
	}
}

// WithRules replaces DefaultRules. Options configure the rule engine.
func WithRules(rules []Rule, opts ...Option) ServiceOption {
	return func(o *serviceOptions) {
		o.rules = rules
		o.ruleOpts = append(o.ruleOpts, opts...)
	}
}

// WithInitialState seeds the store.
func WithInitialState(initial state.State) ServiceOption {
	return func(o *serviceOptions) {
		o.initial = &initial
	}
}

// Service is the entry point hosts hold on to. Reads go through the store
// snapshot; every intent is a method.
type Service struct {
	cfg          Config
	logger       interfaces.Logger
	store        *state.Store
	gateway      *gateway.Gateway
	demographics *demographics.Resource
	rules        *Rules
	commands     *orchestrate.Coordinators
}

// New validates cfg and wires the collaborators.
func New(cfg Config, opts ...ServiceOption) (*Service, error) {
	o := serviceOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("settings: invalid config: %w", err)
	}
	if o.users == nil {
		return nil, fmt.Errorf("settings: user provider is required")
	}

	provider := o.provider
	if provider == nil {
		built, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
			Focus:     cfg.Logging.Focus,
		})
		if err != nil {
			return nil, fmt.Errorf("settings: logger: %w", err)
		}
		provider = built
	}

	var clientOpts []transport.Option
	if o.doer != nil {
		clientOpts = append(clientOpts, transport.WithDoer(o.doer))
	}
	client := transport.New(clientOpts...)

	svc := &Service{
		cfg:    cfg,
		logger: logging.ModuleLogger(provider, logging.RootModule),
	}

	svc.gateway = gateway.New(gateway.Config{
		AccountsAPIBaseURL:    cfg.AccountsAPIBaseURL,
		PreferencesAPIBaseURL: cfg.PreferencesAPIBaseURL,
		LMSBaseURL:            cfg.LMSBaseURL,
		DeleteAccountURL:      cfg.DeleteAccountURL,
		PasswordResetURL:      cfg.PasswordResetURL,
		SiteLanguages:         cfg.SiteLanguages,
	}, gateway.WithClient(client), gateway.WithLogger(logging.ModuleLogger(provider, logging.GatewayModule)))

	rules := o.rules
	if rules == nil {
		rules = DefaultRules()
	}
	ruleOpts := append([]Option{
		WithEvaluatorLogger(EvaluatorLoggerFromLogger(logging.ModuleLogger(provider, logging.RulesModule))),
	}, o.ruleOpts...)
	compiled, err := NewRules(rules, ruleOpts...)
	if err != nil {
		return nil, err
	}
	svc.rules = compiled

	if o.initial != nil {
		svc.store = state.NewStoreWith(*o.initial)
	} else {
		svc.store = state.NewStore()
	}

	deps := orchestrate.Deps{
		Store:    svc.store,
		Gateway:  svc.gateway,
		Users:    o.users,
		Rules:    svc.rules,
		Activity: activity.NewEmitter(o.hooks, activity.Config{Enabled: cfg.Activity.Enabled, Channel: cfg.Activity.Channel}),
		Logger:   logging.ModuleLogger(provider, logging.OrchestrateModule),
	}
	if cfg.DemographicsEnabled {
		svc.demographics = demographics.New(demographics.Config{BaseURL: cfg.DemographicsBaseURL},
			demographics.WithClient(client),
			demographics.WithLogger(logging.ModuleLogger(provider, logging.DemographicsModule)))
		deps.Demographics = svc.demographics
	}

	svc.commands, err = orchestrate.New(deps, orchestrate.WithHandlerTimeout(cfg.HandlerTimeout))
	if err != nil {
		return nil, err
	}

	svc.logger.Debug("settings.service.ready",
		"demographics", cfg.DemographicsEnabled,
		"activity", deps.Activity.Enabled(),
		"ruled_fields", svc.rules.Fields())
	return svc, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Store exposes the state store.
func (s *Service) Store() *state.Store { return s.store }

// Rules exposes the compiled field rules.
func (s *Service) Rules() *Rules { return s.rules }

// Commands exposes the coordinators for hosts that dispatch through
// go-command.
func (s *Service) Commands() *orchestrate.Coordinators { return s.commands }

// Snapshot returns an isolated copy of the current state.
func (s *Service) Snapshot() state.State { return s.store.Snapshot() }

// Subscribe registers l for every state change.
func (s *Service) Subscribe(l state.Listener) func() { return s.store.Subscribe(l) }

// Dispatch applies evt directly to the store.
func (s *Service) Dispatch(evt state.Event) state.State { return s.store.Dispatch(evt) }

// FetchSettings loads every settings resource into the store.
func (s *Service) FetchSettings(ctx context.Context) error {
	return s.commands.FetchSettings.Execute(ctx, orchestrate.FetchSettings{})
}

// OpenField starts editing id, discarding any unsaved drafts.
func (s *Service) OpenField(id string) state.State {
	return s.store.Dispatch(state.OpenField{ID: id})
}

// CloseField stops editing id. It is ignored unless id is the open field.
func (s *Service) CloseField(id string) state.State {
	return s.store.Dispatch(state.CloseField{ID: id})
}

// UpdateDraft records an unsaved edit.
func (s *Service) UpdateDraft(name string, value any) state.State {
	return s.store.Dispatch(state.UpdateDraft{Name: name, Value: value})
}

// ResetDrafts discards unsaved edits.
func (s *Service) ResetDrafts() state.State {
	return s.store.Dispatch(state.ResetDrafts{})
}

// SaveSettings persists values for the form formID.
func (s *Service) SaveSettings(ctx context.Context, formID string, values translate.Unified) error {
	return s.commands.SaveSettings.Execute(ctx, orchestrate.SaveSettings{FormID: formID, Values: values})
}

// SaveDrafts persists the current drafts of the open field.
func (s *Service) SaveDrafts(ctx context.Context) error {
	snapshot := s.store.Snapshot()
	if snapshot.OpenFieldID == "" || len(snapshot.Drafts) == 0 {
		return nil
	}
	return s.SaveSettings(ctx, snapshot.OpenFieldID, snapshot.Drafts)
}

// FetchTimeZones loads the time zones of country.
func (s *Service) FetchTimeZones(ctx context.Context, country string) error {
	return s.commands.FetchTimeZones.Execute(ctx, orchestrate.FetchTimeZones{Country: country})
}

// FetchSiteLanguages loads the selectable interface languages.
func (s *Service) FetchSiteLanguages(ctx context.Context) error {
	return s.commands.FetchSiteLanguages.Execute(ctx, orchestrate.FetchSiteLanguages{})
}

// ChangeSiteLanguage switches the interface language.
func (s *Service) ChangeSiteLanguage(ctx context.Context, code string) error {
	return s.commands.ChangeSiteLanguage.Execute(ctx, orchestrate.ChangeSiteLanguage{Code: code})
}

// DisconnectAuth unlinks a third-party auth provider.
func (s *Service) DisconnectAuth(ctx context.Context, disconnectURL, providerID string) error {
	return s.commands.DisconnectAuth.Execute(ctx, orchestrate.DisconnectAuth{URL: disconnectURL, ProviderID: providerID})
}

// ConfirmDeleteAccount opens the deletion confirmation.
func (s *Service) ConfirmDeleteAccount(ctx context.Context) error {
	return s.commands.ConfirmDeleteAccount.Execute(ctx, orchestrate.ConfirmDeleteAccount{})
}

// CancelDeleteAccount abandons the deletion flow.
func (s *Service) CancelDeleteAccount(ctx context.Context) error {
	return s.commands.CancelDeleteAccount.Execute(ctx, orchestrate.CancelDeleteAccount{})
}

// DeleteAccount deactivates the account after confirming password.
func (s *Service) DeleteAccount(ctx context.Context, password string) error {
	return s.commands.DeleteAccount.Execute(ctx, orchestrate.DeleteAccount{Password: password})
}

// ResetPassword emails a reset link to email.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	return s.commands.ResetPassword.Execute(ctx, orchestrate.ResetPassword{Email: email})
}

// ReadOnlyFields lists the fields the current values lock.
func (s *Service) ReadOnlyFields(ctx context.Context) ([]string, error) {
	return s.rules.ReadOnlyFields(ctx, orchestrate.RuleValues(s.store.Snapshot()))
}
