package orchestrate

import (
	"errors"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-account-settings/internal/logging"
)

// Coordinators bundles one command handler per use case.
type Coordinators struct {
	FetchSettings        *Handler[FetchSettings]
	SaveSettings         *Handler[SaveSettings]
	FetchTimeZones       *Handler[FetchTimeZones]
	FetchSiteLanguages   *Handler[FetchSiteLanguages]
	ChangeSiteLanguage   *Handler[ChangeSiteLanguage]
	DisconnectAuth       *Handler[DisconnectAuth]
	ConfirmDeleteAccount *Handler[ConfirmDeleteAccount]
	CancelDeleteAccount  *Handler[CancelDeleteAccount]
	DeleteAccount        *Handler[DeleteAccount]
	ResetPassword        *Handler[ResetPassword]
}

var (
	_ command.Commander[FetchSettings] = (*Handler[FetchSettings])(nil)
	_ command.Commander[SaveSettings]  = (*Handler[SaveSettings])(nil)
)

// Option configures New.
type Option func(*config)

type config struct {
	timeout time.Duration
}

// WithHandlerTimeout sets the timeout applied to every coordinator. A
// non-positive value disables it.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// New wires the coordinators around deps.
func New(deps Deps, opts ...Option) (*Coordinators, error) {
	if deps.Store == nil {
		return nil, errors.New("orchestrate: store is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("orchestrate: gateway is required")
	}
	if deps.Users == nil {
		return nil, errors.New("orchestrate: user provider is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}

	cfg := config{timeout: defaultHandlerTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	f := fetcher{Deps: deps}
	s := &saver{fetcher: f}
	fl := flows{Deps: deps}

	return &Coordinators{
		FetchSettings:        NewHandler[FetchSettings](f.fetchSettings, handlerOptions[FetchSettings](deps, cfg, "fetch_settings")...),
		SaveSettings:         NewHandler[SaveSettings](s.save, handlerOptions[SaveSettings](deps, cfg, "save_settings")...),
		FetchTimeZones:       NewHandler[FetchTimeZones](f.fetchTimeZones, handlerOptions[FetchTimeZones](deps, cfg, "fetch_time_zones")...),
		FetchSiteLanguages:   NewHandler[FetchSiteLanguages](f.fetchSiteLanguages, handlerOptions[FetchSiteLanguages](deps, cfg, "fetch_site_languages")...),
		ChangeSiteLanguage:   NewHandler[ChangeSiteLanguage](s.changeSiteLanguage, handlerOptions[ChangeSiteLanguage](deps, cfg, "change_site_language")...),
		DisconnectAuth:       NewHandler[DisconnectAuth](fl.disconnectAuth, handlerOptions[DisconnectAuth](deps, cfg, "disconnect_auth")...),
		ConfirmDeleteAccount: NewHandler[ConfirmDeleteAccount](fl.confirmDeleteAccount, handlerOptions[ConfirmDeleteAccount](deps, cfg, "confirm_delete_account")...),
		CancelDeleteAccount:  NewHandler[CancelDeleteAccount](fl.cancelDeleteAccount, handlerOptions[CancelDeleteAccount](deps, cfg, "cancel_delete_account")...),
		DeleteAccount:        NewHandler[DeleteAccount](fl.deleteAccount, handlerOptions[DeleteAccount](deps, cfg, "delete_account")...),
		ResetPassword:        NewHandler[ResetPassword](fl.resetPassword, handlerOptions[ResetPassword](deps, cfg, "reset_password")...),
	}, nil
}

func handlerOptions[T command.Message](deps Deps, cfg config, operation string) []HandlerOption[T] {
	return []HandlerOption[T]{
		WithLogger[T](deps.Logger),
		WithOperation[T](operation),
		WithTimeout[T](cfg.timeout),
	}
}
