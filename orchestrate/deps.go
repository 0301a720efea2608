package orchestrate

import (
	"context"

	"github.com/goliatone/go-account-settings/gateway"
	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/pkg/activity"
	"github.com/goliatone/go-account-settings/pkg/interfaces"
	"github.com/goliatone/go-account-settings/pkg/state"
	"github.com/goliatone/go-account-settings/translate"
)

// Gateway is the remote settings surface the coordinators call.
// *gateway.Gateway satisfies it.
type Gateway interface {
	FetchAllSettings(ctx context.Context, username string, roles []string) (*gateway.Settings, error)
	SaveSettings(ctx context.Context, username string, changed translate.Unified) (translate.Unified, error)
	FetchCountryTimeZones(ctx context.Context, country string) ([]translate.TimeZone, error)
	DisconnectAuthProvider(ctx context.Context, disconnectURL, providerID string) ([]translate.AuthProvider, error)
	DeleteAccount(ctx context.Context, password string) error
	RequestPasswordReset(ctx context.Context, email string) error
	SetSiteLanguage(ctx context.Context, username, code string) error
	SiteLanguages() []gateway.SiteLanguage
}

// Demographics is the demographics resource. *demographics.Resource
// satisfies it.
type Demographics interface {
	Read(ctx context.Context, userID int) (translate.Unified, error)
	Update(ctx context.Context, userID int, fields translate.Unified) (translate.Unified, error)
}

// AccessRules decide whether a field may be edited given the current values.
type AccessRules interface {
	Editable(ctx context.Context, field string, values translate.Unified) (bool, error)
}

// User identifies the signed-in user.
type User struct {
	Username string
	UserID   int
	Email    string
	Roles    []string
	ActorID  string
	TenantID string
}

// UserProvider resolves the signed-in user.
type UserProvider interface {
	CurrentUser(ctx context.Context) (User, error)
}

// UserProviderFunc adapts a function to UserProvider.
type UserProviderFunc func(ctx context.Context) (User, error)

// CurrentUser calls fn.
func (fn UserProviderFunc) CurrentUser(ctx context.Context) (User, error) {
	return fn(ctx)
}

// StaticUser always resolves to user.
func StaticUser(user User) UserProvider {
	return UserProviderFunc(func(context.Context) (User, error) {
		return user, nil
	})
}

// Deps are the collaborators shared by every coordinator. Store, Gateway and
// Users are required; Demographics, Rules and Activity are optional.
type Deps struct {
	Store        *state.Store
	Gateway      Gateway
	Demographics Demographics
	Users        UserProvider
	Rules        AccessRules
	Activity     *activity.Emitter
	Logger       interfaces.Logger
}

func (d Deps) logger() interfaces.Logger {
	if d.Logger == nil {
		return logging.NoOp()
	}
	return d.Logger
}

func (d Deps) currentUser(ctx context.Context) (User, error) {
	if d.Users == nil {
		return User{}, ErrNoUser
	}
	user, err := d.Users.CurrentUser(ctx)
	if err != nil {
		return User{}, err
	}
	if user.Username == "" {
		return User{}, ErrNoUser
	}
	return user, nil
}

// emit sends an activity event. Failures are logged and never fail the
// coordinator.
func (d Deps) emit(ctx context.Context, build func(activity.SettingsEventInput) activity.Event, user User, input activity.SettingsEventInput) {
	if !d.Activity.Enabled() {
		return
	}
	// Users act on their own account, so actor and subject match.
	input.ActorID = user.ActorID
	input.UserID = user.ActorID
	input.TenantID = user.TenantID
	input.Username = user.Username
	if err := d.Activity.Emit(ctx, build(input)); err != nil {
		logging.FromContext(ctx, d.logger()).Warn("orchestrate.activity.failed", "error", err)
	}
}
