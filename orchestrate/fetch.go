package orchestrate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-account-settings/demographics"
	"github.com/goliatone/go-account-settings/gateway"
	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/pkg/activity"
	"github.com/goliatone/go-account-settings/pkg/apierror"
	"github.com/goliatone/go-account-settings/pkg/state"
	"github.com/goliatone/go-account-settings/pkg/state/sitelanguage"
	"github.com/goliatone/go-account-settings/translate"
)

type fetcher struct {
	Deps
}

// fetchSettings loads the gateway settings and, when enabled, the
// demographics record in parallel. A selected country also loads its time
// zones.
func (f fetcher) fetchSettings(ctx context.Context, _ FetchSettings) error {
	logger := logging.FromContext(ctx, f.logger())
	f.Store.Dispatch(state.FetchBegin{})

	user, err := f.currentUser(ctx)
	if err != nil {
		f.Store.Dispatch(state.FetchFailure{Message: err.Error()})
		return err
	}

	var (
		settings *gateway.Settings
		demo     translate.Unified
		group    errgroup.Group
	)
	group.Go(func() error {
		var err error
		settings, err = f.Gateway.FetchAllSettings(ctx, user.Username, user.Roles)
		return err
	})
	if f.Demographics != nil {
		group.Go(func() error {
			demo = f.readDemographics(ctx, user)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Warn("orchestrate.fetch.failed", "username", user.Username, "kind", apierror.KindOf(err), "error", err)
		f.Store.Dispatch(state.FetchFailure{Message: failureMessage(err)})
		return err
	}

	values := settings.Values.Clone()
	if values == nil {
		values = translate.Unified{}
	}
	for k, v := range demo {
		values[k] = v
	}

	f.Store.Dispatch(state.FetchSuccess{
		Values:             values,
		AuthProviders:      settings.AuthProviders,
		ProfileDataManager: settings.ProfileDataManager,
		TimeZones:          settings.TimeZones,
	})

	if country := stringValue(values, translate.FieldCountry); country != "" {
		f.loadCountryTimeZones(ctx, country)
	}

	f.emit(ctx, activity.BuildSettingsFetchedEvent, user, activity.SettingsEventInput{})
	return nil
}

// readDemographics never fails the fetch. A create failure surfaces as the
// demographicsError value.
func (f fetcher) readDemographics(ctx context.Context, user User) translate.Unified {
	logger := logging.FromContext(ctx, f.logger())
	if user.UserID == 0 {
		logger.Debug("orchestrate.demographics.skipped", "reason", "no user id")
		return nil
	}
	values, err := f.Demographics.Read(ctx, user.UserID)
	if err != nil {
		logger.Warn("orchestrate.demographics.failed", "user_id", user.UserID, "error", err)
		kind := string(apierror.KindOf(err))
		if messages := apierror.FieldErrorsOf(err)[demographics.FieldDemographicsError]; len(messages) > 0 {
			kind = messages[0]
		}
		return translate.Unified{demographics.FieldDemographicsError: kind}
	}
	return values
}

// loadCountryTimeZones is a best effort follow-up; failures are logged.
func (f fetcher) loadCountryTimeZones(ctx context.Context, country string) {
	zones, err := f.Gateway.FetchCountryTimeZones(ctx, country)
	if err != nil {
		logging.FromContext(ctx, f.logger()).Warn("orchestrate.time_zones.failed", "country", country, "error", err)
		return
	}
	f.Store.Dispatch(state.CountryTimeZonesLoaded{TimeZones: zones})
}

func (f fetcher) fetchTimeZones(ctx context.Context, msg FetchTimeZones) error {
	zones, err := f.Gateway.FetchCountryTimeZones(ctx, msg.Country)
	if err != nil {
		return err
	}
	f.Store.Dispatch(state.CountryTimeZonesLoaded{TimeZones: zones})
	return nil
}

func (f fetcher) fetchSiteLanguages(_ context.Context, _ FetchSiteLanguages) error {
	f.Store.Dispatch(sitelanguage.FetchBegin{})
	configured := f.Gateway.SiteLanguages()
	languages := make([]sitelanguage.Language, 0, len(configured))
	for _, lang := range configured {
		languages = append(languages, sitelanguage.Language{Code: lang.Code, Name: lang.Name})
	}
	f.Store.Dispatch(sitelanguage.FetchSuccess{Languages: languages})
	return nil
}

func stringValue(values translate.Unified, field string) string {
	s, _ := values[field].(string)
	return s
}

func failureMessage(err error) string {
	if apiErr, ok := asAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
