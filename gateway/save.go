package gateway

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/pkg/apierror"
	"github.com/goliatone/go-account-settings/translate"
)

// PreferenceFields are the unified fields owned by the preferences resource.
var PreferenceFields = []string{translate.FieldTimeZone}

// Partition splits changed fields into the preferences and account subsets.
func Partition(changed translate.Unified) (prefs, account translate.Unified) {
	return changed.Pick(PreferenceFields...), changed.Omit(PreferenceFields...)
}

// SaveSettings persists changed fields. Each non-empty partition is patched
// concurrently; an empty partition is never sent. On success the partial
// results are layered with preferences stronger. When any patch fails the
// save fails as a whole with a single *apierror.Error whose field errors
// cover only the failed partitions. Successful partitions are not rolled
// back.
func (g *Gateway) SaveSettings(ctx context.Context, username string, changed translate.Unified) (translate.Unified, error) {
	logger := logging.FromContext(ctx, g.logger)
	prefs, account := Partition(changed)

	var (
		accountResult translate.Unified
		prefsResult   translate.Unified
		accountErr    error
		prefsErr      error
		group         errgroup.Group
	)

	if len(account) > 0 {
		group.Go(func() error {
			accountResult, accountErr = g.PatchAccount(ctx, username, account)
			return accountErr
		})
	}
	if len(prefs) > 0 {
		group.Go(func() error {
			prefsResult, prefsErr = g.PatchPreferences(ctx, username, prefs)
			return prefsErr
		})
	}

	if err := group.Wait(); err != nil {
		combined := combineSaveErrors(accountErr, prefsErr)
		logger.Warn("gateway.save.failed", "username", username, "kind", combined.Kind, "fields", combined.FieldErrors.Fields())
		return nil, combined
	}

	merged, err := mergeResources(accountResult, prefsResult)
	if err != nil {
		return nil, err
	}
	logger.Debug("gateway.save.success", "username", username, "account_fields", len(account), "preference_fields", len(prefs))
	return merged.Value, nil
}

// PatchAccount merge-patches the account resource and returns the updated
// account in unified form.
func (g *Gateway) PatchAccount(ctx context.Context, username string, commit translate.Unified) (translate.Unified, error) {
	resp, err := g.client.PatchMerge(ctx, g.accountURL(username), translate.AccountToWire(commit))
	if err != nil {
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) && apiErr.HasFieldErrors() {
			err = apiErr.WithFieldErrors(translate.AccountFieldErrors(apiErr.FieldErrors))
		}
		return nil, fmt.Errorf("gateway: patch account: %w", err)
	}
	var wire map[string]any
	if err := resp.Decode(&wire); err != nil {
		return nil, fmt.Errorf("gateway: patch account: %w", err)
	}
	if wire == nil {
		return commit.Clone(), nil
	}
	return translate.AccountToUnified(wire), nil
}

// PatchPreferences merge-patches the preferences resource. The resource
// replies without a body, so the committed values are returned.
func (g *Gateway) PatchPreferences(ctx context.Context, username string, commit translate.Unified) (translate.Unified, error) {
	if _, err := g.client.PatchMerge(ctx, g.preferencesURL(username), translate.PreferencesToWire(commit)); err != nil {
		return nil, fmt.Errorf("gateway: patch preferences: %w", err)
	}
	return commit.Clone(), nil
}

// combineSaveErrors folds partition failures into one error. The result is
// a validation error when every failure carries field errors; otherwise it
// takes the kind of the first failure without them, in request order.
func combineSaveErrors(errs ...error) *apierror.Error {
	var (
		fields   apierror.FieldErrors
		primary  *apierror.Error
		failures []error
	)
	for _, err := range errs {
		if err == nil {
			continue
		}
		failures = append(failures, err)

		var apiErr *apierror.Error
		if !errors.As(err, &apiErr) {
			apiErr = apierror.New(apierror.KindServer, 0, err.Error(), err)
		}
		if apiErr.HasFieldErrors() {
			fields = fields.Merge(apiErr.FieldErrors)
			continue
		}
		if primary == nil {
			primary = apiErr
		}
	}

	cause := errors.Join(failures...)
	if primary == nil {
		return apierror.New(apierror.KindValidation, 0, "save rejected", cause).WithFieldErrors(fields)
	}
	combined := apierror.New(primary.Kind, primary.Status, primary.Message, cause)
	if len(fields) > 0 {
		combined = combined.WithFieldErrors(fields)
	}
	return combined
}
