package orchestrate

import (
	"context"

	"github.com/goliatone/go-account-settings/gateway"
	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/pkg/activity"
	"github.com/goliatone/go-account-settings/pkg/state"
	"github.com/goliatone/go-account-settings/pkg/state/deleteaccount"
	"github.com/goliatone/go-account-settings/pkg/state/resetpassword"
)

type flows struct {
	Deps
}

func (f flows) disconnectAuth(ctx context.Context, msg DisconnectAuth) error {
	f.Store.Dispatch(state.DisconnectBegin{ProviderID: msg.ProviderID})

	providers, err := f.Gateway.DisconnectAuthProvider(ctx, msg.URL, msg.ProviderID)
	if err != nil {
		f.Store.Dispatch(state.DisconnectFailure{ProviderID: msg.ProviderID, Message: failureMessage(err)})
		return err
	}
	f.Store.Dispatch(state.DisconnectSuccess{ProviderID: msg.ProviderID, AuthProviders: providers})

	user, _ := f.currentUser(ctx)
	f.emit(ctx, activity.BuildAuthDisconnectedEvent, user, activity.SettingsEventInput{ProviderID: msg.ProviderID})
	return nil
}

func (f flows) confirmDeleteAccount(context.Context, ConfirmDeleteAccount) error {
	f.Store.Dispatch(deleteaccount.Confirm{})
	return nil
}

func (f flows) cancelDeleteAccount(context.Context, CancelDeleteAccount) error {
	f.Store.Dispatch(deleteaccount.Cancel{})
	return nil
}

// deleteAccount reports password problems through the deletion state only.
// Server failures are also returned.
func (f flows) deleteAccount(ctx context.Context, msg DeleteAccount) error {
	f.Store.Dispatch(deleteaccount.Begin{})

	if err := f.Gateway.DeleteAccount(ctx, msg.Password); err != nil {
		reason := gateway.DeleteAccountReason(err)
		f.Store.Dispatch(deleteaccount.Failure{Reason: reason})
		if reason == gateway.DeleteReasonServer {
			return err
		}
		logging.FromContext(ctx, f.logger()).Info("orchestrate.delete_account.rejected", "reason", reason)
		return nil
	}
	f.Store.Dispatch(deleteaccount.Success{})

	user, _ := f.currentUser(ctx)
	f.emit(ctx, activity.BuildAccountDeletedEvent, user, activity.SettingsEventInput{})
	return nil
}

func (f flows) resetPassword(ctx context.Context, msg ResetPassword) error {
	f.Store.Dispatch(resetpassword.Begin{})

	if err := f.Gateway.RequestPasswordReset(ctx, msg.Email); err != nil {
		f.Store.Dispatch(resetpassword.Failure{Message: failureMessage(err)})
		return err
	}
	f.Store.Dispatch(resetpassword.Success{})

	user, _ := f.currentUser(ctx)
	f.emit(ctx, activity.BuildPasswordResetRequestedEvent, user, activity.SettingsEventInput{
		Recipients: []string{msg.Email},
	})
	return nil
}
