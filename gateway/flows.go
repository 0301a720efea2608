package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-account-settings/internal/logging"
	"github.com/goliatone/go-account-settings/internal/transport"
	"github.com/goliatone/go-account-settings/pkg/apierror"
	"github.com/goliatone/go-account-settings/translate"
)

// PreferenceSiteLanguage is the preference key holding the interface language.
const PreferenceSiteLanguage = "pref-lang"

// ProviderError tags a disconnect failure with the provider it belongs to.
type ProviderError struct {
	ProviderID string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("gateway: disconnect %s: %v", e.ProviderID, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// DisconnectAuthProvider posts to the server supplied disconnect URL and
// then re-reads the provider list.
func (g *Gateway) DisconnectAuthProvider(ctx context.Context, disconnectURL, providerID string) ([]translate.AuthProvider, error) {
	logger := logging.FromContext(ctx, g.logger)
	if _, err := g.client.PostJSON(ctx, disconnectURL, nil); err != nil {
		logger.Warn("gateway.disconnect.failed", "provider", providerID, "error", err)
		return nil, &ProviderError{ProviderID: providerID, Err: err}
	}
	providers, err := g.FetchThirdPartyAuthProviders(ctx)
	if err != nil {
		return nil, &ProviderError{ProviderID: providerID, Err: err}
	}
	logger.Info("gateway.disconnect.success", "provider", providerID)
	return providers, nil
}

// Reasons reported when account deletion fails.
const (
	DeleteReasonEmptyPassword   = "empty-password"
	DeleteReasonInvalidPassword = "invalid-password"
	DeleteReasonServer          = "server"
)

// DeleteAccountError carries the reason an account deletion failed.
type DeleteAccountError struct {
	Reason string
	Err    error
}

func (e *DeleteAccountError) Error() string {
	if e.Err == nil {
		return "gateway: delete account: " + e.Reason
	}
	return fmt.Sprintf("gateway: delete account: %s: %v", e.Reason, e.Err)
}

func (e *DeleteAccountError) Unwrap() error {
	return e.Err
}

// DeleteAccountReason extracts the failure reason from err, defaulting to
// the server reason.
func DeleteAccountReason(err error) string {
	var deleteErr *DeleteAccountError
	if errors.As(err, &deleteErr) {
		return deleteErr.Reason
	}
	return DeleteReasonServer
}

// DeleteAccount asks the server to deactivate the account, confirming with
// password. An empty password is rejected without a request.
func (g *Gateway) DeleteAccount(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		return &DeleteAccountError{Reason: DeleteReasonEmptyPassword}
	}
	_, err := g.client.PostForm(ctx, g.cfg.DeleteAccountURL, url.Values{"password": {password}})
	if err == nil {
		return nil
	}

	reason := DeleteReasonServer
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusForbidden:
			reason = DeleteReasonInvalidPassword
		case http.StatusBadRequest:
			reason = DeleteReasonEmptyPassword
		}
	}
	logging.FromContext(ctx, g.logger).Warn("gateway.delete_account.failed", "reason", reason, "error", err)
	return &DeleteAccountError{Reason: reason, Err: err}
}

// RequestPasswordReset asks the server to email a reset link.
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := g.client.PostForm(ctx, g.cfg.PasswordResetURL, url.Values{"email": {email}}); err != nil {
		return fmt.Errorf("gateway: request password reset: %w", err)
	}
	return nil
}

// SetSiteLanguage stores the language preference and then switches the LMS
// session language.
func (g *Gateway) SetSiteLanguage(ctx context.Context, username, code string) error {
	if _, err := g.PatchPreferences(ctx, username, translate.Unified{PreferenceSiteLanguage: code}); err != nil {
		return fmt.Errorf("gateway: set site language: %w", err)
	}
	_, err := g.client.PostForm(ctx, transport.JoinURL(g.cfg.LMSBaseURL, setLanguagePath),
		url.Values{"language": {code}},
		transport.WithRequestHeader("X-Requested-With", "XMLHttpRequest"))
	if err != nil {
		return fmt.Errorf("gateway: set site language: %w", err)
	}
	return nil
}
