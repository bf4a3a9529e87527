package tenant

import (
	"context"
	"strings"

	"github.com/blnkfinance/tenantquery/internal/apierror"
)

// Resolver yields the application id of the current caller. The id is
// opaque and is established by the authentication layer.
type Resolver interface {
	AppID(ctx context.Context) (string, error)
}

type contextKey struct{}

// WithAppID returns a context carrying appID.
func WithAppID(ctx context.Context, appID string) context.Context {
	return context.WithValue(ctx, contextKey{}, appID)
}

// FromContext returns the application id stored on ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	appID, ok := ctx.Value(contextKey{}).(string)
	return appID, ok && appID != ""
}

// ContextResolver reads the application id placed on the context by WithAppID.
type ContextResolver struct{}

func (ContextResolver) AppID(ctx context.Context) (string, error) {
	appID, ok := FromContext(ctx)
	if !ok {
		return "", apierror.NewAPIError(apierror.ErrUnauthorized, "application id is required", nil)
	}
	return appID, nil
}

// StaticResolver always yields the same application id. Used by the CLI.
type StaticResolver string

func (s StaticResolver) AppID(context.Context) (string, error) {
	appID := strings.TrimSpace(string(s))
	if appID == "" {
		return "", apierror.NewAPIError(apierror.ErrUnauthorized, "application id is required", nil)
	}
	return appID, nil
}
