// Package auth resolves the calling principal from a bearer token and carries
// it through the request as a typed context value.
package auth

import (
	"context"

	"fsanano/food-market/internal/model"
)

// RequestContext holds what was resolved about the caller of one request.
type RequestContext struct {
	Principal     *model.User
	VendorProfile *model.VendorProfile
}

type requestContextKey struct{}

// NewContext returns ctx carrying rc.
func NewContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the request context, or an empty one if none was attached.
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestContextKey{}).(*RequestContext); ok && rc != nil {
		return rc
	}
	return &RequestContext{}
}

// Principal returns the resolved user or nil.
func Principal(ctx context.Context) *model.User {
	return FromContext(ctx).Principal
}

// VendorProfile returns the resolved vendor profile or nil.
func VendorProfile(ctx context.Context) *model.VendorProfile {
	return FromContext(ctx).VendorProfile
}
