package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/model"
)

type VendorProfileFinder interface {
	// GetVendorProfileByUserID returns an *apperr.NotFoundError when the user has no profile.
	GetVendorProfileByUserID(ctx context.Context, userID int64) (*model.VendorProfile, error)
}

// ErrorWriter renders a failure as the error envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type Gate struct {
	vendors VendorProfileFinder
	onError ErrorWriter
}

func New(vendors VendorProfileFinder, onError ErrorWriter) *Gate {
	return &Gate{vendors: vendors, onError: onError}
}

// Require returns middleware that lets a request through only if chain allows it.
// The principal must have been attached by auth.Resolver beforehand.
func (g *Gate) Require(chain Chain) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := auth.FromContext(r.Context())
			subject := Subject{Principal: rc.Principal, VendorProfile: rc.VendorProfile}

			if chain.NeedsVendorProfile() && subject.VendorProfile == nil && isVendor(subject.Principal) {
				profile, err := g.loadVendorProfile(r.Context(), subject.Principal.ID)
				if err != nil {
					g.onError(w, r, err)
					return
				}
				subject.VendorProfile = profile
			}

			if d := chain.Evaluate(subject); !d.Allowed {
				g.onError(w, r, d.Err())
				return
			}

			enriched := &auth.RequestContext{Principal: subject.Principal, VendorProfile: subject.VendorProfile}
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), enriched)))
		})
	}
}

func (g *Gate) loadVendorProfile(ctx context.Context, userID int64) (*model.VendorProfile, error) {
	profile, err := g.vendors.GetVendorProfileByUserID(ctx, userID)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load vendor profile: %w", err)
	}
	return profile, nil
}

func isVendor(u *model.User) bool {
	return u != nil && u.Role == model.RoleVendor
}
