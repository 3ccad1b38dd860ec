package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"fsanano/food-market/internal/model"
)

type UserFinder interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Resolver attaches the principal named by the bearer token to each request.
// It never rejects: a missing or unusable token leaves the principal empty and
// the gate decides what that means for the route.
type Resolver struct {
	tokens *TokenIssuer
	users  UserFinder
	log    logrus.FieldLogger
}

func NewResolver(tokens *TokenIssuer, users UserFinder, log logrus.FieldLogger) *Resolver {
	return &Resolver{tokens: tokens, users: users, log: log}
}

func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := &RequestContext{Principal: res.Resolve(r)}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), rc)))
	})
}

// Resolve returns the authenticated user for r, or nil.
func (res *Resolver) Resolve(r *http.Request) *model.User {
	token := bearerToken(r)
	if token == "" {
		return nil
	}

	userID, err := res.tokens.Parse(token)
	if err != nil {
		res.log.WithError(err).Debug("bearer token rejected")
		return nil
	}

	user, err := res.users.GetUserByID(r.Context(), userID)
	if err != nil {
		res.log.WithError(err).WithField("user_id", userID).Debug("token user not resolved")
		return nil
	}
	return user
}

func bearerToken(r *http.Request) string {
	// Browsers cannot set headers on websocket upgrades.
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token
		}
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
