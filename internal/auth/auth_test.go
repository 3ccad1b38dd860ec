package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsanano/food-market/internal/model"
)

type fakeUsers map[int64]*model.User

func (f fakeUsers) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func newLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue(&model.User{ID: 42, Role: model.RoleVendor})
	require.NoError(t, err)

	id, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.Issue(&model.User{ID: 1})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsForeignSecret(t *testing.T) {
	token, err := NewTokenIssuer("other", time.Hour).Issue(&model.User{ID: 1})
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("pa55word")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "pa55word"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestResolver_Middleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	alice := &model.User{ID: 1, Role: model.RoleCustomer, Status: model.StatusActive}
	resolver := NewResolver(issuer, fakeUsers{1: alice}, newLogger())

	validToken, err := issuer.Issue(alice)
	require.NoError(t, err)
	orphanToken, err := issuer.Issue(&model.User{ID: 99})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   *model.User
	}{
		{"no header", "", nil},
		{"malformed header", "Token " + validToken, nil},
		{"garbage token", "Bearer not-a-jwt", nil},
		{"unknown user", "Bearer " + orphanToken, nil},
		{"valid", "Bearer " + validToken, alice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *model.User
			h := resolver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = Principal(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_WebsocketQueryToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	alice := &model.User{ID: 1}
	resolver := NewResolver(issuer, fakeUsers{1: alice}, newLogger())

	token, err := issuer.Issue(alice)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/notifications/stream?access_token="+token, nil)
	assert.Nil(t, resolver.Resolve(req))

	req.Header.Set("Upgrade", "websocket")
	assert.Equal(t, alice, resolver.Resolve(req))
}

func TestFromContext_Empty(t *testing.T) {
	rc := FromContext(context.Background())
	require.NotNil(t, rc)
	assert.Nil(t, rc.Principal)
	assert.Nil(t, VendorProfile(context.Background()))
}
