package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedProbe(captured **Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func doAuthed(t *testing.T, h http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestAuthenticateUserRejectsAdminToken(t *testing.T) {
	mgr := newTestJWTManager()
	adminToken, err := mgr.GenerateToken(RealmAdmin, uuid.New(), "admin@test.com", "admin")
	require.NoError(t, err)

	var claims *Claims
	h := AuthenticateUser(mgr)(protectedProbe(&claims))

	w := doAuthed(t, h, adminToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, claims)
}

func TestAuthenticateAcceptsBothRealms(t *testing.T) {
	mgr := newTestJWTManager()
	userID := uuid.New()
	adminID := uuid.New()

	userToken, err := mgr.GenerateToken(RealmUser, userID, "trader@test.com", "")
	require.NoError(t, err)
	adminToken, err := mgr.GenerateToken(RealmAdmin, adminID, "admin@test.com", "admin")
	require.NoError(t, err)

	var claims *Claims
	h := Authenticate(mgr)(protectedProbe(&claims))

	w := doAuthed(t, h, userToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, claims)
	assert.Equal(t, RealmUser, claims.Realm)
	assert.Equal(t, userID.String(), claims.Subject)

	claims = nil
	w = doAuthed(t, h, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, claims)
	assert.Equal(t, RealmAdmin, claims.Realm)
	assert.Equal(t, "admin", claims.Role)
}

func TestAuthenticateStillRejectsBadTokens(t *testing.T) {
	mgr := newTestJWTManager()

	var claims *Claims
	h := Authenticate(mgr)(protectedProbe(&claims))

	assert.Equal(t, http.StatusUnauthorized, doAuthed(t, h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doAuthed(t, h, "garbage").Code)

	other := NewJWTManager("different-secret", time.Hour, time.Hour)
	forged, err := other.GenerateToken(RealmUser, uuid.New(), "trader@test.com", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doAuthed(t, h, forged).Code)
	assert.Nil(t, claims)
}
