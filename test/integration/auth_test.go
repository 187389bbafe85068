//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/tradevault/platform/test/integration/testutil"
)

func TestRegisterAndLogin(t *testing.T) {
	env := testutil.NewTestEnv(t)

	token, userID := env.RegisterUser("trader@test.com", "password123")
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	loginToken := env.LoginUser("trader@test.com", "password123")
	if loginToken == "" {
		t.Fatal("expected non-empty login token")
	}

	resp := env.AuthGET("/security/devices", loginToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	_ = userID
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := testutil.NewTestEnv(t)

	env.RegisterUser("dup@test.com", "password123")

	resp := env.POST("/auth/register", map[string]string{
		"email":    "dup@test.com",
		"password": "password123",
	}, "")
	testutil.AssertStatus(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, "CONFLICT")
}

func TestLoginWrongPassword(t *testing.T) {
	env := testutil.NewTestEnv(t)

	env.RegisterUser("wrongpw@test.com", "password123")

	resp := env.POST("/auth/login", map[string]string{
		"email":    "wrongpw@test.com",
		"password": "not-the-password",
	}, "")
	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, resp, "UNAUTHORIZED")
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	env := testutil.NewTestEnv(t)

	env.RegisterUser("lockout@test.com", "password123")

	for i := 0; i < 5; i++ {
		resp := env.POST("/auth/login", map[string]string{
			"email":    "lockout@test.com",
			"password": fmt.Sprintf("wrong-%d", i),
		}, "")
		testutil.AssertStatus(t, resp, http.StatusUnauthorized)
		resp.Body.Close()
	}

	// Even the correct password is refused while locked.
	resp := env.POST("/auth/login", map[string]string{
		"email":    "lockout@test.com",
		"password": "password123",
	}, "")
	testutil.AssertStatus(t, resp, http.StatusTooManyRequests)
	testutil.AssertErrorCode(t, resp, "ACCOUNT_LOCKED")
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/security/anomalies")
	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestUserTokenRejectedOnAdminRoutes(t *testing.T) {
	env := testutil.NewTestEnv(t)

	token, _ := env.RegisterUser("notadmin@test.com", "password123")

	resp := env.AuthGET("/admin/elevated/status", token)
	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}
