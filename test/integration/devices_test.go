//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/test/integration/testutil"
)

func TestExplicitTrustIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("devices@test.com", "password123")

	body := map[string]string{
		"fingerprint":  "aabbccddeeff0011",
		"display_name": "Work laptop",
	}

	resp := env.POST("/security/devices/trust", body, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var first domain.TrustedDevice
	testutil.DecodeJSON(t, resp, &first)
	if !first.IsTrusted {
		t.Fatal("expected device to be trusted")
	}

	// Trusting again returns the same row.
	resp = env.POST("/security/devices/trust", body, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var second domain.TrustedDevice
	testutil.DecodeJSON(t, resp, &second)
	if first.ID != second.ID {
		t.Errorf("expected idempotent trust: %s vs %s", first.ID, second.ID)
	}
}

func TestUntrustRequiresFreshNonce(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("untrust@test.com", "password123")

	resp := env.POST("/security/devices/trust", map[string]string{
		"fingerprint": "1122334455667788",
	}, token)
	var device domain.TrustedDevice
	testutil.DecodeJSON(t, resp, &device)

	// Without a valid nonce the untrust is rejected.
	resp = env.POST("/security/devices/"+device.ID.String()+"/untrust",
		map[string]string{"nonce": uuid.New().String()}, token)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "INVALID_TOKEN")

	nonce := env.IssueNonce(token)
	resp = env.POST("/security/devices/"+device.ID.String()+"/untrust",
		map[string]string{"nonce": nonce}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Device list reflects the change.
	listResp := env.AuthGET("/security/devices", token)
	var list struct {
		Devices []domain.TrustedDevice `json:"devices"`
	}
	testutil.DecodeJSON(t, listResp, &list)
	for _, d := range list.Devices {
		if d.ID == device.ID && d.IsTrusted {
			t.Error("device still trusted after untrust")
		}
	}
}

func TestNonceBoundToUser(t *testing.T) {
	env := testutil.NewTestEnv(t)
	tokenA, _ := env.RegisterUser("usera@test.com", "password123")
	tokenB, _ := env.RegisterUser("userb@test.com", "password123")

	resp := env.POST("/security/devices/trust", map[string]string{
		"fingerprint": "99aabbccddeeff00",
	}, tokenA)
	var device domain.TrustedDevice
	testutil.DecodeJSON(t, resp, &device)

	// A nonce issued to B cannot authorize A's action.
	nonceB := env.IssueNonce(tokenB)
	resp = env.POST("/security/devices/"+device.ID.String()+"/untrust",
		map[string]string{"nonce": nonceB}, tokenA)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "INVALID_TOKEN")
}
