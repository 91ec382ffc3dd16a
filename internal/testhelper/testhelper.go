// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package testhelper

import (
	"net/http"
	"os"
	"testing"
)

// EnvIntegrationTests enables tests that talk to real third-party services.
const EnvIntegrationTests = "PERFORM_INTEGRATION_TESTS"

// MockRoundTripper is a http.RoundTripper that answers every request with Fn.
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless integration tests are enabled.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvIntegrationTests) != "true" {
		t.Skipf("skipping integration test, set %s=true to enable", EnvIntegrationTests)
	}
}
