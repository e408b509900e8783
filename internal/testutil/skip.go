package testutil

import (
	"os"
	"testing"
)

// SkipIfNoNetwork skips the test if WIREWAVE_TEST_SKIP_NETWORK is set.
// Use this for tests that bind a loopback listener, which may not be
// available in sandboxed environments.
func SkipIfNoNetwork(t testing.TB) {
	t.Helper()
	if os.Getenv("WIREWAVE_TEST_SKIP_NETWORK") != "" {
		t.Skip("skipping network test: WIREWAVE_TEST_SKIP_NETWORK is set")
	}
}
