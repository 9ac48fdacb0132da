// Package testutil provides testing utilities for the Cadenza playback core.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks should be deferred at the start of tests that spawn goroutines.
// It verifies that no goroutines were leaked during the test. Resources the
// test opens must be closed by a defer placed after this one, not by
// t.Cleanup, so the closes happen first.
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, opts...)
}

// VerifyTestMain wraps a package's TestMain so leaked goroutines fail the
// whole run. Unlike VerifyNoLeaks it runs after t.Cleanup functions, so it
// suits packages whose helpers register closes via t.Cleanup.
func VerifyTestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
