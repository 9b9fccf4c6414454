package plugin

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies no health-check goroutine outlives its test, since
// StartHealthChecks spawns a background loop that must be stopped by
// StopHealthChecks (UnloadAllPlugins does not stop it).
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
