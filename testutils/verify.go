// Package testutils holds helpers shared by this module's tests.
package testutils

import (
	"go.uber.org/goleak"
)

// VerifyTestMain runs the package's tests and fails if any goroutine outlives them. Use it from
// TestMain in packages that start workers.
func VerifyTestMain(m goleak.TestingM) {
	goleak.VerifyTestMain(m)
}
