package engine

import (
	"io"
	"os"
	"testing"

	"github.com/Strum355/log"
)

// The engine logs through the package-global Strum355 logger, which panics
// unless initialized; cmd/root.go does this at startup, tests do it here.
func TestMain(m *testing.M) {
	log.InitSimpleLogger(&log.Config{Output: io.Discard})
	os.Exit(m.Run())
}
