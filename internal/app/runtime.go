package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "PLATFORM_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether startup side effects (registry seeding, cron
// registration) should be skipped so a harness can drive them directly.
// The PLATFORM_TEST_MODE flag is read once and cached.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the flag after the environment changed.
func RefreshTestMode() {
	detectTestMode()
}
