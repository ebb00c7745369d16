package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("BIZOS_TEST_MODE", "1")
		if os.Getenv("ACCESS_MATRIX_PATH") != "" {
			_ = os.Unsetenv("ACCESS_MATRIX_PATH")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
