package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Log output is dropped unless the test binary runs verbose.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false" {
			return
		}
	}
	logrus.StandardLogger().Out = io.Discard
}

// CaptureLogs records every entry written to the standard logger until
// reset is called.
func CaptureLogs() (hook *test.Hook, reset func()) {
	logger := logrus.StandardLogger()
	original := logger.ReplaceHooks(make(logrus.LevelHooks))
	hook = test.NewLocal(logger)
	return hook, func() {
		logger.ReplaceHooks(original)
	}
}
