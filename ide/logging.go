package ide

import (
	"io"

	"github.com/sirupsen/logrus"
)

// log is the package-level informational logger (§7: missing start points,
// summary reuse, unbalanced returns are logged, not treated as errors). A
// library must not decide how its host process reports diagnostics, so
// output defaults to io.Discard; embedding applications redirect it with
// SetOutput/SetLevel via Logger().
var log = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Logger returns the package's logrus logger so an embedding application
// can configure its output, level, or formatter.
func Logger() *logrus.Logger { return log }
