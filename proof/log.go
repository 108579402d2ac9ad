package proof

import (
	"github.com/sirupsen/logrus"
)

// logger emits the orchestrator's stage-level progress logs. The default
// writes through logrus's standard logger; embedders can redirect it with
// SetLogger (e.g. to a JSON-formatted logger or to a silenced one in
// benchmarks).
var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger redirects the package's pipeline logging. A nil l is ignored.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		logger = l
	}
}
