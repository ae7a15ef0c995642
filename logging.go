package microbiogeo

import (
	"os"

	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("microbiogeo")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{module} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// SetupLogging installs BackendFormatter for every logger in the process. If
// quiet is set, only warnings and errors are emitted.
func SetupLogging(quiet bool) {
	leveled := logging.AddModuleLevel(BackendFormatter)
	if quiet {
		leveled.SetLevel(logging.WARNING, "")
	} else {
		leveled.SetLevel(logging.INFO, "")
	}
	logging.SetBackend(leveled)
}
