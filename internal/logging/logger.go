package logging

import (
	"github.com/pterm/pterm"
)

// Logger is the logging capability injected into the pipeline. Implementations
// must be safe for use from a single goroutine; the pipeline is sequential and
// never logs concurrently.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Terminal returns a Logger that writes through pterm. All lines pass through
// Mask so a DSN or secret interpolated into a message is never printed raw.
func Terminal() Logger { return terminalLogger{} }

type terminalLogger struct{}

func (terminalLogger) Infof(format string, args ...any) {
	pterm.Info.Println(Mask(pterm.Sprintf(format, args...)))
}

func (terminalLogger) Errorf(format string, args ...any) {
	pterm.Error.Println(Mask(pterm.Sprintf(format, args...)))
}

// Nop returns a Logger that discards everything. Used in tests and by callers
// that embed the pipeline and do their own reporting.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
