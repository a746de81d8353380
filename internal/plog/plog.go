// Package plog is the sampler's structured logging seam.
//
// It keeps the teacher's package-level, RWMutex-guarded global logger
// pattern (github.com/joeycumines/go-eventloop eventloop/logging.go's
// globalLogger + SetStructuredLogger/getGlobalLogger), but backs it
// with a real sink — github.com/rs/zerolog — instead of the teacher's
// hand-rolled logPretty/logJSON formatters. Every call site in this
// module only ever goes through Debug/Info/Warn/Error; nothing in the
// sampler hot path logs (signal/Mach handlers must stay
// allocation-free), so this package exists purely for the control
// plane: Start/Stop, resolver drain, registry invalidation.
package plog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var global struct {
	sync.RWMutex
	logger zerolog.Logger
}

func init() {
	global.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
}

// SetLogger replaces the package-level logger.
func SetLogger(l zerolog.Logger) {
	global.Lock()
	defer global.Unlock()
	global.logger = l
}

// Get returns the current package-level logger.
func Get() zerolog.Logger {
	global.RLock()
	defer global.RUnlock()
	return global.logger
}

// SetLevel adjusts the minimum level of the package-level logger.
func SetLevel(level zerolog.Level) {
	global.Lock()
	defer global.Unlock()
	global.logger = global.logger.Level(level)
}

// Category scopes a logger to one of the sampler's subsystems, the
// way the teacher's LogEntry.Category field scoped entries to
// "timer"/"promise"/"microtask"/"poll".
func Category(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

const (
	CategorySampler     = "sampler"
	CategoryResolver    = "resolver"
	CategoryRegistry    = "coderegistry"
	CategoryRing        = "ring"
	CategoryFacade      = "spprof"
	CategoryNativeUnwind = "nativeunwind"
)
