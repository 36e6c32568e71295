package driver

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/sapphire-lang/sapphire/cache"
	"github.com/sapphire-lang/sapphire/compiler"
)

// Policy decides what a batch does when a unit fails.
type Policy int

const (
	// Skip compiles every unit and reports all failures together.
	Skip Policy = iota

	// Abort stops starting new units after the first failure.
	Abort
)

func (p Policy) String() string {
	switch p {
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	}
	return "unknown"
}

// ParsePolicy converts "skip" or "abort" to a Policy.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "skip":
		return Skip, true
	case "abort":
		return Abort, true
	}
	return Skip, false
}

// Option configures a Driver.
type Option func(*config)

type config struct {
	concurrency int
	policy      Policy
	verify      bool
	cache       *cache.Cache
	logger      zerolog.Logger
	compilerOps []compiler.Option
}

func defaultConfig() config {
	return config{
		concurrency: runtime.GOMAXPROCS(0),
		policy:      Skip,
		logger:      zerolog.Nop(),
	}
}

// WithConcurrency limits how many units compile at once. Values below one
// mean one.
func WithConcurrency(n int) Option {
	return func(cfg *config) {
		if n < 1 {
			n = 1
		}
		cfg.concurrency = n
	}
}

// WithPolicy sets the failure policy. The default is Skip.
func WithPolicy(p Policy) Option {
	return func(cfg *config) {
		cfg.policy = p
	}
}

// WithVerify runs the stack verifier on every unit.
func WithVerify(enabled bool) Option {
	return func(cfg *config) {
		cfg.verify = enabled
	}
}

// WithCache serves units from c and stores new results in it.
func WithCache(c *cache.Cache) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// WithLogger sets the logger for batch and unit events.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithCompilerOptions adds options passed to every unit's compiler. Name,
// filename, source, verify and logger are always set by the driver.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(cfg *config) {
		cfg.compilerOps = append(cfg.compilerOps, opts...)
	}
}
