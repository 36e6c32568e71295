package compiler

import "github.com/rs/zerolog"

// Option configures a Compiler.
type Option func(*config)

type config struct {
	name     string
	filename string
	source   string
	verify   bool
	logger   zerolog.Logger
}

func defaultConfig() config {
	return config{
		name:   "__main__",
		logger: zerolog.Nop(),
	}
}

// WithName sets the name recorded on the compiled unit.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

// WithFilename sets the source filename recorded on the compiled unit.
func WithFilename(filename string) Option {
	return func(cfg *config) {
		cfg.filename = filename
	}
}

// WithSource records the source text the unit was compiled from.
func WithSource(source string) Option {
	return func(cfg *config) {
		cfg.source = source
	}
}

// WithVerify runs the stack-depth verifier on every finalized unit. A
// verifier failure is reported as an internal error.
func WithVerify(enabled bool) Option {
	return func(cfg *config) {
		cfg.verify = enabled
	}
}

// WithLogger sets the logger used for debug events. The default discards
// everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
