// Package driver compiles batches of independent units concurrently.
//
// Every unit gets its own compiler and builder, so units share nothing
// while compiling. Results come back in input order whatever order the
// units finish in.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/bytecode"
	"github.com/sapphire-lang/sapphire/compiler"
	"golang.org/x/sync/errgroup"
)

// Unit is one compilation unit. When Node is nil, Source is parsed as an
// s-expression.
type Unit struct {
	Name     string
	Filename string
	Source   string
	Node     ast.Node
}

// Result is the outcome for one unit. Exactly one of Code and Err is set,
// unless the batch aborted before the unit started, in which case both are
// nil and Skipped is true.
type Result struct {
	Unit    string
	Code    *bytecode.Code
	Err     error
	Cached  bool
	Skipped bool
}

// UnitError ties a failure to the unit it came from.
type UnitError struct {
	Unit string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Unit, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// Driver compiles batches of units. It is safe for concurrent use.
type Driver struct {
	cfg config
}

// New returns a driver with the given options.
func New(opts ...Option) *Driver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Driver{cfg: cfg}
}

// Compile compiles every unit and returns one result per unit in input
// order. Under Skip the error aggregates every unit failure. Under Abort
// it is the first failure and units that had not started are marked
// Skipped. A cancelled context stops units that have not started.
func (d *Driver) Compile(ctx context.Context, units []Unit) ([]Result, error) {
	batch, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("driver: batch id: %w", err)
	}
	logger := d.cfg.logger.With().Str("batch", batch.String()).Logger()
	logger.Debug().
		Int("units", len(units)).
		Int("concurrency", d.cfg.concurrency).
		Str("policy", d.cfg.policy.String()).
		Msg("batch started")
	started := time.Now()

	results := make([]Result, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.concurrency)

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)
	for i, unit := range units {
		results[i].Unit = unit.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Skipped = true
				return nil
			}
			code, cached, err := d.compileUnit(unit, logger)
			if err != nil {
				uerr := &UnitError{Unit: unit.Name, Err: err}
				results[i].Err = uerr
				logger.Debug().Str("unit", unit.Name).Err(err).Msg("unit failed")
				if d.cfg.policy == Abort {
					return uerr
				}
				mu.Lock()
				errs = multierror.Append(errs, uerr)
				mu.Unlock()
				return nil
			}
			results[i].Code = code
			results[i].Cached = cached
			return nil
		})
	}
	waitErr := g.Wait()

	if waitErr == nil && ctx.Err() != nil {
		waitErr = ctx.Err()
	}
	logger.Debug().
		Dur("elapsed", time.Since(started)).
		Bool("failed", waitErr != nil || errs != nil).
		Msg("batch finished")
	if waitErr != nil {
		return results, waitErr
	}
	return results, errs.ErrorOrNil()
}

func (d *Driver) compileUnit(unit Unit, logger zerolog.Logger) (*bytecode.Code, bool, error) {
	compile := func() (*bytecode.Code, error) {
		node := unit.Node
		if node == nil {
			var err error
			if node, err = ast.Parse(unit.Source); err != nil {
				return nil, err
			}
		}
		opts := append([]compiler.Option{}, d.cfg.compilerOps...)
		opts = append(opts,
			compiler.WithName(unit.Name),
			compiler.WithFilename(unit.Filename),
			compiler.WithSource(unit.Source),
			compiler.WithVerify(d.cfg.verify),
			compiler.WithLogger(logger),
		)
		return compiler.New(opts...).Compile(node)
	}
	if d.cfg.cache == nil {
		code, err := compile()
		return code, false, err
	}
	return d.cfg.cache.GetOrCompileSource(unit.Name, unit.Source, compile)
}
