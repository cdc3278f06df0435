// Package deploy walks a plan and drives the provider to provision or tear
// down the declared infrastructure.
//
// Nodes without a dependency relationship are processed concurrently, bounded
// by a semaphore. A node never starts provisioning before all of its
// dependencies are provisioned, and the first failure cancels all in-flight
// work on independent branches.
package deploy

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"github.com/stackform/stackform/deploy/internal/task"
	"github.com/stackform/stackform/graph"
	"github.com/stackform/stackform/plan"
	"github.com/stackform/stackform/provider"
	"github.com/stackform/stackform/resolve"
	"github.com/stackform/stackform/resource"
	"github.com/stackform/stackform/storage"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default maximum number of concurrent provider
// calls.
//
// In practice, execution is bound by the provider's network i/o.
var DefaultConcurrency = 10

// storeTimeout bounds snapshot writes so a cancelled run still records
// completed work.
const storeTimeout = 5 * time.Second

// Outputs is the final mapping from a declared output name to its resolved
// value.
type Outputs map[string]cty.Value

// An Executor executes plans against a provider.
type Executor struct {
	// Provider performs the actual infrastructure operations.
	Provider provider.Provider

	// Storage persists snapshots of provisioned nodes. If not set, no state
	// is persisted.
	Storage *storage.KV

	// Stack is the stack name used for persisted snapshots.
	Stack string

	// Concurrency sets the maximum number of concurrent provider calls.
	// If not set, DefaultConcurrency is used.
	Concurrency uint

	// Logger logs execution updates. If not set, logs are discarded.
	Logger *zap.Logger

	// Backoff algorithm used for retrying provider calls that failed with a
	// transient error. If not set, exponential backoff is used.
	Backoff func() backoff.BackOff
}

// Execute provisions every node in the plan, in plan order.
//
// Nodes already provisioned (restored from a previous run) are skipped, so
// executing the same plan twice against an idempotent provider yields the
// same outputs.
//
// On the first failure the failing node is marked Failed, in-flight work on
// other branches is cancelled, no new nodes are started, and the returned
// error names the failing node. Nodes provisioned before the failure keep
// their state; rolling back is the caller's decision.
//
// On success, the declared outputs are resolved and returned.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan, g *graph.Graph, outputs map[string]graph.Expression) (Outputs, error) {
	r := e.newRun(g, "execute")

	grp, ctx := errgroup.WithContext(ctx)
	for _, id := range p.IDs {
		id := id
		grp.Go(func() error {
			return r.provision(ctx, id)
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	out := make(Outputs, len(outputs))
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		val, err := resolve.Expression(outputs[name], g.Registry())
		if err != nil {
			return nil, errors.Wrapf(err, "output %s", name)
		}
		out[name] = val
	}

	r.logger.Info("Done",
		zap.Uint32("created", r.created),
		zap.Uint32("skipped", r.skipped),
	)
	return out, nil
}

// Destroy tears down every provisioned node in reverse plan order.
//
// A node is only destroyed after all of its dependents have been destroyed.
// Infrastructure that no longer exists is tolerated; any other provider
// error halts the teardown.
func (e *Executor) Destroy(ctx context.Context, p *plan.Plan, g *graph.Graph) error {
	r := e.newRun(g, "destroy")

	grp, ctx := errgroup.WithContext(ctx)
	for _, id := range p.Reverse().IDs {
		id := id
		grp.Go(func() error {
			return r.destroy(ctx, id)
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	r.logger.Info("Done", zap.Uint32("destroyed", r.destroyed))
	return nil
}

func (e *Executor) newRun(g *graph.Graph, op string) *run {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(
		zap.String("run", ksuid.New().String()),
		zap.String("op", op),
	)
	if e.Stack != "" {
		logger = logger.With(zap.String("stack", e.Stack))
	}

	algo := e.Backoff
	if algo == nil {
		algo = func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		}
	}

	c := e.Concurrency
	if c == 0 {
		c = uint(DefaultConcurrency)
	}

	return &run{
		executor: e,
		graph:    g,
		registry: g.Registry(),
		logger:   logger,
		backoff:  algo,
		sem:      semaphore.NewWeighted(int64(c)),
		tasks:    task.NewGroup(),
	}
}

type run struct {
	executor *Executor
	graph    *graph.Graph
	registry *resource.Registry
	logger   *zap.Logger
	backoff  func() backoff.BackOff
	sem      *semaphore.Weighted
	tasks    *task.Group

	created   uint32
	skipped   uint32
	destroyed uint32
}

func (r *run) provision(ctx context.Context, id string) error {
	return r.tasks.Do(id, func() error {
		n, err := r.registry.Get(id)
		if err != nil {
			return err
		}
		logger := r.logger.With(zap.String("kind", n.Kind), zap.String("id", n.ID))

		// Wait for dependencies before acquiring a semaphore, as otherwise
		// we can needlessly block on low concurrency limits and end up in a
		// deadlock with concurrency=1.
		if err := r.await(ctx, r.graph.Parents(id), r.provision); err != nil {
			return err
		}

		if n.State == resource.Provisioned {
			logger.Debug("Already provisioned")
			atomic.AddUint32(&r.skipped, 1)
			return nil
		}

		if err := r.sem.Acquire(ctx, 1); err != nil {
			return errors.Wrap(err, "acquire semaphore")
		}
		defer r.sem.Release(1)

		cfg, err := resolve.Config(n, r.graph.Dependencies(id), r.registry)
		if err != nil {
			return errors.Wrapf(err, "resolve config for %s", id)
		}

		if err := n.BeginProvisioning(); err != nil {
			return err
		}
		logger.Info("Creating")

		var attrs cty.Value
		op := func() error {
			a, err := r.executor.Provider.Create(ctx, n.Kind, cfg)
			if err != nil {
				if provider.IsRetryable(err) {
					return err
				}
				return backoff.Permanent(err)
			}
			attrs = a
			return nil
		}
		if err := r.retry(ctx, op, logger); err != nil {
			if ferr := n.Fail(); ferr != nil {
				return ferr
			}
			logger.Error("Create failed", zap.Error(err))
			return &provider.ProviderError{ID: n.ID, Kind: n.Kind, Op: "create", Err: err}
		}

		if err := n.Provision(attrs); err != nil {
			return err
		}
		logger.Debug("Created")

		if err := r.store(n, logger); err != nil {
			return err
		}

		atomic.AddUint32(&r.created, 1)
		return nil
	})
}

func (r *run) destroy(ctx context.Context, id string) error {
	return r.tasks.Do(id, func() error {
		n, err := r.registry.Get(id)
		if err != nil {
			return err
		}
		logger := r.logger.With(zap.String("kind", n.Kind), zap.String("id", n.ID))

		// Dependents must be gone before their dependency.
		if err := r.await(ctx, r.graph.Children(id), r.destroy); err != nil {
			return err
		}

		if n.State != resource.Provisioned {
			logger.Debug("Nothing to destroy", zap.Stringer("state", n.State))
			return nil
		}

		if err := r.sem.Acquire(ctx, 1); err != nil {
			return errors.Wrap(err, "acquire semaphore")
		}
		defer r.sem.Release(1)

		logger.Info("Destroying")

		op := func() error {
			err := r.executor.Provider.Destroy(ctx, n.Kind, n.Attributes)
			if err != nil && !provider.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		err = r.retry(ctx, op, logger)
		if err != nil && !provider.IsNotFound(errors.Cause(err)) {
			logger.Error("Destroy failed", zap.Error(err))
			return &provider.ProviderError{ID: n.ID, Kind: n.Kind, Op: "destroy", Err: err}
		}
		if err != nil {
			logger.Debug("Already gone")
		}

		if err := n.TearDown(); err != nil {
			return err
		}

		if kv := r.executor.Storage; kv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := kv.DeleteNode(sctx, r.executor.Stack, n.ID); err != nil {
				return errors.Wrap(err, "delete snapshot")
			}
		}

		atomic.AddUint32(&r.destroyed, 1)
		return nil
	})
}

// await processes all given node ids and blocks until they are done. The
// first error cancels the rest.
func (r *run) await(ctx context.Context, ids []string, process func(context.Context, string) error) error {
	if len(ids) == 0 {
		return nil
	}
	grp, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		grp.Go(func() error {
			return process(ctx, id)
		})
	}
	return grp.Wait()
}

func (r *run) retry(ctx context.Context, op func() error, logger *zap.Logger) error {
	algo := backoff.WithContext(r.backoff(), ctx)
	notify := func(err error, dur time.Duration) {
		logger.Info("Retrying", zap.Error(err), zap.Duration("in", dur))
	}
	return backoff.RetryNotify(op, algo, notify)
}

func (r *run) store(n *resource.Node, logger *zap.Logger) error {
	kv := r.executor.Storage
	if kv == nil {
		return nil
	}
	// Use a new context so a cancelled run still stores the result.
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	logger.Debug("Storing snapshot")
	if err := kv.PutNode(ctx, r.executor.Stack, n); err != nil {
		return errors.Wrap(err, "store snapshot")
	}
	return nil
}
