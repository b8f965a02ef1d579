package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUnresolvable is returned when pending nodes can never become ready.
var ErrUnresolvable = errors.New("cannot resolve remaining graph nodes")

// ComputeFunc computes a node's result. It may read State but must not
// modify it.
type ComputeFunc func(ctx context.Context, state *State) (NodeResult, error)

// Node is a named unit of work with declared dependencies.
type Node struct {
	Name         string
	Dependencies []string
	Compute      ComputeFunc
}

// Runner executes registered nodes in dependency order.
type Runner struct {
	nodes       map[string]Node
	concurrency int
	logger      *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds how many ready nodes of a round run at once.
// Values below 1 mean unbounded.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// NewRunner creates an empty runner
func NewRunner(logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		nodes:       make(map[string]Node),
		concurrency: -1,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = -1
	}
	return r
}

// Register adds a node. Registering a name twice replaces the earlier node.
func (r *Runner) Register(node Node) {
	if _, exists := r.nodes[node.Name]; exists {
		r.logger.Warn("replacing registered graph node",
			zap.String("node", node.Name))
	}
	r.nodes[node.Name] = node
}

// Run executes all registered nodes and returns the order they ran in.
// Nodes of one round appear sorted by name. A compute error, a panic inside
// a node or a cancelled context aborts the run.
func (r *Runner) Run(ctx context.Context, state *State) ([]string, error) {
	pending := maps.Clone(r.nodes)
	executed := make([]string, 0, len(pending))

	for round := 1; len(pending) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("graph run cancelled: %w", err)
		}

		ready := readyNodes(pending, state)
		if len(ready) == 0 {
			remaining := slices.Sorted(maps.Keys(pending))
			return nil, fmt.Errorf("%w: %s", ErrUnresolvable, strings.Join(remaining, ", "))
		}

		r.logger.Debug("executing graph round",
			zap.Int("round", round),
			zap.Strings("nodes", ready))

		results, err := r.runRound(ctx, pending, ready, state)
		if err != nil {
			return nil, err
		}

		for i, name := range ready {
			res := results[i]
			state.Agents[name] = res.Parsed
			state.AgentRaw[name] = res.Raw
			if len(res.Warnings) > 0 {
				state.AgentWarnings[name] = res.Warnings
			}
			executed = append(executed, name)
			delete(pending, name)
		}
	}

	return executed, nil
}

// runRound computes the ready nodes concurrently. Results are indexed like
// ready.
func (r *Runner) runRound(ctx context.Context, pending map[string]Node, ready []string, state *State) ([]NodeResult, error) {
	results := make([]NodeResult, len(ready))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, name := range ready {
		node := pending[name]
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("node %s panicked: %v", name, p)
				}
			}()
			res, err := node.Compute(gctx, state)
			if err != nil {
				return fmt.Errorf("node %s failed: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readyNodes(pending map[string]Node, state *State) []string {
	var ready []string
	for name, node := range pending {
		if dependenciesMet(node, state) {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)
	return ready
}

func dependenciesMet(node Node, state *State) bool {
	for _, dep := range node.Dependencies {
		if _, ok := state.Agents[dep]; !ok {
			return false
		}
	}
	return true
}
