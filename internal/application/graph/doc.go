// Package graph implements the dependency graph runner that executes agent
// nodes against a shared state.
//
// The runner proceeds in rounds. Each round selects every pending node whose
// dependencies all have an entry in State.Agents, executes those nodes
// concurrently, and only then writes their results back into the state, so
// nodes within a round never observe each other's output. A round with no
// ready node while nodes remain pending means a cycle or a dependency on a
// node that was never registered; the run fails without a partial result.
package graph
