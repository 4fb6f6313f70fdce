// Package stage is the execution engine. A Pipeline is a validated set of
// named stages with ordered prerequisites. An Executor runs one stage and its
// transitive prerequisites sequentially, depth-first, each at most once, and
// halts on the first fatal failure.
package stage
