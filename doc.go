// Package gepa is a Go implementation of reflective evolutionary prompt
// optimization: it evolves a set of named prompt components against a task
// metric under a hard budget of scoring calls.
//
// A candidate is a mapping of component name to component text. The engine
// maintains the full candidate history as a lineage DAG, tracks a
// per-instance Pareto archive over the validation set, and alternates two
// proposal mechanisms:
//
//   - Reflective mutation: a reflection model reads per-example feedback
//     from a training minibatch and rewrites one component; the child is
//     kept only when it strictly improves on its parent.
//
//   - Lineage-aware merge: two candidates sharing a common ancestor are
//     crossed per component, taking the version that diverged from their
//     shared baseline; the child is kept only when it strictly beats both
//     parents on validation.
//
// Key Packages:
//
//   - pkg/core: Candidate, the append-only candidate store, and the
//     Adapter/ReflectionLM/HistorySink contracts the engine consumes.
//
//   - pkg/optimizer: the engine itself, the Pareto archive, selection
//     strategies (frontier-weighted sampling and tournament), and the
//     mutation and merge proposers.
//
//   - pkg/adapters: task adapters that execute candidates against data,
//     including a single-turn prompt program adapter.
//
//   - pkg/llms: language model clients (Anthropic) serving both the task
//     and reflection roles.
//
//   - pkg/datasets: dataset loading, splitting, and the GSM8K benchmark
//     loader.
//
//   - pkg/history: SQLite-backed run persistence.
//
//   - pkg/config: YAML run configuration with validation.
//
// For usage examples, see cmd/gepa and the package tests.
package gepa
