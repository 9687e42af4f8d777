// Package reconcile mirrors live warehouse objects into the catalog, one kind at a time.
//
// # Architecture
//
// 1. Descriptor: everything kind-specific (listing scope, exclusion, normalization into
// catalog rows, natural key, display columns). One generic pass handles every kind.
//
// 2. Graph: orders kinds so parents are committed and refetched before their children.
//
// 3. Engine: runs the passes. Each pass lists live objects (per parent for scoped kinds),
// filters them, diffs them against the catalog by natural key, asks the Decider at the
// missing and new gates, commits new rows in one batch and refetches the kind so the
// next pass sees fresh identities.
//
// 4. State: run-scoped views of catalog kinds, handed from pass to pass and loaded from
// the catalog on first use for kinds that were not scheduled.
//
// # Failure model
//
// A scoped listing that fails is recorded as a Skip and the pass continues. A top-level
// listing failure, any catalog error, an operator decline and an invariant violation end
// the run. Catalog rows are never updated or deleted.
package reconcile
