// Package workflow discovers workflow definitions and runs them against a
// shared sandbox session.
//
// A workflow is an ordinary Func marked with Mark. Packages hand their
// marked callables to the Registry grouped in Units inside a Namespace;
// the Registry indexes them by identifier, and the Engine resolves an
// identifier, supplies the shared sandbox session, invokes the Func and
// mirrors the result to an optional Sink.
//
// # Identifiers
//
// A callable marked without an explicit id is registered as
// "<unit>.<name>". Mark(name, fn, WithID("custom")) registers as "custom"
// regardless of unit and name. The unit named "base" is never scanned, so
// shared helpers can live next to the workflows that use them.
//
// # Errors
//
// Execute returns ErrWorkflowNotFound for unknown identifiers before any
// side effect. Errors returned by a Func are passed through untouched, so
// callers see whatever error kind each workflow chose to return.
package workflow
