// Package starlarkbox is the reference sandboxed execution engine for the
// codeact loop, built on go.starlark.net.
//
// A Session is a capability-scoped interpreter: an explicit binding table
// persisted across executions, an allow-listed module loader, captured
// print output, host tool builtins, and a single-shot submit slot that
// signals run completion without raising. Process-spawning and shell-escape
// capabilities are denied outright; Starlark itself has no filesystem or
// network access, so the only doors into the host are the tools the caller
// binds.
package starlarkbox
