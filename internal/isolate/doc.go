// Package isolate runs page compiles as independent OS processes.
//
// A Spawner keeps a registry of in-flight builds keyed by page. A spawn for a
// page that is already building is folded into a single follow-up build that
// starts when the current one ends, so at most one process per page runs at a
// time. Child outcomes are never returned to the caller of Spawn; they are
// reported as lifecycle events to observers and collected by Wait.
package isolate
