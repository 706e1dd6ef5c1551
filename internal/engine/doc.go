// Package engine is the cooperative scheduler core. It drives task nodes of
// a compiled graph through LOAD_RESOURCES, EXECUTE and ACTIVATE_NEXT, and
// resolves escalations along the owner chain and then through the scope
// fallbacks.
//
// # Continuations
//
// Every unit of work is a Step. Running a step returns the next step, or
// nil when the chain is exhausted for now; the worker pool loops over the
// returned steps instead of recursing, so chains of any length run in
// constant stack. A node waiting for a resource returns a wait step that
// parks it on the resource's notifier; the notifier dispatches the node
// again, possibly on another worker.
//
// # Ownership
//
// Within one execution context tree exactly one continuation is live at a
// time, so a node is only ever touched by the worker holding it. Parallel
// children are linked below their owner (parallelSibling, parallelOwner)
// and always run to completion, escalations included, before the owner
// resumes.
//
// # Key Types
//
// **Engine** (engine.go): binds a graph to its handlers and a dispatcher.
//
// **Process** (process.go): one invocation and its process-scope state.
//
// **Thread** (thread.go): an execution context: failure, escalation
// cursor, supervision set and thread-scope resources.
//
// **Node** (node.go, executor.go): one task node and its state machine.
package engine
