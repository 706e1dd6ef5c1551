// Package registry provides the central "glue" for the module system.
//
// The Registry maps the handler names used in grid files (e.g., "print" or
// "sqlite") to the compiled Go functions that implement them: task
// functions, resource factories and supervision factories.
//
// During application startup, the registry is populated by every core module
// and then validated against the compiled graph, so that a grid referring to
// a handler nobody registered fails before anything runs.
package registry
