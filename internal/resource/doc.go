// Package resource implements the per-scope lifecycle of shared
// dependencies ("resources") that task nodes load before they execute.
//
// A Container walks Unsourced -> Sourcing -> Ready, optionally passing through
// AsyncPending while operations started by its factory finish, and ends as
// Recycled when its scope instance is torn down. A Pool owns the containers
// of one scope instance and recycles them in reverse readiness order.
package resource
