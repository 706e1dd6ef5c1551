// Package graph holds the immutable, compiled task graph consumed by the
// engine, and the Builder that produces it.
//
// # Why Graph Package Exists
//
// The engine never looks at configuration. It only needs, for every task, the
// team it runs on, its static successor, the resources it loads, the
// supervision aspects it requires, and its escalation table. Resolving names
// to indices once, up front, keeps the hot path free of map lookups and lets
// configuration errors surface before anything runs.
//
// # Lifecycle
//
//  1. **Declared** through a Builder, either by hand (tests, embedding
//     programs) or by the hclgraph loader.
//  2. **Compiled** by Builder.Build, which resolves references and validates
//     the result: duplicate names, unknown references, resource dependency
//     cycles and scope narrowing.
//  3. **Shared** read-only by every invocation of the engine.
//
// # Key Types
//
// **Graph** (graph.go): the compiled graph with lookups by name.
//
// **Builder** (builder.go): fluent declaration API.
package graph
