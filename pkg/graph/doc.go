// Package graph provides the immutable graph model of a workflow and the
// validator that rejects malformed workflows before any node runs.
//
// Graph (graph.go) holds nodes, edges, and a Kahn's-algorithm topological
// order computed over every edge except loop-back edges, which a FLOW.LOOP
// node uses to close its sub-subgraph without reintroducing a cycle into
// the global graph.
//
// Validate (validator.go) checks six invariants: unique
// node ids and resolvable edge endpoints, no unlicensed self-loops,
// acyclicity, per-subtype configuration schema validation, edge port
// existence, and the TRIGGER-node requirement.
package graph
