package graph

import (
	"fmt"

	"github.com/flowcore/engine/pkg/types"
)

// ValidationError is a fatal InvalidGraph failure: the graph must not be
// used to drive an execution.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "InvalidGraph: " + e.Reason
}

// ValidateOptions controls invariant 6 (trigger requirement).
type ValidateOptions struct {
	// StartFromNode, when set, supplies inputs directly and relaxes the
	// "at least one TRIGGER node" requirement.
	StartFromNode string
}

// Validate checks a workflow against every structural and schema invariant,
// using registry to resolve (type, subtype) schemas. It returns the first
// violation found, wrapped as *ValidationError.
func Validate(wf *types.Workflow, registry *types.SchemaRegistry, opts ValidateOptions) (*Graph, error) {
	// Invariant 1: node ids unique; edge endpoints resolvable.
	seen := make(map[string]bool, len(wf.Nodes))
	for _, n := range wf.Nodes {
		if n.ID == "" {
			return nil, &ValidationError{Reason: "node with empty id"}
		}
		if seen[n.ID] {
			return nil, &ValidationError{Reason: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		seen[n.ID] = true
	}
	for _, e := range wf.Edges {
		if !seen[e.Source] {
			return nil, &ValidationError{Reason: fmt.Sprintf("edge %q: unknown source node %q", e.ID, e.Source)}
		}
		if !seen[e.Target] {
			return nil, &ValidationError{Reason: fmt.Sprintf("edge %q: unknown target node %q", e.ID, e.Target)}
		}
	}

	g := New(wf.Nodes, wf.Edges)

	// Invariant 2: no self-loops unless the subtype declares loop semantics
	// (only FLOW.LOOP, and only via an edge explicitly marked LoopBack).
	for _, e := range wf.Edges {
		if e.Source != e.Target {
			continue
		}
		node := g.GetNode(e.Source)
		if node == nil || !(node.Type == types.NodeTypeFlow && node.Subtype == "loop") || !e.LoopBack {
			return nil, &ValidationError{Reason: fmt.Sprintf("self-loop on node %q is only permitted for FLOW.LOOP via a loop_back edge", e.Source)}
		}
	}

	// Invariant 3: acyclicity of edges not declared as loop-back.
	if _, err := g.TopologicalSort(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	// Invariant 4: every node's configuration validates against its subtype schema.
	for _, n := range wf.Nodes {
		spec, ok := registry.Lookup(n.Type, n.Subtype)
		if !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("node %q: no runner registered for (%s, %s)", n.ID, n.Type, n.Subtype)}
		}
		if err := spec.Validate(n.Config); err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("node %q: %v", n.ID, err)}
		}
	}

	// Invariant 5: edge output/input keys exist on the declared ports.
	for _, e := range wf.Edges {
		srcNode := g.GetNode(e.Source)
		dstNode := g.GetNode(e.Target)
		srcSpec, _ := registry.Lookup(srcNode.Type, srcNode.Subtype)
		dstSpec, _ := registry.Lookup(dstNode.Type, dstNode.Subtype)

		outKey := e.OutputKeyOrDefault()
		if len(srcSpec.OutputPorts) > 0 && !srcSpec.OutputPortNamed(outKey) {
			return nil, &ValidationError{Reason: fmt.Sprintf("edge %q: output port %q not declared on node %q", e.ID, outKey, e.Source)}
		}

		inKey := e.InputKeyOrDefault()
		if len(dstSpec.InputPorts) > 0 {
			if _, ok := dstSpec.InputPortNamed(inKey); !ok {
				return nil, &ValidationError{Reason: fmt.Sprintf("edge %q: input port %q not declared on node %q", e.ID, inKey, e.Target)}
			}
		}
	}

	// Invariant 6: at least one TRIGGER node, unless resuming from a node directly.
	if opts.StartFromNode == "" {
		hasTrigger := false
		for _, n := range wf.Nodes {
			if n.Type == types.NodeTypeTrigger {
				hasTrigger = true
				break
			}
		}
		if !hasTrigger {
			return nil, &ValidationError{Reason: "workflow has no TRIGGER node and no start_from_node was supplied"}
		}
	} else if g.GetNode(opts.StartFromNode) == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("start_from_node %q does not exist", opts.StartFromNode)}
	}

	return g, nil
}
