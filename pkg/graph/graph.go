// Package graph provides the immutable DAG representation of a workflow:
// nodes, typed ports, directed edges, and the validation invariants
// required before any node may run.
package graph

import (
	"fmt"

	"github.com/flowcore/engine/pkg/types"
)

// Graph is the immutable in-memory representation of one workflow.
type Graph struct {
	nodes   []types.Node
	edges   []types.Edge
	byID    map[string]*types.Node
	topoIdx map[string]int
}

// New creates a new Graph from nodes and edges. It does not validate; call
// Validate before using the graph to drive an execution.
func New(nodes []types.Node, edges []types.Edge) *Graph {
	byID := make(map[string]*types.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}
	return &Graph{nodes: nodes, edges: edges, byID: byID}
}

// Nodes returns the graph's nodes.
func (g *Graph) Nodes() []types.Node { return g.nodes }

// Edges returns the graph's edges.
func (g *Graph) Edges() []types.Edge { return g.edges }

// TopologicalSort performs Kahn's algorithm over the non-loop-back edges,
// the order the engine's dispatcher uses to break ties deterministically.
//
// Loop-back edges (types.Edge.LoopBack) are excluded from the in-degree
// computation: a FLOW.LOOP node owns its sub-subgraph by reference and the
// global graph remains acyclic.
func (g *Graph) TopologicalSort() ([]string, error) {
	numNodes := len(g.nodes)
	if numNodes == 0 {
		return []string{}, nil
	}

	inDegree := make(map[string]int, numNodes)
	adjacency := make(map[string][]string, numNodes)

	for i := range g.nodes {
		inDegree[g.nodes[i].ID] = 0
	}

	for i := range g.edges {
		edge := &g.edges[i]
		if edge.LoopBack {
			continue
		}
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		inDegree[edge.Target]++
	}

	orphanNodes := make([]string, 0, numNodes)
	for nodeID, degree := range inDegree {
		if degree == 0 {
			orphanNodes = append(orphanNodes, nodeID)
		}
	}
	insertionSort(orphanNodes)

	queue := make([]string, numNodes)
	queueStart := 0
	queueEnd := len(orphanNodes)
	copy(queue, orphanNodes)

	order := make([]string, 0, numNodes)

	for queueStart < queueEnd {
		current := queue[queueStart]
		queueStart++
		order = append(order, current)

		neighbors := adjacency[current]
		// Sort ready neighbors discovered at this step for deterministic ties.
		ready := make([]string, 0, len(neighbors))
		for _, neighbor := range neighbors {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				ready = append(ready, neighbor)
			}
		}
		insertionSort(ready)
		for _, r := range ready {
			queue[queueEnd] = r
			queueEnd++
		}
	}

	if len(order) != numNodes {
		return nil, fmt.Errorf("workflow contains cycles (circular dependencies)")
	}

	g.topoIdx = make(map[string]int, len(order))
	for i, id := range order {
		g.topoIdx[id] = i
	}

	return order, nil
}

// TopoIndex returns a node's position in the last computed topological
// order, or -1 if TopologicalSort has not been run (or the node is unknown).
// The engine dispatcher uses this for the "lowest topological index" tie-break.
func (g *Graph) TopoIndex(nodeID string) int {
	if g.topoIdx == nil {
		return -1
	}
	if idx, ok := g.topoIdx[nodeID]; ok {
		return idx
	}
	return -1
}

func insertionSort(arr []string) {
	for i := 1; i < len(arr); i++ {
		key := arr[i]
		j := i - 1
		for j >= 0 && arr[j] > key {
			arr[j+1] = arr[j]
			j--
		}
		arr[j+1] = key
	}
}

// GetNode retrieves a node by its ID.
func (g *Graph) GetNode(nodeID string) *types.Node {
	return g.byID[nodeID]
}

// GetNodeInputEdges returns all edges where the given node is the target.
func (g *Graph) GetNodeInputEdges(nodeID string) []types.Edge {
	var edges []types.Edge
	for _, edge := range g.edges {
		if edge.Target == nodeID {
			edges = append(edges, edge)
		}
	}
	return edges
}

// GetNodeOutputEdges returns all edges where the given node is the source.
func (g *Graph) GetNodeOutputEdges(nodeID string) []types.Edge {
	var edges []types.Edge
	for _, edge := range g.edges {
		if edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}
	return edges
}

// GetTerminalNodes returns all nodes that have no outgoing edges.
func (g *Graph) GetTerminalNodes() []string {
	terminalNodes := make(map[string]bool, len(g.nodes))
	for _, node := range g.nodes {
		terminalNodes[node.ID] = true
	}
	for _, edge := range g.edges {
		terminalNodes[edge.Source] = false
	}

	result := []string{}
	for nodeID, isTerminal := range terminalNodes {
		if isTerminal {
			result = append(result, nodeID)
		}
	}
	return result
}

// DetectCycles detects if the graph contains any cycles, ignoring loop-back edges.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalSort()
	return err
}
