package engine

import (
	"context"
	"fmt"

	"github.com/flowcore/engine/pkg/graph"
	"github.com/flowcore/engine/pkg/router"
	"github.com/flowcore/engine/pkg/types"
)

// dispatchLoop special-cases FLOW.LOOP: the node's own runner only
// validates and caps the items array, then the engine re-dispatches the
// connected sub-subgraph once per element on port "item".
func (e *Engine) dispatchLoop(ctx context.Context, ds *dispatchState, node types.Node, inputs map[string]interface{}) {
	outputs, outcome := e.invoke(ctx, ds, node, inputs)
	switch {
	case outcome.Wait != nil:
		e.persistPause(ctx, ds, node, outcome.Wait)
		return
	case outcome.Failure != nil:
		e.applyFailurePolicy(ctx, ds, node, outcome.Failure)
		return
	}

	ds.setOutput(node.ID, outputs)
	items, _ := outputs["result"].([]interface{})
	body := discoverLoopBody(ds.g, node.ID)
	bodySet := make(map[string]bool, len(body))
	for _, id := range body {
		bodySet[id] = true
	}

	for idx, item := range items {
		if ds.stopRequestedVal() {
			break
		}
		if runErr := e.runLoopIteration(ctx, ds, node, body, bodySet, item, idx, len(items)); runErr != nil {
			e.applyFailurePolicy(ctx, ds, node, runErr)
			return
		}
	}

	e.deliverEdges(ds, node, outputs, func(edge types.Edge) bool {
		return edge.OutputKeyOrDefault() != "item"
	})
}

// discoverLoopBody BFS-discovers every node reachable from a loop node's
// "item" port, stopping at edges that close the sub-subgraph back to the
// loop (LoopBack), so the body never spills past one iteration's boundary.
func discoverLoopBody(g *graph.Graph, loopID string) []string {
	visited := make(map[string]bool)
	var body []string
	var queue []string

	for _, edge := range g.GetNodeOutputEdges(loopID) {
		if edge.LoopBack || edge.OutputKeyOrDefault() != "item" {
			continue
		}
		if !visited[edge.Target] {
			visited[edge.Target] = true
			queue = append(queue, edge.Target)
			body = append(body, edge.Target)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, edge := range g.GetNodeOutputEdges(id) {
			if edge.LoopBack || edge.Target == loopID {
				continue
			}
			if !visited[edge.Target] {
				visited[edge.Target] = true
				queue = append(queue, edge.Target)
				body = append(body, edge.Target)
			}
		}
	}
	return body
}

// runLoopIteration dispatches one element's pass over the loop body, using
// a dispatch scope local to this iteration (remaining/deliveries/outputs),
// distinct from the outer dispatchState, so iterations never interfere with
// each other or with nodes outside the loop. Edges entering the body from
// outside resolve directly from the outer ds, since such producers already
// ran earlier in topological order.
func (e *Engine) runLoopIteration(ctx context.Context, ds *dispatchState, loopNode types.Node, body []string, bodySet map[string]bool, item interface{}, idx, total int) *types.RunError {
	remaining := make(map[string]int, len(body))
	deliveries := make(map[string][]router.Delivery, len(body))
	var ready []string

	for _, id := range body {
		count := 0
		for _, edge := range ds.g.GetNodeInputEdges(id) {
			if !edge.LoopBack {
				count++
			}
		}
		remaining[id] = count
	}

	deliver := func(edge types.Edge, producerOutput map[string]interface{}) {
		d := e.router.Deliver(edge, producerOutput)
		deliveries[edge.Target] = append(deliveries[edge.Target], d)
		remaining[edge.Target]--
		if remaining[edge.Target] <= 0 {
			ready = append(ready, edge.Target)
		}
	}

	itemOutput := map[string]interface{}{"item": item, "result": item}
	for _, edge := range ds.g.GetNodeOutputEdges(loopNode.ID) {
		if edge.LoopBack || edge.OutputKeyOrDefault() != "item" {
			continue
		}
		if bodySet[edge.Target] {
			deliver(edge, itemOutput)
		}
	}

	for _, id := range body {
		for _, edge := range ds.g.GetNodeInputEdges(id) {
			if edge.LoopBack || edge.Source == loopNode.ID || bodySet[edge.Source] {
				continue
			}
			deliver(edge, ds.getOutput(edge.Source))
		}
	}

	e.logger.Debug(fmt.Sprintf("flow.loop %s: iteration %d/%d starting", loopNode.ID, idx+1, total))

	for len(ready) > 0 {
		batch := ready
		ready = nil
		sortNodeIDs(ds.g, batch)
		for _, nodeID := range batch {
			nodePtr := ds.g.GetNode(nodeID)
			if nodePtr == nil {
				continue
			}
			n := *nodePtr
			in := router.Aggregate(deliveries[nodeID])
			out, outcome := e.invoke(ctx, ds, n, in)
			switch {
			case outcome.Result != nil:
				for _, edge := range ds.g.GetNodeOutputEdges(nodeID) {
					if edge.LoopBack || !bodySet[edge.Target] {
						continue
					}
					if !portDelivers(edge, out) {
						continue
					}
					deliver(edge, out)
				}
			case outcome.Wait != nil:
				return types.NewRunError(types.ErrorKindInternal,
					fmt.Sprintf("node %s attempted to pause inside a loop body, which is unsupported", nodeID), "")
			case outcome.Failure != nil:
				return outcome.Failure
			}
		}
	}
	return nil
}
