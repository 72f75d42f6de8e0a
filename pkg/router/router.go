// Package router implements the Data Router: per-edge output
// extraction and pure conversion, plus port/category aggregation into a
// node's input map. The teacher inlines this logic directly into
// engine.go's GetNodeInputs; this package generalizes it to ports,
// conversion expressions, and category-based aggregation (MAIN / AI_TOOL /
// AI_MEMORY) so flow nodes only ever deal in named ports, never ad hoc
// result-map sniffing.
package router

import (
	"github.com/flowcore/engine/pkg/expression"
	"github.com/flowcore/engine/pkg/types"
)

// Router applies one edge's extraction + conversion and aggregates
// deliveries into a node's input map.
type Router struct {
	expr *expression.ExprEngine
}

// New creates a Router backed by the shared expr-lang engine.
func New() *Router {
	return &Router{expr: expression.NewExprEngine()}
}

// ExtractOutput reads the value an edge carries out of a producer's full
// output object.
func ExtractOutput(edge types.Edge, output map[string]interface{}) interface{} {
	key := edge.OutputKeyOrDefault()
	if key == "result" {
		if v, ok := output[key]; ok {
			return v
		}
		return output
	}
	return output[key]
}

// Convert applies the edge's pure conversion expression, if any. A
// conversion error is returned to the caller rather than panicking; the
// edge then delivers nil and the workflow is not failed by this alone.
func (r *Router) Convert(edge types.Edge, value interface{}) (interface{}, error) {
	if edge.Conversion == "" {
		return value, nil
	}
	ctx := &expression.Context{Variables: map[string]interface{}{"input": value, "item": value}}
	return r.expr.EvaluateValue(edge.Conversion, value, ctx)
}

// Delivery is one edge's resolved contribution to its target node.
type Delivery struct {
	Edge  types.Edge
	Value interface{}
	Err   error
}

// Deliver extracts and converts one edge's value out of its producer's
// output object.
func (r *Router) Deliver(edge types.Edge, producerOutput map[string]interface{}) Delivery {
	raw := ExtractOutput(edge, producerOutput)
	converted, err := r.Convert(edge, raw)
	if err != nil {
		return Delivery{Edge: edge, Value: nil, Err: err}
	}
	return Delivery{Edge: edge, Value: converted, Err: nil}
}

// BucketKey returns the aggregation key a delivery lands under: the edge's
// input key for MAIN category edges (the common case), or the category name
// itself for non-MAIN categories, so AI_AGENT runners can tell tools from
// memory from main data.
func BucketKey(edge types.Edge) string {
	switch edge.Category {
	case "", types.CategoryMain:
		return edge.InputKeyOrDefault()
	default:
		return string(edge.Category)
	}
}

// Aggregate builds the per-node input map from an ordered list of
// deliveries. Multiple edges landing on the same bucket collect into an
// ordered list, preserving edge order; a single edge on a bucket delivers
// its scalar value directly.
func Aggregate(deliveries []Delivery) map[string]interface{} {
	order := make([]string, 0, len(deliveries))
	buckets := make(map[string][]interface{}, len(deliveries))
	for _, d := range deliveries {
		key := BucketKey(d.Edge)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], d.Value)
	}

	out := make(map[string]interface{}, len(buckets))
	for _, key := range order {
		vals := buckets[key]
		if len(vals) == 1 {
			out[key] = vals[0]
		} else {
			out[key] = vals
		}
	}
	return out
}
