package graph

import "errors"

// Sentinel errors for graph operations.
var (
	ErrEmptyGraph   = errors.New("graph is empty")
	ErrNodeNotFound = errors.New("node not found in graph")
	ErrEdgeNotFound = errors.New("edge not found in graph")
	ErrInvalidEdge  = errors.New("invalid edge")
	ErrCycleDetected = errors.New("cycle detected in graph")
)
