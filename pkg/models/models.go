package models

// RawEdge is an ordered pair of vertex identifiers exactly as they appear in the input
type RawEdge[K comparable] struct {
	Src K `json:"src" yaml:"src"`
	Dst K `json:"dst" yaml:"dst"`
}

// Edge is an edge between two dense internal vertex ids
type Edge struct {
	Src int `json:"src"`
	Dst int `json:"dst"`
}

// ResultRow pairs an input vertex identifier with the cluster it was assigned to
type ResultRow[K comparable] struct {
	ID      K   `json:"id" yaml:"id"`
	Cluster int `json:"cluster" yaml:"cluster"`
}
