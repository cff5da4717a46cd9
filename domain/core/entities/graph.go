package entities

// Graph is a named collection of nodes. Graphs are seeded, never created by clients.
type Graph struct {
	ID      int64
	Name    string
	NodeIDs []int64
}

// GraphSummary is the listing form of a graph.
type GraphSummary struct {
	ID   int64
	Name string
}

// GraphWithNodes is a graph together with every member node, fully hydrated.
type GraphWithNodes struct {
	Graph Graph
	Nodes []Node
}

