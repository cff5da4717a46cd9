package queries

// ListGraphsQuery lists every graph.
type ListGraphsQuery struct{}

func (q ListGraphsQuery) Validate() error { return nil }

// GraphSummaryView is one entry of the graph listing.
type GraphSummaryView struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ListGraphsResult represents the result of listing graphs
type ListGraphsResult struct {
	Graphs []GraphSummaryView `json:"graphs"`
}
