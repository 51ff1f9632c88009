package model

import "time"

// SiteTree is the result of one crawl invocation.
// It wraps the root Node with the information report writers and the crawl
// archive need to describe the run.
type SiteTree struct {
	// BaseURL is the scheme and authority the crawl was scoped to.
	BaseURL string `json:"base_url"`

	// StartedAt is when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl returned.
	FinishedAt time.Time `json:"finished_at"`

	// Root is the root document. It is nil when the root could not be fetched.
	Root *Node `json:"root"`
}

// NewSiteTree creates a SiteTree for the given base URL and root.
func NewSiteTree(baseURL string, root *Node, started, finished time.Time) *SiteTree {
	return &SiteTree{
		BaseURL:    baseURL,
		StartedAt:  started,
		FinishedAt: finished,
		Root:       root,
	}
}

// ResourceCount returns the number of crawled resources in the tree.
func (t *SiteTree) ResourceCount() int {
	if t.Root == nil {
		return 0
	}
	return t.Root.Count()
}

// Duration returns how long the crawl took.
func (t *SiteTree) Duration() time.Duration {
	return t.FinishedAt.Sub(t.StartedAt)
}

// LeafCount returns the number of resources that link to nothing: non-HTML
// resources, and documents whose links were all pruned or already visited.
func (t *SiteTree) LeafCount() int {
	count := 0
	t.Root.Walk(func(n *Node, _ int) bool {
		if n.IsLeaf() {
			count++
		}
		return true
	})
	return count
}
