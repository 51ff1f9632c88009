package model

// Node represents one crawled resource.
//
// Name is the path component of the URL the resource was requested with.
// Children holds the resources discovered in this resource's document, in
// the order their links were discovered. Only HTML documents have children.
//
// A Node exclusively owns its children. There are no back references, so the
// tree never contains cycles even though the crawled link graph usually does.
type Node struct {
	// Name is the path of the resource, e.g. "/index.html".
	Name string `json:"name"`

	// Children are the linked resources, in discovery order.
	Children []*Node `json:"children,omitempty"`
}

// NewNode creates a childless Node with the given name.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Children: make([]*Node, 0),
	}
}

// AddChild appends child to the node's children.
// A nil child is ignored, which lets callers pass the result of a pruned
// branch straight through.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits the tree rooted at n in depth-first pre-order, calling fn with
// each node and its depth (the root has depth 0). If fn returns false the
// node's children are skipped.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the tree rooted at n, including n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(_ *Node, _ int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels below n. A leaf has depth 0.
func (n *Node) Depth() int {
	maxDepth := 0
	n.Walk(func(_ *Node, depth int) bool {
		if depth > maxDepth {
			maxDepth = depth
		}
		return true
	})
	return maxDepth
}
