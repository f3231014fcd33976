package services

import (
	"github.com/abeniben/CodeSight/internal/models"
)

// ThreadNode is one reply with its nested children. Depth starts at 0
// for replies attached directly to the review and only matters for
// indentation.
type ThreadNode struct {
	Reply    models.Reply  `json:"reply"`
	Depth    int           `json:"depth"`
	Children []*ThreadNode `json:"children"`
}

// ChildrenOf returns the replies of one review under one parent
// (nil parent = attached directly to the review), keeping input order.
func ChildrenOf(replies []models.Reply, reviewID uint, parentID *uint) []models.Reply {
	var out []models.Reply
	for _, r := range replies {
		if r.ReviewID != reviewID {
			continue
		}
		if parentID == nil {
			if r.ParentID == nil {
				out = append(out, r)
			}
		} else if r.ParentID != nil && *r.ParentID == *parentID {
			out = append(out, r)
		}
	}
	return out
}

// BuildReplyTree organizes a flat created_at-ascending reply list into
// the nested thread for one review. The walk is iterative over a
// parent-indexed adjacency map and tracks visited ids, so a malformed
// parent chain (a cycle, or a parent pointing at a descendant) cannot
// loop; unreachable replies are simply not rendered, matching what a
// recursive walk from the roots would show.
func BuildReplyTree(replies []models.Reply, reviewID uint) []*ThreadNode {
	children := make(map[uint][]models.Reply)
	var roots []models.Reply
	for _, r := range replies {
		if r.ReviewID != reviewID {
			continue
		}
		if r.ParentID == nil {
			roots = append(roots, r)
		} else {
			children[*r.ParentID] = append(children[*r.ParentID], r)
		}
	}

	visited := make(map[uint]bool)

	var out []*ThreadNode
	type frame struct {
		node *ThreadNode
	}
	var stack []frame

	for _, r := range roots {
		node := &ThreadNode{Reply: r, Depth: 0, Children: []*ThreadNode{}}
		out = append(out, node)
		visited[r.ID] = true
		stack = append(stack, frame{node})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range children[f.node.Reply.ID] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			node := &ThreadNode{Reply: child, Depth: f.node.Depth + 1, Children: []*ThreadNode{}}
			f.node.Children = append(f.node.Children, node)
			stack = append(stack, frame{node})
		}
	}

	return out
}
