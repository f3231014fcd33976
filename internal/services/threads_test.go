package services

import (
	"testing"
	"time"

	"github.com/abeniben/CodeSight/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func makeReply(id uint, reviewID uint, parentID *uint) models.Reply {
	return models.Reply{
		ID:        id,
		ReviewID:  reviewID,
		ParentID:  parentID,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, int(id), 0, time.UTC),
	}
}

func TestChildrenOf(t *testing.T) {
	replies := []models.Reply{
		makeReply(1, 10, nil),
		makeReply(2, 10, uintPtr(1)),
		makeReply(3, 10, uintPtr(1)),
		makeReply(4, 10, nil),
		makeReply(5, 99, nil), // other review
	}

	top := ChildrenOf(replies, 10, nil)
	if len(top) != 2 || top[0].ID != 1 || top[1].ID != 4 {
		t.Fatalf("expected top-level [1 4], got %v", ids(top))
	}

	under1 := ChildrenOf(replies, 10, uintPtr(1))
	if len(under1) != 2 || under1[0].ID != 2 || under1[1].ID != 3 {
		t.Fatalf("expected children of 1 to be [2 3], got %v", ids(under1))
	}

	if got := ChildrenOf(replies, 10, uintPtr(4)); len(got) != 0 {
		t.Fatalf("expected no children of 4, got %v", ids(got))
	}
}

// Every reply of a review lands in exactly one parent bucket, and the
// buckets together cover the whole set.
func TestChildrenOfPartitionsDisjointly(t *testing.T) {
	replies := []models.Reply{
		makeReply(1, 10, nil),
		makeReply(2, 10, uintPtr(1)),
		makeReply(3, 10, uintPtr(2)),
		makeReply(4, 10, uintPtr(1)),
		makeReply(5, 10, nil),
	}

	seen := make(map[uint]int)
	parents := []*uint{nil, uintPtr(1), uintPtr(2), uintPtr(3), uintPtr(4), uintPtr(5)}
	for _, p := range parents {
		for _, r := range ChildrenOf(replies, 10, p) {
			seen[r.ID]++
		}
	}

	if len(seen) != len(replies) {
		t.Fatalf("expected all %d replies covered, got %d", len(replies), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("reply %d appeared in %d buckets, want 1", id, n)
		}
	}
}

func TestBuildReplyTreeNesting(t *testing.T) {
	replies := []models.Reply{
		makeReply(1, 10, nil),
		makeReply(2, 10, uintPtr(1)),
		makeReply(3, 10, uintPtr(2)),
		makeReply(4, 10, nil),
	}

	tree := BuildReplyTree(replies, 10)
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	if tree[0].Reply.ID != 1 || tree[1].Reply.ID != 4 {
		t.Fatalf("expected roots [1 4], got [%d %d]", tree[0].Reply.ID, tree[1].Reply.ID)
	}
	if tree[0].Depth != 0 {
		t.Errorf("root depth = %d, want 0", tree[0].Depth)
	}

	if len(tree[0].Children) != 1 || tree[0].Children[0].Reply.ID != 2 {
		t.Fatalf("expected 2 under 1, got %v", tree[0].Children)
	}
	grand := tree[0].Children[0]
	if grand.Depth != 1 {
		t.Errorf("child depth = %d, want 1", grand.Depth)
	}
	if len(grand.Children) != 1 || grand.Children[0].Reply.ID != 3 {
		t.Fatalf("expected 3 under 2, got %v", grand.Children)
	}
	if grand.Children[0].Depth != 2 {
		t.Errorf("grandchild depth = %d, want 2", grand.Children[0].Depth)
	}
}

func TestBuildReplyTreeIgnoresOtherReviews(t *testing.T) {
	replies := []models.Reply{
		makeReply(1, 10, nil),
		makeReply(2, 11, nil),
	}
	tree := BuildReplyTree(replies, 10)
	if len(tree) != 1 || tree[0].Reply.ID != 1 {
		t.Fatalf("expected only review 10's reply, got %d roots", len(tree))
	}
}

// A malformed parent chain must not hang the builder.
func TestBuildReplyTreeCycleGuard(t *testing.T) {
	replies := []models.Reply{
		makeReply(1, 10, nil),
		makeReply(2, 10, uintPtr(3)), // 2 and 3 point at each other
		makeReply(3, 10, uintPtr(2)),
	}

	done := make(chan []*ThreadNode, 1)
	go func() { done <- BuildReplyTree(replies, 10) }()

	select {
	case tree := <-done:
		if len(tree) != 1 || tree[0].Reply.ID != 1 {
			t.Fatalf("expected the one well-formed root, got %d roots", len(tree))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree build did not terminate on a parent cycle")
	}
}

func TestBuildReplyTreeOrphanDropsOut(t *testing.T) {
	// Parent 7 was deleted; its child stays in the table but cannot be
	// reached from the roots.
	replies := []models.Reply{
		makeReply(1, 10, nil),
		makeReply(2, 10, uintPtr(7)),
	}
	tree := BuildReplyTree(replies, 10)
	if len(tree) != 1 || len(tree[0].Children) != 0 {
		t.Fatalf("expected orphan to be unrendered, got %d roots", len(tree))
	}
}

func ids(replies []models.Reply) []uint {
	out := make([]uint, len(replies))
	for i, r := range replies {
		out[i] = r.ID
	}
	return out
}
