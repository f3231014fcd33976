package services

import (
	"context"
	"errors"
	"testing"

	"github.com/abeniben/CodeSight/internal/models"
	"github.com/abeniben/CodeSight/internal/store"
)

type fixture struct {
	stores  *store.MemoryStores
	reviews *ReviewService
	subs    *SubmissionService
	userA   models.User
	userB   models.User
	userC   models.User
	userD   models.User
	sub     models.Submission
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemoryStores()

	mustUser := func(name, email string) models.User {
		u, err := m.Users.Create(ctx, models.User{Username: name, Email: email, Password: "x"})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		return u
	}

	f := &fixture{
		stores:  m,
		reviews: NewReviewService(m.Reviews, m.Replies, m.Votes),
		subs:    NewSubmissionService(m.Submissions),
		userA:   mustUser("alice", "alice@example.com"),
		userB:   mustUser("bob", "bob@example.com"),
		userC:   mustUser("carol", "carol@example.com"),
		userD:   mustUser("dave", "dave@example.com"),
	}

	sub, err := f.subs.Create(ctx, f.userA, "quicksort", "Go", "func qs() {}")
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	f.sub = sub
	return f
}

func TestCreateReviewValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "   "); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}

	r, err := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "  needs tests  ")
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if r.Comment != "needs tests" {
		t.Errorf("expected trimmed comment, got %q", r.Comment)
	}
	if r.UserID != f.userB.ID {
		t.Errorf("owner = %d, want %d", r.UserID, f.userB.ID)
	}
}

func TestUpdateReviewOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, _ := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "original")

	// Non-owner matches zero rows; not an error, not a success either
	_, matched, err := f.reviews.UpdateReview(ctx, f.userA, r.ID, "hijacked")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if matched {
		t.Fatal("non-owner update should not match")
	}
	got, _ := f.reviews.GetReview(ctx, r.ID)
	if got.Comment != "original" {
		t.Fatalf("comment changed by non-owner: %q", got.Comment)
	}

	updated, matched, err := f.reviews.UpdateReview(ctx, f.userB, r.ID, "edited")
	if err != nil || !matched {
		t.Fatalf("owner update: matched=%v err=%v", matched, err)
	}
	if updated.Comment != "edited" {
		t.Errorf("comment = %q, want %q", updated.Comment, "edited")
	}
}

func TestDeleteReviewIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, _ := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "to be removed")

	matched, err := f.reviews.DeleteReview(ctx, f.userB, r.ID)
	if err != nil || !matched {
		t.Fatalf("first delete: matched=%v err=%v", matched, err)
	}

	// Second delete matches nothing and is still not an error
	matched, err = f.reviews.DeleteReview(ctx, f.userB, r.ID)
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if matched {
		t.Fatal("second delete should match nothing")
	}
}

func TestCreateReplyParentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r1, _ := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "review one")
	r2, _ := f.reviews.CreateReview(ctx, f.userC, f.sub.ID, "review two")

	parent, err := f.reviews.CreateReply(ctx, f.userA, r1.ID, nil, "top-level reply")
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if parent.UserEmail != f.userA.Email {
		t.Errorf("user_email = %q, want %q", parent.UserEmail, f.userA.Email)
	}

	// Parent from a different review is rejected
	if _, err := f.reviews.CreateReply(ctx, f.userB, r2.ID, &parent.ID, "cross-thread"); !errors.Is(err, ErrParentMismatch) {
		t.Fatalf("expected ErrParentMismatch, got %v", err)
	}

	// Unknown review
	if _, err := f.reviews.CreateReply(ctx, f.userB, 9999, nil, "nowhere"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVoteToggleOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, _ := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "vote on me")

	count, userVote, err := f.reviews.CastVote(ctx, f.userC, r.ID, true)
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if count.Likes != 1 || count.Dislikes != 0 {
		t.Fatalf("after like: %+v", count)
	}
	if userVote == nil || *userVote != true {
		t.Fatalf("user vote after like: %v", userVote)
	}

	// Same vote again retracts it
	count, userVote, err = f.reviews.CastVote(ctx, f.userC, r.ID, true)
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if count.Likes != 0 || count.Dislikes != 0 {
		t.Fatalf("after toggle-off: %+v", count)
	}
	if userVote != nil {
		t.Fatalf("expected retracted vote, got %v", *userVote)
	}
}

func TestVoteOverwrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, _ := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "vote on me")

	if _, _, err := f.reviews.CastVote(ctx, f.userC, r.ID, true); err != nil {
		t.Fatalf("like: %v", err)
	}
	count, userVote, err := f.reviews.CastVote(ctx, f.userC, r.ID, false)
	if err != nil {
		t.Fatalf("dislike: %v", err)
	}
	if count.Likes != 0 || count.Dislikes != 1 {
		t.Fatalf("after overwrite: %+v", count)
	}
	if userVote == nil || *userVote != false {
		t.Fatalf("user vote after overwrite: %v", userVote)
	}

	// Exactly one row remains for (user, review)
	votes, _ := f.stores.Votes.ListByReview(ctx, r.ID)
	if len(votes) != 1 {
		t.Fatalf("expected 1 vote row, got %d", len(votes))
	}
}

func TestTallyMatchesRawRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, _ := f.reviews.CreateReview(ctx, f.userA, f.sub.ID, "tally me")

	f.reviews.CastVote(ctx, f.userB, r.ID, true)
	f.reviews.CastVote(ctx, f.userC, r.ID, true)
	f.reviews.CastVote(ctx, f.userD, r.ID, false)

	count, err := f.reviews.Tally(ctx, r.ID)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	votes, _ := f.stores.Votes.ListByReview(ctx, r.ID)
	want := TallyVotes(votes)[r.ID]
	if count != want {
		t.Fatalf("tally %+v != recount %+v", count, want)
	}
	if count.Likes != 2 || count.Dislikes != 1 {
		t.Fatalf("tally = %+v, want 2/1", count)
	}
}

// The end-to-end scenario: B reviews A's submission, A replies, C and
// D vote opposite ways.
func TestReviewThreadScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r1, err := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "needs tests")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	r2, err := f.reviews.CreateReply(ctx, f.userA, r1.ID, nil, "added in the next push")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}

	if _, _, err := f.reviews.CastVote(ctx, f.userC, r1.ID, true); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, _, err := f.reviews.CastVote(ctx, f.userD, r1.ID, false); err != nil {
		t.Fatalf("dislike: %v", err)
	}

	threads, err := f.reviews.ThreadsForSubmission(ctx, f.sub.ID, f.userC.ID)
	if err != nil {
		t.Fatalf("threads: %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("expected 1 review thread, got %d", len(threads))
	}
	thread := threads[0]
	if thread.Votes.Likes != 1 || thread.Votes.Dislikes != 1 {
		t.Fatalf("tally = %+v, want 1/1", thread.Votes)
	}
	if thread.UserVote == nil || *thread.UserVote != true {
		t.Fatalf("viewer vote = %v, want like", thread.UserVote)
	}
	if len(thread.Replies) != 1 || thread.Replies[0].Reply.ID != r2.ID {
		t.Fatalf("expected [r2] under r1, got %d roots", len(thread.Replies))
	}

	// childrenOf(r1, r2) is empty; childrenOf(r1, nil) = [r2]
	replies, _ := f.stores.Replies.ListByReview(ctx, r1.ID)
	if got := ChildrenOf(replies, r1.ID, &r2.ID); len(got) != 0 {
		t.Fatalf("expected no children under r2, got %d", len(got))
	}
	if got := ChildrenOf(replies, r1.ID, nil); len(got) != 1 || got[0].ID != r2.ID {
		t.Fatalf("expected [r2] at top level")
	}
}

func TestReviewUnderScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.subs.Create(ctx, f.userB, "other snippet", "Go", "y")
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	r, _ := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "on the first one")
	rep, _ := f.reviews.CreateReply(ctx, f.userA, r.ID, nil, "a reply")

	if _, err := f.reviews.ReviewUnder(ctx, f.sub.ID, r.ID); err != nil {
		t.Fatalf("review under own submission: %v", err)
	}
	if _, err := f.reviews.ReviewUnder(ctx, other.ID, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("review under wrong submission: %v", err)
	}
	if _, err := f.reviews.ReviewUnder(ctx, f.sub.ID, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown review: %v", err)
	}

	if _, err := f.reviews.ReplyUnder(ctx, f.sub.ID, rep.ID); err != nil {
		t.Fatalf("reply under own submission: %v", err)
	}
	if _, err := f.reviews.ReplyUnder(ctx, other.ID, rep.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("reply under wrong submission: %v", err)
	}
}

func TestDeleteReplyLeavesChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, _ := f.reviews.CreateReview(ctx, f.userB, f.sub.ID, "thread root")
	parent, _ := f.reviews.CreateReply(ctx, f.userA, r.ID, nil, "parent")
	child, _ := f.reviews.CreateReply(ctx, f.userC, r.ID, &parent.ID, "child")

	matched, err := f.reviews.DeleteReply(ctx, f.userA, parent.ID)
	if err != nil || !matched {
		t.Fatalf("delete parent: matched=%v err=%v", matched, err)
	}

	// The child row survives, still pointing at the vanished parent,
	// and drops out of the rendered thread.
	got, err := f.stores.Replies.Get(ctx, child.ID)
	if err != nil {
		t.Fatalf("child should survive: %v", err)
	}
	if got.ParentID == nil || *got.ParentID != parent.ID {
		t.Fatalf("child parent_id = %v, want %d", got.ParentID, parent.ID)
	}

	threads, _ := f.reviews.ThreadsForSubmission(ctx, f.sub.ID, 0)
	if len(threads[0].Replies) != 0 {
		t.Fatalf("orphaned child should not render, got %d roots", len(threads[0].Replies))
	}
}
