package services

import (
	"context"
	"errors"
	"strings"

	"github.com/abeniben/CodeSight/internal/models"
	"github.com/abeniben/CodeSight/internal/store"
)

var (
	// ErrEmptyComment rejects a review or reply that is blank after trimming.
	ErrEmptyComment = errors.New("comment must not be empty")
	// ErrParentMismatch rejects a reply whose parent belongs to a different review.
	ErrParentMismatch = errors.New("parent reply belongs to a different review")
)

// ReviewService orchestrates review and reply mutations, the vote
// toggle protocol, and assembly of the threaded review view. The
// acting user is an argument on every call, never ambient state.
type ReviewService struct {
	reviews store.ReviewStore
	replies store.ReplyStore
	votes   store.VoteStore
}

func NewReviewService(reviews store.ReviewStore, replies store.ReplyStore, votes store.VoteStore) *ReviewService {
	return &ReviewService{reviews: reviews, replies: replies, votes: votes}
}

// ReviewThread is one review decorated for display: tally, the
// viewer's own vote if any, and the nested reply thread.
type ReviewThread struct {
	Review   models.Review    `json:"review"`
	Votes    models.VoteCount `json:"votes"`
	UserVote *bool            `json:"user_vote"`
	Replies  []*ThreadNode    `json:"replies"`
}

func (s *ReviewService) CreateReview(ctx context.Context, user models.User, submissionID uint, comment string) (models.Review, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return models.Review{}, ErrEmptyComment
	}
	return s.reviews.Create(ctx, models.Review{
		SubmissionID: submissionID,
		UserID:       user.ID,
		Comment:      comment,
	})
}

// UpdateReview edits the caller's own review. matched reports whether
// the compound (id, owner) filter hit a row; false is not an error,
// just nothing to update.
func (s *ReviewService) UpdateReview(ctx context.Context, user models.User, reviewID uint, comment string) (models.Review, bool, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return models.Review{}, false, ErrEmptyComment
	}
	r, n, err := s.reviews.Update(ctx, reviewID, user.ID, comment)
	return r, n > 0, err
}

// DeleteReview removes the caller's own review. Deleting something
// already gone (or not yours) is a no-op, so the call is idempotent.
func (s *ReviewService) DeleteReview(ctx context.Context, user models.User, reviewID uint) (bool, error) {
	n, err := s.reviews.Delete(ctx, reviewID, user.ID)
	return n > 0, err
}

func (s *ReviewService) CreateReply(ctx context.Context, user models.User, reviewID uint, parentID *uint, comment string) (models.Reply, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return models.Reply{}, ErrEmptyComment
	}
	if _, err := s.reviews.Get(ctx, reviewID); err != nil {
		return models.Reply{}, err
	}
	if parentID != nil {
		parent, err := s.replies.Get(ctx, *parentID)
		if err != nil {
			return models.Reply{}, err
		}
		if parent.ReviewID != reviewID {
			return models.Reply{}, ErrParentMismatch
		}
	}
	return s.replies.Create(ctx, models.Reply{
		ReviewID:  reviewID,
		ParentID:  parentID,
		UserID:    user.ID,
		UserEmail: user.Email,
		Comment:   comment,
	})
}

func (s *ReviewService) UpdateReply(ctx context.Context, user models.User, replyID uint, comment string) (models.Reply, bool, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return models.Reply{}, false, ErrEmptyComment
	}
	r, n, err := s.replies.Update(ctx, replyID, user.ID, comment)
	return r, n > 0, err
}

// DeleteReply removes one reply without touching its children; they
// keep referencing the vanished parent and drop out of the rendered
// thread. Cascade versus re-parent is an open product call.
func (s *ReviewService) DeleteReply(ctx context.Context, user models.User, replyID uint) (bool, error) {
	n, err := s.replies.Delete(ctx, replyID, user.ID)
	return n > 0, err
}

// CastVote runs the toggle protocol for (user, review): no prior vote
// inserts, a repeat of the same value retracts, the opposite value
// overwrites. The returned tally is recomputed from the vote rows, not
// adjusted locally, and the second return is the user's vote after the
// call (nil when retracted).
func (s *ReviewService) CastVote(ctx context.Context, user models.User, reviewID uint, desired bool) (models.VoteCount, *bool, error) {
	if _, err := s.reviews.Get(ctx, reviewID); err != nil {
		return models.VoteCount{}, nil, err
	}

	current, err := s.votes.Get(ctx, reviewID, user.ID)
	switch {
	case err == nil && current.Vote == desired:
		// Un-vote
		if _, err := s.votes.Delete(ctx, reviewID, user.ID); err != nil {
			return models.VoteCount{}, nil, err
		}
		count, err := s.Tally(ctx, reviewID)
		return count, nil, err
	case err == nil || errors.Is(err, store.ErrNotFound):
		if err := s.votes.Upsert(ctx, models.ReviewVote{
			ReviewID: reviewID,
			UserID:   user.ID,
			Vote:     desired,
		}); err != nil {
			return models.VoteCount{}, nil, err
		}
		count, err := s.Tally(ctx, reviewID)
		vote := desired
		return count, &vote, err
	default:
		return models.VoteCount{}, nil, err
	}
}

// Tally recounts one review's likes and dislikes from the vote rows.
func (s *ReviewService) Tally(ctx context.Context, reviewID uint) (models.VoteCount, error) {
	votes, err := s.votes.ListByReview(ctx, reviewID)
	if err != nil {
		return models.VoteCount{}, err
	}
	return TallyVotes(votes)[reviewID], nil
}

// UserVote looks up the viewer's vote on one review; nil if never voted.
func (s *ReviewService) UserVote(ctx context.Context, user models.User, reviewID uint) (*bool, error) {
	v, err := s.votes.Get(ctx, reviewID, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	vote := v.Vote
	return &vote, nil
}

// VotesOf returns one user's current vote per review for a set of
// reviews, keyed by review id.
func (s *ReviewService) VotesOf(ctx context.Context, userID uint, reviewIDs []uint) (map[uint]bool, error) {
	votes, err := s.votes.ListByReviews(ctx, reviewIDs)
	if err != nil {
		return nil, err
	}
	return UserVotes(votes, userID), nil
}

// GetReview fetches one review by id.
func (s *ReviewService) GetReview(ctx context.Context, reviewID uint) (models.Review, error) {
	return s.reviews.Get(ctx, reviewID)
}

// GetReply fetches one reply by id.
func (s *ReviewService) GetReply(ctx context.Context, replyID uint) (models.Reply, error) {
	return s.replies.Get(ctx, replyID)
}

// ReviewUnder fetches a review and confirms it belongs to the given
// submission. A review reached through the wrong submission is not
// found, as far as that URL is concerned.
func (s *ReviewService) ReviewUnder(ctx context.Context, submissionID, reviewID uint) (models.Review, error) {
	r, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return models.Review{}, err
	}
	if r.SubmissionID != submissionID {
		return models.Review{}, store.ErrNotFound
	}
	return r, nil
}

// ReplyUnder fetches a reply and confirms its review belongs to the
// given submission.
func (s *ReviewService) ReplyUnder(ctx context.Context, submissionID, replyID uint) (models.Reply, error) {
	rep, err := s.replies.Get(ctx, replyID)
	if err != nil {
		return models.Reply{}, err
	}
	if _, err := s.ReviewUnder(ctx, submissionID, rep.ReviewID); err != nil {
		return models.Reply{}, err
	}
	return rep, nil
}

// ThreadsForSubmission assembles the full review panel for one
// submission: reviews newest first, each with its tally, the viewer's
// vote, and the nested reply thread. viewerID 0 means signed out.
func (s *ReviewService) ThreadsForSubmission(ctx context.Context, submissionID uint, viewerID uint) ([]ReviewThread, error) {
	reviews, err := s.reviews.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}
	votes, err := s.votes.ListByReviews(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts := TallyVotes(votes)
	mine := UserVotes(votes, viewerID)

	threads := make([]ReviewThread, len(reviews))
	for i, r := range reviews {
		replies, err := s.replies.ListByReview(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		t := ReviewThread{
			Review:  r,
			Votes:   counts[r.ID],
			Replies: BuildReplyTree(replies, r.ID),
		}
		if v, ok := mine[r.ID]; ok && viewerID != 0 {
			vote := v
			t.UserVote = &vote
		}
		threads[i] = t
	}
	return threads, nil
}
