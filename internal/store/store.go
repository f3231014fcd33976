package store

import (
	"context"
	"errors"

	"github.com/abeniben/CodeSight/internal/models"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write would violate a uniqueness
// constraint the schema declares, like the user email index.
var ErrDuplicate = errors.New("duplicate record")

// UserStore is the identity backend: account rows plus the email
// update exposed on the profile page.
type UserStore interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateEmail(ctx context.Context, id uint, email string) error
}

// SubmissionUpdate carries the owner-mutable submission fields.
type SubmissionUpdate struct {
	Title    string
	Language string
	Code     string
}

// SubmissionStore persists code submissions. Update and Delete are
// scoped by owner as a compound filter and report how many rows the
// filter matched; zero means "not found or not yours" and must not be
// mistaken for success.
type SubmissionStore interface {
	Create(ctx context.Context, s models.Submission) (models.Submission, error)
	GetBySid(ctx context.Context, sid string) (models.Submission, error)
	ListAll(ctx context.Context) ([]models.Submission, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Submission, error)
	SearchByTitle(ctx context.Context, query string) ([]models.Submission, error)
	Update(ctx context.Context, sid string, userID uint, upd SubmissionUpdate) (models.Submission, int64, error)
	Delete(ctx context.Context, sid string, userID uint) (int64, error)
}

// ReviewStore persists top-level reviews on a submission.
type ReviewStore interface {
	Create(ctx context.Context, r models.Review) (models.Review, error)
	Get(ctx context.Context, id uint) (models.Review, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error)
	Update(ctx context.Context, id, userID uint, comment string) (models.Review, int64, error)
	Delete(ctx context.Context, id, userID uint) (int64, error)
}

// ReplyStore persists threaded replies under a review.
type ReplyStore interface {
	Create(ctx context.Context, r models.Reply) (models.Reply, error)
	Get(ctx context.Context, id uint) (models.Reply, error)
	ListByReview(ctx context.Context, reviewID uint) ([]models.Reply, error)
	Update(ctx context.Context, id, userID uint, comment string) (models.Reply, int64, error)
	Delete(ctx context.Context, id, userID uint) (int64, error)
}

// VoteStore persists like/dislike votes, one row per (review, user).
type VoteStore interface {
	Get(ctx context.Context, reviewID, userID uint) (models.ReviewVote, error)
	Upsert(ctx context.Context, v models.ReviewVote) error
	Delete(ctx context.Context, reviewID, userID uint) (int64, error)
	ListByReview(ctx context.Context, reviewID uint) ([]models.ReviewVote, error)
	ListByReviews(ctx context.Context, reviewIDs []uint) ([]models.ReviewVote, error)
}
