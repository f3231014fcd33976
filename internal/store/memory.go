package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abeniben/CodeSight/internal/models"
)

// MemoryStores is an in-memory implementation of the store interfaces
// for tests and local experiments. A single clock counter stands in
// for created_at so insertion order is total even within one tick.
type MemoryStores struct {
	mu     sync.RWMutex
	nextID uint
	clock  time.Time

	users       map[uint]models.User
	submissions map[uint]models.Submission
	reviews     map[uint]models.Review
	replies     map[uint]models.Reply
	votes       map[uint]models.ReviewVote // keyed by vote row id

	Users       UserStore
	Submissions SubmissionStore
	Reviews     ReviewStore
	Replies     ReplyStore
	Votes       VoteStore
}

func NewMemoryStores() *MemoryStores {
	m := &MemoryStores{
		clock:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:       make(map[uint]models.User),
		submissions: make(map[uint]models.Submission),
		reviews:     make(map[uint]models.Review),
		replies:     make(map[uint]models.Reply),
		votes:       make(map[uint]models.ReviewVote),
	}
	m.Users = &memUserStore{m}
	m.Submissions = &memSubmissionStore{m}
	m.Reviews = &memReviewStore{m}
	m.Replies = &memReplyStore{m}
	m.Votes = &memVoteStore{m}
	return m
}

// tick hands out a strictly increasing id and timestamp. Callers hold mu.
func (m *MemoryStores) tick() (uint, time.Time) {
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	return m.nextID, m.clock
}

type memUserStore struct{ m *MemoryStores }

func (s *memUserStore) Create(_ context.Context, u models.User) (models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.users {
		if existing.Email == u.Email {
			return models.User{}, ErrDuplicate
		}
	}
	u.ID, u.CreatedAt = s.m.tick()
	u.UpdatedAt = u.CreatedAt
	s.m.users[u.ID] = u
	return u, nil
}

func (s *memUserStore) GetByID(_ context.Context, id uint) (models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	u, ok := s.m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, u := range s.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *memUserStore) UpdateEmail(_ context.Context, id uint, email string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range s.m.users {
		if existing.ID != id && existing.Email == email {
			return ErrDuplicate
		}
	}
	u.Email = email
	s.m.users[id] = u
	return nil
}

type memSubmissionStore struct{ m *MemoryStores }

func (s *memSubmissionStore) Create(_ context.Context, sub models.Submission) (models.Submission, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sub.ID, sub.CreatedAt = s.m.tick()
	sub.UpdatedAt = sub.CreatedAt
	sub.User = s.m.users[sub.UserID]
	s.m.submissions[sub.ID] = sub
	return sub, nil
}

func (s *memSubmissionStore) GetBySid(_ context.Context, sid string) (models.Submission, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, sub := range s.m.submissions {
		if sub.Sid == sid {
			return sub, nil
		}
	}
	return models.Submission{}, ErrNotFound
}

func (s *memSubmissionStore) ListAll(_ context.Context) ([]models.Submission, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return s.collect(func(models.Submission) bool { return true }), nil
}

func (s *memSubmissionStore) ListByUser(_ context.Context, userID uint) ([]models.Submission, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return s.collect(func(sub models.Submission) bool { return sub.UserID == userID }), nil
}

func (s *memSubmissionStore) SearchByTitle(_ context.Context, query string) ([]models.Submission, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	q := strings.ToLower(query)
	return s.collect(func(sub models.Submission) bool {
		return strings.Contains(strings.ToLower(sub.Title), q)
	}), nil
}

// collect returns matching submissions in created_at DESC order with
// review counts filled. Callers hold mu.
func (s *memSubmissionStore) collect(match func(models.Submission) bool) []models.Submission {
	var subs []models.Submission
	for _, sub := range s.m.submissions {
		if match(sub) {
			for _, r := range s.m.reviews {
				if r.SubmissionID == sub.ID {
					sub.ReviewCount++
				}
			}
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.After(subs[j].CreatedAt)
		}
		return subs[i].ID > subs[j].ID
	})
	return subs
}

func (s *memSubmissionStore) Update(_ context.Context, sid string, userID uint, upd SubmissionUpdate) (models.Submission, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, sub := range s.m.submissions {
		if sub.Sid == sid && sub.UserID == userID {
			sub.Title = upd.Title
			sub.Language = upd.Language
			sub.Code = upd.Code
			sub.UpdatedAt = s.m.clock
			s.m.submissions[id] = sub
			return sub, 1, nil
		}
	}
	return models.Submission{}, 0, nil
}

func (s *memSubmissionStore) Delete(_ context.Context, sid string, userID uint) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, sub := range s.m.submissions {
		if sub.Sid == sid && sub.UserID == userID {
			delete(s.m.submissions, id)
			// Cascade the way the foreign keys do
			for rid, r := range s.m.reviews {
				if r.SubmissionID == id {
					s.deleteReviewCascade(rid)
				}
			}
			return 1, nil
		}
	}
	return 0, nil
}

// deleteReviewCascade removes a review with its replies and votes.
// Callers hold mu.
func (s *memSubmissionStore) deleteReviewCascade(reviewID uint) {
	delete(s.m.reviews, reviewID)
	for id, rep := range s.m.replies {
		if rep.ReviewID == reviewID {
			delete(s.m.replies, id)
		}
	}
	for id, v := range s.m.votes {
		if v.ReviewID == reviewID {
			delete(s.m.votes, id)
		}
	}
}

type memReviewStore struct{ m *MemoryStores }

func (s *memReviewStore) Create(_ context.Context, r models.Review) (models.Review, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r.ID, r.CreatedAt = s.m.tick()
	r.UpdatedAt = r.CreatedAt
	r.User = s.m.users[r.UserID]
	s.m.reviews[r.ID] = r
	return r, nil
}

func (s *memReviewStore) Get(_ context.Context, id uint) (models.Review, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.reviews[id]
	if !ok {
		return models.Review{}, ErrNotFound
	}
	return r, nil
}

func (s *memReviewStore) ListBySubmission(_ context.Context, submissionID uint) ([]models.Review, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var reviews []models.Review
	for _, r := range s.m.reviews {
		if r.SubmissionID == submissionID {
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID > reviews[j].ID
	})
	return reviews, nil
}

func (s *memReviewStore) Update(_ context.Context, id, userID uint, comment string) (models.Review, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reviews[id]
	if !ok || r.UserID != userID {
		return models.Review{}, 0, nil
	}
	r.Comment = comment
	r.UpdatedAt = s.m.clock
	s.m.reviews[id] = r
	return r, 1, nil
}

func (s *memReviewStore) Delete(_ context.Context, id, userID uint) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reviews[id]
	if !ok || r.UserID != userID {
		return 0, nil
	}
	(&memSubmissionStore{s.m}).deleteReviewCascade(r.ID)
	return 1, nil
}

type memReplyStore struct{ m *MemoryStores }

func (s *memReplyStore) Create(_ context.Context, r models.Reply) (models.Reply, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r.ID, r.CreatedAt = s.m.tick()
	r.UpdatedAt = r.CreatedAt
	r.User = s.m.users[r.UserID]
	s.m.replies[r.ID] = r
	return r, nil
}

func (s *memReplyStore) Get(_ context.Context, id uint) (models.Reply, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.replies[id]
	if !ok {
		return models.Reply{}, ErrNotFound
	}
	return r, nil
}

func (s *memReplyStore) ListByReview(_ context.Context, reviewID uint) ([]models.Reply, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var replies []models.Reply
	for _, r := range s.m.replies {
		if r.ReviewID == reviewID {
			replies = append(replies, r)
		}
	}
	sort.Slice(replies, func(i, j int) bool {
		if !replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		}
		return replies[i].ID < replies[j].ID
	})
	return replies, nil
}

func (s *memReplyStore) Update(_ context.Context, id, userID uint, comment string) (models.Reply, int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.replies[id]
	if !ok || r.UserID != userID {
		return models.Reply{}, 0, nil
	}
	r.Comment = comment
	r.UpdatedAt = s.m.clock
	s.m.replies[id] = r
	return r, 1, nil
}

func (s *memReplyStore) Delete(_ context.Context, id, userID uint) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.replies[id]
	if !ok || r.UserID != userID {
		return 0, nil
	}
	// Children are left in place, still pointing at the deleted id
	delete(s.m.replies, id)
	return 1, nil
}

type memVoteStore struct{ m *MemoryStores }

func (s *memVoteStore) Get(_ context.Context, reviewID, userID uint) (models.ReviewVote, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, v := range s.m.votes {
		if v.ReviewID == reviewID && v.UserID == userID {
			return v, nil
		}
	}
	return models.ReviewVote{}, ErrNotFound
}

func (s *memVoteStore) Upsert(_ context.Context, v models.ReviewVote) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, old := range s.m.votes {
		if old.ReviewID == v.ReviewID && old.UserID == v.UserID {
			old.Vote = v.Vote
			s.m.votes[id] = old
			return nil
		}
	}
	v.ID, v.CreatedAt = s.m.tick()
	s.m.votes[v.ID] = v
	return nil
}

func (s *memVoteStore) Delete(_ context.Context, reviewID, userID uint) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, v := range s.m.votes {
		if v.ReviewID == reviewID && v.UserID == userID {
			delete(s.m.votes, id)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *memVoteStore) ListByReview(_ context.Context, reviewID uint) ([]models.ReviewVote, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var votes []models.ReviewVote
	for _, v := range s.m.votes {
		if v.ReviewID == reviewID {
			votes = append(votes, v)
		}
	}
	return votes, nil
}

func (s *memVoteStore) ListByReviews(_ context.Context, reviewIDs []uint) ([]models.ReviewVote, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	want := make(map[uint]bool, len(reviewIDs))
	for _, id := range reviewIDs {
		want[id] = true
	}
	var votes []models.ReviewVote
	for _, v := range s.m.votes {
		if want[v.ReviewID] {
			votes = append(votes, v)
		}
	}
	return votes, nil
}
