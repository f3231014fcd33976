package services

import (
	"context"
	"errors"
	"strings"

	"github.com/abeniben/CodeSight/internal/models"
	"github.com/abeniben/CodeSight/internal/store"
	"github.com/abeniben/CodeSight/internal/utils"
)

// ErrMissingFields rejects a submission with a blank title, language or code.
var ErrMissingFields = errors.New("title, language and code are required")

// SubmissionService owns the snippet lifecycle plus the dashboard
// partition and title search.
type SubmissionService struct {
	subs store.SubmissionStore
}

func NewSubmissionService(subs store.SubmissionStore) *SubmissionService {
	return &SubmissionService{subs: subs}
}

// Partition is the dashboard split: the viewer's own snippets and
// everyone else's, both newest first.
type Partition struct {
	Mine      []models.Submission `json:"mine"`
	Community []models.Submission `json:"community"`
}

func (s *SubmissionService) Create(ctx context.Context, user models.User, title, language, code string) (models.Submission, error) {
	title = strings.TrimSpace(title)
	language = strings.TrimSpace(language)
	if title == "" || language == "" || strings.TrimSpace(code) == "" {
		return models.Submission{}, ErrMissingFields
	}
	return s.subs.Create(ctx, models.Submission{
		Sid:      utils.RandStringBytesMaskImpr(8),
		UserID:   user.ID,
		Title:    title,
		Language: language,
		Code:     code,
	})
}

// List fetches every submission newest first and partitions it around
// the viewer in a single pass.
func (s *SubmissionService) List(ctx context.Context, viewerID uint) (Partition, error) {
	subs, err := s.subs.ListAll(ctx)
	if err != nil {
		return Partition{}, err
	}
	p := Partition{Mine: []models.Submission{}, Community: []models.Submission{}}
	for _, sub := range subs {
		if sub.UserID == viewerID {
			p.Mine = append(p.Mine, sub)
		} else {
			p.Community = append(p.Community, sub)
		}
	}
	return p, nil
}

// Search runs a case-insensitive title substring match, newest first.
// Whether an empty query means "leave search mode" is the caller's
// concern; here it just matches everything.
func (s *SubmissionService) Search(ctx context.Context, query string) ([]models.Submission, error) {
	subs, err := s.subs.SearchByTitle(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, nil
}

func (s *SubmissionService) GetBySid(ctx context.Context, sid string) (models.Submission, error) {
	return s.subs.GetBySid(ctx, sid)
}

func (s *SubmissionService) ListOwn(ctx context.Context, user models.User) ([]models.Submission, error) {
	subs, err := s.subs.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, nil
}

// Update edits the caller's own submission; matched is false when the
// (sid, owner) filter hit nothing.
func (s *SubmissionService) Update(ctx context.Context, user models.User, sid string, title, language, code string) (models.Submission, bool, error) {
	title = strings.TrimSpace(title)
	language = strings.TrimSpace(language)
	if title == "" || language == "" || strings.TrimSpace(code) == "" {
		return models.Submission{}, false, ErrMissingFields
	}
	sub, n, err := s.subs.Update(ctx, sid, user.ID, store.SubmissionUpdate{
		Title:    title,
		Language: language,
		Code:     code,
	})
	return sub, n > 0, err
}

// Delete removes the caller's own submission; idempotent.
func (s *SubmissionService) Delete(ctx context.Context, user models.User, sid string) (bool, error) {
	n, err := s.subs.Delete(ctx, sid, user.ID)
	return n > 0, err
}
