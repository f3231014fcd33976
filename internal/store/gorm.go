package store

import (
	"context"
	"errors"

	"github.com/abeniben/CodeSight/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStores bundles the Postgres-backed implementations sharing one
// gorm handle.
type GormStores struct {
	Users       UserStore
	Submissions SubmissionStore
	Reviews     ReviewStore
	Replies     ReplyStore
	Votes       VoteStore
}

func NewGormStores(db *gorm.DB) *GormStores {
	return &GormStores{
		Users:       &gormUserStore{db: db},
		Submissions: &gormSubmissionStore{db: db},
		Reviews:     &gormReviewStore{db: db},
		Replies:     &gormReplyStore{db: db},
		Votes:       &gormVoteStore{db: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type gormUserStore struct {
	db *gorm.DB
}

func (s *gormUserStore) Create(ctx context.Context, u models.User) (models.User, error) {
	err := s.db.WithContext(ctx).Create(&u).Error
	return u, err
}

func (s *gormUserStore) GetByID(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	return u, translate(err)
}

func (s *gormUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return u, translate(err)
}

func (s *gormUserStore) UpdateEmail(ctx context.Context, id uint, email string) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("email", email).Error
}

type gormSubmissionStore struct {
	db *gorm.DB
}

func (s *gormSubmissionStore) Create(ctx context.Context, sub models.Submission) (models.Submission, error) {
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return models.Submission{}, err
	}
	// Echo with the owner preloaded, the way list queries return rows
	err := s.db.WithContext(ctx).Preload("User").First(&sub, sub.ID).Error
	return sub, err
}

func (s *gormSubmissionStore) GetBySid(ctx context.Context, sid string) (models.Submission, error) {
	var sub models.Submission
	err := s.db.WithContext(ctx).Preload("User").Where("sid = ?", sid).First(&sub).Error
	return sub, translate(err)
}

func (s *gormSubmissionStore) ListAll(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).Preload("User").
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, s.fillReviewCounts(ctx, subs)
}

func (s *gormSubmissionStore) ListByUser(ctx context.Context, userID uint) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, s.fillReviewCounts(ctx, subs)
}

func (s *gormSubmissionStore) SearchByTitle(ctx context.Context, query string) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).Preload("User").
		Where("title ILIKE ?", "%"+query+"%").
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, s.fillReviewCounts(ctx, subs)
}

// fillReviewCounts batch-fills the derived review count for list rows.
func (s *gormSubmissionStore) fillReviewCounts(ctx context.Context, subs []models.Submission) error {
	if len(subs) == 0 {
		return nil
	}

	ids := make([]uint, len(subs))
	for i, sub := range subs {
		ids[i] = sub.ID
	}

	type countResult struct {
		SubmissionID uint
		Count        int
	}
	var results []countResult
	err := s.db.WithContext(ctx).Model(&models.Review{}).
		Select("submission_id, COUNT(*) as count").
		Where("submission_id IN ?", ids).
		Group("submission_id").
		Scan(&results).Error
	if err != nil {
		return err
	}

	countMap := make(map[uint]int, len(results))
	for _, r := range results {
		countMap[r.SubmissionID] = r.Count
	}
	for i := range subs {
		subs[i].ReviewCount = countMap[subs[i].ID]
	}
	return nil
}

func (s *gormSubmissionStore) Update(ctx context.Context, sid string, userID uint, upd SubmissionUpdate) (models.Submission, int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("sid = ? AND user_id = ?", sid, userID).
		Updates(map[string]interface{}{
			"title":    upd.Title,
			"language": upd.Language,
			"code":     upd.Code,
		})
	if res.Error != nil || res.RowsAffected == 0 {
		return models.Submission{}, res.RowsAffected, res.Error
	}

	var sub models.Submission
	err := s.db.WithContext(ctx).Preload("User").Where("sid = ?", sid).First(&sub).Error
	return sub, res.RowsAffected, translate(err)
}

func (s *gormSubmissionStore) Delete(ctx context.Context, sid string, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("sid = ? AND user_id = ?", sid, userID).
		Delete(&models.Submission{})
	return res.RowsAffected, res.Error
}

type gormReviewStore struct {
	db *gorm.DB
}

func (s *gormReviewStore) Create(ctx context.Context, r models.Review) (models.Review, error) {
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return models.Review{}, err
	}
	err := s.db.WithContext(ctx).Preload("User").First(&r, r.ID).Error
	return r, err
}

func (s *gormReviewStore) Get(ctx context.Context, id uint) (models.Review, error) {
	var r models.Review
	err := s.db.WithContext(ctx).Preload("User").First(&r, id).Error
	return r, translate(err)
}

func (s *gormReviewStore) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).Preload("User").
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (s *gormReviewStore) Update(ctx context.Context, id, userID uint, comment string) (models.Review, int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("comment", comment)
	if res.Error != nil || res.RowsAffected == 0 {
		return models.Review{}, res.RowsAffected, res.Error
	}

	var r models.Review
	err := s.db.WithContext(ctx).Preload("User").First(&r, id).Error
	return r, res.RowsAffected, translate(err)
}

func (s *gormReviewStore) Delete(ctx context.Context, id, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Review{})
	return res.RowsAffected, res.Error
}

type gormReplyStore struct {
	db *gorm.DB
}

func (s *gormReplyStore) Create(ctx context.Context, r models.Reply) (models.Reply, error) {
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return models.Reply{}, err
	}
	err := s.db.WithContext(ctx).Preload("User").First(&r, r.ID).Error
	return r, err
}

func (s *gormReplyStore) Get(ctx context.Context, id uint) (models.Reply, error) {
	var r models.Reply
	err := s.db.WithContext(ctx).Preload("User").First(&r, id).Error
	return r, translate(err)
}

func (s *gormReplyStore) ListByReview(ctx context.Context, reviewID uint) ([]models.Reply, error) {
	var replies []models.Reply
	err := s.db.WithContext(ctx).Preload("User").
		Where("review_id = ?", reviewID).
		Order("created_at ASC").
		Find(&replies).Error
	return replies, err
}

func (s *gormReplyStore) Update(ctx context.Context, id, userID uint, comment string) (models.Reply, int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Reply{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("comment", comment)
	if res.Error != nil || res.RowsAffected == 0 {
		return models.Reply{}, res.RowsAffected, res.Error
	}

	var r models.Reply
	err := s.db.WithContext(ctx).Preload("User").First(&r, id).Error
	return r, res.RowsAffected, translate(err)
}

func (s *gormReplyStore) Delete(ctx context.Context, id, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Reply{})
	return res.RowsAffected, res.Error
}

type gormVoteStore struct {
	db *gorm.DB
}

func (s *gormVoteStore) Get(ctx context.Context, reviewID, userID uint) (models.ReviewVote, error) {
	var v models.ReviewVote
	err := s.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		First(&v).Error
	return v, translate(err)
}

func (s *gormVoteStore) Upsert(ctx context.Context, v models.ReviewVote) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "review_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote"}),
	}).Create(&v).Error
}

func (s *gormVoteStore) Delete(ctx context.Context, reviewID, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Delete(&models.ReviewVote{})
	return res.RowsAffected, res.Error
}

func (s *gormVoteStore) ListByReview(ctx context.Context, reviewID uint) ([]models.ReviewVote, error) {
	var votes []models.ReviewVote
	err := s.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Find(&votes).Error
	return votes, err
}

func (s *gormVoteStore) ListByReviews(ctx context.Context, reviewIDs []uint) ([]models.ReviewVote, error) {
	if len(reviewIDs) == 0 {
		return nil, nil
	}
	var votes []models.ReviewVote
	err := s.db.WithContext(ctx).
		Where("review_id IN ?", reviewIDs).
		Find(&votes).Error
	return votes, err
}
