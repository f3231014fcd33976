package handlers

import (
	"errors"
	"net/http"

	"github.com/abeniben/CodeSight/internal/models"
	"github.com/abeniben/CodeSight/internal/services"
	"github.com/abeniben/CodeSight/internal/store"
	"github.com/abeniben/CodeSight/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	subs    *services.SubmissionService
	reviews *services.ReviewService
}

func NewReviewHandler(subs *services.SubmissionService, reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{subs: subs, reviews: reviews}
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type replyRequest struct {
	Comment  string `json:"comment"`
	ParentID *uint  `json:"parent_id"`
}

// submissionFromPath resolves the :sid segment. Every nested route
// hangs off a submission; an id reached through the wrong sid must not
// act, or the wrong cache entry gets invalidated.
func submissionFromPath(c *gin.Context, subs *services.SubmissionService) (models.Submission, bool) {
	sub, err := subs.GetBySid(c.Request.Context(), c.Param("sid"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(c, http.StatusNotFound, "submission not found")
		} else {
			Error(c, http.StatusInternalServerError, "failed to load submission")
		}
		return models.Submission{}, false
	}
	return sub, true
}

// reviewFromPath resolves :id as a review of the path's submission.
func (h *ReviewHandler) reviewFromPath(c *gin.Context, submissionID uint) (models.Review, bool) {
	review, err := h.reviews.ReviewUnder(c.Request.Context(), submissionID, utils.StringToUint(c.Param("id")))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(c, http.StatusNotFound, "review not found")
		} else {
			Error(c, http.StatusInternalServerError, "failed to load review")
		}
		return models.Review{}, false
	}
	return review, true
}

// CreateReview posts a top-level review on a submission.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	user := MustCurrentUser(c)
	sub, ok := submissionFromPath(c, h.subs)
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), *user, sub.ID, req.Comment)
	if err != nil {
		if errors.Is(err, services.ErrEmptyComment) {
			Error(c, http.StatusBadRequest, err.Error())
			return
		}
		Error(c, http.StatusInternalServerError, "failed to save review")
		return
	}

	utils.GetCache().Delete(detailCacheKey(sub.Sid))
	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	user := MustCurrentUser(c)
	sub, ok := submissionFromPath(c, h.subs)
	if !ok {
		return
	}
	review, ok := h.reviewFromPath(c, sub.ID)
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, matched, err := h.reviews.UpdateReview(c.Request.Context(), *user, review.ID, req.Comment)
	if err != nil {
		if errors.Is(err, services.ErrEmptyComment) {
			Error(c, http.StatusBadRequest, err.Error())
			return
		}
		Error(c, http.StatusInternalServerError, "failed to update review")
		return
	}
	if !matched {
		Error(c, http.StatusNotFound, "review not found or not yours")
		return
	}

	utils.GetCache().Delete(detailCacheKey(sub.Sid))
	c.JSON(http.StatusOK, updated)
}

// DeleteReview removes the caller's review. A review that is already
// gone keeps the delete idempotent; a review that exists under a
// different submission is a 404, not a cross-sid no-op.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	user := MustCurrentUser(c)
	sub, ok := submissionFromPath(c, h.subs)
	if !ok {
		return
	}
	reviewID := utils.StringToUint(c.Param("id"))

	review, err := h.reviews.GetReview(c.Request.Context(), reviewID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"deleted": false})
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to load review")
		return
	}
	if review.SubmissionID != sub.ID {
		Error(c, http.StatusNotFound, "review not found")
		return
	}

	matched, err := h.reviews.DeleteReview(c.Request.Context(), *user, review.ID)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to delete review")
		return
	}

	utils.GetCache().Delete(detailCacheKey(sub.Sid))
	c.JSON(http.StatusOK, gin.H{"deleted": matched})
}

// CreateReply posts a reply under a review of this submission,
// optionally nested under an existing reply of the same review.
func (h *ReviewHandler) CreateReply(c *gin.Context) {
	user := MustCurrentUser(c)
	sub, ok := submissionFromPath(c, h.subs)
	if !ok {
		return
	}
	review, ok := h.reviewFromPath(c, sub.ID)
	if !ok {
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.reviews.CreateReply(c.Request.Context(), *user, review.ID, req.ParentID, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyComment), errors.Is(err, services.ErrParentMismatch):
			Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			Error(c, http.StatusNotFound, "parent reply not found")
		default:
			Error(c, http.StatusInternalServerError, "failed to save reply")
		}
		return
	}

	utils.GetCache().Delete(detailCacheKey(sub.Sid))
	c.JSON(http.StatusCreated, reply)
}

func (h *ReviewHandler) UpdateReply(c *gin.Context) {
	user := MustCurrentUser(c)
	sub, ok := submissionFromPath(c, h.subs)
	if !ok {
		return
	}
	reply, err := h.reviews.ReplyUnder(c.Request.Context(), sub.ID, utils.StringToUint(c.Param("id")))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(c, http.StatusNotFound, "reply not found")
			return
		}
		Error(c, http.StatusInternalServerError, "failed to load reply")
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, matched, err := h.reviews.UpdateReply(c.Request.Context(), *user, reply.ID, req.Comment)
	if err != nil {
		if errors.Is(err, services.ErrEmptyComment) {
			Error(c, http.StatusBadRequest, err.Error())
			return
		}
		Error(c, http.StatusInternalServerError, "failed to update reply")
		return
	}
	if !matched {
		Error(c, http.StatusNotFound, "reply not found or not yours")
		return
	}

	utils.GetCache().Delete(detailCacheKey(sub.Sid))
	c.JSON(http.StatusOK, updated)
}

// DeleteReply keeps the idempotent no-op for a reply that is already
// gone, but a reply living under another submission is a 404.
func (h *ReviewHandler) DeleteReply(c *gin.Context) {
	user := MustCurrentUser(c)
	sub, ok := submissionFromPath(c, h.subs)
	if !ok {
		return
	}
	replyID := utils.StringToUint(c.Param("id"))

	reply, err := h.reviews.GetReply(c.Request.Context(), replyID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"deleted": false})
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to load reply")
		return
	}
	if _, err := h.reviews.ReviewUnder(c.Request.Context(), sub.ID, reply.ReviewID); err != nil {
		Error(c, http.StatusNotFound, "reply not found")
		return
	}

	matched, err := h.reviews.DeleteReply(c.Request.Context(), *user, reply.ID)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to delete reply")
		return
	}

	utils.GetCache().Delete(detailCacheKey(sub.Sid))
	c.JSON(http.StatusOK, gin.H{"deleted": matched})
}
