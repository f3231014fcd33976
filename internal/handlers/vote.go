package handlers

import (
	"errors"
	"net/http"

	"github.com/abeniben/CodeSight/internal/services"
	"github.com/abeniben/CodeSight/internal/store"
	"github.com/abeniben/CodeSight/internal/utils"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	subs    *services.SubmissionService
	reviews *services.ReviewService
}

func NewVoteHandler(subs *services.SubmissionService, reviews *services.ReviewService) *VoteHandler {
	return &VoteHandler{subs: subs, reviews: reviews}
}

type voteRequest struct {
	Vote bool `json:"vote"` // true = like, false = dislike
}

// Cast runs the toggle protocol on one review of the path's submission
// and returns the tally recounted from the vote table.
func (h *VoteHandler) Cast(c *gin.Context) {
	user := MustCurrentUser(c)
	sub, ok := submissionFromPath(c, h.subs)
	if !ok {
		return
	}

	review, err := h.reviews.ReviewUnder(c.Request.Context(), sub.ID, utils.StringToUint(c.Param("id")))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(c, http.StatusNotFound, "review not found")
			return
		}
		Error(c, http.StatusInternalServerError, "failed to load review")
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	count, userVote, err := h.reviews.CastVote(c.Request.Context(), *user, review.ID, req.Vote)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(c, http.StatusNotFound, "review not found")
			return
		}
		Error(c, http.StatusInternalServerError, "failed to record vote")
		return
	}

	utils.GetCache().Delete(detailCacheKey(sub.Sid))
	c.JSON(http.StatusOK, gin.H{
		"review_id": review.ID,
		"votes":     count,
		"user_vote": userVote,
	})
}
