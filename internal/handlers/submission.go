package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/abeniben/CodeSight/internal/models"
	"github.com/abeniben/CodeSight/internal/services"
	"github.com/abeniben/CodeSight/internal/store"
	"github.com/abeniben/CodeSight/internal/utils"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	subs    *services.SubmissionService
	reviews *services.ReviewService
}

func NewSubmissionHandler(subs *services.SubmissionService, reviews *services.ReviewService) *SubmissionHandler {
	return &SubmissionHandler{subs: subs, reviews: reviews}
}

type submissionRequest struct {
	Title    string `json:"title"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

// reviewView decorates a review thread for the detail response. The
// viewer's vote is never cached; everything else is shared.
type reviewView struct {
	Review      models.Review    `json:"review"`
	CommentHTML string           `json:"comment_html"`
	Votes       models.VoteCount `json:"votes"`
	UserVote    *bool            `json:"user_vote"`
	Replies     []*replyView     `json:"replies"`
}

type replyView struct {
	Reply       models.Reply `json:"reply"`
	CommentHTML string       `json:"comment_html"`
	Depth       int          `json:"depth"`
	Children    []*replyView `json:"children"`
}

type detailPayload struct {
	Submission models.Submission `json:"submission"`
	Reviews    []reviewView      `json:"reviews"`
}

func detailCacheKey(sid string) string {
	return fmt.Sprintf("submission:detail:%s", sid)
}

// List is the dashboard feed: every submission newest first, split
// into the viewer's own and the community's.
func (h *SubmissionHandler) List(c *gin.Context) {
	user := MustCurrentUser(c)

	partition, err := h.subs.List(c.Request.Context(), user.ID)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to load submissions")
		return
	}
	c.JSON(http.StatusOK, partition)
}

// Search matches titles case-insensitively. An empty query means the
// client left search mode, so the partitioned view comes back instead.
func (h *SubmissionHandler) Search(c *gin.Context) {
	user := MustCurrentUser(c)
	query := c.Query("q")

	if query == "" {
		partition, err := h.subs.List(c.Request.Context(), user.ID)
		if err != nil {
			Error(c, http.StatusInternalServerError, "failed to load submissions")
			return
		}
		c.JSON(http.StatusOK, partition)
		return
	}

	results, err := h.subs.Search(c.Request.Context(), query)
	if err != nil {
		Error(c, http.StatusInternalServerError, "search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *SubmissionHandler) Create(c *gin.Context) {
	user := MustCurrentUser(c)

	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.subs.Create(c.Request.Context(), *user, req.Title, req.Language, req.Code)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			Error(c, http.StatusBadRequest, err.Error())
			return
		}
		Error(c, http.StatusInternalServerError, "failed to save submission")
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *SubmissionHandler) Detail(c *gin.Context) {
	sid := c.Param("sid")

	viewerID := uint(0)
	if user := CurrentUser(c); user != nil {
		viewerID = user.ID
	}

	// The shared part of the payload is cached; the viewer's vote state
	// is resolved on every request.
	cacheKey := detailCacheKey(sid)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if payload, ok := cached.(detailPayload); ok {
			c.JSON(http.StatusOK, h.withViewerVotes(c, payload, viewerID))
			return
		}
	}

	sub, err := h.subs.GetBySid(c.Request.Context(), sid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(c, http.StatusNotFound, "submission not found")
			return
		}
		Error(c, http.StatusInternalServerError, "failed to load submission")
		return
	}

	threads, err := h.reviews.ThreadsForSubmission(c.Request.Context(), sub.ID, 0)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to load reviews")
		return
	}

	payload := detailPayload{
		Submission: sub,
		Reviews:    make([]reviewView, len(threads)),
	}
	for i, t := range threads {
		payload.Reviews[i] = reviewView{
			Review:      t.Review,
			CommentHTML: utils.RenderMarkdown(t.Review.Comment),
			Votes:       t.Votes,
			Replies:     renderReplies(t.Replies),
		}
	}

	utils.GetCache().Set(cacheKey, payload, 1*time.Minute)

	c.JSON(http.StatusOK, h.withViewerVotes(c, payload, viewerID))
}

func renderReplies(nodes []*services.ThreadNode) []*replyView {
	out := make([]*replyView, len(nodes))
	for i, n := range nodes {
		out[i] = &replyView{
			Reply:       n.Reply,
			CommentHTML: utils.RenderMarkdown(n.Reply.Comment),
			Depth:       n.Depth,
			Children:    renderReplies(n.Children),
		}
	}
	return out
}

// withViewerVotes copies the cached payload and fills in the current
// viewer's vote per review.
func (h *SubmissionHandler) withViewerVotes(c *gin.Context, payload detailPayload, viewerID uint) detailPayload {
	if viewerID == 0 || len(payload.Reviews) == 0 {
		return payload
	}

	ids := make([]uint, len(payload.Reviews))
	for i, r := range payload.Reviews {
		ids[i] = r.Review.ID
	}
	mine, err := h.reviews.VotesOf(c.Request.Context(), viewerID, ids)
	if err != nil {
		// Degrade to the shared payload rather than failing the read
		log.Printf("Failed to load viewer votes for %s: %v", payload.Submission.Sid, err)
		return payload
	}

	reviews := make([]reviewView, len(payload.Reviews))
	copy(reviews, payload.Reviews)
	for i := range reviews {
		if v, ok := mine[reviews[i].Review.ID]; ok {
			vote := v
			reviews[i].UserVote = &vote
		} else {
			reviews[i].UserVote = nil
		}
	}
	payload.Reviews = reviews
	return payload
}

func (h *SubmissionHandler) Update(c *gin.Context) {
	user := MustCurrentUser(c)
	sid := c.Param("sid")

	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, matched, err := h.subs.Update(c.Request.Context(), *user, sid, req.Title, req.Language, req.Code)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			Error(c, http.StatusBadRequest, err.Error())
			return
		}
		Error(c, http.StatusInternalServerError, "failed to update submission")
		return
	}
	if !matched {
		Error(c, http.StatusNotFound, "submission not found or not yours")
		return
	}

	utils.GetCache().Delete(detailCacheKey(sid))
	c.JSON(http.StatusOK, sub)
}

// Delete is idempotent: a second delete matches nothing and still
// returns 200.
func (h *SubmissionHandler) Delete(c *gin.Context) {
	user := MustCurrentUser(c)
	sid := c.Param("sid")

	matched, err := h.subs.Delete(c.Request.Context(), *user, sid)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to delete submission")
		return
	}

	utils.GetCache().Delete(detailCacheKey(sid))
	c.JSON(http.StatusOK, gin.H{"deleted": matched})
}

// ListOwn backs the profile page table.
func (h *SubmissionHandler) ListOwn(c *gin.Context) {
	user := MustCurrentUser(c)

	subs, err := h.subs.ListOwn(c.Request.Context(), *user)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to load submissions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}
