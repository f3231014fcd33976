package services

import (
	"github.com/abeniben/CodeSight/internal/models"
)

// TallyVotes folds raw vote rows into per-review like/dislike counts.
func TallyVotes(votes []models.ReviewVote) map[uint]models.VoteCount {
	counts := make(map[uint]models.VoteCount)
	for _, v := range votes {
		c := counts[v.ReviewID]
		if v.Vote {
			c.Likes++
		} else {
			c.Dislikes++
		}
		counts[v.ReviewID] = c
	}
	return counts
}

// UserVotes extracts one user's vote per review from raw vote rows.
func UserVotes(votes []models.ReviewVote, userID uint) map[uint]bool {
	out := make(map[uint]bool)
	for _, v := range votes {
		if v.UserID == userID {
			out[v.ReviewID] = v.Vote
		}
	}
	return out
}
