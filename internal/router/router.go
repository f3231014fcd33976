package router

import (
	"github.com/abeniben/CodeSight/internal/handlers"
	"github.com/abeniben/CodeSight/internal/middleware"
	"github.com/abeniben/CodeSight/internal/services"
	"github.com/abeniben/CodeSight/internal/store"

	"github.com/gin-gonic/gin"
)

// Stores carries the persistence implementations the routes run on.
type Stores struct {
	Users       store.UserStore
	Submissions store.SubmissionStore
	Reviews     store.ReviewStore
	Replies     store.ReplyStore
	Votes       store.VoteStore
}

func RegisterRoutes(r *gin.Engine, s Stores) {
	submissionSvc := services.NewSubmissionService(s.Submissions)
	reviewSvc := services.NewReviewService(s.Reviews, s.Replies, s.Votes)

	authHandler := handlers.NewAuthHandler(s.Users)
	submissionHandler := handlers.NewSubmissionHandler(submissionSvc, reviewSvc)
	reviewHandler := handlers.NewReviewHandler(submissionSvc, reviewSvc)
	voteHandler := handlers.NewVoteHandler(submissionSvc, reviewSvc)

	r.Use(middleware.LoadUser(s.Users))

	// Public Routes
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/api/submissions/:sid", submissionHandler.Detail) // snippet detail with review threads

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", authHandler.Me)
		authorized.PUT("/me/email", authHandler.UpdateEmail)

		authorized.GET("/api/submissions", submissionHandler.List) // dashboard: mine + community
		authorized.GET("/api/search", submissionHandler.Search)    // title search
		authorized.POST("/api/submissions", submissionHandler.Create)
		authorized.PUT("/api/submissions/:sid", submissionHandler.Update)
		authorized.DELETE("/api/submissions/:sid", submissionHandler.Delete)
		authorized.GET("/api/profile/submissions", submissionHandler.ListOwn)

		authorized.POST("/api/submissions/:sid/reviews", reviewHandler.CreateReview)
		authorized.PUT("/api/submissions/:sid/reviews/:id", reviewHandler.UpdateReview)
		authorized.DELETE("/api/submissions/:sid/reviews/:id", reviewHandler.DeleteReview)

		authorized.POST("/api/submissions/:sid/reviews/:id/replies", reviewHandler.CreateReply)
		authorized.PUT("/api/submissions/:sid/replies/:id", reviewHandler.UpdateReply)
		authorized.DELETE("/api/submissions/:sid/replies/:id", reviewHandler.DeleteReply)

		authorized.POST("/api/submissions/:sid/reviews/:id/vote", voteHandler.Cast)
	}
}
