package main

import (
	"log"
	"os"

	"github.com/abeniben/CodeSight/internal/db"
	"github.com/abeniben/CodeSight/internal/router"
	"github.com/abeniben/CodeSight/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	sessionStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("codesight_session", sessionStore))

	stores := store.NewGormStores(db.DB)
	router.RegisterRoutes(r, router.Stores{
		Users:       stores.Users,
		Submissions: stores.Submissions,
		Reviews:     stores.Reviews,
		Replies:     stores.Replies,
		Votes:       stores.Votes,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("CodeSight server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
