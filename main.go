package main

import (
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"notehub-api/handlers"
	"notehub-api/initializers"
	"notehub-api/middleware"
	"notehub-api/models"
	"notehub-api/pkg/notify"
	"notehub-api/repository"
	"notehub-api/websocket"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET must be set and at least 32 characters")
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", dbURL)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		log.Printf("DB connection failed: %v, retrying in 2s...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal("Could not connect to database:", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal("Migration driver error:", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		log.Fatal("Migration init error:", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("Migration failed:", err)
	}

	if err := initializers.InitDefaults(db); err != nil {
		log.Fatal("Failed to initialize default roles:", err)
	}

	if err := initializers.InitMinio(); err != nil {
		log.Fatal("Failed to initialize Minio:", err)
	}

	notesRepo := repository.NewNotesRepository(db)
	usersRepo := repository.NewUsersRepository(db)

	// Bootstrap note admins from the environment so the first admin does not
	// need manual SQL. Usernames must already be registered.
	if admins := os.Getenv("NOTE_ADMIN_USERNAMES"); admins != "" {
		for _, username := range strings.Split(admins, ",") {
			username = strings.TrimSpace(username)
			if username == "" {
				continue
			}
			user, err := usersRepo.GetUserByUsername(username)
			if err != nil {
				log.Fatal("Failed to look up note admin:", err)
			}
			if user == nil {
				log.Printf("NOTE_ADMIN_USERNAMES: user %q not registered yet, skipping", username)
				continue
			}
			if err := usersRepo.GrantRole(user.ID, models.RoleNoteAdmin); err != nil {
				log.Fatal("Failed to grant note admin role:", err)
			}
		}
	}

	if os.Getenv("GIN_MODE") == "release" || strings.ToLower(os.Getenv("APP_ENV")) == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Structured request ID and JSON access logs
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	// Panic recovery
	r.Use(gin.Recovery())

	// Configure trusted proxies for correct client IP handling in production
	trustedProxies := os.Getenv("TRUSTED_PROXIES")
	if trustedProxies != "" {
		parts := strings.Split(trustedProxies, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := r.SetTrustedProxies(parts); err != nil {
			log.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
		}
	} else {
		// Default to loopback only; override via TRUSTED_PROXIES in production
		_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	}

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RateLimitMiddleware())

	// WebSocket hub delivers publish/unpublish events to note editors
	hub := websocket.NewHub()
	notifier := &notify.WSNotifier{Hub: hub}

	authHandler := handlers.NewAuthHandler(usersRepo)
	notesHandler := handlers.NewNotesHandler(notesRepo, usersRepo).WithNotifier(notifier)
	homepageHandler := handlers.NewHomepageHandler(notesRepo, usersRepo)
	adminHandler := handlers.NewAdminHandler(usersRepo)
	thumbnailsHandler := handlers.NewThumbnailsHandler(notesRepo)

	// Public endpoints
	r.GET("/health", handlers.HealthCheck)
	r.GET("/home/notes", homepageHandler.Feed)
	r.GET("/home/search", homepageHandler.Search)
	r.GET("/home/notes/:noteUrl", homepageHandler.NoteByURL)
	r.GET("/home/authors/:username", homepageHandler.AuthorPage)

	// Auth endpoints with stricter rate limit
	authPublic := r.Group("/", middleware.RateLimitAuthMiddleware())
	authPublic.POST("/register", authHandler.Register)
	authPublic.POST("/login", func(c *gin.Context) {
		c.Set("jwtSecret", jwtSecret)
		authHandler.Login(c)
	})

	auth := r.Group("/", handlers.AuthMiddleware(jwtSecret))
	{
		auth.GET("/ws", websocket.ServeWS(hub))

		// notes editor surface
		editor := auth.Group("/", handlers.RequireNotesAccess(usersRepo))
		{
			editor.GET("/notes", notesHandler.Dashboard)
			editor.POST("/notes", notesHandler.CreateNote)
			editor.GET("/notes/:noteId", notesHandler.GetNote)
			editor.PUT("/notes/:noteId", notesHandler.UpdateNote)
			editor.DELETE("/notes/:noteId", notesHandler.DeleteNote)
			editor.GET("/notes/:noteId/title-exists", notesHandler.TitleExists)
			editor.POST("/notes/:noteId/editors", notesHandler.AddEditor)
			editor.POST("/notes/:noteId/thumbnail", thumbnailsHandler.Upload)
			editor.GET("/notes/:noteId/thumbnail", thumbnailsHandler.GetURL)
		}

		// note admin surface
		admin := auth.Group("/admin", handlers.RequireNoteAdmin(usersRepo))
		{
			admin.POST("/roles", adminHandler.AssignRole)
			admin.PUT("/roles", adminHandler.RevokeEditorRole)
		}
	}

	r.Run(":8080")
}
