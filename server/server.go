package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soundreview/cache"
	"soundreview/config"
	"soundreview/core/feed"
	"soundreview/core/ingest"
	"soundreview/core/thread"
	"soundreview/db"
	"soundreview/logger"
	"soundreview/model"
	"soundreview/repository"
	"soundreview/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	audioStore, err := storage.NewAudioStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize audio store", logger.ErrorField(err))
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer conn.Close()

	if err := db.InitSchema(conn); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	gormDB, err := db.ConnectGorm(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}

	redisClient, err := cache.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("Successfully connected to Redis")
	} else {
		logger.Info("Redis not configured, comment cache disabled")
	}

	trackRepo := repository.NewMySQLTrackRepository(conn)
	credRepo := repository.NewMySQLCredentialRepository(conn)
	commentRepo := repository.NewMySQLCommentRepository(conn)
	playlistRepo := repository.NewGormPlaylistRepository(gormDB)

	commentCache := cache.NewCommentCache(redisClient)
	threads := thread.NewEngine(commentRepo, commentCache)
	feedHub := feed.NewHub()

	apiHandler := NewAPIHandler(trackRepo, playlistRepo, credRepo, threads, audioStore, feedHub, cfg)

	rootCtx, stopIngest := context.WithCancel(context.Background())
	defer stopIngest()
	if cfg.IngestDir != "" {
		watcher := ingest.NewWatcher(cfg.IngestDir, trackRepo, audioStore)
		go func() {
			if err := watcher.Run(rootCtx); err != nil && err != context.Canceled {
				logger.Error("Ingest watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	router := mux.NewRouter()

	// CORS so the widget can be embedded anywhere.
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, WWW-Authenticate")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Public API, gated per resource: locate -> authorize -> fetch -> act.
	trackAccess := func(next http.HandlerFunc) http.HandlerFunc {
		return apiHandler.ResourceAccessMiddleware(model.ResourceTrack, next)
	}
	playlistAccess := func(next http.HandlerFunc) http.HandlerFunc {
		return apiHandler.ResourceAccessMiddleware(model.ResourcePlaylist, next)
	}

	router.HandleFunc("/api/track/{uuid}", trackAccess(apiHandler.GetTrackHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/track/{uuid}/audio", trackAccess(apiHandler.TrackAudioHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/track/{uuid}/comments", trackAccess(apiHandler.ListCommentsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/track/{uuid}/comments", trackAccess(apiHandler.CreateCommentHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/track/{uuid}/comments/live", trackAccess(apiHandler.CommentFeedHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/track/{uuid}/comments/{comment_id}/reply", trackAccess(apiHandler.CreateReplyHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/track/{uuid}/comments/{comment_id}/close", trackAccess(apiHandler.CloseThreadHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/playlist/{uuid}", playlistAccess(apiHandler.GetPlaylistHandler)).Methods(http.MethodGet)

	// Admin API, gated by the fixed admin pair.
	admin := apiHandler.AdminMiddleware
	router.HandleFunc("/admin/tracks", admin(apiHandler.AdminListTracksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/admin/tracks", admin(apiHandler.AdminUploadTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/admin/tracks/{uuid}", admin(apiHandler.AdminDeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/admin/tracks/{uuid}/duration", admin(apiHandler.AdminSetTrackDurationHandler)).Methods(http.MethodPut)

	router.HandleFunc("/admin/playlists", admin(apiHandler.AdminListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/admin/playlists", admin(apiHandler.AdminCreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/admin/playlists/{uuid}", admin(apiHandler.AdminDeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/admin/playlists/{uuid}/tracks", admin(apiHandler.AdminAddPlaylistTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/admin/playlists/{uuid}/tracks/{track_uuid}", admin(apiHandler.AdminRemovePlaylistTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/admin/playlists/{uuid}/tracks/{track_uuid}/position", admin(apiHandler.AdminMovePlaylistTrackHandler)).Methods(http.MethodPut)

	router.HandleFunc("/admin/{resource_type}/{uuid}/credentials", admin(apiHandler.AdminListCredentialsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/admin/{resource_type}/{uuid}/credentials", admin(apiHandler.AdminCreateCredentialHandler)).Methods(http.MethodPost)
	router.HandleFunc("/admin/{resource_type}/{uuid}/credentials/{credential_id}", admin(apiHandler.AdminDeleteCredentialHandler)).Methods(http.MethodDelete)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")
	stopIngest()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
