package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"literature-survey/config"
	"literature-survey/models"
	"literature-survey/semanticscholar"
	"literature-survey/services"
	"literature-survey/storage"
	"literature-survey/store"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to survey database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.Topic{}, &models.Paper{}, &models.Author{},
		&models.PaperAuthor{}, &models.TopicPaper{},
		&models.Recommendation{}, &models.SurveyEntry{},
		&models.PaperMarkdown{},
	)

	// Setup Services
	var s3Client *s3.Client
	if cfg.SnapshotsEnabled() {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		logging.Info("Markdown snapshot upload enabled", zap.String("bucket", cfg.SnapshotS3Bucket))
	} else {
		logging.Info("No S3 snapshot target configured, snapshots stay in the database.")
	}
	if !cfg.ZoteroEnabled() {
		logging.Info("Zotero export not configured, feature disabled.")
	}

	gateway := store.NewGateway(db, logging)
	apiClient := semanticscholar.NewClient(cfg, logging)
	snapshotService := services.NewSnapshotService(cfg, gateway, s3Client, logging)
	surveyService := services.NewSurveyService(apiClient, gateway, snapshotService, logging, cfg.RecommendationLimit)
	refreshService := services.NewRefreshService(apiClient, gateway, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupTopicRoutes(router, db, logging)
	setupSurveyEntryRoutes(router, db, logging)
	setupPaperRoutes(router, db, logging)
	setupRunRoutes(router, surveyService, refreshService, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled survey job...")
		stats, err := surveyService.RunSurvey(context.Background())
		if err != nil {
			logging.Error("Survey cron job failed", zap.Error(err))
		} else {
			logging.Info("Survey cron job completed",
				zap.Int("papers", stats.PapersIngested),
				zap.Int("edges", stats.RecommendationEdges),
				zap.Int("errors", stats.Errors))
		}
	})
	cronScheduler.AddFunc(cfg.RefreshCronSchedule, func() {
		logging.Info("Running scheduled score refresh...")
		stats, err := refreshService.RefreshScores(context.Background())
		if err != nil {
			logging.Error("Refresh cron job failed", zap.Error(err))
		} else {
			logging.Info("Refresh cron job completed",
				zap.Int("papers", stats.Papers),
				zap.Int("updated", stats.Updated))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupTopicRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/topics")
	rg.POST("/", func(c *gin.Context) {
		var topic models.Topic
		if err := c.ShouldBindJSON(&topic); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := db.Where(models.Topic{Name: topic.Name}).FirstOrCreate(&topic).Error; err != nil {
			log.Error("Failed to create topic", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create topic"})
			return
		}
		c.JSON(http.StatusCreated, topic)
	})
	rg.GET("/", func(c *gin.Context) {
		var topics []models.Topic
		if err := db.Order("name").Find(&topics).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, topics)
	})
	rg.GET("/:id/papers", func(c *gin.Context) {
		id := c.Param("id")
		var links []models.TopicPaper
		if err := db.Where("topic_id = ?", id).Find(&links).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, links)
	})
}

func setupSurveyEntryRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/survey-entries")
	rg.POST("/", func(c *gin.Context) {
		var entry models.SurveyEntry
		if err := c.ShouldBindJSON(&entry); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if entry.TopicName == "" || entry.PaperRef == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "topic_name and paper_ref are required"})
			return
		}
		if entry.PaperType == "" {
			entry.PaperType = models.PaperTypePositive
		}
		if err := db.Create(&entry).Error; err != nil {
			log.Error("Failed to create survey entry", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create survey entry"})
			return
		}
		c.JSON(http.StatusCreated, entry)
	})
	rg.GET("/", func(c *gin.Context) {
		var entries []models.SurveyEntry
		query := db.Order("topic_name, id")
		if topic := c.Query("topic"); topic != "" {
			query = query.Where("topic_name = ?", topic)
		}
		if err := query.Find(&entries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, entries)
	})
	rg.DELETE("/:id", func(c *gin.Context) {
		if err := db.Delete(&models.SurveyEntry{}, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})
}

func setupPaperRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/papers")

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var paper models.Paper
		if err := db.Where("id = ?", id).First(&paper).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			log.Error("DB error fetching paper", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, paper)
	})

	// Body-gesteuerter Endpunkt für komplexe Abfragen
	rg.POST("/query", func(c *gin.Context) {
		type PaperQuery struct {
			Journal      string   `json:"journal"`
			MinInfluence *float64 `json:"min_influence"`
			MinCitations *int     `json:"min_citations"`
			Limit        int      `json:"limit"`
		}

		var req PaperQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Paper{})
		if req.Journal != "" {
			query = query.Where("journal = ?", req.Journal)
		}
		if req.MinInfluence != nil {
			query = query.Where("influence_score >= ?", *req.MinInfluence)
		}
		if req.MinCitations != nil {
			query = query.Where("citation_count >= ?", *req.MinCitations)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var papers []models.Paper
		if err := query.Order("influence_score desc").Find(&papers).Error; err != nil {
			log.Error("Database query for papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, papers)
	})

	rg.GET("/:id/recommendations", func(c *gin.Context) {
		id := c.Param("id")
		var edges []models.Recommendation
		if err := db.Where("source_paper_id = ?", id).Order("rank").Find(&edges).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, edges)
	})

	rg.GET("/:id/markdown", func(c *gin.Context) {
		id := c.Param("id")
		var snapshot models.PaperMarkdown
		if err := db.Where("paper_id = ?", id).First(&snapshot).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "markdown not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.String(http.StatusOK, snapshot.Content)
	})

	rg.GET("/:id/authors", func(c *gin.Context) {
		id := c.Param("id")
		var authors []models.Author
		err := db.
			Joins("JOIN paper_authors ON paper_authors.author_id = authors.id").
			Where("paper_authors.paper_id = ?", id).
			Order("paper_authors.author_order").
			Find(&authors).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, authors)
	})
}

func setupRunRoutes(router *gin.Engine, surveyService *services.SurveyService, refreshService *services.RefreshService, log *zap.Logger) {
	rg := router.Group("/runs")
	rg.POST("/survey", func(c *gin.Context) {
		go func() {
			stats, err := surveyService.RunSurvey(context.Background())
			if err != nil {
				log.Error("Async survey run failed", zap.Error(err))
			} else {
				log.Info("Async survey run completed",
					zap.Int("papers", stats.PapersIngested),
					zap.Int("edges", stats.RecommendationEdges),
					zap.Int("errors", stats.Errors))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Survey run triggered."})
	})
	rg.POST("/refresh-scores", func(c *gin.Context) {
		go func() {
			stats, err := refreshService.RefreshScores(context.Background())
			if err != nil {
				log.Error("Async score refresh failed", zap.Error(err))
			} else {
				log.Info("Async score refresh completed",
					zap.Int("papers", stats.Papers),
					zap.Int("updated", stats.Updated))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Score refresh triggered."})
	})
}
