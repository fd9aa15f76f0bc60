package rest

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with the full API surface mounted under
// /api/v1.
func NewRouter(h *Handler, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-User-Id", "X-User-Name", "X-User-Guest"},
		MaxAge:       12 * time.Hour,
	}))

	api := router.Group("/api/v1")
	{
		sync := api.Group("/sync")
		{
			sync.POST("/reconcile", h.Reconcile)
			sync.POST("/slice", h.ApplySlice)
			sync.PUT("/token", h.UpdatePushToken)
		}

		api.GET("/words", h.ListWords)
		api.POST("/words/:id/star", h.ToggleStar)

		lessons := api.Group("/lessons")
		{
			lessons.POST("/generate", h.GenerateLesson)
			lessons.POST("/complete", h.CompleteLesson)
		}

		quiz := api.Group("/quiz")
		{
			quiz.POST("/start", h.StartQuiz)
			quiz.POST("/answer", h.SubmitAnswer)
			quiz.POST("/placement/finish", h.FinishPlacement)
		}

		collections := api.Group("/collections")
		{
			collections.GET("", h.ListCollections)
			collections.POST("", h.CreateCollection)
			collections.DELETE("/:id", h.DeleteCollection)
			collections.POST("/:id/words/:wordId/toggle", h.ToggleWord)
			collections.POST("/:id/export", h.CreateExportCode)
			collections.POST("/:id/coedit", h.InitiateCoedit)
		}

		shared := api.Group("/shared")
		{
			shared.GET("/:code", h.ResolveSharedBook)
			shared.POST("/:code/import", h.ImportSharedBook)
			shared.DELETE("/:code", h.RevokeSharedBook)
		}
	}

	return router
}

// requestLogger logs one line per request, level scaled by status class.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request")
		case c.Writer.Status() >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
