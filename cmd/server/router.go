package main

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Skufu/GoDiagnose/internal/prediction"
	"github.com/Skufu/GoDiagnose/internal/symptoms"
)

//go:embed templates/index.html static/symptoms.js
var assetsFS embed.FS

var indexTemplate = template.Must(template.New("index.html").
	Funcs(template.FuncMap{"display": symptoms.Display}).
	ParseFS(assetsFS, "templates/index.html"))

const requestIDKey = "requestID"

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type predictRequest struct {
	Symptoms string `json:"symptoms" form:"symptoms"`
}

func setupRouter(a *app, db HealthChecker) *gin.Engine {
	router := gin.New()
	router.Use(
		requestLogger(a.logger),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "X-Request-ID"},
			MaxAge:       12 * time.Hour,
		}),
	)
	router.SetHTMLTemplate(indexTemplate)
	router.StaticFileFS("/static/symptoms.js", "static/symptoms.js", http.FS(assetsFS))

	router.GET("/", a.index)
	router.POST("/predict", a.predictForm)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		body := gin.H{"status": "ok", "model": "loaded", "db": "disabled"}
		code := http.StatusOK

		if !a.engine.Ready() {
			body["status"] = "degraded"
			body["model"] = "not loaded"
			code = http.StatusServiceUnavailable
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			body["db"] = "ok"
			if err := db.Ping(ctx); err != nil {
				body["status"] = "degraded"
				body["db"] = fmt.Sprintf("unhealthy: %v", err)
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, body)
	})

	api := router.Group("/api")
	{
		api.POST("/predict", a.predictJSON)
		api.GET("/symptoms", a.symptomList)
	}

	return router
}

func (a *app) pageData(result *prediction.Result, errMsg string) gin.H {
	return gin.H{
		"Results":      result,
		"Error":        errMsg,
		"SymptomNames": a.res.SymptomNames(),
		"MinSymptoms":  a.policy.MinSymptoms,
	}
}

func (a *app) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", a.pageData(nil, ""))
}

func (a *app) predictForm(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "index.html", a.pageData(nil, "invalid form submission"))
		return
	}

	logger := a.loggerFor(c)
	result, err := a.diagnose(req.Symptoms, logger)
	if err != nil {
		logger.Error().Err(err).Msg("prediction failed")
		c.HTML(http.StatusInternalServerError, "index.html", a.pageData(nil, "prediction failed, please try again"))
		return
	}
	c.HTML(http.StatusOK, "index.html", a.pageData(&result, ""))
}

func (a *app) predictJSON(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	logger := a.loggerFor(c)
	result, err := a.diagnose(req.Symptoms, logger)
	if err != nil {
		logger.Error().Err(err).Msg("prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *app) symptomList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symptoms":    a.res.SymptomNames(),
		"minSymptoms": a.policy.MinSymptoms,
	})
}

func (a *app) loggerFor(c *gin.Context) zerolog.Logger {
	return a.logger.With().Str("request_id", c.GetString(requestIDKey)).Logger()
}

// requestLogger tags each request with an ID (reusing X-Request-ID when sent)
// and writes one access log line per request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		c.Next()

		logger.Info().
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
