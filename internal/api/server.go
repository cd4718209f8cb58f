package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"newsdesk/internal/aggregator"
	"newsdesk/internal/apperr"
	"newsdesk/internal/config"
	"newsdesk/internal/models"
	"newsdesk/internal/poller"
	"newsdesk/internal/security"
	"newsdesk/internal/web"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Suggester proposes categories for a single article
type Suggester interface {
	Configured() bool
	Suggest(ctx context.Context, title, description string) []string
}

type Server struct {
	router        *gin.Engine
	aggregator    *aggregator.Aggregator
	poller        *poller.Poller
	suggester     Suggester
	port          int
	defaultLimit  int
	maxLimit      int
	swaggerServer *web.SwaggerServer
}

func NewServer(agg *aggregator.Aggregator, poller *poller.Poller, suggester Suggester, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	securityConfig := &security.SecurityConfig{
		EnableRateLimit:       cfg.Security.EnableRateLimit,
		RateLimitPerSecond:    cfg.Security.RateLimitPerSecond,
		RateLimitBurst:        cfg.Security.RateLimitBurst,
		EnableCORS:            cfg.Security.EnableCORS,
		AllowedOrigins:        cfg.Security.AllowedOrigins,
		EnableSecurityHeaders: cfg.Security.EnableSecurityHeaders,
		MaxRequestSize:        cfg.Security.MaxRequestSize,
		EnableRequestID:       cfg.Security.EnableRequestID,
	}
	security.SetupSecurityMiddleware(router, securityConfig)

	server := &Server{
		router:        router,
		aggregator:    agg,
		poller:        poller,
		suggester:     suggester,
		port:          cfg.Port,
		defaultLimit:  cfg.DefaultLimit,
		maxLimit:      cfg.MaxLimit,
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	{
		api.GET("/news", s.getNews)
		api.GET("/news/category/:category", s.getNewsByCategory)
		api.GET("/search", s.searchNews)
		api.GET("/categories", s.getCategories)

		api.POST("/scrape-and-categorize", s.triggerScrape)
		api.GET("/scrape/status", s.getScrapeStatus)

		api.GET("/ai-status", s.getAIStatus)
		api.POST("/categorize/suggest", s.suggestCategories)
	}

	s.swaggerServer.RegisterRoutes(s.router)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartWithContext serves until ctx is cancelled, then shuts down gracefully
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthCheck(c *gin.Context) {
	count, err := s.aggregator.CountArticles(c.Request.Context())
	if err != nil {
		log.Printf("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "newsdesk",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "newsdesk",
		"poller_active":  s.poller.IsPolling(),
		"scrape_running": s.poller.IsRunning(),
		"articles":       count,
	})
}

func (s *Server) getNews(c *gin.Context) {
	query, err := s.parseArticleQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	s.respondArticles(c, query)
}

func (s *Server) getNewsByCategory(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.Param("category")))
	if !s.aggregator.IsValidCategory(category) {
		apperr.Respond(c, apperr.NewNotFound("Category not found."))
		return
	}

	query, err := s.parseArticleQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	query.Category = category
	s.respondArticles(c, query)
}

func (s *Server) searchNews(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		apperr.Respond(c, apperr.NewValidation("Search query cannot be empty."))
		return
	}

	query, err := s.parseArticleQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	query.Search = q
	s.respondArticles(c, query)
}

func (s *Server) respondArticles(c *gin.Context, query *models.ArticleQuery) {
	articles, err := s.aggregator.GetArticles(c.Request.Context(), query)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) getCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": s.aggregator.GetAvailableCategories(),
	})
}

func (s *Server) triggerScrape(c *gin.Context) {
	log.Println("Scrape and categorize endpoint triggered.")
	run, started := s.poller.Trigger(poller.TriggerAPI, true)

	resp := gin.H{
		"message": "Scraping and categorization process initiated in the background.",
		"started": started,
	}
	if run.ID != "" {
		resp["run"] = run
	}
	c.JSON(http.StatusAccepted, resp)
}

func (s *Server) getScrapeStatus(c *gin.Context) {
	current, last := s.poller.Status()
	c.JSON(http.StatusOK, gin.H{
		"is_polling": s.poller.IsPolling(),
		"running":    current != nil,
		"current":    current,
		"last":       last,
	})
}

func (s *Server) getAIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"is_configured": s.aggregator.ClassifierConfigured(),
	})
}

type suggestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) suggestCategories(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.NewValidationWrap("invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		apperr.Respond(c, apperr.NewValidation("title is required"))
		return
	}

	suggestions := []string{models.DefaultCategory}
	configured := s.suggester != nil && s.suggester.Configured()
	if configured {
		suggestions = s.suggester.Suggest(c.Request.Context(), req.Title, req.Description)
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions":   suggestions,
		"is_configured": configured,
	})
}

// parseArticleQuery reads the query parameters shared by the article
// listing endpoints
func (s *Server) parseArticleQuery(c *gin.Context) (*models.ArticleQuery, error) {
	sort, err := models.ParseSortMode(c.Query("sort_by"))
	if err != nil {
		return nil, apperr.NewValidation(err.Error())
	}

	from, err := models.NormalizeFromDate(c.Query("from_date"))
	if err != nil {
		return nil, apperr.NewValidation(err.Error())
	}

	to, err := models.NormalizeToDate(c.Query("to_date"))
	if err != nil {
		return nil, apperr.NewValidation(err.Error())
	}

	limit := s.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || (s.maxLimit > 0 && limit > s.maxLimit) {
			return nil, apperr.NewValidation("invalid limit parameter: must be between 1 and " + strconv.Itoa(s.maxLimit))
		}
	}

	return &models.ArticleQuery{
		From:  from,
		To:    to,
		Sort:  sort,
		Limit: limit,
	}, nil
}
