package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandincho/blogforge/internal/rewrite"
	"github.com/nandincho/blogforge/internal/store"
	"github.com/nandincho/blogforge/internal/types"
)

// Server exposes the articles CRUD API, the collaborator boundary the
// deployed pipeline writes through.
type Server struct {
	store  store.Store
	router *gin.Engine
	logger *slog.Logger
}

// NewServer builds the router.
func NewServer(st store.Store, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		store:  st,
		router: gin.New(),
		logger: logger.With("component", "api"),
	}

	s.router.Use(gin.Recovery())

	articles := s.router.Group("/api/articles")
	{
		articles.GET("", s.listArticles)
		articles.GET("/:id", s.getArticle)
		articles.POST("", s.createArticle)
		articles.PUT("/:id", s.updateArticle)
		articles.DELETE("/:id", s.deleteArticle)
	}

	return s
}

// Router returns the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("articles API listening", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) listArticles(c *gin.Context) {
	version := types.Version(c.Query("version"))
	if version != "" && version != types.VersionOriginal && version != types.VersionUpdated {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version must be 'original' or 'updated'"})
		return
	}

	articles, err := s.store.List(c.Request.Context(), version)
	if err != nil {
		s.fail(c, err)
		return
	}
	if articles == nil {
		articles = []types.Article{}
	}
	c.JSON(http.StatusOK, articles)
}

// articleDetail is the detail payload. For rewrite records the free-text
// References section is split out of the body so renderers don't show it
// twice alongside the structured references list.
type articleDetail struct {
	types.Article
	ContentBody       string `json:"contentBody,omitempty"`
	ReferencesSection string `json:"referencesSection,omitempty"`
}

func (s *Server) getArticle(c *gin.Context) {
	article, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	detail := articleDetail{Article: *article}
	if article.IsUpdated() {
		detail.ContentBody, detail.ReferencesSection = rewrite.SplitReferences(article.UpdatedContent)
	}
	c.JSON(http.StatusOK, detail)
}

// createArticle upserts originals by sourceUrl and inserts rewrite records.
// Responds 201 when a record was created, 200 when an existing original was
// updated in place.
func (s *Server) createArticle(c *gin.Context) {
	var article types.Article
	if err := c.ShouldBindJSON(&article); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if article.Title == "" || article.SourceURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and sourceUrl are required"})
		return
	}

	ctx := c.Request.Context()

	if article.Version == types.VersionUpdated {
		if article.UpdatedContent == "" || article.ParentArticle.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "updated records require updatedContent and parentArticle"})
			return
		}
		id, err := s.store.InsertUpdated(ctx, &article)
		if err != nil {
			s.fail(c, err)
			return
		}
		stored, err := s.store.Get(ctx, id)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, stored)
		return
	}

	result, err := s.store.UpsertOriginal(ctx, &article)
	if err != nil {
		s.fail(c, err)
		return
	}

	articles, err := s.store.List(ctx, types.VersionOriginal)
	if err != nil {
		s.fail(c, err)
		return
	}
	var stored *types.Article
	for i := range articles {
		if articles[i].SourceURL == article.SourceURL {
			stored = &articles[i]
			break
		}
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, stored)
}

func (s *Server) updateArticle(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if existing.IsUpdated() {
		s.fail(c, types.ErrImmutableRecord)
		return
	}

	var patch types.Article
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.store.Update(ctx, id, &patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteArticle(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if existing.IsUpdated() {
		s.fail(c, types.ErrImmutableRecord)
		return
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "article deleted"})
}

// fail maps store errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
	case errors.Is(err, types.ErrImmutableRecord):
		c.JSON(http.StatusConflict, gin.H{"error": "updated records are immutable"})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
