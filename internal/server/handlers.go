package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/search"
)

// searchParams are the query parameters shared by the search routes.
type searchParams struct {
	query   string
	lang    string
	opts    search.Options
	dbpedia bool
}

// errorResponse writes {"error": msg}.
func errorResponse(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// parseSearchParams reads q, lang, all, limit and dbpedia.
func parseSearchParams(c *gin.Context, defaults search.Options) (searchParams, bool) {
	p := searchParams{
		query: strings.TrimSpace(c.Query("q")),
		lang:  c.Query("lang"),
		opts:  defaults,
	}
	if p.query == "" {
		errorResponse(c, http.StatusBadRequest, "missing query parameter q")
		return p, false
	}

	if v, ok := c.GetQuery("all"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "parameter all must be a boolean")
			return p, false
		}
		p.opts.RequireAll = b
	}
	if v, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errorResponse(c, http.StatusBadRequest, "parameter limit must be a non-negative integer")
			return p, false
		}
		p.opts.Limit = n
	}
	if v, ok := c.GetQuery("dbpedia"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "parameter dbpedia must be a boolean")
			return p, false
		}
		p.dbpedia = b
	}
	return p, true
}

// engine returns the serving engine or writes 503.
func (s *Server) engine(c *gin.Context) (*search.Engine, bool) {
	e, err := s.catalog.Engine()
	if err != nil {
		errorResponse(c, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return e, true
}

// searchError maps a search failure to a status code.
func searchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, search.ErrNotLoaded):
		errorResponse(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		errorResponse(c, http.StatusServiceUnavailable, "search cancelled")
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

// health handles GET /health - basic liveness check
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "reposteria",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   s.version,
	})
}

// ready handles GET /ready. It is 503 until an ontology is loaded.
func (s *Server) ready(c *gin.Context) {
	e, err := s.catalog.Engine()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"graph":  e.Index().Stats(),
	})
}

// stats handles GET /api/v1/stats.
func (s *Server) stats(c *gin.Context) {
	e, ok := s.engine(c)
	if !ok {
		return
	}
	stats := e.Index().Stats()
	products := 0
	for _, id := range e.Index().Instances() {
		if e.Resolver().IsProduct(e.Index().Types(id)) {
			products++
		}
	}
	stats["products"] = products
	c.JSON(http.StatusOK, gin.H{
		"graph":            stats,
		"default_language": e.Language(),
	})
}

// searchInstances handles GET /api/v1/search/instances.
func (s *Server) searchInstances(c *gin.Context) {
	e, ok := s.engine(c)
	if !ok {
		return
	}
	p, ok := parseSearchParams(c, e.Defaults())
	if !ok {
		return
	}

	results, err := e.SearchInstancesWith(c.Request.Context(), p.query, p.lang, p.opts)
	if err != nil {
		searchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   p.query,
		"results": results,
	})
}

// searchClasses handles GET /api/v1/search/classes.
func (s *Server) searchClasses(c *gin.Context) {
	e, ok := s.engine(c)
	if !ok {
		return
	}
	p, ok := parseSearchParams(c, e.Defaults())
	if !ok {
		return
	}

	results, err := e.SearchClassesWith(c.Request.Context(), p.query, p.lang, p.opts)
	if err != nil {
		searchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   p.query,
		"results": results,
	})
}

// searchAll handles GET /api/v1/search: local instances and classes, plus
// DBpedia results when dbpedia=true and a remote is configured. A failing
// remote does not fail the request; its error is reported alongside.
func (s *Server) searchAll(c *gin.Context) {
	e, ok := s.engine(c)
	if !ok {
		return
	}
	p, ok := parseSearchParams(c, e.Defaults())
	if !ok {
		return
	}
	ctx := c.Request.Context()

	local, err := e.SearchInstancesWith(ctx, p.query, p.lang, p.opts)
	if err != nil {
		searchError(c, err)
		return
	}
	classes, err := e.SearchClassesWith(ctx, p.query, p.lang, p.opts)
	if err != nil {
		searchError(c, err)
		return
	}

	resp := gin.H{
		"query":   p.query,
		"local":   local,
		"classes": classes,
		"dbpedia": []*search.Result{},
	}

	if p.dbpedia {
		if s.remote == nil {
			resp["dbpedia_error"] = "dbpedia lookups are disabled"
		} else {
			remote, err := s.remote.Search(ctx, p.query, s.remoteLimit)
			if err != nil {
				s.logger.Warn("dbpedia search failed", "query", p.query, "err", err, "request_id", c.GetString(requestIDKey))
				resp["dbpedia_error"] = err.Error()
			} else {
				resp["dbpedia"] = remote
			}
		}
		if s.enricher != nil {
			if _, err := s.enricher.Enrich(ctx, local); err != nil {
				s.logger.Warn("enrichment failed", "err", err)
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
