package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"FundingArchive/internal/domain"
	"FundingArchive/internal/ports"
	"FundingArchive/internal/usecase"
)

// Service is what the HTTP layer needs from the archive.
type Service interface {
	ports.ArchiveReader
	Grant(ctx context.Context, slug string) (domain.GrantDetail, error)
	Recent(ctx context.Context, limit int) ([]domain.Update, []domain.GrantEntry, error)
}

type handlers struct {
	svc    Service
	health func(ctx context.Context) error
	feeds  feedBuilder
}

// degrade records the failure class for the access log and returns it for
// the response body. Validation errors never reach here.
func degrade(c *gin.Context, err error) string {
	kind := usecase.FailureKind(err)
	if kind != "" {
		c.Set("degraded", kind)
	}
	return kind
}

func (h *handlers) search(c *gin.Context) {
	params, err := parseSearch(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_params", err)
		return
	}

	page, err := h.svc.Search(c.Request.Context(), params)
	if errors.Is(err, usecase.ErrInvalidParams) {
		respondError(c, http.StatusBadRequest, "invalid_params", err)
		return
	}
	c.JSON(http.StatusOK, searchResponse{SearchPage: page, Degraded: degrade(c, err)})
}

func parseSearch(c *gin.Context) (domain.SearchParams, error) {
	params := domain.SearchParams{Query: c.Query("q")}
	if params.Query == "" {
		params.Query = c.Query("query")
	}

	for _, raw := range append(c.QueryArray("category"), c.QueryArray("categories")...) {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				params.Categories = append(params.Categories, name)
			}
		}
	}

	if raw := c.Query("cursor"); raw != "" {
		cursor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return params, fmt.Errorf("%w: cursor must be an integer", usecase.ErrInvalidParams)
		}
		params.Cursor = &cursor
	}

	limit, err := limitQuery(c)
	if err != nil {
		return params, err
	}
	params.Limit = limit
	return params, nil
}

func (h *handlers) categories(c *gin.Context) {
	counts, err := h.svc.Categories(c.Request.Context())
	c.JSON(http.StatusOK, categoriesResponse{Items: counts, Degraded: degrade(c, err)})
}

func (h *handlers) suggestions(c *gin.Context) {
	limit, err := limitQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_params", err)
		return
	}

	prefix := c.Query("prefix")
	if prefix == "" {
		prefix = c.Query("q")
	}

	items, err := h.svc.Suggestions(c.Request.Context(), domain.SuggestionParams{Prefix: prefix, Limit: limit})
	if errors.Is(err, usecase.ErrInvalidParams) {
		respondError(c, http.StatusBadRequest, "invalid_params", err)
		return
	}
	c.JSON(http.StatusOK, suggestionsResponse{Items: items, Degraded: degrade(c, err)})
}

func (h *handlers) grant(c *gin.Context) {
	detail, err := h.svc.Grant(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *handlers) healthz(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if err := h.health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": usecase.FailureKind(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// intQuery reports whether the parameter was present at all, so an explicit
// zero can be told apart from an omitted value.
func intQuery(c *gin.Context, name string) (int, bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidParams, name)
	}
	return n, true, nil
}

// limitQuery returns 0 for an omitted limit, which the archive reads as its
// default. A limit that is given must be positive.
func limitQuery(c *gin.Context) (int, error) {
	limit, ok, err := intQuery(c, "limit")
	if err != nil {
		return 0, err
	}
	if ok && limit <= 0 {
		return 0, fmt.Errorf("%w: limit must be positive", usecase.ErrInvalidParams)
	}
	return limit, nil
}
