package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"FundingArchive/internal/domain"
	"FundingArchive/internal/usecase"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, errorEnvelope{
		Error: apiError{
			Message: msg,
			Code:    code,
		},
	})
}

// respondFailure maps a service error that cannot degrade to a status code.
func respondFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidParams):
		respondError(c, http.StatusBadRequest, "invalid_params", err)
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, domain.ErrNotConfigured), errors.Is(err, domain.ErrTransient):
		respondError(c, http.StatusServiceUnavailable, usecase.FailureKind(err), err)
	default:
		respondError(c, http.StatusInternalServerError, usecase.FailureKind(err), err)
	}
}

type searchResponse struct {
	domain.SearchPage
	Degraded string `json:"degraded,omitempty"`
}

type categoriesResponse struct {
	Items    []domain.CategoryCount `json:"items"`
	Degraded string                 `json:"degraded,omitempty"`
}

type suggestionsResponse struct {
	Items    []domain.Suggestion `json:"items"`
	Degraded string              `json:"degraded,omitempty"`
}
