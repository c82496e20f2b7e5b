package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundingArchive/internal/config"
	"FundingArchive/internal/domain"
	"FundingArchive/internal/logging"
)

func testConfig(t *testing.T, dsn string) config.Config {
	t.Helper()
	cfg := config.LoadFile("")
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = dsn
	cfg.Sources = nil
	cfg.ChatGPT.APIKey = ""
	cfg.Notifications.Telegram.BotToken = ""
	return cfg
}

func TestApplicationServesMigratedArchive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dsn := filepath.Join(t.TempDir(), "archive.db") + "?_pragma=busy_timeout(5000)"

	application, err := New(testConfig(t, dsn), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	ctx := context.Background()
	require.NoError(t, application.Migrate(ctx))
	require.NoError(t, application.Migrate(ctx), "migrations must be idempotent")

	report, err := application.Ingest(ctx, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items    []domain.CategoryCount `json:"items"`
		Degraded string                 `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Degraded)
	assert.Len(t, body.Items, len(domain.KnownCategories))
	for _, item := range body.Items {
		assert.Zero(t, item.Count)
	}

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApplicationWithoutDatabaseDegrades(t *testing.T) {
	gin.SetMode(gin.TestMode)

	application, err := New(testConfig(t, ""), logging.Discard())
	require.NoError(t, err)

	assert.ErrorIs(t, application.Migrate(context.Background()), domain.ErrNotConfigured)

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=grants", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"nextCursor":null,"total":0,"degraded":"not_configured"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Search.Capability = "vector"
	_, err := New(cfg, logging.Discard())
	assert.Error(t, err)

	cfg = testConfig(t, "")
	cfg.Database.Driver = "mysql"
	_, err = New(cfg, logging.Discard())
	assert.Error(t, err)
}
