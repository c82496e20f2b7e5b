package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSince(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := resolveSince("", 0, now)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = resolveSince("", 6*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-6*time.Hour), got)

	got, err = resolveSince("2025-03-01T00:00:00Z", 0, now)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))

	_, err = resolveSince("yesterday", 0, now)
	assert.Error(t, err)

	_, err = resolveSince("2025-03-01T00:00:00Z", time.Hour, now)
	assert.Error(t, err)

	_, err = resolveSince("", -time.Hour, now)
	assert.Error(t, err)
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "17"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 17}, ids)

	_, err = parseIDs([]string{"3", "x"})
	assert.Error(t, err)

	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"}, {"ingest"}, {"migrate"}, {"review", "list"}, {"review", "approve"}, {"grants", "import"}, {"version"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
