package scraper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandi/internal/adapters/config"
	"mandi/pkg/logger"
)

func TestScraper_SaveDownload(t *testing.T) {
	rawDir := t.TempDir()
	s := New(config.ScraperConfig{}, rawDir, logger.Get())
	s.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}

	guid := "3f2a77aa-bc01-4d6e-9b1f-000000000001"
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, guid), []byte("csv-bytes"), 0o644))

	require.NoError(t, s.saveDownload(guid))

	data, err := os.ReadFile(filepath.Join(rawDir, "agmarknet_2026-08-28.csv"))
	require.NoError(t, err)
	assert.Equal(t, "csv-bytes", string(data))
}

func TestScraper_SaveDownloadMissingFile(t *testing.T) {
	s := New(config.ScraperConfig{}, t.TempDir(), logger.Get())
	assert.Error(t, s.saveDownload("no-such-guid"))
}
