package chart

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockInsight/internal/model"
	"StockInsight/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlot_WritesPNG(t *testing.T) {
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		bars int
	}{
		{"short history without SMA200", 80},
		{"full history", 260},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "charts")
			series := &model.BarSeries{
				Requested: "^NDX",
				Symbol:    "QQQ",
				Bars:      testutil.GenerateBars(tt.bars, 300, 450, end),
			}
			path, err := NewPlotter(dir).Plot("2025-06-30", series)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "2025-06-30_QQQ.png"), path)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Greater(t, len(data), 8)
			assert.Equal(t, "\x89PNG", string(data[:4]))
		})
	}
}

func TestPlot_EmptySeries(t *testing.T) {
	_, err := NewPlotter(t.TempDir()).Plot("2025-06-30", &model.BarSeries{Requested: "X"})
	assert.Error(t, err)
}
