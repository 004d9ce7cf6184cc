package renderer

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlinkyTA/internal/domain/models"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestWriteSnapshotUsesImageSize(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	asset := models.Asset{Symbol: "BTC/USD", URL: "https://example.com"}

	snap, err := writeSnapshot(dir, asset, encodePNG(t, 300, 200), []string{"100", "200"}, 1200, 800, at)
	require.NoError(t, err)

	assert.Equal(t, 300.0, snap.Width)
	assert.Equal(t, 200.0, snap.Height)
	assert.Equal(t, at, snap.CapturedAt)
	assert.Equal(t, []string{"100", "200"}, snap.Labels)
	assert.True(t, strings.HasPrefix(snap.Path, dir))
	assert.Contains(t, snap.Path, "chart-BTC_USD-")

	img, err := snap.Image()
	require.NoError(t, err)
	assert.NotEmpty(t, img)

	require.NoError(t, snap.Close())
	_, err = os.Stat(snap.Path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, snap.Close())
}

func TestWriteSnapshotFallsBackToViewport(t *testing.T) {
	snap, err := writeSnapshot(t.TempDir(), models.Asset{Symbol: "ETH"}, []byte("not a png"), nil, 1200, 800, time.Now())
	require.NoError(t, err)
	defer snap.Close()

	assert.Equal(t, 1200.0, snap.Width)
	assert.Equal(t, 800.0, snap.Height)
}

func TestWriteSnapshotEmpty(t *testing.T) {
	_, err := writeSnapshot(t.TempDir(), models.Asset{Symbol: "ETH"}, nil, nil, 1, 1, time.Now())
	assert.Error(t, err)
}

func TestLabelScriptEmbedsSelectorsInOrder(t *testing.T) {
	js := labelScript([]string{"[data-name='y-axis-label']", ".axis"})
	first := strings.Index(js, `[data-name='y-axis-label']`)
	second := strings.Index(js, `.axis`)
	require.True(t, first >= 0 && second >= 0)
	assert.Less(t, first, second)
}

func TestAllocatorOptions(t *testing.T) {
	c := NewChrome(Config{Width: 800, Height: 600, Headless: true}, nil)
	base := len(c.allocatorOptions())

	c = NewChrome(Config{Width: 800, Height: 600, ChromePath: "/usr/bin/chromium"}, nil)
	// exec path plus headless override
	assert.Equal(t, base+2, len(c.allocatorOptions()))
}
