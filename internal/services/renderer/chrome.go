// Package renderer captures chart pages with a headless Chrome instance.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"SlinkyTA/internal/domain/models"
	"SlinkyTA/pkg/logger"
)

// Config controls the browser and the page capture.
type Config struct {
	ChromePath     string
	Headless       bool
	Width          int
	Height         int
	LoadDelay      time.Duration
	SettleDelay    time.Duration
	Timeout        time.Duration
	ScreenshotDir  string
	LabelSelectors []string
}

// Chrome renders an asset's chart URL and scrapes the price-axis labels.
// Every Render starts a fresh browser so no page state leaks between assets.
type Chrome struct {
	cfg Config
	log *logger.Logger
	now func() time.Time
}

// NewChrome creates a renderer.
func NewChrome(cfg Config, log *logger.Logger) *Chrome {
	if log == nil {
		log = logger.Nop()
	}
	return &Chrome{cfg: cfg, log: log, now: time.Now}
}

// Render opens the asset URL, waits for the chart to draw, then captures the
// viewport and the axis label text.
func (c *Chrome) Render(ctx context.Context, asset models.Asset) (*models.Snapshot, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var (
		labels []string
		png    []byte
	)
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(c.cfg.Width), int64(c.cfg.Height)),
		chromedp.Navigate(asset.URL),
		chromedp.Sleep(c.cfg.LoadDelay),
		chromedp.Sleep(c.cfg.SettleDelay),
		chromedp.Evaluate(labelScript(c.cfg.LabelSelectors), &labels),
		chromedp.CaptureScreenshot(&png),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", asset.Symbol, err)
	}

	snap, err := writeSnapshot(c.cfg.ScreenshotDir, asset, png, labels, c.cfg.Width, c.cfg.Height, c.now())
	if err != nil {
		return nil, err
	}
	c.log.Debug("chart captured",
		logger.String("asset", asset.Symbol),
		logger.Int("labels", len(labels)),
		logger.Float64("height", snap.Height),
	)
	return snap, nil
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.WindowSize(c.cfg.Width, c.cfg.Height),
		chromedp.DisableGPU,
	)
	if c.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ChromePath))
	}
	if !c.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	return opts
}

// labelScript returns JS that yields the trimmed text of the first selector
// matching at least one non-empty element.
func labelScript(selectors []string) string {
	b, _ := json.Marshal(selectors)
	return fmt.Sprintf(`(() => {
  for (const sel of %s) {
    const out = Array.from(document.querySelectorAll(sel))
      .map(e => (e.innerText || e.textContent || "").trim())
      .filter(t => t.length > 0);
    if (out.length > 0) return out;
  }
  return [];
})()`, b)
}

// writeSnapshot stores the PNG and reads its real dimensions, falling back to
// the viewport size when the header cannot be decoded.
func writeSnapshot(dir string, asset models.Asset, png []byte, labels []string, width, height int, at time.Time) (*models.Snapshot, error) {
	if len(png) == 0 {
		return nil, fmt.Errorf("capture %s: empty screenshot", asset.Symbol)
	}

	f, err := os.CreateTemp(dir, "chart-"+sanitize(asset.Symbol)+"-*.png")
	if err != nil {
		return nil, fmt.Errorf("create screenshot file: %w", err)
	}
	if _, err := f.Write(png); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write screenshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close screenshot: %w", err)
	}

	w, h := float64(width), float64(height)
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(png)); err == nil {
		w, h = float64(cfg.Width), float64(cfg.Height)
	}

	return &models.Snapshot{
		Asset:      asset,
		Path:       f.Name(),
		Labels:     labels,
		Width:      w,
		Height:     h,
		CapturedAt: at,
	}, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
