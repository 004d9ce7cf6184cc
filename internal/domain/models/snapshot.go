package models

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Snapshot is one captured chart image plus the axis label text scraped with it.
// The image lives on disk until Close is called.
type Snapshot struct {
	Asset      Asset
	Path       string
	Labels     []string
	Width      float64
	Height     float64
	CapturedAt time.Time
}

// Image reads the captured image.
func (s *Snapshot) Image() ([]byte, error) {
	if s == nil || s.Path == "" {
		return nil, fmt.Errorf("snapshot has no image")
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot image: %w", err)
	}
	return b, nil
}

// Close removes the image file. Safe to call more than once.
func (s *Snapshot) Close() error {
	if s == nil || s.Path == "" {
		return nil
	}
	err := os.Remove(s.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot image: %w", err)
	}
	return nil
}
