package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("asset", "BTC"))

	l.Error("run failed",
		Int("signals", 2),
		Float64("top", 200.5),
		Duration("took_ms", 1500*time.Millisecond),
		Strings("patterns", []string{"flag", "channel"}),
		Error(errors.New("boom")),
	)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "run failed", line["message"])
	assert.Equal(t, "BTC", line["asset"])
	assert.Equal(t, float64(2), line["signals"])
	assert.Equal(t, 200.5, line["top"])
	assert.Equal(t, float64(1500), line["took_ms"])
	assert.Equal(t, "flag, channel", line["patterns"])
	assert.Equal(t, "boom", line["error"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}
