package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndParseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, ContentTypeJSON, r.Header.Get("Content-Type"))
		assert.Equal(t, "slinky-test", r.Header.Get("User-Agent"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"asset":"BTC"}`, string(body))

		w.Header().Set("Content-Type", ContentTypeJSON)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("slinky-test"), WithTimeout(time.Second))
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"page": {"1"}},
		Body:        map[string]string{"asset": "BTC"},
	}, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestSendAndParseFormBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "abc", r.PostForm.Get("image"))
		_, _ = w.Write([]byte("raw"))
	}))
	defer srv.Close()

	var raw []byte
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:  MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"Content-Type": ContentTypeForm},
		Body:    map[string]string{"image": "abc"},
	}, &raw)

	require.NoError(t, err)
	assert.Equal(t, "raw", string(raw))
}

func TestSendAndParseStatusError(t *testing.T) {
	codes := map[int]bool{
		http.StatusBadRequest:         false,
		http.StatusTooManyRequests:    true,
		http.StatusBadGateway:         true,
		http.StatusServiceUnavailable: true,
	}
	for code, temporary := range codes {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", code)
		}))

		err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
		srv.Close()

		var se *StatusError
		require.True(t, errors.As(err, &se), "status %d", code)
		assert.Equal(t, code, se.StatusCode)
		assert.Equal(t, "nope", se.Body)
		assert.Equal(t, temporary, se.Temporary(), "status %d", code)
	}
}

func TestSendRequestHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient().SendRequest(ctx, &RequestOptions{Method: MethodGet, URL: srv.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
