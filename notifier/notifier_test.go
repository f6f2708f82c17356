package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *recordingLogger) Error(string, ...any) {}

func TestSlackSink(t *testing.T) {
	var (
		mu       sync.Mutex
		received []slackMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		var m slackMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		mu.Lock()
		received = append(received, m)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	logger := &recordingLogger{}
	sink, err := NewSlackSink(SlackConfig{APIToken: "token", Channel: "#arb", Endpoint: srv.URL, Logger: logger})
	require.NoError(t, err)

	sink.Notify(context.Background(), "diagnostic", Console)
	sink.Notify(context.Background(), "trade sent", All)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, slackMessage{Channel: "#arb", Text: "trade sent"}, received[0])
	assert.Empty(t, logger.warns)
}

func TestSlackSinkFailuresAreLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	logger := &recordingLogger{}
	sink, err := NewSlackSink(SlackConfig{APIToken: "token", Channel: "#arb", Endpoint: srv.URL, Logger: logger})
	require.NoError(t, err)

	sink.Notify(context.Background(), "trade sent", All)
	assert.Equal(t, []string{"failed to post slack message"}, logger.warns)
}

func TestSlackConfigValidate(t *testing.T) {
	_, err := NewSlackSink(SlackConfig{Channel: "#arb", Logger: &recordingLogger{}})
	assert.EqualError(t, err, "config: APIToken is required")
}

func TestMulti(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	Multi{NewLogSink(a), NewLogSink(b)}.Notify(context.Background(), "hello", Console)
	assert.Equal(t, []string{"hello"}, a.infos)
	assert.Equal(t, []string{"hello"}, b.infos)
}
