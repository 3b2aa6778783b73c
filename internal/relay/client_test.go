package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	const body = `{"GET":[{"g":"1@@@","n":"VGVzdA==","si":1},null]}`

	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second)
	payload, raw, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, userAgent, gotUA)
	assert.Equal(t, body, string(raw))
	require.Len(t, payload.Lobbies, 2)
	require.NotNil(t, payload.Lobbies[0])
	assert.Equal(t, "1@@@", payload.Lobbies[0].NATNegotiationID())
	// Absent entries stay nil so slot numbering remains positional
	assert.Nil(t, payload.Lobbies[1])
}

func TestFetchBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, _, err := NewClient(ts.URL, time.Second).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer ts.Close()

	_, _, err := NewClient(ts.URL, time.Second).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"GET":[]}`))
	}))
	defer ts.Close()

	_, _, err := NewClient(ts.URL, 20*time.Millisecond).Fetch(context.Background())
	assert.Error(t, err)
}
