package livereload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/iconreg/internal/testutil"
)

func TestHub_BroadcastReachesClient(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.LoggerContext(t)
	hub := NewHub(ctx)
	t.Cleanup(hub.Close)

	mux := http.NewServeMux()
	mux.Handle(Path, hub.Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := Dial(dialCtx, srv.URL, DialOptions{})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	// --- Act ---
	hub.Broadcast(ctx, Update{Dst: "/project/.iconreg/icons.go", Bytes: 42})

	// --- Assert ---
	select {
	case u := <-client.Updates():
		assert.Equal(t, Update{Dst: "/project/.iconreg/icons.go", Bytes: 42}, u)
	case <-time.After(5 * time.Second):
		t.Fatal("update not received")
	}
}

func TestDial_RejectsBadURL(t *testing.T) {
	ctx, _ := testutil.LoggerContext(t)

	_, err := Dial(ctx, "localhost:3030", DialOptions{})
	assert.Error(t, err)
}

func TestDecodeUpdate(t *testing.T) {
	u, ok := decodeUpdate([]any{map[string]any{"dst": "a.go", "bytes": float64(3)}})
	assert.True(t, ok)
	assert.Equal(t, Update{Dst: "a.go", Bytes: 3}, u)

	_, ok = decodeUpdate(nil)
	assert.False(t, ok)
	_, ok = decodeUpdate([]any{"not a map"})
	assert.False(t, ok)
	_, ok = decodeUpdate([]any{map[string]any{"bytes": 1}})
	assert.False(t, ok)
}
