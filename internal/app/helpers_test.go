package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/iconreg/internal/config"
	"github.com/vk/iconreg/internal/testutil"
)

// stubLoader records the paths it is asked to load and returns base
// unchanged, or a fixed error.
type stubLoader struct {
	err   error
	paths []string
}

func (l *stubLoader) Load(_ context.Context, path string, base *config.Model) (*config.Model, error) {
	l.paths = append(l.paths, path)
	if l.err != nil {
		return nil, l.err
	}
	return base, nil
}

// setupAppTest creates a project tree under a temp root and an App over it
// with debug logging captured in the returned buffer.
func setupAppTest(t *testing.T, files map[string]string, mutate func(*Config)) (*App, *testutil.SafeBuffer) {
	t.Helper()

	root := t.TempDir()
	testutil.WriteFiles(t, root, files)

	cfg := &Config{
		Root:      root,
		LogLevel:  "debug",
		LogFormat: "text",
		Environ:   map[string]string{},
	}
	if mutate != nil {
		mutate(cfg)
	}

	logBuffer := &testutil.SafeBuffer{}
	testApp, err := NewApp(logBuffer, cfg, &stubLoader{})
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("ICONREG_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}

// devOverrides enables dev mode on a free port with a short debounce, then
// applies mutate.
func devOverrides(mutate func(*config.Model)) func(*Config) {
	return func(c *Config) {
		c.Dev = true
		c.Overrides = func(m *config.Model) {
			m.Dev.Port = 0
			m.Dev.Debounce = 20 * time.Millisecond
			if mutate != nil {
				mutate(m)
			}
		}
	}
}

// startDev runs Dev in the background until the test ends and returns its
// context and base URL once it is serving.
func startDev(t *testing.T, testApp *App) (context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- testApp.Dev(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Dev did not stop")
		}
	})

	select {
	case <-testApp.Ready():
	case err := <-done:
		t.Fatalf("Dev exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Dev never became ready")
	}
	return ctx, "http://" + testApp.Addr()
}

// httpGetBody returns the body of a GET, or "" on any failure. It is safe
// to call outside the test goroutine.
func httpGetBody(url string) string {
	resp, err := http.Get(url)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}
