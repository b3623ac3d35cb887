package livereload

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ConnectTimeout bounds how long Dial waits for the handshake.
const ConnectTimeout = 15 * time.Second

// DialOptions configures a client connection.
type DialOptions struct {
	InsecureSkipVerify bool
}

// Client is a connected live reload subscriber.
type Client struct {
	io      *socket.Socket
	updates chan Update
}

// Dial connects to the hub served at rawURL, for example
// http://localhost:3030. A path in rawURL overrides the default Path.
func Dial(ctx context.Context, rawURL string, dopts DialOptions) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "livereload", "url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q needs a scheme and host", rawURL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if dopts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	c := &Client{io: io, updates: make(chan Update, 16)}
	io.On(types.EventName(UpdateEvent), func(data ...any) {
		u, ok := decodeUpdate(data)
		if !ok {
			logger.Warn("Ignoring malformed update.", "data", data)
			return
		}
		select {
		case c.updates <- u:
		default:
			logger.Warn("Update dropped, subscriber is not keeping up.", "dst", u.Dst)
		}
	})

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", ConnectTimeout)
	}
}

// Updates delivers received updates.
func (c *Client) Updates() <-chan Update {
	return c.updates
}

// Close disconnects from the hub.
func (c *Client) Close() {
	c.io.Disconnect()
}

// Listen dials rawURL and calls fn for every update until ctx is done.
func Listen(ctx context.Context, rawURL string, dopts DialOptions, fn func(Update)) error {
	c, err := Dial(ctx, rawURL, dopts)
	if err != nil {
		return err
	}
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-c.updates:
			fn(u)
		}
	}
}

func decodeUpdate(data []any) (Update, bool) {
	if len(data) == 0 {
		return Update{}, false
	}
	m, ok := data[0].(map[string]any)
	if !ok {
		return Update{}, false
	}
	dst, ok := m["dst"].(string)
	if !ok {
		return Update{}, false
	}
	u := Update{Dst: dst}
	switch n := m["bytes"].(type) {
	case float64:
		u.Bytes = int(n)
	case int:
		u.Bytes = n
	}
	return u, true
}
