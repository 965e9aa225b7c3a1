package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bnema/wlwindow/internal/logger"
)

// ErrNotRunning is returned when no window is listening.
var ErrNotRunning = errors.New("no running wlwindow instance found")

// Client sends control requests to a running window
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath. An empty path picks the most
// recently started window in XDG_RUNTIME_DIR.
func NewClient(socketPath string) (*Client, error) {
	if socketPath == "" {
		var err error
		socketPath, err = discoverSocket()
		if err != nil {
			return nil, err
		}
	}
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}, nil
}

// SetTimeout sets the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Path returns the socket the client talks to.
func (c *Client) Path() string {
	return c.socketPath
}

func discoverSocket() (string, error) {
	runDir := os.Getenv("XDG_RUNTIME_DIR")
	if runDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR not set")
	}
	matches, err := filepath.Glob(filepath.Join(runDir, "wlwindow-*.sock"))
	if err != nil {
		return "", fmt.Errorf("failed to search for sockets: %w", err)
	}
	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	for _, m := range matches {
		if st, err := os.Stat(m); err == nil && st.Mode()&os.ModeSocket != 0 {
			found = append(found, candidate{m, st.ModTime()})
		}
	}
	if len(found) == 0 {
		return "", ErrNotRunning
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod.After(found[j].mod) })
	return found[0].path, nil
}

// SetFullscreen asks the window to enter or leave fullscreen.
func (c *Client) SetFullscreen(fullscreen bool) error {
	return c.Send(Request{Type: RequestFullscreen, Fullscreen: fullscreen})
}

// ScheduleUpdate asks the window to redraw.
func (c *Client) ScheduleUpdate() error {
	return c.Send(Request{Type: RequestScheduleUpdate})
}

// Quit asks the window to quit. The application may still veto it.
func (c *Client) Quit() error {
	return c.Send(Request{Type: RequestQuit})
}

// Send sends a request and waits for its acknowledgment.
func (c *Client) Send(req Request) error {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if isConnectionRefused(err) {
			return ErrNotRunning
		}
		return fmt.Errorf("failed to connect to wlwindow: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close IPC connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		logger.Warnf("Failed to set connection deadline: %v", err)
	}

	if err := writeFrame(conn, req.Marshal()); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	data, err := readFrame(conn)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	resp, err := UnmarshalResponse(data)
	if err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("server error: %s", resp.Error)
	}
	return nil
}

// isConnectionRefused checks if the error is a connection refused error
func isConnectionRefused(err error) bool {
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return netErr.Op == "dial"
	}
	return false
}
