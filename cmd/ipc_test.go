package cmd

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/bnema/wlwindow/internal/ipc"
	"github.com/bnema/wlwindow/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	quits int
	sent  []window.Request
	room  int
}

func (c *fakeController) RequestQuit() { c.quits++ }

func (c *fakeController) Send(req window.Request) bool {
	if len(c.sent) >= c.room {
		return false
	}
	c.sent = append(c.sent, req)
	return true
}

func TestIPCHandlerMapsRequests(t *testing.T) {
	tests := []struct {
		name  string
		req   ipc.Request
		sent  []window.Request
		quits int
	}{
		{
			name: "fullscreen",
			req:  ipc.Request{Type: ipc.RequestFullscreen, Fullscreen: true},
			sent: []window.Request{window.SetFullscreen{Fullscreen: true}, window.ScheduleUpdate{}},
		},
		{
			name: "windowed",
			req:  ipc.Request{Type: ipc.RequestFullscreen},
			sent: []window.Request{window.SetFullscreen{}, window.ScheduleUpdate{}},
		},
		{
			name: "redraw",
			req:  ipc.Request{Type: ipc.RequestScheduleUpdate},
			sent: []window.Request{window.ScheduleUpdate{}},
		},
		{
			name:  "quit",
			req:   ipc.Request{Type: ipc.RequestQuit},
			sent:  []window.Request{window.ScheduleUpdate{}},
			quits: 1,
		},
		{
			name: "unknown",
			req:  ipc.Request{Type: 42},
			sent: []window.Request{window.Unknown{Kind: "unknown(42)"}, window.ScheduleUpdate{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{room: 8}
			require.NoError(t, newIPCHandler(ctl)(tt.req))
			assert.Equal(t, tt.sent, ctl.sent)
			assert.Equal(t, tt.quits, ctl.quits)
		})
	}
}

func TestIPCHandlerQueueFull(t *testing.T) {
	ctl := &fakeController{}
	err := newIPCHandler(ctl)(ipc.Request{Type: ipc.RequestScheduleUpdate})
	assert.ErrorIs(t, err, errQueueFull)
}

func TestParseRequest(t *testing.T) {
	req, err := parseRequest("fullscreen")
	require.NoError(t, err)
	assert.Equal(t, ipc.Request{Type: ipc.RequestFullscreen, Fullscreen: true}, req)

	req, err = parseRequest("quit")
	require.NoError(t, err)
	assert.Equal(t, ipc.RequestQuit, req.Type)

	_, err = parseRequest("minimize")
	assert.Error(t, err)
}

type recordingHandler struct {
	mu   sync.Mutex
	reqs []ipc.Request
}

func (h *recordingHandler) HandleRequest(req ipc.Request) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reqs = append(h.reqs, req)
	return nil
}

func TestRequestCommandSendsToSocket(t *testing.T) {
	isolateConfig(t)
	h := &recordingHandler{}
	server, err := ipc.NewSocketServer(filepath.Join(t.TempDir(), "w.sock"), h)
	require.NoError(t, err)
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)

	require.NoError(t, executeCommand(rootCmd, "request", "windowed", "--socket", server.Path()))
	require.NoError(t, executeCommand(rootCmd, "request", "redraw", "--socket", server.Path()))

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []ipc.Request{
		{Type: ipc.RequestFullscreen},
		{Type: ipc.RequestScheduleUpdate},
	}, h.reqs)
}

func TestRequestCommandRejectsUnknown(t *testing.T) {
	isolateConfig(t)
	assert.Error(t, executeCommand(rootCmd, "request", "minimize", "--socket", "/nonexistent.sock"))
}
