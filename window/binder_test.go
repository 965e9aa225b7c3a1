package window

import (
	"testing"

	"github.com/bnema/wlwindow/internal/wayland"
	"github.com/bnema/wlwindow/internal/wltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindVersion(t *testing.T) {
	tests := []struct {
		iface   string
		offered uint32
		want    uint32
		ok      bool
	}{
		{"wl_compositor", 6, 1, true},
		{"xdg_wm_base", 5, 1, true},
		{"wl_seat", 9, 4, true},
		{"wl_seat", 3, 3, true},
		{"wl_data_device_manager", 3, 3, true},
		{"wl_data_device_manager", 1, 1, true},
		{"zxdg_decoration_manager_v1", 1, 1, true},
		{"zxdg_decoration_manager", 1, 1, true},
		{"wl_output", 4, 0, false},
	}
	for _, tt := range tests {
		got, ok := BindVersion(tt.iface, tt.offered)
		assert.Equal(t, tt.ok, ok, tt.iface)
		assert.Equal(t, tt.want, got, "%s offered %d", tt.iface, tt.offered)
	}
}

func TestListGlobals(t *testing.T) {
	fake := wltest.New(t, globalCompositor, globalSeat, wltest.Global{Interface: "wl_output", Version: 4})

	globals, err := listGlobals(fake.Client())
	require.NoError(t, err)
	require.Len(t, globals, 3)
	assert.Equal(t, "wl_compositor", globals[0].Interface)
	assert.Equal(t, uint32(1), globals[0].Name)
	assert.Equal(t, "wl_output", globals[2].Interface)
	assert.Equal(t, uint32(4), globals[2].Version)
	// Listing binds nothing.
	assert.Empty(t, fake.Find("wl_registry", 0))
}

func TestGlobalRemoveForgetsAdvertisement(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	require.Len(t, hs.s.Globals(), 3)

	hs.send(hs.s.registry.ID(), 1, func(b *wayland.Builder) { b.Uint32(3) })
	hs.iterate(t)
	assert.Len(t, hs.s.Globals(), 2)
	// The bound seat stays usable.
	assert.NotNil(t, hs.s.seat)
}
