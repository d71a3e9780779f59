package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/pal"
)

func TestSetViewportPublishesResize(t *testing.T) {
	b := bus.New()
	m := NewModel(b)

	var got pal.Viewport
	b.Subscribe(bus.ViewportResized, func(p any) { got = p.(pal.Viewport) })

	m.SetViewport(1920, 1080)

	assert.Equal(t, pal.Viewport{Width: 1920, Height: 1080}, got)
	assert.Equal(t, 1920, m.Viewport().Width)
}

func TestElementFromPointPicksTopMost(t *testing.T) {
	m := NewModel(bus.New())
	m.SetElements([]pal.Element{
		{ID: "page", X: 0, Y: 0, W: 1000, H: 1000},
		{ID: "button", X: 100, Y: 100, W: 200, H: 50, Interactive: true},
	})

	e, ok := m.ElementFromPoint(150, 120)
	require.True(t, ok)
	assert.Equal(t, "button", e.ID, "later entries paint over earlier ones")

	e, ok = m.ElementFromPoint(500, 500)
	require.True(t, ok)
	assert.Equal(t, "page", e.ID)

	_, ok = m.ElementFromPoint(1500, 1500)
	assert.False(t, ok)
}

func TestNearestInteractiveRespectsRadius(t *testing.T) {
	m := NewModel(bus.New())
	m.SetElements([]pal.Element{
		{ID: "bg", X: 0, Y: 0, W: 1000, H: 1000},
		{ID: "near", X: 90, Y: 90, W: 20, H: 20, Interactive: true},
		{ID: "far", X: 500, Y: 500, W: 20, H: 20, Interactive: true},
	})

	e, ok := m.NearestInteractive(105, 105, 20)
	require.True(t, ok)
	assert.Equal(t, "near", e.ID)

	_, ok = m.NearestInteractive(300, 300, 20)
	assert.False(t, ok, "nothing interactive within the snap radius")
}

func TestSeedRegistersBootstrapCapabilities(t *testing.T) {
	b := bus.New()
	m := NewModel(b)
	m.SetViewport(800, 600)
	m.SetElements([]pal.Element{{ID: "btn", X: 0, Y: 0, W: 10, H: 10, Interactive: true}})
	m.SetTick(9)

	p := pal.New(b)
	defer p.Destroy()
	m.Seed(p)

	w, err := pal.As[int](p, pal.KeyScreenWidth)
	require.NoError(t, err)
	assert.Equal(t, 800, w)

	efp, err := pal.As[pal.ElementFromPointFunc](p, pal.KeyElementFromPoint)
	require.NoError(t, err)
	e, ok := efp(5, 5)
	require.True(t, ok)
	assert.Equal(t, "btn", e.ID)

	clock, err := pal.As[pal.TickSource](p, pal.KeyClock)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), clock())
}
