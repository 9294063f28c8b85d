package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"particlesphere/simulation"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorderExposesCollectors(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())
	r.ObserveTick(2*time.Millisecond, 289, 1)
	r.ObservePointer(simulation.PointerRay)
	r.ObservePointer(simulation.PointerRay)
	r.ObservePointer(simulation.PointerLeave)
	r.ObserveRebuild(16)
	r.ObserveConfigUpdate("websocket")
	r.Clients.Set(2)

	body := scrape(t, r)
	assert.Contains(t, body, "particlesphere_particles 289")
	assert.Contains(t, body, "particlesphere_hover 1")
	assert.Contains(t, body, "particlesphere_density 16")
	assert.Contains(t, body, `particlesphere_pointer_events_total{kind="ray"} 2`)
	assert.Contains(t, body, `particlesphere_pointer_events_total{kind="leave"} 1`)
	assert.Contains(t, body, "particlesphere_rebuilds_total 1")
	assert.Contains(t, body, `particlesphere_config_updates_total{source="websocket"} 1`)
	assert.Contains(t, body, "particlesphere_control_clients 2")
	assert.Contains(t, body, "particlesphere_frame_seconds_count 1")
}

func TestRecorderObservesPipeline(t *testing.T) {
	r := NewRecorder(nil)
	params := simulation.DefaultParams()
	params.Density = 8

	p := simulation.NewPipeline(params, simulation.Options{Observer: r})
	p.Input().MoveWorld(mgl32.Vec3{0, 0, 1.2})
	p.Tick(0)
	p.Tick(0)

	body := scrape(t, r)
	assert.Contains(t, body, "particlesphere_particles 81")
	assert.Contains(t, body, "particlesphere_density 8")
	assert.Contains(t, body, `particlesphere_pointer_events_total{kind="world"} 1`)
	assert.Contains(t, body, "particlesphere_frame_seconds_count 2")
	assert.Contains(t, body, "go_goroutines")
}

func TestRecordersAreIndependent(t *testing.T) {
	a := NewRecorder(nil)
	b := NewRecorder(nil)
	a.ObserveRebuild(32)
	assert.NotContains(t, scrape(t, b), "particlesphere_density 32")
}
