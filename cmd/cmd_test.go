package cmd

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/hwscan/internal/config"
	"github.com/smazurov/hwscan/internal/events"
	"github.com/smazurov/hwscan/internal/hwscan"
)

const fixture = "../internal/platform/simulated/testdata/two-devices.toml"

func TestInspectSimulated(t *testing.T) {
	enum, err := newEnumerator(config.ScanOptions{Simulate: fixture})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, inspect(&out, enum.Enumerate))

	text := out.String()
	assert.Contains(t, text, "status:      0 (ok)")
	assert.Contains(t, text, "layout:      v1")
	assert.Contains(t, text, "devices:     2")
	assert.Contains(t, text, "Device A")
	assert.Contains(t, text, "Device B")
	assert.Contains(t, text, "leak check:  ok (1 allocated, 1 freed)")
}

func TestInspectNoDevices(t *testing.T) {
	var out bytes.Buffer
	err := inspect(&out, func() ([]hwscan.DeviceCapability, error) { return nil, nil })
	require.NoError(t, err)
	assert.Contains(t, out.String(), "devices:     0")
	assert.Contains(t, out.String(), "leak check:  ok")
}

func TestInspectFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"platform query", &hwscan.EnumerationError{Platform: "vaapi", Err: errors.New("driver crashed")}, "1 (platform query failed)"},
		{"internal", errors.New("boom"), "5 (internal error)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := inspect(&out, func() ([]hwscan.DeviceCapability, error) { return nil, tt.err })
			require.Error(t, err)
			assert.Contains(t, out.String(), "status:      "+tt.status)
		})
	}
}

func TestCLILoggingConfig(t *testing.T) {
	cfg := cliLoggingConfig(config.ScanOptions{LoggingLevel: "debug", LoggingFormat: "json"})
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
}

func TestPrintDeviceChanges(t *testing.T) {
	bus := events.New()
	var out syncBuffer
	unsubscribe := printDeviceChanges(&out, bus)
	defer unsubscribe()

	bus.Publish(events.DeviceAddedEvent{
		DeviceID:  "vaapi:/dev/dri/renderD128",
		Device:    hwscan.DeviceCapability{Name: "Intel iHD"},
		Timestamp: "2026-01-01T00:00:00Z",
	})
	bus.Publish(events.DeviceRemovedEvent{
		DeviceID:  "nvidia:0",
		Name:      "GeForce",
		Timestamp: "2026-01-01T00:00:01Z",
	})

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "+ vaapi:/dev/dri/renderD128 Intel iHD") &&
			strings.Contains(s, "- nvidia:0 GeForce")
	}, time.Second, 10*time.Millisecond)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
