package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/hwscan/internal/events"
	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/pkg/linuxav/hotplug"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   hotplug.Event
		want bool
	}{
		{"video node added", hotplug.Event{Action: hotplug.ActionAdd, Subsystem: hotplug.SubsystemVideo4Linux, DevName: "video10"}, true},
		{"video node changed", hotplug.Event{Action: hotplug.ActionChange, Subsystem: hotplug.SubsystemVideo4Linux, DevName: "video10"}, false},
		{"connector", hotplug.Event{Action: hotplug.ActionAdd, Subsystem: hotplug.SubsystemDRM, DevName: "dri/card1"}, false},
		{"other subsystem", hotplug.Event{Action: hotplug.ActionAdd, Subsystem: "input"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Relevant(tt.ev))
		})
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	scanner := &fakeScanner{results: [][]hwscan.DeviceCapability{{gpu(0, hwscan.CodecH264)}, {gpu(0, hwscan.CodecH264)}}}
	bus := &recorder{}
	svc := New(scanner, WithEventBus(bus))

	uevents := make(chan hotplug.Event)
	done := make(chan error, 1)
	go func() { done <- svc.Watch(context.Background(), uevents, 100*time.Millisecond) }()

	for range 5 {
		uevents <- hotplug.Event{Action: hotplug.ActionAdd, Subsystem: hotplug.SubsystemVideo4Linux, DevName: "video11"}
	}

	require.Eventually(t, func() bool {
		for _, typ := range bus.types() {
			if typ == events.TypeScanCompleted {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	close(uevents)
	require.NoError(t, <-done)
	assert.Equal(t, 1, scanner.calls)
}

func TestWatchStopsOnCancel(t *testing.T) {
	svc := New(&fakeScanner{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx, make(chan hotplug.Event), 0) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
