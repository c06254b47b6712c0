package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/hwscan/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Scan results and device arrivals and departures as they happen",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"scan-completed": events.ScanCompletedEvent{},
		"scan-failed":    events.ScanFailedEvent{},
		"device-added":   events.DeviceAddedEvent{},
		"device-removed": events.DeviceRemovedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.ScanCompletedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ScanFailedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.DeviceAddedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.DeviceRemovedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// New clients start from the current snapshot.
		if snap, err := s.inventory.Snapshot(); err == nil {
			if err := send.Data(events.ScanCompletedEvent{
				Devices:    len(snap.Devices),
				DurationMS: float64(snap.Duration.Microseconds()) / 1000,
				Trigger:    snap.Trigger,
				Timestamp:  snap.ScannedAt.Format(time.RFC3339),
			}); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
