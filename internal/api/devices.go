package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/hwscan/internal/api/models"
	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/inventory"
)

// registerDeviceRoutes registers all device-related endpoints
func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "Devices of the latest scan and their codec capabilities",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.DevicesResponse, error) {
		snap, err := s.inventory.Snapshot()
		if err != nil {
			return nil, snapshotError(err)
		}
		return &models.DevicesResponse{Body: devicesData(snap)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "rescan-devices",
		Method:      http.MethodPost,
		Path:        "/api/devices/rescan",
		Summary:     "Rescan Devices",
		Description: "Run a new scan and return its snapshot",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500, 502},
	}, func(ctx context.Context, _ *struct{}) (*models.DevicesResponse, error) {
		snap, err := s.inventory.Rescan(ctx, inventory.TriggerAPI)
		if err != nil {
			var enumErr *hwscan.EnumerationError
			if errors.As(err, &enumErr) {
				return nil, huma.Error502BadGateway("Platform query failed", err)
			}
			return nil, huma.Error500InternalServerError("Scan failed", err)
		}
		return &models.DevicesResponse{Body: devicesData(snap)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        "/api/devices/{device_id}",
		Summary:     "Get Device",
		Description: "One device of the latest scan",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *models.DeviceInput) (*models.DeviceResponse, error) {
		device, ok := s.inventory.Device(input.DeviceID)
		if !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("Device %s not found", input.DeviceID))
		}
		return &models.DeviceResponse{Body: models.DeviceData{ID: device.ID(), DeviceCapability: device}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-codecs",
		Method:      http.MethodGet,
		Path:        "/api/codecs",
		Summary:     "List Codecs",
		Description: "For each codec, the devices able to decode and encode it",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.CodecsResponse, error) {
		grouped := s.inventory.Codecs()
		out := models.CodecsData{Codecs: make([]models.CodecData, 0, len(grouped))}
		for _, c := range grouped {
			out.Codecs = append(out.Codecs, models.CodecData{Codec: c.Codec, Decoders: c.Decoders, Encoders: c.Encoders})
		}
		return &models.CodecsResponse{Body: out}, nil
	})
}

func devicesData(snap inventory.Snapshot) models.DevicesData {
	devices := make([]models.DeviceData, 0, len(snap.Devices))
	for _, d := range snap.Devices {
		devices = append(devices, models.DeviceData{ID: d.ID(), DeviceCapability: d})
	}
	return models.DevicesData{
		Devices:    devices,
		Count:      len(devices),
		ScannedAt:  snap.ScannedAt,
		DurationMS: float64(snap.Duration.Microseconds()) / 1000,
		Trigger:    snap.Trigger,
	}
}

func snapshotError(err error) error {
	if errors.Is(err, inventory.ErrNoSnapshot) {
		return huma.Error503ServiceUnavailable("No scan has completed yet")
	}
	return huma.Error503ServiceUnavailable("Latest scan failed", err)
}

func deviceCount(n int) string {
	return fmt.Sprintf("%d device(s)", n)
}
