package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/hwscan/internal/events"
	"github.com/smazurov/hwscan/internal/inventory"
	"github.com/smazurov/hwscan/internal/metrics"
	"github.com/smazurov/hwscan/internal/platform"
)

var fixture = filepath.Join("..", "platform", "simulated", "testdata", "two-devices.toml")

func newTestServer(t *testing.T, opts *Options) (*httptest.Server, *inventory.Service) {
	t.Helper()
	enum, err := platform.NewEnumerator(platform.Config{Simulate: fixture}, nil)
	require.NoError(t, err)

	bus := events.New()
	inv := inventory.New(enum, inventory.WithEventBus(bus))
	if opts == nil {
		opts = &Options{}
	}
	opts.Inventory = inv
	opts.EventBus = bus

	ts := httptest.NewServer(NewServer(opts).Handler())
	t.Cleanup(ts.Close)
	return ts, inv
}

func getJSON(t *testing.T, rawURL string, out any) int {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthBeforeFirstScan(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var body struct {
		Status string `json:"status"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/health", &body))
	assert.Equal(t, "starting", body.Status)

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/devices", nil))
}

func TestRescanAndListDevices(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/devices/rescan", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count   int `json:"count"`
		Devices []struct {
			ID     string `json:"id"`
			Driver string `json:"driver"`
			Name   string `json:"name"`
			Codecs []struct {
				Codec  string `json:"codec"`
				Decode bool   `json:"decode"`
				Encode bool   `json:"encode"`
			} `json:"codecs"`
		} `json:"devices"`
		Trigger string `json:"trigger"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/devices", &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "simulated:/dev/sim/a", body.Devices[0].ID)
	assert.Equal(t, "simulated", body.Devices[0].Driver)
	assert.Equal(t, "Device B", body.Devices[1].Name)
	assert.Equal(t, "av1", body.Devices[1].Codecs[0].Codec)
	assert.True(t, body.Devices[1].Codecs[0].Encode)
	assert.Equal(t, inventory.TriggerAPI, body.Trigger)

	var health struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	getJSON(t, ts.URL+"/api/health", &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "2 device(s)", health.Message)
}

func TestGetDevice(t *testing.T) {
	ts, inv := newTestServer(t, nil)
	_, err := inv.Rescan(context.Background(), inventory.TriggerStartup)
	require.NoError(t, err)

	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	status := getJSON(t, ts.URL+"/api/devices/"+url.PathEscape("simulated:/dev/sim/b"), &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Device B", body.Name)

	status = getJSON(t, ts.URL+"/api/devices/simulated:0", &body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "simulated:/dev/sim/a", body.ID)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/devices/nvidia:7", nil))
}

func TestListCodecs(t *testing.T) {
	ts, inv := newTestServer(t, nil)
	_, err := inv.Rescan(context.Background(), inventory.TriggerStartup)
	require.NoError(t, err)

	var body struct {
		Codecs []struct {
			Codec    string   `json:"codec"`
			Decoders []string `json:"decoders"`
			Encoders []string `json:"encoders"`
		} `json:"codecs"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/codecs", &body))

	byCodec := map[string][]string{}
	for _, c := range body.Codecs {
		byCodec[c.Codec+"/decode"] = c.Decoders
		byCodec[c.Codec+"/encode"] = c.Encoders
	}
	assert.Equal(t, []string{"simulated:/dev/sim/a"}, byCodec["h264/encode"])
	assert.Equal(t, []string{"simulated:/dev/sim/a"}, byCodec["hevc/decode"])
	assert.Equal(t, []string{"simulated:/dev/sim/b"}, byCodec["av1/encode"])
	assert.Empty(t, byCodec["av1/decode"])
}

func TestVersion(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	var body struct {
		Version       string `json:"version"`
		LayoutVersion int    `json:"layout_version"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/version", &body))
	assert.Equal(t, 1, body.LayoutVersion)
	assert.NotEmpty(t, body.Version)
}

func TestBasicAuth(t *testing.T) {
	ts, _ := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret"})

	assert.Equal(t, http.StatusUnauthorized, getJSON(t, ts.URL+"/api/codecs", nil))
	// Health stays open.
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/health", nil))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:secret")), http.StatusOK},
		{"wrong password", "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:nope")), http.StatusUnauthorized},
		{"bearer", "Bearer token", http.StatusUnauthorized},
		{"garbage", "Basic !!!", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/codecs", nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", tt.header)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	query := url.QueryEscape(base64.StdEncoding.EncodeToString([]byte("admin:secret")))
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/codecs?auth="+query, nil))
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/devices/rescan", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, inv := newTestServer(t, &Options{MetricsHandler: metrics.Handler()})
	_, err := inv.Rescan(context.Background(), inventory.TriggerStartup)
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), `hwscan_devices{driver="simulated"}`) {
			found = true
		}
	}
	assert.True(t, found, "expected hwscan_devices for the simulated driver")
}

func TestEventsStream(t *testing.T) {
	ts, inv := newTestServer(t, nil)
	_, err := inv.Rescan(context.Background(), inventory.TriggerStartup)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	// The snapshot summary arrives first.
	require.Equal(t, "event: scan-completed", nextEvent(t, lines))

	_, err = inv.Rescan(context.Background(), inventory.TriggerHotplug)
	require.NoError(t, err)
	assert.Equal(t, "event: scan-completed", nextEvent(t, lines))
}

func nextEvent(t *testing.T, lines <-chan string) string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed")
			}
			if strings.HasPrefix(line, "event:") {
				return line
			}
		case <-timeout:
			t.Fatal("timed out waiting for an event")
		}
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		method string
		status int
		want   string
	}{
		{http.MethodOptions, 204, "DEBUG"},
		{http.MethodGet, 200, "INFO"},
		{http.MethodGet, 404, "WARN"},
		{http.MethodPost, 502, "ERROR"},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.method, tt.status).String(); got != tt.want {
			t.Errorf("requestLevel(%s, %d) = %s, want %s", tt.method, tt.status, got, tt.want)
		}
	}
}
