// Package metrics provides Prometheus metrics for scans and the capabilities
// they report.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smazurov/hwscan/internal/hwscan"
)

// Scan results used as the result label.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Operation label values of codecSupport.
const (
	opDecode = "decode"
	opEncode = "encode"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hwscan",
		Name:      "scans_total",
		Help:      "Completed scans by result",
	}, []string{"result"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hwscan",
		Name:      "scan_duration_seconds",
		Help:      "Time spent enumerating and probing devices",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	devicesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hwscan",
		Name:      "devices",
		Help:      "Capable devices in the latest snapshot",
	}, []string{"driver"})

	codecSupport = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hwscan",
		Name:      "codec_devices",
		Help:      "Devices in the latest snapshot able to decode or encode a codec",
	}, []string{"codec", "operation"})

	lastScan = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hwscan",
		Name:      "last_scan_timestamp_seconds",
		Help:      "Unix time of the latest successful scan",
	})
)

// ObserveScan records one scan attempt.
func ObserveScan(result string, elapsed time.Duration) {
	scansTotal.WithLabelValues(result).Inc()
	scanDuration.Observe(elapsed.Seconds())
}

// SetSnapshot replaces the capability gauges with the contents of devices.
func SetSnapshot(devices []hwscan.DeviceCapability, at time.Time) {
	devicesGauge.Reset()
	codecSupport.Reset()

	for _, d := range devices {
		devicesGauge.WithLabelValues(d.Driver.String()).Inc()
		for _, c := range d.Codecs {
			if c.Decode {
				codecSupport.WithLabelValues(c.Codec.String(), opDecode).Inc()
			}
			if c.Encode {
				codecSupport.WithLabelValues(c.Codec.String(), opEncode).Inc()
			}
		}
	}
	lastScan.Set(float64(at.Unix()))
}

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}
