// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for discovering memory-to-memory codec nodes and querying the
// compressed formats they accept or produce.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Enumeration
//
// FindDevices lists every node under /sys/class/video4linux with its
// capabilities. Codec engines are the ones reporting IsM2M:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    if dev.IsM2M() {
//	        fmt.Printf("%s: %s (%s)\n", dev.Path, dev.Card, dev.Driver)
//	    }
//	}
//
// # Format Queries
//
// A mem2mem node has two queues. Compressed formats on the OUTPUT queue
// are bitstreams the node decodes; compressed formats on the CAPTURE queue
// are bitstreams it encodes to:
//
//	dev, _ := v4l2.Open("/dev/video10")
//	defer dev.Close()
//	output, capture := dev.Queues()
//	decodes, _ := dev.Formats(output)
//	encodes, _ := dev.Formats(capture)
//	size, _ := dev.FrameSizes(v4l2.PixFmtHEVC)
//
// On non-Linux systems every entry point returns ErrNotSupported.
package v4l2
