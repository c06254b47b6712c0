package cmd

import (
	"fmt"
	"io"
	"os"
	"time"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/smazurov/hwscan/internal/abi"
	"github.com/smazurov/hwscan/internal/config"
	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/report"
)

var inspectOpts config.ScanOptions

// InspectCmd drives the exported scan/free path in-process and checks the
// arena it produces.
var InspectCmd = &cobra.Command{
	Use:          "inspect",
	Short:        "Run scan_devices/free_devices in-process and verify the result layout",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadScanOptions(cmd, &inspectOpts); err != nil {
			return err
		}
		return inspect(os.Stdout, func() ([]hwscan.DeviceCapability, error) {
			enum, err := newEnumerator(inspectOpts)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", abi.ErrConfig, err)
			}
			return enum.Enumerate()
		})
	},
}

func init() {
	bindScanFlags(InspectCmd, &inspectOpts)
}

func inspect(w io.Writer, enumerate abi.EnumerateFunc) error {
	alloc := abi.NewTrackingAllocator()

	var out unsafe.Pointer
	start := time.Now()
	status := abi.Scan(&out, enumerate, alloc)
	took := time.Since(start)

	fmt.Fprintf(w, "status:      %d (%s)\n", int32(status), status)
	if status != abi.StatusOK {
		if out != nil {
			return fmt.Errorf("scan returned %s with a non-NULL result", status)
		}
		return fmt.Errorf("scan failed with status %s", status)
	}

	buf, err := abi.View(out)
	if err != nil {
		abi.Free(out, alloc)
		return err
	}
	res, err := abi.Decode(buf, uintptr(out))
	if err != nil {
		abi.Free(out, alloc)
		return err
	}

	fmt.Fprintf(w, "layout:      v%d\n", res.Version)
	fmt.Fprintf(w, "total size:  %d bytes\n", res.TotalSize)
	fmt.Fprintf(w, "devices:     %d\n\n", len(res.Devices))
	renderErr := report.Render(w, report.New(res.Devices, start, took), report.FormatText)

	abi.Free(out, alloc)
	if live := alloc.Live(); live != 0 {
		return fmt.Errorf("leak check failed: %d arenas (%d bytes) still live", live, alloc.LiveBytes())
	}
	fmt.Fprintf(w, "\nleak check:  ok (%d allocated, %d freed)\n", alloc.Allocations(), alloc.Frees())
	return renderErr
}
