// Package report renders scan snapshots as text, JSON or TOML documents and
// stores them on disk.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/hwscan/internal/hwscan"
	"github.com/smazurov/hwscan/internal/version"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for a format name or file extension that has
// no renderer.
var ErrUnknownFormat = errors.New("unknown report format")

// Document is a saved scan.
type Document struct {
	Version   string                    `json:"version" toml:"version"`
	Host      string                    `json:"host" toml:"host"`
	ScannedAt time.Time                 `json:"scanned_at" toml:"scanned_at"`
	Duration  string                    `json:"duration" toml:"duration"`
	Devices   []hwscan.DeviceCapability `json:"devices" toml:"devices"`
}

// New builds a document for devices found at scannedAt.
func New(devices []hwscan.DeviceCapability, scannedAt time.Time, took time.Duration) Document {
	host, _ := os.Hostname()
	if devices == nil {
		devices = []hwscan.DeviceCapability{}
	}
	return Document{
		Version:   version.String(),
		Host:      host,
		ScannedAt: scannedAt.UTC(),
		Duration:  took.Round(time.Microsecond).String(),
		Devices:   devices,
	}
}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatJSON, FormatTOML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: extension of %s", ErrUnknownFormat, path)
	}
}

// Render writes doc to w.
func Render(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(doc)
	case FormatText:
		return renderText(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Save writes doc to path in the format its extension implies. Missing
// parent directories are created.
func Save(path string, doc Document) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := Render(f, doc, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

// Load reads a JSON or TOML report.
func Load(path string) (Document, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}

	var doc Document
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	default:
		return Document{}, fmt.Errorf("%w: text reports cannot be loaded", ErrUnknownFormat)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return doc, nil
}

func renderText(w io.Writer, doc Document) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%d device(s), scanned %s in %s\n", len(doc.Devices), doc.ScannedAt.Format(time.RFC3339), doc.Duration)
	for _, d := range doc.Devices {
		fmt.Fprintf(tw, "\n%s\t%s\n", d.ID(), d.Name)
		for _, c := range d.Codecs {
			fmt.Fprintf(tw, "  %s\t%s\n", c.Codec, operations(c))
			for _, s := range c.Decoding {
				fmt.Fprintf(tw, "    decode\t%s %s\t%dx%d\n", s.Chroma, s.ColorDepth, s.MaxWidth, s.MaxHeight)
			}
			for _, s := range c.Encoding {
				fmt.Fprintf(tw, "    encode\t%s %s %s\t%dx%d\tb-frames=%s\n",
					s.Chroma, s.ColorDepth, s.Profile, s.MaxWidth, s.MaxHeight, s.BFrames)
			}
		}
	}
	return tw.Flush()
}

func operations(c hwscan.CodecSupport) string {
	switch {
	case c.Decode && c.Encode:
		return "decode+encode"
	case c.Decode:
		return "decode"
	default:
		return "encode"
	}
}
