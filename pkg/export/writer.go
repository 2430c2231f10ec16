// Package export persists completed measurement cycles: one CSV file
// per cycle plus an optional sqlite result index.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/itohio/gopstat/pkg/config"
	"github.com/itohio/gopstat/pkg/curve"
)

// WriteCurve writes one frozen curve to a CSV file under dir and
// returns the full path. The first line is the fixed header for the
// curve's technique, then one row per sample in arrival order.
func WriteCurve(dir, project string, params config.ScanParams, c *curve.Curve, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	path := filepath.Join(dir, Filename(project, params, c.Cycle(), now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	bw := bufio.NewWriterSize(f, 64*1024)
	w := csv.NewWriter(bw)

	if err := w.Write(Header(c.ScanKind())); err != nil {
		f.Close()
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, s := range c.Snapshot() {
		if err := w.Write(Row(s)); err != nil {
			f.Close()
			return "", fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush csv: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
