// Package store persists optimization artifacts to the filesystem.
//
// The coordinate dump format is one line per population member with the
// coordinates whitespace-separated, which keeps the files trivially
// loadable by plotting tools (gnuplot, numpy.loadtxt).
package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/copyleftdev/EMBER/internal/optimization"
)

// WriteCoordinates writes the coordinates of every population member to w,
// one line per member. Each coordinate is followed by a single space, so
// readers that split on whitespace see exactly one column per dimension.
func WriteCoordinates(w io.Writer, population []optimization.Solution) error {
	bw := bufio.NewWriter(w)
	for _, member := range population {
		for _, coord := range member.Parameters {
			bw.WriteString(strconv.FormatFloat(coord, 'g', -1, 64))
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write coordinates: %w", err)
	}
	return nil
}

// SaveCoordinates atomically writes the population coordinates to path.
// Uses temp file + rename so a concurrent reader never observes a partial
// dump. The parent directory is created if it does not exist.
func SaveCoordinates(path string, population []optimization.Solution) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteCoordinates(&buf, population); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp coordinate file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename coordinate file: %w", err)
	}

	return nil
}
