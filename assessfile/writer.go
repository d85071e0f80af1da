// Package assessfile implements the assessment-file emitter (§4.7): the
// sentinel-terminated text blocks (starter/data/control/forecast) consumed
// by an external Stock-Synthesis-style assessment tool, and the bridge
// that invokes it and scans its output for estimates.
//
// Grounded on original_source/atlantis/atSS3Link/atSS3LinkIO.c, which
// writes every numeric block with a fixed terminator row (e.g.
// "-9999 0 0 0 0 # terminator for catches") rather than a length-prefixed
// or self-describing format; this package reproduces that same
// sentinel-row convention instead of inventing a stronger one.
package assessfile

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Block is one sentinel-terminated numeric table: a header comment, rows
// of whitespace-separated values, and a fixed terminator row.
type Block struct {
	Comment    string
	Rows       [][]float64
	Terminator []float64
	TermComment string
}

// Writer emits the text blocks that make up one species/year assessment
// bundle (§4.7 "starter, data, control, forecast").
type Writer struct {
	out io.Writer
	// RunID is embedded in the header comment of every file this Writer
	// produces, for traceability across repeated annual emissions
	// (SPEC_FULL.md domain-stack wiring: google/uuid).
	RunID string
}

// NewWriter wraps out, generating a fresh run identifier.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, RunID: uuid.NewString()}
}

// Header writes the shared top-of-file comment every emitted file carries.
func (w *Writer) Header(kind, speciesCode string, year int) error {
	_, err := fmt.Fprintf(w.out, "# %s file for %s, year %d — run %s\n", kind, speciesCode, year, w.RunID)
	return err
}

// WriteBlock writes one sentinel-terminated numeric block (§4.7 "each
// numeric block is terminated by a documented sentinel row").
func (w *Writer) WriteBlock(b Block) error {
	if b.Comment != "" {
		if _, err := fmt.Fprintf(w.out, "# %s\n", b.Comment); err != nil {
			return err
		}
	}
	for _, row := range b.Rows {
		if err := writeRow(w.out, row, ""); err != nil {
			return err
		}
	}
	return writeRow(w.out, b.Terminator, b.TermComment)
}

func writeRow(out io.Writer, row []float64, comment string) error {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = trimFloat(v)
	}
	line := strings.Join(parts, " ")
	if comment != "" {
		line += " # " + comment
	}
	_, err := fmt.Fprintln(out, line)
	return err
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	return s
}

// CatchTerminator is the fixed catches-block sentinel used throughout
// original_source (atSS3LinkIO.c:707).
var CatchTerminator = []float64{-9999, 0, 0, 0, 0}

// CPUETerminator is the fixed CPUE/survey-observation sentinel
// (atSS3LinkIO.c:752).
var CPUETerminator = []float64{-9999, 1, 1, 1, 1}

// DiscardTerminator is the fixed discard-data sentinel (atSS3LinkIO.c:805).
var DiscardTerminator = []float64{-9999, 0, 0, 0, 0}

// CompositionTerminator builds the composition-table sentinel, which is
// -9999 followed by (2*nBins + extra) zero columns (§4.7 "of length
// 2·N_bins + k").
func CompositionTerminator(nBins, extra int) []float64 {
	row := make([]float64, 1+2*nBins+extra)
	row[0] = -9999
	return row
}
