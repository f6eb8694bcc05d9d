// =============================================================================
// Inventory Count Automation - Count File Reader
// =============================================================================
//
// Count files are plain text, one scanned barcode per line, as produced by
// handheld scanners. This module reads them line by line and yields only the
// lines accepted by the layout's barcode rule, already normalized.
//
// A UTF-8 byte order mark on the first line is dropped. Windows line endings
// are handled by the trim in validation.Parse. A line longer than
// maxLineSize is skipped and reported as rejected.
//
// =============================================================================

package countfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/ginjaninja78/inventory-count-automation/internal/validation"
)

const (
	utf8BOM = "\uFEFF"

	// maxLineSize bounds a single scanner line.
	maxLineSize = 1024 * 1024

	// previewSize is how much of an oversize line is kept for the report.
	previewSize = 32
)

// =============================================================================
// SCANNER
// =============================================================================

// Scanner reads one count file and yields valid barcodes.
//
// USAGE:
//
//	s, err := countfile.NewScanner(path, matcher)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	for s.Next() {
//	    use(s.Barcode())
//	}
//	if err := s.Err(); err != nil {
//	    return err
//	}
type Scanner struct {
	file     *os.File
	reader   *bufio.Reader
	matcher  *validation.Matcher
	barcode  string
	line     int
	rejected []types.RejectedLine
	err      error
}

// NewScanner opens a count file.
func NewScanner(path string, m *validation.Matcher) (*Scanner, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open count file: %w", err)
	}

	return &Scanner{file: file, reader: bufio.NewReaderSize(file, 64*1024), matcher: m}, nil
}

// Next advances to the next valid barcode. It returns false at end of file
// or on a read error.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}

	for {
		text, tooLong, err := s.readLine()
		if err != nil {
			if err != io.EOF {
				s.err = fmt.Errorf("error reading line %d: %w", s.line+1, err)
			}
			return false
		}

		s.line++
		if s.line == 1 {
			text = strings.TrimPrefix(text, utf8BOM)
		}

		if tooLong {
			s.rejected = append(s.rejected, types.RejectedLine{
				Line:   s.line,
				Value:  text + "...",
				Reason: fmt.Sprintf("line longer than %d bytes", maxLineSize),
			})
			continue
		}

		barcode, ok := validation.Parse(text, s.matcher)
		if !ok {
			if raw := strings.TrimSpace(text); raw != "" {
				s.rejected = append(s.rejected, types.RejectedLine{
					Line:   s.line,
					Value:  raw,
					Reason: s.matcher.Explain(raw),
				})
			}
			continue
		}

		s.barcode = barcode
		return true
	}
}

// readLine returns the next line without its line ending. A line over
// maxLineSize is consumed whole but only its first previewSize bytes are
// returned, with tooLong set. io.EOF is returned once no line is left.
func (s *Scanner) readLine() (line string, tooLong bool, err error) {
	var buf []byte
	started := false

	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			if err == io.EOF && started {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		started = true

		switch {
		case tooLong:
		case len(buf)+len(chunk) > maxLineSize:
			tooLong = true
			buf = append(buf, chunk...)
			if len(buf) > previewSize {
				buf = buf[:previewSize]
			}
		default:
			buf = append(buf, chunk...)
		}

		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// Barcode returns the current barcode.
func (s *Scanner) Barcode() string { return s.barcode }

// LineNumber returns the 1-based line of the current barcode.
func (s *Scanner) LineNumber() int { return s.line }

// Rejected returns how many non-empty lines the rule refused so far.
func (s *Scanner) Rejected() int { return len(s.rejected) }

// RejectedLines returns the refused lines read so far.
func (s *Scanner) RejectedLines() []types.RejectedLine { return s.rejected }

// Err returns the first read error.
func (s *Scanner) Err() error { return s.err }

// Close closes the underlying file.
func (s *Scanner) Close() error { return s.file.Close() }

// =============================================================================
// WHOLE-FILE HELPERS
// =============================================================================

// ParseFile reads a count file and returns its barcodes in line order.
func ParseFile(path string, m *validation.Matcher) (types.FileScan, []string, error) {
	scan := types.FileScan{Path: path, Name: filepath.Base(path)}

	s, err := NewScanner(path, m)
	if err != nil {
		return scan, nil, err
	}
	defer s.Close()

	var barcodes []string
	for s.Next() {
		barcodes = append(barcodes, s.Barcode())
	}
	if err := s.Err(); err != nil {
		return scan, nil, fmt.Errorf("failed to read %s: %w", scan.Name, err)
	}

	scan.Lines = s.LineNumber()
	scan.Barcodes = len(barcodes)
	scan.Rejected = s.Rejected()
	scan.RejectedLines = s.RejectedLines()
	return scan, barcodes, nil
}

// ReadAll reads every file in order and concatenates their barcodes
// (file order, then line order). onFile, when set, is called after each file.
func ReadAll(paths []string, m *validation.Matcher, onFile func(types.FileScan)) ([]types.FileScan, []string, error) {
	scans := make([]types.FileScan, 0, len(paths))
	var all []string

	for _, p := range paths {
		scan, barcodes, err := ParseFile(p, m)
		if err != nil {
			return nil, nil, err
		}
		scans = append(scans, scan)
		all = append(all, barcodes...)
		if onFile != nil {
			onFile(scan)
		}
	}

	return scans, all, nil
}
