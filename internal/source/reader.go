package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

const (
	csvDelimiter = ','
	tsvDelimiter = '\t'
)

// Options control how a source is opened.
type Options struct {
	// Delimiter overrides the delimiter chosen from the extension.
	Delimiter rune

	Remote RemoteConfig
}

// Reader yields the normalized headers and raw rows of a delimited source.
// Rows are produced lazily and cannot be re-read once consumed.
type Reader struct {
	location string
	headers  []string
	raw      []string
	csv      *csv.Reader
	closer   func() error
}

// Open opens location, detects compression and delimiter, and reads the
// header record. Failures are reported as *core.IOError. A source with no
// header record at all is a *core.EmptyInputError.
func Open(ctx context.Context, location string, opts Options) (*Reader, error) {
	rc, err := openLocation(ctx, location, opts.Remote)
	if err != nil {
		return nil, &core.IOError{Path: location, Err: err}
	}

	name := stripQuery(location)
	r, closer, err := decompress(rc, compressionFromName(name))
	if err != nil {
		return nil, &core.IOError{Path: location, Err: err}
	}

	comma := opts.Delimiter
	if comma == 0 {
		comma = delimiterFromName(name)
	}

	reader, err := newReader(location, r, comma)
	if err != nil {
		_ = closer()
		return nil, err
	}
	reader.closer = closer
	return reader, nil
}

// NewReader reads delimited text from r. location is only used in errors.
func NewReader(location string, r io.Reader, comma rune) (*Reader, error) {
	if comma == 0 {
		comma = csvDelimiter
	}
	return newReader(location, r, comma)
}

func newReader(location string, r io.Reader, comma rune) (*Reader, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	reader := &Reader{location: location, csv: cr}

	header, err := reader.readRecord()
	if errors.Is(err, io.EOF) {
		return nil, &core.EmptyInputError{Path: location}
	}
	if err != nil {
		return nil, err
	}
	reader.raw = header
	reader.headers = UniqueHeaders(header)
	return reader, nil
}

// Headers returns the normalized, unique column names.
func (r *Reader) Headers() []string {
	return r.headers
}

// RawHeaders returns the header cells as they appear in the source.
func (r *Reader) RawHeaders() []string {
	return r.raw
}

// Next returns the next non-blank row with every cell trimmed, or io.EOF.
// Rows may have more or fewer cells than there are headers.
func (r *Reader) Next() (core.Row, error) {
	for {
		rec, err := r.readRecord()
		if err != nil {
			return nil, err
		}
		if !blank(rec) {
			return core.Row(rec), nil
		}
	}
}

// Close releases the underlying stream. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer()
	r.closer = nil
	return err
}

func (r *Reader) readRecord() ([]string, error) {
	rec, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &core.IOError{Path: r.location, Err: fmt.Errorf("malformed delimited text: %w", err)}
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}

func delimiterFromName(name string) rune {
	if c := compressionFromName(name); c != CompressionNone {
		name = strings.TrimSuffix(name, path.Ext(name))
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".tsv", ".tab":
		return tsvDelimiter
	default:
		return csvDelimiter
	}
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}

// ParseDelimiter interprets a user-supplied delimiter flag.
// "\t" and "tab" both mean a tab character.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case `\t`, "tab", "\t":
		return tsvDelimiter, nil
	}
	runes := []rune(s)
	if len(runes) != 1 || runes[0] == '"' || runes[0] == '\r' || runes[0] == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q: must be a single character other than a quote or newline", s)
	}
	return runes[0], nil
}
