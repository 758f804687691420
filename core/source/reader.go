package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"table-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptySource is returned when the source has no header line.
var ErrEmptySource = errors.New("source has no header row")

// Options selects the column zones of a source.
type Options struct {
	FrozenZone Zone
	DataZone   Zone
}

// DefaultOptions returns the default A-F frozen and G-Z data zones.
func DefaultOptions() Options {
	return Options{
		FrozenZone: MustParseZone(DefaultFrozenZone),
		DataZone:   MustParseZone(DefaultDataZone),
	}
}

// Read parses a CSV source.
//
// Lines too short to reach the frozen zone are skipped, as are lines whose
// cells are all blank. Cells beyond the end of a short line are left out of
// the row rather than padded.
func Read(r io.Reader, opts Options) (*Sheet, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	data, enc, err := decode(raw)
	if err != nil {
		return nil, err
	}

	reader := newCSVReader(data)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	sheet := headerSheet(header, opts, enc)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source line: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) <= opts.FrozenZone.Start || blank(record) {
			continue
		}
		sheet.Rows = append(sheet.Rows, Row{
			Line:   line,
			Frozen: zoneCells(sheet.FrozenHeaders, record),
			Data:   zoneCells(sheet.DataHeaders, record),
		})
	}

	return sheet, nil
}

// ReadHeaders parses only the header line of a source. It stops reading as
// soon as the first record is complete.
func ReadHeaders(r io.Reader, opts Options) (*Sheet, error) {
	br := bufio.NewReader(r)
	var raw []byte
	for {
		chunk, err := br.ReadBytes('\n')
		raw = append(raw, chunk...)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return nil, fmt.Errorf("read source: %w", err)
		}

		data, enc, derr := decode(raw)
		if derr != nil && eof {
			return nil, derr
		}
		if derr == nil {
			reader := newCSVReader(data)
			header, herr := reader.Read()
			end := reader.InputOffset()
			// A quoted header cell may span lines; the record is whole once
			// it ends a line with its quotes balanced.
			complete := herr == nil && end > 0 && data[end-1] == '\n' && bytes.Count(data[:end], []byte{'"'})%2 == 0
			switch {
			case complete || (eof && herr == nil):
				return headerSheet(header, opts, enc), nil
			case eof && errors.Is(herr, io.EOF):
				return nil, ErrEmptySource
			case eof:
				return nil, fmt.Errorf("read header row: %w", herr)
			}
		}
	}
}

func newCSVReader(data []byte) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

func headerSheet(header []string, opts Options, enc string) *Sheet {
	for i, h := range header {
		header[i] = normalizeHeader(h)
	}
	return &Sheet{
		FrozenHeaders: zoneHeaders(header, opts.FrozenZone),
		DataHeaders:   zoneHeaders(header, opts.DataZone),
		Encoding:      enc,
	}
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return norm.NFC.String(strings.TrimSpace(h))
}

func zoneHeaders(header []string, z Zone) []Header {
	var out []Header
	for i := z.Start; i <= z.End && i < len(header); i++ {
		out = append(out, Header{Name: header[i], Index: i})
	}
	return out
}

func zoneCells(headers []Header, record []string) []Cell {
	cells := make([]Cell, 0, len(headers))
	for _, h := range headers {
		if h.Name == "" || h.Index >= len(record) {
			continue
		}
		cells = append(cells, Cell{Column: h.Name, Index: h.Index, Value: record[h.Index]})
	}
	return cells
}

// Open returns a reader for location: either a local path or
// s3://bucket/key served by store.
func Open(ctx context.Context, location string, store storage.Client) (io.ReadCloser, error) {
	loc, ok := storage.ParseLocation(location)
	if !ok {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open source: %w", err)
		}
		return f, nil
	}

	if store == nil {
		return nil, fmt.Errorf("open source %s: object storage is not configured", loc)
	}
	if _, err := store.StatObject(ctx, loc.Bucket, loc.Key, minio.StatObjectOptions{}); err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("open source %s: %w", loc, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("stat source object %s: %w", loc, err)
	}
	obj, err := store.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get source object %s: %w", loc, err)
	}
	return obj, nil
}

// Load opens location and parses it.
func Load(ctx context.Context, location string, store storage.Client, opts Options) (*Sheet, error) {
	rc, err := Open(ctx, location, store)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Read(rc, opts)
}
