// Package upload parses purchase-order files into imported products and
// writes them into the business data profile.
package upload

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures the streaming CSV reader.
type CSVOptions struct {
	Delimiter rune   // default ','
	Charset   string // WHATWG label, e.g. "windows-1252"; empty or utf-8 reads as-is
	Comment   rune   // comment character (0 = none)
}

// StreamCSV reads CSV records from r and sends them, trimmed, to a channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		src, err := decodeCharset(r, opts.Charset)
		if err != nil {
			errCh <- err
			return
		}

		reader := csv.NewReader(src)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func decodeCharset(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}

// ParseCSV reads a purchase-order CSV. The first record is the header.
func ParseCSV(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	csvOpts := CSVOptions{Charset: opts.Charset}
	if opts.Delimiter != "" {
		csvOpts.Delimiter = []rune(opts.Delimiter)[0]
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	rowCh, errCh := StreamCSV(ctx, r, csvOpts)

	agg := newAggregator(opts.MaxRows)
	for row := range rowCh {
		if err := agg.add(row); err != nil {
			// The deferred cancel stops the reader; the rest of the input is never read.
			return nil, err
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return agg.result("csv")
}
