package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter rune   // default ','
	Comment   rune   // comment character (0 = none)
	Charset   string // IANA charset label; vendor exports are often windows-1252
	TrimSpace bool
}

// ReadCSV reads all rows from r. The first row is returned as the header.
func ReadCSV(r io.Reader, opts CSVOptions) (header []string, rows [][]string, err error) {
	if opts.Charset != "" {
		enc, encErr := htmlindex.Get(opts.Charset)
		if encErr != nil {
			return nil, nil, eris.Wrapf(encErr, "csv: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.FieldsPerRecord = -1 // allow variable fields

	first := true
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			return header, rows, nil
		}
		if readErr != nil {
			return header, rows, eris.Wrap(readErr, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}

		if first {
			first = false
			header = record
			continue
		}
		rows = append(rows, record)
	}
}
