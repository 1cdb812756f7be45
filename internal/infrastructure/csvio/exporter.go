package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

func encodeWriter(w io.Writer, encoding string) (io.Writer, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8:
		return w, nil
	case EncodingLatin1, "iso-8859-1":
		return transform.NewWriter(w, charmap.ISO8859_1.NewEncoder()), nil
	default:
		return nil, domain.Invalid("encoding", "unsupported encoding "+strconv.Quote(encoding))
	}
}

// WriteTimeEntries writes rows in the exchange format. Rows carry only the
// operational columns; financial data never passes through the exporter.
func WriteTimeEntries(w io.Writer, rows []ports.ImportRow, encoding string) error {
	encoded, err := encodeWriter(w, encoding)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(encoded)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.EntryDate,
			r.Username,
			r.MissionCode,
			string(r.Category),
			strconv.Itoa(r.Hours),
			r.Description,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
