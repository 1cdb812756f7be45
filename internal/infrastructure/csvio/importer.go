// Package csvio reads and writes the CRA exchange format: one CSV row per
// time entry, headers date,username,mission_code,category,hours,description.
// Files may arrive in UTF-8 or Latin-1 depending on the client exporting
// them, so both encodings are supported.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

// Encoding names accepted in configuration.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

var header = []string{"date", "username", "mission_code", "category", "hours", "description"}

func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8:
		return r, nil
	case EncodingLatin1, "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, domain.Invalid("encoding", fmt.Sprintf("unsupported encoding %q", encoding))
	}
}

// ParseTimeEntries reads the exchange CSV into pending import rows. It
// validates shape only (column count, hours as integer); semantic checks
// (known user, known mission, scope, capacity) belong to the import service.
func ParseTimeEntries(r io.Reader, encoding string) ([]ports.ImportRow, error) {
	decoded, err := decodeReader(r, encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(decoded)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err == io.EOF {
		return nil, domain.Invalid("file", "is empty")
	}
	if err != nil {
		return nil, domain.Invalid("file", "is not valid CSV: "+err.Error())
	}
	if err := checkHeader(head); err != nil {
		return nil, err
	}

	var rows []ports.ImportRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.Invalid("file", fmt.Sprintf("line %d is not valid CSV: %v", line, err))
		}
		row, err := parseRow(record, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, domain.Invalid("file", "has no data rows")
	}
	return rows, nil
}

func checkHeader(head []string) error {
	if len(head) != len(header) {
		return domain.Invalid("header", fmt.Sprintf("expected %d columns, got %d", len(header), len(head)))
	}
	for i, want := range header {
		if !strings.EqualFold(strings.TrimSpace(head[i]), want) {
			return domain.Invalid("header", fmt.Sprintf("column %d must be %q", i+1, want))
		}
	}
	return nil
}

func parseRow(record []string, line int) (ports.ImportRow, error) {
	if len(record) != len(header) {
		return ports.ImportRow{}, domain.Invalid("file", fmt.Sprintf("line %d: expected %d columns, got %d", line, len(header), len(record)))
	}
	hours, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil {
		return ports.ImportRow{}, domain.Invalid("hours", fmt.Sprintf("line %d: %q is not an integer", line, record[4]))
	}
	// Category is matched case-insensitively, like the header.
	return ports.ImportRow{
		EntryDate:   strings.TrimSpace(record[0]),
		Username:    strings.TrimSpace(record[1]),
		MissionCode: strings.TrimSpace(record[2]),
		Category:    domain.Category(strings.ToLower(strings.TrimSpace(record[3]))),
		Hours:       hours,
		Description: strings.TrimSpace(record[5]),
	}, nil
}
