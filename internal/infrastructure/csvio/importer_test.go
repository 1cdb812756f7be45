package csvio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/atlasconseil/opsboard/internal/core/domain"
	"github.com/atlasconseil/opsboard/internal/core/ports"
)

func TestParseTimeEntries(t *testing.T) {
	in := strings.Join([]string{
		"date,username,mission_code,category,hours,description",
		"2026-08-17,consult1,M1,BILLABLE,8,workshops",
		"2026-08-18,consult1,,INTERNAL,4, staffing review ",
	}, "\n")

	rows, err := ParseTimeEntries(strings.NewReader(in), EncodingUTF8)
	if err != nil {
		t.Fatalf("ParseTimeEntries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	want := ports.ImportRow{
		EntryDate: "2026-08-17", Username: "consult1", MissionCode: "M1",
		Category: domain.CategoryBillable, Hours: 8, Description: "workshops",
	}
	if rows[0] != want {
		t.Errorf("row 0 = %+v, want %+v", rows[0], want)
	}
	if rows[1].MissionCode != "" {
		t.Errorf("empty mission_code not preserved: %q", rows[1].MissionCode)
	}
	if rows[1].Description != "staffing review" {
		t.Errorf("fields not trimmed: %q", rows[1].Description)
	}
}

// Category matching is case-insensitive like the header: an uppercase-category
// CSV must parse to the canonical lower-case values the write path validates.
func TestParseTimeEntries_CategoryCaseInsensitive(t *testing.T) {
	in := strings.Join([]string{
		"date,username,mission_code,category,hours,description",
		"2026-08-17,consult1,M1,BILLABLE,8,x",
		"2026-08-17,consult1,,Non_Billable_Client,4,x",
		"2026-08-18,consult1,,internal,4,x",
	}, "\n")

	rows, err := ParseTimeEntries(strings.NewReader(in), EncodingUTF8)
	if err != nil {
		t.Fatalf("ParseTimeEntries: %v", err)
	}
	want := []domain.Category{domain.CategoryBillable, domain.CategoryNonBillableClient, domain.CategoryInternal}
	for i, w := range want {
		if rows[i].Category != w {
			t.Errorf("row %d category = %q, want %q", i, rows[i].Category, w)
		}
		if !domain.ValidCategory(rows[i].Category) {
			t.Errorf("row %d category %q would fail entry validation", i, rows[i].Category)
		}
	}
}

func TestParseTimeEntries_HeaderCaseInsensitive(t *testing.T) {
	in := "Date,Username,Mission_Code,Category,Hours,Description\n2026-08-17,consult1,M1,BILLABLE,8,x\n"
	if _, err := ParseTimeEntries(strings.NewReader(in), EncodingUTF8); err != nil {
		t.Fatalf("ParseTimeEntries: %v", err)
	}
}

func TestParseTimeEntries_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty_file", ""},
		{"header_only", "date,username,mission_code,category,hours,description\n"},
		{"wrong_header", "when,who,code,cat,h,desc\n2026-08-17,consult1,M1,BILLABLE,8,x\n"},
		{"missing_column", "date,username,mission_code,category,hours\n"},
		{"non_integer_hours", "date,username,mission_code,category,hours,description\n2026-08-17,consult1,M1,BILLABLE,eight,x\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTimeEntries(strings.NewReader(tc.in), EncodingUTF8)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestParseTimeEntries_Latin1(t *testing.T) {
	// "réunion" with 0xE9 for é, as a Latin-1 client would send it.
	var buf bytes.Buffer
	buf.WriteString("date,username,mission_code,category,hours,description\n")
	buf.WriteString("2026-08-17,consult1,M1,BILLABLE,4,r")
	buf.WriteByte(0xE9)
	buf.WriteString("union\n")

	rows, err := ParseTimeEntries(&buf, EncodingLatin1)
	if err != nil {
		t.Fatalf("ParseTimeEntries: %v", err)
	}
	if rows[0].Description != "réunion" {
		t.Errorf("description = %q, want réunion", rows[0].Description)
	}
}

func TestParseTimeEntries_UnknownEncoding(t *testing.T) {
	_, err := ParseTimeEntries(strings.NewReader("x"), "utf-16")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestWriteTimeEntries_RoundTrip(t *testing.T) {
	rows := []ports.ImportRow{
		{EntryDate: "2026-08-17", Username: "consult1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 8, Description: "cadrage, phase 1"},
		{EntryDate: "2026-08-18", Username: "lead1", Category: domain.CategoryInternal, Hours: 4, Description: "réunion interne"},
	}

	var buf bytes.Buffer
	if err := WriteTimeEntries(&buf, rows, EncodingUTF8); err != nil {
		t.Fatalf("WriteTimeEntries: %v", err)
	}

	parsed, err := ParseTimeEntries(&buf, EncodingUTF8)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(parsed) != len(rows) {
		t.Fatalf("got %d rows back, want %d", len(parsed), len(rows))
	}
	for i := range rows {
		if parsed[i] != rows[i] {
			t.Errorf("row %d = %+v, want %+v", i, parsed[i], rows[i])
		}
	}
}

func TestWriteTimeEntries_Latin1(t *testing.T) {
	rows := []ports.ImportRow{
		{EntryDate: "2026-08-17", Username: "consult1", MissionCode: "M1", Category: domain.CategoryBillable, Hours: 4, Description: "réunion"},
	}

	var buf bytes.Buffer
	if err := WriteTimeEntries(&buf, rows, EncodingLatin1); err != nil {
		t.Fatalf("WriteTimeEntries: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte{'r', 0xE9, 'u'}) {
		t.Error("output is not Latin-1 encoded")
	}

	parsed, err := ParseTimeEntries(&buf, EncodingLatin1)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if parsed[0].Description != "réunion" {
		t.Errorf("description = %q after round trip", parsed[0].Description)
	}
}
