package worker

import (
	"strings"
	"testing"
)

func TestParseCSVHeaderAliases(t *testing.T) {
	csvData := "E-Mail,Company Name,First,Surname,URL\n" +
		"Jane@Acme.com,Acme,Jane,Doe,https://acme.com\n"

	res, err := ParseLeadCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	row := res.Rows[0]
	if row.Email != "jane@acme.com" {
		t.Fatalf("email should be lowercased, got %q", row.Email)
	}
	if row.CompanyName != "Acme" || row.FirstName != "Jane" || row.LastName != "Doe" {
		t.Fatalf("aliases not mapped: %+v", row)
	}
	if row.Website != "https://acme.com" {
		t.Fatalf("website not mapped: %+v", row)
	}
}

func TestParseCSVUnmappedColumnsGoToMetadata(t *testing.T) {
	csvData := "email,company,Industry,Employee Count\n" +
		"a@b.com,Beta Corp,logistics,250\n"

	res, err := ParseLeadCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	row := res.Rows[0]
	if row.Metadata["industry"] != "logistics" || row.Metadata["employee_count"] != "250" {
		t.Fatalf("metadata not captured: %+v", row.Metadata)
	}
}

func TestParseCSVSkipsIncompleteRows(t *testing.T) {
	csvData := "email,company\n" +
		"a@b.com,Beta Corp\n" +
		",NoEmail Inc\n" +
		"no-company@x.com,\n"

	res, err := ParseLeadCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 1 || res.Skipped != 2 {
		t.Fatalf("expected 1 row and 2 skipped, got %d/%d", len(res.Rows), res.Skipped)
	}
}

func TestParseCSVRaggedRows(t *testing.T) {
	csvData := "email,company,first_name\n" +
		"a@b.com,Beta Corp\n"

	res, err := ParseLeadCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("short rows should parse: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].FirstName != "" {
		t.Fatalf("unexpected result: %+v", res.Rows)
	}
}

func TestParseCSVEmptyFile(t *testing.T) {
	if _, err := ParseLeadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty file")
	}
}
