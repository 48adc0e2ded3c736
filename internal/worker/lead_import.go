// Package worker holds the CSV lead import pipeline.
package worker

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/outreach-monitor/internal/service/lead"
)

// Common header aliases for auto-mapping
var headerAliases = map[string][]string{
	"email":      {"email", "email_address", "e-mail", "emailaddress", "mail", "contact_email"},
	"company":    {"company", "company_name", "companyname", "organization", "org", "business", "business_name"},
	"first_name": {"first_name", "firstname", "first", "fname", "given_name"},
	"last_name":  {"last_name", "lastname", "last", "lname", "surname", "family_name"},
	"full_name":  {"full_name", "fullname", "name", "contact_name", "contact"},
	"website":    {"website", "web_site", "url", "site", "domain", "homepage", "web"},
}

// ParseResult is the outcome of parsing one CSV file.
type ParseResult struct {
	Rows    []lead.UploadRow `json:"rows"`
	Skipped int              `json:"skipped"` // rows missing email or company
	Columns []string         `json:"columns"` // original headers, in file order
}

// ParseLeadCSV reads a lead CSV and maps its columns onto upload rows. Headers
// are matched case-insensitively against the alias table; unmapped columns
// land in each row's metadata under the normalized header name. Rows without
// an email or company are counted and dropped, not errored, because real
// exports are messy.
func ParseLeadCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv file")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	// column index -> system field or metadata key
	type column struct {
		system string // empty means metadata
		meta   string
	}
	cols := make([]column, len(headers))
	for i, h := range headers {
		normalized := normalizeHeader(h)
		matched := false
		for field, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					cols[i] = column{system: field}
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched && normalized != "" {
			cols[i] = column{meta: normalized}
		}
	}

	result := &ParseResult{Columns: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		row := lead.UploadRow{}
		for i, value := range record {
			if i >= len(cols) {
				break
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			switch cols[i].system {
			case "email":
				row.Email = strings.ToLower(value)
			case "company":
				row.CompanyName = value
			case "first_name":
				row.FirstName = value
			case "last_name":
				row.LastName = value
			case "full_name":
				row.FullName = value
			case "website":
				row.Website = value
			default:
				if cols[i].meta != "" {
					if row.Metadata == nil {
						row.Metadata = make(map[string]any)
					}
					row.Metadata[cols[i].meta] = value
				}
			}
		}

		if row.Email == "" || row.CompanyName == "" {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func normalizeHeader(header string) string {
	normalized := strings.ToLower(strings.TrimSpace(header))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return normalized
}
