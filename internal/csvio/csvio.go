// Package csvio reads and writes the contact CSV format.
//
// Two header layouts are accepted: phone_number,name,<attrs...> and the
// legacy Name,Phone Number,<Attr Headers...>. Attribute columns map to
// attribute keys through attrtype.NormalizeKey.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"contact-service/internal/apperrors"
	"contact-service/internal/attrtype"
)

// Header names of the two supported layouts
const (
	PhoneColumn       = "phone_number"
	NameColumn        = "name"
	LegacyPhoneColumn = "Phone Number"
	LegacyNameColumn  = "Name"
)

// Format identifies the detected header layout
type Format string

const (
	FormatStandard Format = "standard"
	FormatLegacy   Format = "legacy"
)

// Attribute is one non-empty attribute cell of a row
type Attribute struct {
	Key   string
	Value string
}

// Row is one data record. Number is 1-based; the header is row 0.
type Row struct {
	Number     int
	Phone      string
	Name       string
	Attributes []Attribute
}

// Document is a parsed import file
type Document struct {
	Format        Format
	AttributeKeys []string
	Rows          []Row
}

var phoneNoise = regexp.MustCompile(`["'\s-]`)

const utf8BOM = "\ufeff"

// Parse reads a whole CSV document. Only structural problems fail the
// parse; row-level problems are left to the importer.
func Parse(r io.Reader) (*Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.Validation("CSV file is empty")
	}
	if err != nil {
		return nil, apperrors.Validationf("Invalid CSV header: %v", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	doc := &Document{Format: FormatStandard}
	phoneIdx, nameIdx := indexOf(header, PhoneColumn), indexOf(header, NameColumn)
	if phoneIdx < 0 || nameIdx < 0 {
		doc.Format = FormatLegacy
		phoneIdx, nameIdx = indexOf(header, LegacyPhoneColumn), indexOf(header, LegacyNameColumn)
	}
	if phoneIdx < 0 {
		return nil, apperrors.Validation("CSV must contain 'phone_number' or 'Phone Number' column")
	}
	if nameIdx < 0 {
		return nil, apperrors.Validation("CSV must contain 'name' or 'Name' column")
	}

	// Column index to attribute key; later duplicate columns win
	attrCols := make(map[int]string)
	seen := make(map[string]struct{})
	for i, h := range header {
		if i == phoneIdx || i == nameIdx {
			continue
		}
		key := attrtype.NormalizeKey(h)
		if key == "" {
			continue
		}
		attrCols[i] = key
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			doc.AttributeKeys = append(doc.AttributeKeys, key)
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Validationf("Malformed CSV: %v", err)
		}
		if isBlank(record) {
			continue
		}

		row := Row{
			Number: len(doc.Rows) + 1,
			Phone:  CleanPhone(cell(record, phoneIdx)),
			Name:   cleanValue(cell(record, nameIdx)),
		}
		if row.Name == "" {
			row.Name = row.Phone
		}

		values := make(map[string]string)
		for i := range record {
			key, ok := attrCols[i]
			if !ok {
				continue
			}
			if v := cleanValue(record[i]); v != "" {
				values[key] = v
			} else {
				delete(values, key)
			}
		}
		for _, key := range doc.AttributeKeys {
			if v, ok := values[key]; ok {
				row.Attributes = append(row.Attributes, Attribute{Key: key, Value: v})
			}
		}

		doc.Rows = append(doc.Rows, row)
	}

	if len(doc.Rows) == 0 {
		return nil, apperrors.Validation("No valid contacts found in CSV file")
	}
	return doc, nil
}

// CleanPhone drops quotes, whitespace and dashes from a phone cell
func CleanPhone(s string) string {
	return phoneNoise.ReplaceAllString(s, "")
}

func cleanValue(s string) string {
	return strings.TrimSpace(s)
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Writer emits contact rows in the standard layout. Fields holding a comma,
// a quote or a line break are quoted with embedded quotes doubled.
type Writer struct {
	w    *csv.Writer
	keys []string
}

// NewWriter writes the header phone_number,name,<keys...> to w
func NewWriter(w io.Writer, attributeKeys []string) (*Writer, error) {
	cw := &Writer{w: csv.NewWriter(w), keys: attributeKeys}
	header := append([]string{PhoneColumn, NameColumn}, attributeKeys...)
	if err := cw.w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	return cw, nil
}

// Write emits one contact; missing attributes become empty cells
func (w *Writer) Write(phone, name string, attributes map[string]string) error {
	record := make([]string, 0, len(w.keys)+2)
	record = append(record, phone, name)
	for _, k := range w.keys {
		record = append(record, attributes[k])
	}
	if err := w.w.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	return nil
}

// Flush writes buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

var sampleRows = [][]string{
	{"9876543210", "John Doe", "Delhi", "30"},
	{"8765432109", "Jane Smith", "Mumbai", "28"},
	{"7654321098", "Bob Johnson", "Bangalore", "35"},
}

// Sample returns the import template with three demo rows
func Sample() []byte {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, []string{"city", "age"})
	for _, r := range sampleRows {
		_ = w.Write(r[0], r[1], map[string]string{"city": r[2], "age": r[3]})
	}
	_ = w.Flush()
	return buf.Bytes()
}
