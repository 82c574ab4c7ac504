package csvio

import (
	"bytes"
	"strings"
	"testing"

	"contact-service/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_StandardHeader(t *testing.T) {
	in := "phone_number,name,City,Company Name\n" +
		"98765-43210,John Doe,Delhi,\"Acme, Inc\"\n" +
		"\n" +
		"\"+91 87654 32109\",,Mumbai,\n"

	doc, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, FormatStandard, doc.Format)
	assert.Equal(t, []string{"city", "company_name"}, doc.AttributeKeys)
	require.Len(t, doc.Rows, 2)

	first := doc.Rows[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "9876543210", first.Phone)
	assert.Equal(t, "John Doe", first.Name)
	assert.Equal(t, []Attribute{{Key: "city", Value: "Delhi"}, {Key: "company_name", Value: "Acme, Inc"}}, first.Attributes)

	second := doc.Rows[1]
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, "+918765432109", second.Phone)
	assert.Equal(t, "+918765432109", second.Name, "empty name falls back to the phone")
	assert.Equal(t, []Attribute{{Key: "city", Value: "Mumbai"}}, second.Attributes)
}

func TestParse_LegacyHeader(t *testing.T) {
	in := "\ufeffName,Phone Number,City,Age\n" +
		"Jane Smith,8765432109,Mumbai,28\n"

	doc, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, FormatLegacy, doc.Format)
	assert.Equal(t, []string{"city", "age"}, doc.AttributeKeys)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "8765432109", doc.Rows[0].Phone)
	assert.Equal(t, "Jane Smith", doc.Rows[0].Name)
}

func TestParse_HeaderMatchIsCaseInsensitive(t *testing.T) {
	doc, err := Parse(strings.NewReader(" PHONE_NUMBER , Name\n9876543210,A\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatStandard, doc.Format)
	assert.Empty(t, doc.AttributeKeys)
}

func TestParse_ShortRowsKeepTheirPlace(t *testing.T) {
	doc, err := Parse(strings.NewReader("phone_number,name,city\n9876543210\n8765432109,B,Pune\n"))
	require.NoError(t, err)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "9876543210", doc.Rows[0].Name)
	assert.Empty(t, doc.Rows[0].Attributes)
	assert.Equal(t, 2, doc.Rows[1].Number)
}

func TestParse_StructuralErrors(t *testing.T) {
	cases := map[string]string{
		"empty file":    "",
		"missing phone": "name,city\nA,Delhi\n",
		"missing name":  "phone_number,city\n9876543210,Delhi\n",
		"header only":   "phone_number,name\n",
		"blank body":    "phone_number,name\n\n,\n",
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestWriter_QuotesLineBreaks(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, []string{"address"})
	require.NoError(t, err)
	require.NoError(t, w.Write("+919876543210", "John", map[string]string{"address": "12 Main St\nDelhi"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "phone_number,name,address\n+919876543210,John,\"12 Main St\nDelhi\"\n", buf.String())

	doc, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	require.Len(t, doc.Rows[0].Attributes, 1)
	assert.Equal(t, "12 Main St\nDelhi", doc.Rows[0].Attributes[0].Value)
}

func TestWriter_RoundTripsThroughParse(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, []string{"city", "notes"})
	require.NoError(t, err)

	require.NoError(t, w.Write("+919876543210", "Doe, John", map[string]string{"city": "Delhi", "notes": `likes "tea"`}))
	require.NoError(t, w.Write("+918765432109", "Jane", map[string]string{"city": "Mumbai"}))
	require.NoError(t, w.Flush())

	assert.Equal(t,
		"phone_number,name,city,notes\n"+
			"+919876543210,\"Doe, John\",Delhi,\"likes \"\"tea\"\"\"\n"+
			"+918765432109,Jane,Mumbai,\n",
		buf.String())

	doc, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "Doe, John", doc.Rows[0].Name)
	assert.Equal(t, []Attribute{{Key: "city", Value: "Delhi"}, {Key: "notes", Value: `likes "tea"`}}, doc.Rows[0].Attributes)
	assert.Equal(t, []Attribute{{Key: "city", Value: "Mumbai"}}, doc.Rows[1].Attributes)
}

func TestSample(t *testing.T) {
	sample := string(Sample())
	assert.True(t, strings.HasPrefix(sample, "phone_number,name,city,age\n"))

	doc, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Len(t, doc.Rows, 3)
	assert.Equal(t, "John Doe", doc.Rows[0].Name)
}
