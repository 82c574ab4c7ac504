package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"contact-service/internal/apperrors"
	"contact-service/internal/csvio"
	"contact-service/internal/dto"
	"contact-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvRows(n int) string {
	var b strings.Builder
	b.WriteString("phone_number,name,city,age\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "98765432%02d,Person %d,City %d,%d\n", i, i, i, 20+i)
	}
	return b.String()
}

func TestImport_CreatesRows(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()

	summary, err := svc.Import.Import(ctx, orgA, strings.NewReader(csvRows(10)), dto.DefaultImportOptions())
	require.NoError(t, err)

	assert.Equal(t, 10, summary.TotalProcessed)
	assert.Equal(t, 10, summary.SuccessCount)
	assert.Equal(t, 10, summary.CreatedCount)
	assert.Zero(t, summary.FailedCount)
	assert.Empty(t, summary.Errors)

	var contact model.Contact
	require.NoError(t, db.Where("phone_e164 = ?", "+919876543203").First(&contact).Error)
	assert.Equal(t, "Person 3", contact.DisplayName)
	assert.Equal(t, model.ContactSourceImport, contact.Source)

	var values []model.ContactAttributeValue
	require.NoError(t, db.Where("contact_id = ?", contact.ID).Find(&values).Error)
	require.Len(t, values, 2)
	for _, v := range values {
		assert.Equal(t, model.UpdatedSourceIntegration, v.UpdatedSource)
	}

	// Auto-created definitions are text, so "age" is stored as text
	def, err := svc.Schema.FindByKey(ctx, orgA, "age")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, model.DataTypeText, def.DataType)
}

func TestImport_ReimportUpdates(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	_, err := svc.Import.Import(ctx, orgA, strings.NewReader(csvRows(5)), dto.DefaultImportOptions())
	require.NoError(t, err)

	summary, err := svc.Import.Import(ctx, orgA, strings.NewReader(csvRows(5)), dto.DefaultImportOptions())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.UpdatedCount)
	assert.Zero(t, summary.CreatedCount)
	assert.Equal(t, 5, summary.SuccessCount)

	summary, err = svc.Import.Import(ctx, orgA, strings.NewReader(csvRows(5)), dto.ImportOptions{UpdateExisting: false, CreateNewAttributes: true})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.SkippedCount)
	assert.Equal(t, 5, summary.SuccessCount)
	assert.Zero(t, summary.UpdatedCount)

	count, err := svc.Contacts.Count(ctx, orgA)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestImport_RowErrors(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()

	_, err := svc.Schema.Create(ctx, orgA, dto.AttributeDefinitionRequest{Key: "age", DataType: string(model.DataTypeNumber)}, nil)
	require.NoError(t, err)

	input := "phone_number,name,age\n" +
		"9876543210,Good,30\n" +
		"12345,Bad Phone,31\n" +
		"8765432109,Bad Age,abc\n" +
		"7654321098,Also Good,\n"

	summary, err := svc.Import.Import(ctx, orgA, strings.NewReader(input), dto.DefaultImportOptions())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalProcessed)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 2, summary.FailedCount)
	require.Len(t, summary.Errors, 2)

	assert.Equal(t, 2, summary.Errors[0].RowNumber)
	assert.Equal(t, "12345", summary.Errors[0].PhoneNumber)
	assert.Equal(t, dto.ImportErrorValidation, summary.Errors[0].ErrorType)

	assert.Equal(t, 3, summary.Errors[1].RowNumber)
	assert.Equal(t, dto.ImportErrorValidation, summary.Errors[1].ErrorType)

	// The failed row's contact was rolled back with its savepoint
	var n int64
	require.NoError(t, db.Model(&model.Contact{}).Where("phone_e164 = ?", "+918765432109").Count(&n).Error)
	assert.Zero(t, n)
	count, err := svc.Contacts.Count(ctx, orgA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestImport_WithoutAttributeCreation(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	summary, err := svc.Import.Import(ctx, orgA, strings.NewReader(csvRows(2)), dto.ImportOptions{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CreatedCount)

	defs, err := svc.Schema.ListByOrganization(ctx, orgA)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestImport_RejectsStructuralProblems(t *testing.T) {
	svc, _ := newServices(t)

	_, err := svc.Import.Import(context.Background(), orgA, strings.NewReader("name,city\nJohn,Delhi\n"), dto.DefaultImportOptions())
	requireKind(t, err, apperrors.KindValidation)
}

func TestExport_RoundTrip(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	createContact(t, svc, orgA, "John, Jr.", "9876543210", map[string]string{"city": "Delhi"})
	createContact(t, svc, orgA, "Jane \"JJ\" Smith", "8765432109", map[string]string{"plan": "gold", "city": "Mumbai"})
	createContact(t, svc, orgA, "Bob", "7654321098", nil)

	var buf bytes.Buffer
	n, err := svc.Export.Export(ctx, orgA, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	doc, err := csvio.Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "plan"}, doc.AttributeKeys)

	summary, err := svc.Import.ImportDocument(ctx, orgB, doc, dto.DefaultImportOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.CreatedCount)

	assert.Equal(t, tuples(t, svc, orgA), tuples(t, svc, orgB))
}

func TestExport_EmptyOrganizationGetsSample(t *testing.T) {
	svc, _ := newServices(t)

	var buf bytes.Buffer
	n, err := svc.Export.Export(context.Background(), orgA, &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, csvio.Sample(), buf.Bytes())
}

// tuples flattens an organization's contacts into comparable strings
func tuples(t *testing.T, svc *Services, org uint) []string {
	t.Helper()
	var buf bytes.Buffer
	_, err := svc.Export.Export(context.Background(), org, &buf)
	require.NoError(t, err)

	doc, err := csvio.Parse(&buf)
	require.NoError(t, err)

	var out []string
	for _, r := range doc.Rows {
		parts := []string{r.Phone, r.Name}
		for _, a := range r.Attributes {
			parts = append(parts, a.Key+"="+a.Value)
		}
		sort.Strings(parts[2:])
		out = append(out, strings.Join(parts, "|"))
	}
	sort.Strings(out)
	return out
}
