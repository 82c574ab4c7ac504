package attrtype

import (
	"strings"
	"testing"
	"time"

	"contact-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "company_name", NormalizeKey("Company Name"))
	assert.Equal(t, "city", NormalizeKey("  CITY "))
	assert.Equal(t, "a_b", NormalizeKey("a   b"))
	assert.Equal(t, "already_snake", NormalizeKey("already_snake"))
}

func TestLabelFromKey(t *testing.T) {
	assert.Equal(t, "Company Name", LabelFromKey("company_name"))
	assert.Equal(t, "City", LabelFromKey("city"))
	assert.Equal(t, "", LabelFromKey(""))
}

// Values are stored in the typed column of their declared data type;
// input that does not parse is rejected instead of being kept as text.
func TestParse_StrictTyping(t *testing.T) {
	valid := []struct {
		dataType model.AttributeDataType
		raw      string
		want     interface{}
	}{
		{model.DataTypeText, " Delhi ", "Delhi"},
		{model.DataTypeNumber, "42", int64(42)},
		{model.DataTypeDecimal, "12.5", decimal.RequireFromString("12.5")},
		{model.DataTypeBoolean, "Yes", true},
		{model.DataTypeBoolean, "0", false},
		{model.DataTypeDate, "2024-02-29", datatypes.Date(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))},
		{model.DataTypeDatetime, "2024-01-02 03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{model.DataTypeDatetime, "2024-01-02T03:04:05+02:00", time.Date(2024, 1, 2, 1, 4, 5, 0, time.UTC)},
		{model.DataTypeJSON, `{"a":1}`, datatypes.JSON(`{"a":1}`)},
		{model.DataTypeSingleSelect, "gold", "gold"},
	}

	for _, tt := range valid {
		t.Run(string(tt.dataType)+"/"+tt.raw, func(t *testing.T) {
			got, err := Parse(tt.dataType, tt.raw)
			require.NoError(t, err)
			switch want := tt.want.(type) {
			case decimal.Decimal:
				assert.True(t, want.Equal(got.(decimal.Decimal)))
			case time.Time:
				assert.True(t, want.Equal(got.(time.Time)))
			default:
				assert.Equal(t, tt.want, got)
			}
		})
	}

	invalid := []struct {
		dataType model.AttributeDataType
		raw      string
	}{
		{model.DataTypeNumber, "abc"},
		{model.DataTypeNumber, "1.5"},
		{model.DataTypeDecimal, "1,5"},
		{model.DataTypeBoolean, "maybe"},
		{model.DataTypeDate, "29/02/2024"},
		{model.DataTypeDatetime, "yesterday"},
		{model.DataTypeJSON, "{oops"},
		{model.DataTypeText, strings.Repeat("x", MaxTextLength+1)},
		{model.AttributeDataType("color"), "red"},
	}

	for _, tt := range invalid {
		t.Run("invalid/"+string(tt.dataType), func(t *testing.T) {
			_, err := Parse(tt.dataType, tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestAssign_ClearsOtherColumns(t *testing.T) {
	v := &model.ContactAttributeValue{}

	Assign(v, model.DataTypeText, "hello")
	require.NotNil(t, v.ValueText)

	Assign(v, model.DataTypeNumber, int64(7))
	assert.Nil(t, v.ValueText)
	require.NotNil(t, v.ValueNumber)
	assert.Equal(t, int64(7), *v.ValueNumber)
	assert.Equal(t, "7", Display(v))
}

func TestDisplay_PriorityOrder(t *testing.T) {
	text := "t"
	num := int64(3)
	flag := true
	day := datatypes.Date(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	v := &model.ContactAttributeValue{
		ValueText:     &text,
		ValueNumber:   &num,
		ValueDecimal:  decimal.NullDecimal{Decimal: decimal.RequireFromString("1.25"), Valid: true},
		ValueBool:     &flag,
		ValueDate:     &day,
		ValueDatetime: &at,
		ValueJSON:     datatypes.JSON(`[1]`),
	}

	steps := []string{"t", "3", "1.25", "true", "2024-05-06", "2024-05-06T07:08:09Z", "[1]", ""}
	for _, want := range steps {
		assert.Equal(t, want, Display(v))
		switch {
		case v.ValueText != nil:
			v.ValueText = nil
		case v.ValueNumber != nil:
			v.ValueNumber = nil
		case v.ValueDecimal.Valid:
			v.ValueDecimal.Valid = false
		case v.ValueBool != nil:
			v.ValueBool = nil
		case v.ValueDate != nil:
			v.ValueDate = nil
		case v.ValueDatetime != nil:
			v.ValueDatetime = nil
		default:
			v.ValueJSON = nil
		}
	}
}

func TestColumn(t *testing.T) {
	assert.Equal(t, ColumnText, Column(model.DataTypeMultiSelect))
	assert.Equal(t, ColumnNumber, Column(model.DataTypeNumber))
	assert.True(t, IsTextual(model.DataTypeJSON))
	assert.False(t, IsTextual(model.DataTypeDate))
}

func TestSplitOptionKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitOptionKeys(" a, b ,a,, "))
	assert.Nil(t, SplitOptionKeys(""))
}
