package service

import (
	"context"
	"testing"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrCreate(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	def, err := svc.Schema.ResolveOrCreate(ctx, orgA, "Favourite Color", true)
	require.NoError(t, err)
	assert.Equal(t, "favourite_color", def.Key)
	assert.Equal(t, "Favourite Color", def.Label)
	assert.Equal(t, model.DataTypeText, def.DataType)
	assert.Equal(t, model.AttributeCategoryUserDefined, def.Category)

	again, err := svc.Schema.ResolveOrCreate(ctx, orgA, "favourite_color", false)
	require.NoError(t, err)
	assert.Equal(t, def.ID, again.ID)

	_, err = svc.Schema.ResolveOrCreate(ctx, orgB, "favourite_color", false)
	requireKind(t, err, apperrors.KindNotFound)
}

func TestAttributeDefinition_Lifecycle(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	def, err := svc.Schema.Create(ctx, orgA, dto.AttributeDefinitionRequest{
		Key:      "tier",
		DataType: string(model.DataTypeSingleSelect),
		Options: []dto.AttributeOptionRequest{
			{OptionKey: "gold"},
			{OptionKey: "silver", OptionLabel: "Silver tier"},
		},
	}, nil)
	require.NoError(t, err)

	_, err = svc.Schema.Create(ctx, orgA, dto.AttributeDefinitionRequest{Key: "TIER"}, nil)
	requireKind(t, err, apperrors.KindDuplicate)

	_, err = svc.Schema.Create(ctx, orgA, dto.AttributeDefinitionRequest{
		Key:     "city",
		Options: []dto.AttributeOptionRequest{{OptionKey: "delhi"}},
	}, nil)
	requireKind(t, err, apperrors.KindValidation)

	options, err := svc.Schema.ListOptions(ctx, orgA, def.ID)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "Gold", options[0].OptionLabel)
	assert.Equal(t, "Silver tier", options[1].OptionLabel)

	_, err = svc.Schema.Get(ctx, orgB, def.ID)
	requireKind(t, err, apperrors.KindNotFound)

	require.NoError(t, svc.Schema.Delete(ctx, orgA, def.ID))
	_, err = svc.Schema.Get(ctx, orgA, def.ID)
	requireKind(t, err, apperrors.KindNotFound)
}

func TestUpsert_StrictTyping(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	age, err := svc.Schema.Create(ctx, orgA, dto.AttributeDefinitionRequest{Key: "age", DataType: string(model.DataTypeNumber)}, nil)
	require.NoError(t, err)
	c := createContact(t, svc, orgA, "John", "9876543210", nil)

	_, err = svc.Values.Upsert(ctx, c.ID, age, "abc", model.UpdatedSourceUser)
	appErr := requireKind(t, err, apperrors.KindInvalidAttributeValue)
	assert.Contains(t, appErr.Fields, "age")

	v, err := svc.Values.Upsert(ctx, c.ID, age, "42", "")
	require.NoError(t, err)
	require.NotNil(t, v.ValueNumber)
	assert.Equal(t, int64(42), *v.ValueNumber)
	assert.Nil(t, v.ValueText)
	assert.Equal(t, model.UpdatedSourceUser, v.UpdatedSource)
	assert.Equal(t, "42", DisplayValue(v))

	// Second write replaces the pair's row
	v2, err := svc.Values.Upsert(ctx, c.ID, age, "43", model.UpdatedSourceIntegration)
	require.NoError(t, err)
	assert.Equal(t, v.ID, v2.ID)
	assert.Equal(t, int64(43), *v2.ValueNumber)
}

func TestUpsert_SelectOptions(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	def, err := svc.Schema.Create(ctx, orgA, dto.AttributeDefinitionRequest{
		Key:      "interests",
		DataType: string(model.DataTypeMultiSelect),
		Options: []dto.AttributeOptionRequest{
			{OptionKey: "golf", SortOrder: intPtr(2)},
			{OptionKey: "chess", SortOrder: intPtr(1)},
		},
	}, nil)
	require.NoError(t, err)
	c := createContact(t, svc, orgA, "John", "9876543210", nil)

	_, err = svc.Values.Upsert(ctx, c.ID, def, "golf,tennis", model.UpdatedSourceUser)
	requireKind(t, err, apperrors.KindInvalidAttributeValue)

	_, err = svc.Values.Upsert(ctx, c.ID, def, "golf, chess", model.UpdatedSourceUser)
	require.NoError(t, err)

	values, err := svc.Values.ListByContact(ctx, orgA, c.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, []string{"chess", "golf"}, values[0].Options)
	assert.Equal(t, "chess,golf", values[0].Value)
}

func TestUpsertRequest(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	c := createContact(t, svc, orgA, "John", "9876543210", nil)
	foreign, err := svc.Schema.Create(ctx, orgB, dto.AttributeDefinitionRequest{Key: "city"}, nil)
	require.NoError(t, err)

	v, err := svc.Values.UpsertRequest(ctx, orgA, dto.AttributeValueRequest{ContactID: c.ID, AttributeKey: "City", Value: "Delhi"})
	require.NoError(t, err)
	assert.Equal(t, "city", v.Key)
	assert.Equal(t, "Delhi", v.Value)

	_, err = svc.Values.UpsertRequest(ctx, orgA, dto.AttributeValueRequest{ContactID: c.ID, AttributeDefinitionID: foreign.ID, Value: "x"})
	requireKind(t, err, apperrors.KindAccessDenied)

	_, err = svc.Values.UpsertRequest(ctx, orgB, dto.AttributeValueRequest{ContactID: c.ID, AttributeKey: "city", Value: "x"})
	requireKind(t, err, apperrors.KindNotFound)

	got, err := svc.Values.Get(ctx, orgA, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	require.NoError(t, svc.Values.Delete(ctx, orgA, v.ID))
	_, err = svc.Values.Get(ctx, orgA, v.ID)
	requireKind(t, err, apperrors.KindNotFound)
}

func TestMerge_UnknownKeysWithoutCreation(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	_, err := svc.Schema.Create(ctx, orgA, dto.AttributeDefinitionRequest{Key: "city"}, nil)
	require.NoError(t, err)
	c := createContact(t, svc, orgA, "John", "9876543210", nil)

	values, err := svc.Values.Merge(ctx, c.ID, orgA, map[string]string{"city": "Delhi", "unknown": "x"}, false, model.UpdatedSourceUser)
	require.NoError(t, err)
	require.Len(t, values, 1)

	defs, err := svc.Schema.ListByOrganization(ctx, orgA)
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func intPtr(i int) *int { return &i }

func TestDeleteOption_RewritesValues(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	def, err := svc.Schema.Create(ctx, orgA, dto.AttributeDefinitionRequest{
		Key:      "interests",
		DataType: string(model.DataTypeMultiSelect),
		Options: []dto.AttributeOptionRequest{
			{OptionKey: "golf", SortOrder: intPtr(1)},
			{OptionKey: "chess", SortOrder: intPtr(2)},
		},
	}, nil)
	require.NoError(t, err)
	john := createContact(t, svc, orgA, "John", "9876543210", nil)
	jane := createContact(t, svc, orgA, "Jane", "8765432109", nil)

	_, err = svc.Values.Upsert(ctx, john.ID, def, "golf,chess", model.UpdatedSourceUser)
	require.NoError(t, err)
	_, err = svc.Values.Upsert(ctx, jane.ID, def, "golf", model.UpdatedSourceUser)
	require.NoError(t, err)

	opts, err := svc.Schema.ListOptions(ctx, orgA, def.ID)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	require.Equal(t, "golf", opts[0].OptionKey)

	require.NoError(t, svc.Schema.DeleteOption(ctx, orgA, opts[0].ID))

	values, err := svc.Values.ListByContact(ctx, orgA, john.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "chess", values[0].Value)
	assert.Equal(t, []string{"chess"}, values[0].Options)

	values, err = svc.Values.ListByContact(ctx, orgA, jane.ID)
	require.NoError(t, err)
	assert.Empty(t, values)

	page, err := svc.Contacts.Search(ctx, orgA, query.Criteria{AttributeKey: "interests", AttributeValue: "golf"})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}
