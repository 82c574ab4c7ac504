package service

import (
	"context"
	"testing"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag_CRUD(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	tag, err := svc.Tags.Create(ctx, orgA, dto.TagRequest{Name: " vip "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "vip", tag.Name)
	assert.Equal(t, model.DefaultTagColor, tag.Color)
	assert.True(t, tag.IsActive)

	_, err = svc.Tags.Create(ctx, orgA, dto.TagRequest{Name: "vip"}, nil)
	requireKind(t, err, apperrors.KindDuplicate)

	// Names are unique per organization only
	_, err = svc.Tags.Create(ctx, orgB, dto.TagRequest{Name: "vip"}, nil)
	require.NoError(t, err)

	inactive := false
	_, err = svc.Tags.Create(ctx, orgA, dto.TagRequest{Name: "old", IsActive: &inactive}, nil)
	require.NoError(t, err)

	active := true
	tags, err := svc.Tags.List(ctx, orgA, &active)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "vip", tags[0].Name)

	all, err := svc.Tags.List(ctx, orgA, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	name := "old"
	_, err = svc.Tags.Update(ctx, orgA, tag.ID, dto.UpdateTagRequest{Name: &name})
	requireKind(t, err, apperrors.KindDuplicate)

	color := "#000000"
	updated, err := svc.Tags.Update(ctx, orgA, tag.ID, dto.UpdateTagRequest{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "#000000", updated.Color)

	_, err = svc.Tags.Get(ctx, orgB, tag.ID)
	requireKind(t, err, apperrors.KindNotFound)
}

func TestTag_DeleteRemovesAssignments(t *testing.T) {
	svc, db := newServices(t)
	ctx := context.Background()

	tag, err := svc.Tags.Create(ctx, orgA, dto.TagRequest{Name: "vip"}, nil)
	require.NoError(t, err)
	c := createContact(t, svc, orgA, "John", "9876543210", nil)
	_, err = svc.Tags.Assign(ctx, c.ID, tag.ID, orgA, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Tags.Delete(ctx, orgA, tag.ID))

	var n int64
	require.NoError(t, db.Model(&model.ContactTagAssignment{}).Count(&n).Error)
	assert.Zero(t, n)

	system := model.ContactTag{OrganizationID: orgA, Name: "blocked", Color: model.DefaultTagColor, IsSystem: true, IsActive: true}
	require.NoError(t, db.Create(&system).Error)
	err = svc.Tags.Delete(ctx, orgA, system.ID)
	requireKind(t, err, apperrors.KindValidation)
}

func TestTag_Assignment(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	tag, err := svc.Tags.Create(ctx, orgA, dto.TagRequest{Name: "vip"}, nil)
	require.NoError(t, err)
	foreign, err := svc.Tags.Create(ctx, orgB, dto.TagRequest{Name: "vip"}, nil)
	require.NoError(t, err)
	c := createContact(t, svc, orgA, "John", "9876543210", nil)

	userID := uint(7)
	a, err := svc.Tags.Assign(ctx, c.ID, tag.ID, orgA, &userID)
	require.NoError(t, err)
	assert.Equal(t, &userID, a.AssignedBy)

	_, err = svc.Tags.Assign(ctx, c.ID, tag.ID, orgA, nil)
	requireKind(t, err, apperrors.KindDuplicate)

	_, err = svc.Tags.Assign(ctx, c.ID, foreign.ID, orgA, nil)
	requireKind(t, err, apperrors.KindAccessDenied)

	_, err = svc.Tags.Assign(ctx, c.ID, 999, orgA, nil)
	requireKind(t, err, apperrors.KindNotFound)

	_, err = svc.Tags.Assign(ctx, 999, tag.ID, orgA, nil)
	requireKind(t, err, apperrors.KindNotFound)

	byContact, err := svc.Tags.ListByContact(ctx, orgA, c.ID)
	require.NoError(t, err)
	require.Len(t, byContact, 1)

	byTag, err := svc.Tags.ListByTag(ctx, orgA, tag.ID)
	require.NoError(t, err)
	require.Len(t, byTag, 1)

	require.NoError(t, svc.Tags.Unassign(ctx, orgA, c.ID, tag.ID))
	err = svc.Tags.Unassign(ctx, orgA, c.ID, tag.ID)
	requireKind(t, err, apperrors.KindNotFound)

	a, err = svc.Tags.Assign(ctx, c.ID, tag.ID, orgA, nil)
	require.NoError(t, err)
	err = svc.Tags.DeleteAssignment(ctx, orgB, a.ID)
	requireKind(t, err, apperrors.KindNotFound)
	require.NoError(t, svc.Tags.DeleteAssignment(ctx, orgA, a.ID))
}

func TestNote_CRUD(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	c := createContact(t, svc, orgA, "John", "9876543210", nil)
	project, err := svc.Projects.Create(ctx, orgA, dto.ProjectRequest{Name: "Launch"}, nil)
	require.NoError(t, err)
	foreignProject, err := svc.Projects.Create(ctx, orgB, dto.ProjectRequest{Name: "Launch"}, nil)
	require.NoError(t, err)

	first, err := svc.Notes.Create(ctx, orgA, c.ID, dto.NoteRequest{NoteText: "first"}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.NoteVisibilityTeam, first.Visibility)

	second, err := svc.Notes.Create(ctx, orgA, c.ID, dto.NoteRequest{NoteText: "second", Visibility: "private", ProjectID: &project.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, &project.ID, second.ProjectID)

	_, err = svc.Notes.Create(ctx, orgA, c.ID, dto.NoteRequest{NoteText: "x", ProjectID: &foreignProject.ID}, nil)
	requireKind(t, err, apperrors.KindNotFound)

	require.NoError(t, svc.Projects.SoftDelete(ctx, orgA, project.ID))
	_, err = svc.Notes.Create(ctx, orgA, c.ID, dto.NoteRequest{NoteText: "x", ProjectID: &project.ID}, nil)
	requireKind(t, err, apperrors.KindNotFound)

	notes, err := svc.Notes.ListByContact(ctx, orgA, c.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID)

	text := "edited"
	updated, err := svc.Notes.Update(ctx, orgA, first.ID, dto.UpdateNoteRequest{NoteText: &text})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.NoteText)

	_, err = svc.Notes.Get(ctx, orgB, first.ID)
	requireKind(t, err, apperrors.KindNotFound)

	require.NoError(t, svc.Notes.Delete(ctx, orgA, first.ID))
	_, err = svc.Notes.Get(ctx, orgA, first.ID)
	requireKind(t, err, apperrors.KindNotFound)
}
