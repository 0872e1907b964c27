package controller

import (
	"context"
	"strings"
	"testing"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgrammeWithCover(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	in := ev.programmeInput(t, "Wayra", 1)

	p, err := ev.programmes.CreateProgramme(ctx, in, &Upload{Name: "cover.png", Content: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "programme_covers/cover.png", p.Cover)

	got, err := ev.programmes.GetProgramme(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Partners, got.Input().Partners)
	assert.Equal(t, in.CoachesMentors, got.Input().CoachesMentors)
	assert.Contains(t, ev.producer.Types(), events.ProgrammeCreated)
}

func TestCreateProgrammeValidation(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	ev.programme(t, "Wayra", 1)

	tests := []struct {
		name  string
		in    func() models.ProgrammeInput
		cover *Upload
		field string
	}{
		{
			name:  "duplicate cohort",
			in:    func() models.ProgrammeInput { return ev.programmeInput(t, "Wayra", 1) },
			field: "cohort",
		},
		{
			name:  "cover is not an image",
			in:    func() models.ProgrammeInput { return ev.programmeInput(t, "Wayra", 2) },
			cover: &Upload{Name: "cover.pdf", Content: strings.NewReader("pdf")},
			field: "cover",
		},
		{
			name:  "no members",
			in:    func() models.ProgrammeInput { return models.ProgrammeInput{Name: "Lonely", Cohort: 1} },
			field: "partners",
		},
		{
			name: "unknown member",
			in: func() models.ProgrammeInput {
				in := ev.programmeInput(t, "Ghosts", 1)
				in.Participants = []uint{999}
				return in
			},
			field: e.NonFieldKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ev.programmes.CreateProgramme(ctx, tt.in(), tt.cover)
			v, ok := e.AsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.True(t, v.Has(tt.field), "fields: %v", v.Fields)
		})
	}
}

func TestUpdateProgrammeReplacesCover(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	in := ev.programmeInput(t, "Wayra", 1)
	p, err := ev.programmes.CreateProgramme(ctx, in, &Upload{Name: "cover.png", Content: strings.NewReader("one")})
	require.NoError(t, err)
	first := p.Cover

	in.Description = "Second edition"
	in.Cohort = 2
	updated, err := ev.programmes.UpdateProgramme(ctx, p.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, first, updated.Cover, "cover kept without a new upload")
	assert.Equal(t, uint(2), updated.Cohort)

	updated, err = ev.programmes.UpdateProgramme(ctx, p.ID, in, &Upload{Name: "cover.png", Content: strings.NewReader("two")})
	require.NoError(t, err)
	assert.NotEqual(t, first, updated.Cover)

	ok, err := ev.files.Exists(first)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ev.programmes.UpdateProgramme(ctx, 999, in, nil)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestDeleteProgrammeRemovesFiles(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	p, err := ev.programmes.CreateProgramme(ctx, ev.programmeInput(t, "Wayra", 1), &Upload{Name: "cover.png", Content: strings.NewReader("png")})
	require.NoError(t, err)
	doc, err := ev.documents.UploadFile(ctx, models.Owner{Kind: models.OwnerProgramme, ID: p.ID}, Upload{Name: "agenda.txt", Content: strings.NewReader("agenda")}, false)
	require.NoError(t, err)

	detail, err := ev.programmes.ProgrammeDetail(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Documents, 1)

	require.NoError(t, ev.programmes.DeleteProgramme(ctx, p.ID))
	for _, rel := range []string{p.Cover, *doc.FilePath} {
		ok, err := ev.files.Exists(rel)
		require.NoError(t, err)
		assert.False(t, ok, rel)
	}
	assert.ErrorIs(t, ev.programmes.DeleteProgramme(ctx, p.ID), e.ErrNotFound)
}

func TestListAndSearchProgrammes(t *testing.T) {
	ev := setupEnv(t)
	ctx := context.Background()
	for cohort := 1; cohort <= 7; cohort++ {
		ev.programme(t, "Wayra", cohort)
	}
	ev.programme(t, "Open Future", 1)

	page, err := ev.programmes.ListProgrammes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, page.Total)
	assert.Len(t, page.Items, 2)

	found, err := ev.programmes.SearchInline(ctx, listing.Query("Future"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Open Future", found[0].Name)

	none, err := ev.programmes.SearchInline(ctx, listing.Query(""))
	require.NoError(t, err)
	assert.Empty(t, none)

	results, err := ev.programmes.Search(ctx, listing.Query("Wayra"), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, results.Total)
	assert.Len(t, results.Items, listing.DashboardPageSize)
}
