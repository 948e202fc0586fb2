package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/apperror"
	"reviewhub/internal/dto"
	"reviewhub/internal/models"
)

type titleFixture struct {
	svc        TitleService
	titles     *fakeTitleRepo
	categories *fakeCategoryRepo
	genres     *fakeGenreRepo
	reviews    *fakeReviewRepo
	ratings    *fakeRatingCache
}

func newTitleFixture(t *testing.T) titleFixture {
	t.Helper()
	f := titleFixture{
		titles:     newFakeTitleRepo(),
		categories: newFakeCategoryRepo(),
		genres:     newFakeGenreRepo(),
		reviews:    newFakeReviewRepo(),
		ratings:    newFakeRatingCache(),
	}
	f.svc = NewTitleService(f.titles, f.categories, f.genres, f.reviews, f.ratings)
	return f
}

func TestCreateTitleRejectsFutureYear(t *testing.T) {
	f := newTitleFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{
		Name: "Time Traveller",
		Year: time.Now().Year() + 1,
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateTitleUnknownCategorySlug(t *testing.T) {
	f := newTitleFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{
		Name:     "Orphan",
		Year:     1999,
		Category: "no-such-category",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateTitleResolvesCategoryAndGenres(t *testing.T) {
	f := newTitleFixture(t)
	require.NoError(t, f.categories.Create(context.Background(), &models.Category{Name: "Movies", Slug: "movies"}))
	require.NoError(t, f.genres.Create(context.Background(), &models.Genre{Name: "Drama", Slug: "drama"}))
	require.NoError(t, f.genres.Create(context.Background(), &models.Genre{Name: "Comedy", Slug: "comedy"}))

	created, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{
		Name:     "The Commitments",
		Year:     1991,
		Category: "movies",
		Genre:    []string{"drama", "comedy"},
	})
	require.NoError(t, err)

	require.NotNil(t, created.Category)
	assert.Equal(t, "movies", created.Category.Slug)
	assert.Len(t, created.Genre, 2)
	// no reviews yet: rating must be absent, not zero
	assert.Nil(t, created.Rating)
}

func TestCreateTitleUnknownGenreSlugNamesTheSlug(t *testing.T) {
	f := newTitleFixture(t)
	require.NoError(t, f.genres.Create(context.Background(), &models.Genre{Name: "Drama", Slug: "drama"}))

	_, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{
		Name:  "Half Known",
		Year:  2001,
		Genre: []string{"drama", "vaporwave"},
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "vaporwave")
}

func TestGetTitleRatingComesFromReviews(t *testing.T) {
	f := newTitleFixture(t)

	created, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{Name: "Rated", Year: 2000})
	require.NoError(t, err)

	require.NoError(t, f.reviews.Create(context.Background(), &models.Review{TitleID: created.ID, AuthorID: "a", Score: 4}))
	require.NoError(t, f.reviews.Create(context.Background(), &models.Review{TitleID: created.ID, AuthorID: "b", Score: 8}))

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 6.0, *got.Rating, 0.001)
}

func TestGetTitleRatingPrefersCache(t *testing.T) {
	f := newTitleFixture(t)

	created, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{Name: "Cached", Year: 2000})
	require.NoError(t, err)

	cached := 9.5
	f.ratings.Set(context.Background(), created.ID, &cached)

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	// the cached value wins even though the title has no reviews
	assert.Equal(t, 9.5, *got.Rating)
}

func TestGetTitleCachesNoReviewsResult(t *testing.T) {
	f := newTitleFixture(t)

	created, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{Name: "Unrated", Year: 2000})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)

	// the nil result is cached as a hit
	v, hit := f.ratings.Get(context.Background(), created.ID)
	assert.True(t, hit)
	assert.Nil(t, v)
}

func TestUpdateTitleClearsCategory(t *testing.T) {
	f := newTitleFixture(t)
	require.NoError(t, f.categories.Create(context.Background(), &models.Category{Name: "Movies", Slug: "movies"}))

	created, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{
		Name:     "Declassified",
		Year:     2005,
		Category: "movies",
	})
	require.NoError(t, err)
	require.NotNil(t, created.Category)

	empty := ""
	updated, err := f.svc.Update(context.Background(), created.ID, dto.UpdateTitleRequest{
		Category: &empty,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Category)
}

func TestUpdateTitleReplacesGenres(t *testing.T) {
	f := newTitleFixture(t)
	require.NoError(t, f.genres.Create(context.Background(), &models.Genre{Name: "Drama", Slug: "drama"}))
	require.NoError(t, f.genres.Create(context.Background(), &models.Genre{Name: "Comedy", Slug: "comedy"}))

	created, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{
		Name:  "Regraded",
		Year:  2005,
		Genre: []string{"drama"},
	})
	require.NoError(t, err)

	newGenres := []string{"comedy"}
	updated, err := f.svc.Update(context.Background(), created.ID, dto.UpdateTitleRequest{
		Genre: &newGenres,
	})
	require.NoError(t, err)
	require.Len(t, updated.Genre, 1)
	assert.Equal(t, "comedy", updated.Genre[0].Slug)
}

func TestUpdateUnknownTitle(t *testing.T) {
	f := newTitleFixture(t)

	name := "Nobody"
	_, err := f.svc.Update(context.Background(), 404, dto.UpdateTitleRequest{Name: &name})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteTitleInvalidatesRating(t *testing.T) {
	f := newTitleFixture(t)

	created, err := f.svc.Create(context.Background(), dto.CreateTitleRequest{Name: "Gone", Year: 2000})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))
	assert.Contains(t, f.ratings.invalidated, created.ID)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), created.ID), apperror.ErrNotFound)
}
