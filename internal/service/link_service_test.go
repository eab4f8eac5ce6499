package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/smartshort/internal/models"
)

func TestLinkService_CreateCustomSlug(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.links.Create(context.Background(), testOwner, models.CreateLinkRequest{
		Title:          "  Trailer  ",
		DestinationURL: "https://example.com/trailer",
		CustomSlug:     "trailer1",
	})
	require.NoError(t, err)

	assert.Equal(t, "trailer1", resp.Slug)
	assert.Equal(t, "http://sho.rt/trailer1", resp.ShortURL)
	assert.Equal(t, "Trailer", resp.Title)

	_, err = env.links.Create(context.Background(), "someone-else", models.CreateLinkRequest{
		Title:          "Other",
		DestinationURL: "https://example.com/other",
		CustomSlug:     "trailer1",
	})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestLinkService_CreateGeneratedSlug(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.links.Create(context.Background(), testOwner, models.CreateLinkRequest{
		Title:          "Video",
		DestinationURL: "https://example.com/v",
	})
	require.NoError(t, err)

	assert.Len(t, resp.Slug, 6)
	assert.True(t, isValidSlug(resp.Slug, 32))
}

func TestLinkService_CreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	past := env.now.Add(-time.Minute)

	tests := []struct {
		name string
		req  models.CreateLinkRequest
	}{
		{"slug too short", models.CreateLinkRequest{Title: "t", DestinationURL: "https://e.com", CustomSlug: "ab"}},
		{"slug with symbols", models.CreateLinkRequest{Title: "t", DestinationURL: "https://e.com", CustomSlug: "my-link"}},
		{"expiry in the past", models.CreateLinkRequest{Title: "t", DestinationURL: "https://e.com", ExpiresAt: &past}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.links.Create(context.Background(), testOwner, tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLinkService_CreateRejectsReservedSlugs(t *testing.T) {
	env := newTestEnv(t)

	for _, slug := range []string{"health", "ready", "live", "metrics", "api", "ads", "link-inactive", "link-expired", "Metrics"} {
		t.Run(slug, func(t *testing.T) {
			_, err := env.links.Create(context.Background(), testOwner, models.CreateLinkRequest{
				Title:          "t",
				DestinationURL: "https://example.com",
				CustomSlug:     slug,
			})
			assert.ErrorIs(t, err, ErrInvalidInput)

			exists, err := env.store.Links.Exists(context.Background(), slug)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestLinkService_GeneratedSlugSkipsReserved(t *testing.T) {
	env := newTestEnv(t)
	candidates := []string{"health", "metrics", "vid123"}
	env.links.randomSlug = func(int) (string, error) {
		next := candidates[0]
		candidates = candidates[1:]
		return next, nil
	}

	resp, err := env.links.Create(context.Background(), testOwner, models.CreateLinkRequest{
		Title:          "Video",
		DestinationURL: "https://example.com/v",
	})
	require.NoError(t, err)

	assert.Equal(t, "vid123", resp.Slug)
	assert.Empty(t, candidates)
}

func TestLinkService_OwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	link := env.createLink(t, "mine01")
	title := "Stolen"

	_, err := env.links.Update(ctx, "intruder", link.ID, models.UpdateLinkRequest{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, env.links.Delete(ctx, "intruder", link.ID), ErrForbidden)
	assert.ErrorIs(t, env.links.Delete(ctx, testOwner, uuid.New()), ErrLinkNotFound)

	stored, err := env.store.Links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "My video", stored.Title)
}

func TestLinkService_DeactivateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	link := env.createLink(t, "cached")

	// Warm the cache.
	_, err := env.links.Resolve(ctx, "cached")
	require.NoError(t, err)

	inactive := false
	updated, err := env.links.Update(ctx, testOwner, link.ID, models.UpdateLinkRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = env.links.Resolve(ctx, "cached")
	assert.ErrorIs(t, err, ErrLinkInactive)
}

func TestLinkService_DeleteRemovesLinkAndLedger(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	link := env.createLink(t, "gone01")
	click := env.addClick(t, link, true)

	_, err := env.links.Resolve(ctx, "gone01")
	require.NoError(t, err)

	require.NoError(t, env.links.Delete(ctx, testOwner, link.ID))

	_, err = env.links.Resolve(ctx, "gone01")
	assert.ErrorIs(t, err, ErrLinkNotFound)
	_, err = env.store.Clicks.GetByID(ctx, click.ID)
	assert.Error(t, err)

	links, err := env.links.List(ctx, testOwner)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestLinkService_ResolveExpiry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	expires := env.now.Add(time.Hour)

	_, err := env.links.Create(ctx, testOwner, models.CreateLinkRequest{
		Title:          "Soon gone",
		DestinationURL: "https://example.com/x",
		CustomSlug:     "brief1",
		ExpiresAt:      &expires,
	})
	require.NoError(t, err)

	_, err = env.links.Resolve(ctx, "brief1")
	assert.NoError(t, err)

	env.advance(time.Hour + time.Second)
	_, err = env.links.Resolve(ctx, "brief1")
	assert.ErrorIs(t, err, ErrLinkExpired)
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"abc", true},
		{"ABC123xyz", true},
		{"ab", false},
		{"has space", false},
		{"under_score", false},
		{"ünï", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isValidSlug(tt.slug, 10), tt.slug)
	}
}
