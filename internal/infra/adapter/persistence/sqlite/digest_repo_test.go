package sqlite_test

import (
	"context"
	"testing"

	sqliteRepo "blog-agent/internal/infra/adapter/persistence/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestRoundTrip(t *testing.T) {
	repo := sqliteRepo.NewDigestRepo(openTestDB(t))
	ctx := context.Background()

	latest, err := repo.LatestDigest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest, "empty store has no digest")

	require.NoError(t, repo.SaveDigest(ctx, "first digest", 3))
	require.NoError(t, repo.SaveDigest(ctx, "second digest", 7))

	latest, err = repo.LatestDigest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "second digest", latest.Content)
	assert.Equal(t, 7, latest.LookbackDays)
	assert.False(t, latest.CreatedAt.IsZero())
}

func TestSuggestionReasonsReplaceOnConflict(t *testing.T) {
	repo := sqliteRepo.NewDigestRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveSuggestionReasons(ctx, map[string]string{
		"https://new.example": "covers topics you already follow",
		"https://old.example": "stale reason",
	}))
	require.NoError(t, repo.SaveSuggestionReasons(ctx, map[string]string{
		"https://old.example": "fresh reason",
	}))

	reasons, err := repo.SuggestionReasons(ctx)
	require.NoError(t, err)
	assert.Len(t, reasons, 2)
	assert.Equal(t, "fresh reason", reasons["https://old.example"])
	assert.Equal(t, "covers topics you already follow", reasons["https://new.example"])
}
