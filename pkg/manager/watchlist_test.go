package manager

import (
	"context"
	"testing"
	"time"

	"github.com/collectarr/collectarr/pkg/emby"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideWatchlistState(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	noMissing := storage.MissingInfo{}
	someMissing := storage.MissingInfo{
		MissingEpisodes: []storage.MissingEpisode{{SeasonNumber: 1, EpisodeNumber: 3, AirDate: "2025-05-01"}},
	}

	tests := []struct {
		name        string
		forceEnded  bool
		missing     storage.MissingInfo
		complete    bool
		details     *tmdb.TVDetails
		finaleAired bool
		wantState   storage.WatchlistState
		wantPaused  string
	}{
		{
			name:      "force ended always completes",
			missing:   someMissing,
			details:   &tmdb.TVDetails{Status: "Returning Series"},
			wantState: storage.WatchlistStateCompleted, forceEnded: true,
		},
		{
			name:     "ended with everything present completes",
			missing:  noMissing,
			complete: true,
			details:  &tmdb.TVDetails{Status: "Ended"},
			wantState: storage.WatchlistStateCompleted,
		},
		{
			name:        "finale aired with everything present completes",
			missing:     noMissing,
			complete:    true,
			finaleAired: true,
			details:     &tmdb.TVDetails{Status: "Returning Series"},
			wantState:   storage.WatchlistStateCompleted,
		},
		{
			name:      "incomplete metadata keeps watching",
			missing:   noMissing,
			complete:  false,
			details:   &tmdb.TVDetails{Status: "Ended", NextEpisodeToAir: &tmdb.Episode{AirDate: "2025-06-02"}},
			wantState: storage.WatchlistStateWatching,
		},
		{
			name:      "next episode soon keeps watching",
			missing:   someMissing,
			details:   &tmdb.TVDetails{Status: "Returning Series", NextEpisodeToAir: &tmdb.Episode{AirDate: "2025-06-03"}},
			wantState: storage.WatchlistStateWatching,
		},
		{
			name:       "next episode far out pauses until the day before",
			missing:    someMissing,
			details:    &tmdb.TVDetails{Status: "Returning Series", NextEpisodeToAir: &tmdb.Episode{AirDate: "2025-07-01"}},
			wantState:  storage.WatchlistStatePaused,
			wantPaused: "2025-06-30",
		},
		{
			name:       "no next info pauses a week",
			missing:    someMissing,
			details:    &tmdb.TVDetails{Status: "Returning Series"},
			wantState:  storage.WatchlistStatePaused,
			wantPaused: "2025-06-08",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, pausedUntil := decideWatchlistState(tt.forceEnded, tt.missing, tt.complete, tt.details, tt.finaleAired, now)
			assert.Equal(t, tt.wantState, state)
			if tt.wantPaused == "" {
				assert.Nil(t, pausedUntil)
			} else {
				require.NotNil(t, pausedUntil)
				assert.Equal(t, tt.wantPaused, *pausedUntil)
			}
		})
	}
}

func TestComputeMissing(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	episodes := []tmdb.Episode{
		{SeasonNumber: 1, EpisodeNumber: 1, AirDate: "2024-01-01", Name: "Pilot"},
		{SeasonNumber: 1, EpisodeNumber: 2, AirDate: "2024-01-08"},
		{SeasonNumber: 2, EpisodeNumber: 1, AirDate: "2025-01-01"},
		{SeasonNumber: 2, EpisodeNumber: 2, AirDate: "2025-01-08"},
		{SeasonNumber: 3, EpisodeNumber: 1, AirDate: "2026-01-01"},
	}

	// season 1 partially present, season 2 entirely absent, season 3 unaired
	have := map[[2]int]struct{}{
		{1, 1}: {},
	}

	info := computeMissing(episodes, have, now)

	require.Len(t, info.MissingSeasons, 1)
	assert.Equal(t, 2, info.MissingSeasons[0].SeasonNumber)

	require.Len(t, info.MissingEpisodes, 1)
	assert.Equal(t, 1, info.MissingEpisodes[0].SeasonNumber)
	assert.Equal(t, 2, info.MissingEpisodes[0].EpisodeNumber)
}

func TestComputeMissing_FutureEpisodesNotMissing(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	episodes := []tmdb.Episode{
		{SeasonNumber: 1, EpisodeNumber: 1, AirDate: "2025-05-01"},
		{SeasonNumber: 1, EpisodeNumber: 2, AirDate: "2025-07-01"},
	}
	have := map[[2]int]struct{}{
		{1, 1}: {},
	}

	info := computeMissing(episodes, have, now)
	assert.Empty(t, info.MissingSeasons)
	assert.Empty(t, info.MissingEpisodes)
}

func TestProcessWatchlist_PrunesDeletedSeries(t *testing.T) {
	ctx := context.Background()

	// the series item does not exist on the server
	m, store := newTestManager(t, &fakeEmby{}, &fakeTmdb{}, nil, nil)

	require.NoError(t, store.AddToWatchlist(ctx, model.Watchlist{
		ItemID:   "gone",
		TmdbID:   "600",
		ItemType: "Series",
		Status:   string(storage.WatchlistStateWatching),
	}))

	require.NoError(t, m.ProcessWatchlist(ctx, 0, true))

	_, err := store.GetWatchlistItem(ctx, "gone")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProcessWatchlist_UpdatesEntry(t *testing.T) {
	ctx := context.Background()

	seriesItem := emby.Item{
		ID:          "series-1",
		Name:        "Some Show",
		Type:        "Series",
		ProviderIds: map[string]string{"Tmdb": "700"},
	}
	f := &fakeEmby{
		itemsByID: map[string]emby.Item{"series-1": seriesItem},
		collectionItems: map[string][]emby.Item{
			"series-1": {
				{ID: "ep1", Type: "Episode", ParentIndexNumber: 1, IndexNumber: 1},
			},
		},
	}
	tmdbClient := &fakeTmdb{
		tv: map[int]*tmdb.TVDetails{
			700: {
				ID: 700, Name: "Some Show", Status: "Returning Series",
				Seasons: []tmdb.SeasonSummary{
					{SeasonNumber: 0, EpisodeCount: 2},
					{SeasonNumber: 1, EpisodeCount: 2, AirDate: "2024-01-01"},
				},
			},
		},
		seasons: map[int]map[int]*tmdb.SeasonDetails{
			700: {
				1: {SeasonNumber: 1, Episodes: []tmdb.Episode{
					{SeasonNumber: 1, EpisodeNumber: 1, AirDate: "2024-01-01", Overview: "first"},
					{SeasonNumber: 1, EpisodeNumber: 2, AirDate: "2024-01-08", Overview: "second"},
				}},
			},
		},
	}

	m, store := newTestManager(t, f, tmdbClient, nil, nil)

	require.NoError(t, store.AddToWatchlist(ctx, model.Watchlist{
		ItemID:   "series-1",
		TmdbID:   "700",
		ItemType: "Series",
		Status:   string(storage.WatchlistStateWatching),
	}))

	require.NoError(t, m.ProcessWatchlist(ctx, 0, false))

	entry, err := store.GetWatchlistItem(ctx, "series-1")
	require.NoError(t, err)

	// episode 2 aired but is absent; no next episode info pauses the entry
	assert.Equal(t, string(storage.WatchlistStatePaused), entry.Status)
	require.NotNil(t, entry.MissingInfoJSON)
	assert.Contains(t, *entry.MissingInfoJSON, `"episode_number":2`)
	require.NotNil(t, entry.TmdbStatus)
	assert.Equal(t, "Returning Series", *entry.TmdbStatus)
}

func TestCheckAndAddToWatchlist(t *testing.T) {
	ctx := context.Background()

	tmdbClient := &fakeTmdb{
		tv: map[int]*tmdb.TVDetails{
			800: {ID: 800, Name: "Ongoing", Status: "Returning Series"},
			801: {ID: 801, Name: "Finished", Status: "Ended"},
		},
	}

	m, store := newTestManager(t, &fakeEmby{}, tmdbClient, nil, nil)

	ongoing := emby.Item{ID: "s-800", Name: "Ongoing", Type: "Series", ProviderIds: map[string]string{"Tmdb": "800"}}
	finished := emby.Item{ID: "s-801", Name: "Finished", Type: "Series", ProviderIds: map[string]string{"Tmdb": "801"}}
	movie := movieItem("m-1", "900", "A Movie")

	require.NoError(t, m.CheckAndAddToWatchlist(ctx, &ongoing))
	require.NoError(t, m.CheckAndAddToWatchlist(ctx, &finished))
	require.NoError(t, m.CheckAndAddToWatchlist(ctx, &movie))

	entries, err := store.ListWatchlist(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s-800", entries[0].ItemID)
	assert.Equal(t, string(storage.WatchlistStateWatching), entries[0].Status)
}
