package manager

import (
	"context"
	"testing"
	"time"

	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testActorFilter() actorFilter {
	return actorFilter{
		startYear:     2000,
		mediaTypes:    map[string]struct{}{"Movie": {}, "Series": {}},
		genresInclude: map[int]struct{}{},
		genresExclude: map[int]struct{}{},
		minRating:     6.0,
	}
}

func TestActorFilterKeep(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		credit tmdb.PersonCredit
		mutate func(*actorFilter)
		want   bool
	}{
		{
			name:   "movie with han title passes",
			credit: tmdb.PersonCredit{ID: 1, MediaType: "movie", Title: "流浪地球", ReleaseDate: "2019-02-05", VoteAverage: 7.9, VoteCount: 5000},
			want:   true,
		},
		{
			name:   "latin-only title dropped",
			credit: tmdb.PersonCredit{ID: 2, MediaType: "movie", Title: "The Martian", ReleaseDate: "2015-10-02", VoteAverage: 7.7, VoteCount: 5000},
			want:   false,
		},
		{
			name:   "pre start year dropped",
			credit: tmdb.PersonCredit{ID: 3, MediaType: "movie", Title: "卧虎藏龙", ReleaseDate: "1999-07-08", VoteAverage: 7.9, VoteCount: 5000},
			want:   false,
		},
		{
			name:   "unsubscribed media type dropped",
			credit: tmdb.PersonCredit{ID: 4, MediaType: "tv", Name: "三体", FirstAirDate: "2023-01-15", VoteAverage: 8.5, VoteCount: 500},
			mutate: func(f *actorFilter) { f.mediaTypes = map[string]struct{}{"Movie": {}} },
			want:   false,
		},
		{
			name:   "low rating with settled votes dropped",
			credit: tmdb.PersonCredit{ID: 5, MediaType: "movie", Title: "上海堡垒", ReleaseDate: "2019-08-09", VoteAverage: 3.1, VoteCount: 400},
			want:   false,
		},
		{
			name: "low rating but recent release passes",
			credit: tmdb.PersonCredit{ID: 6, MediaType: "movie", Title: "新片",
				ReleaseDate: now.AddDate(0, -2, 0).Format("2006-01-02"), VoteAverage: 3.1, VoteCount: 400},
			want: true,
		},
		{
			name:   "low rating with few votes passes",
			credit: tmdb.PersonCredit{ID: 7, MediaType: "movie", Title: "小众片", ReleaseDate: "2022-03-01", VoteAverage: 4.0, VoteCount: 12},
			want:   true,
		},
		{
			name:   "excluded genre dropped",
			credit: tmdb.PersonCredit{ID: 8, MediaType: "movie", Title: "纪录片", ReleaseDate: "2022-03-01", VoteAverage: 8.0, VoteCount: 900, GenreIDs: []int{99}},
			mutate: func(f *actorFilter) { f.genresExclude = map[int]struct{}{99: {}} },
			want:   false,
		},
		{
			name:   "include set requires overlap",
			credit: tmdb.PersonCredit{ID: 9, MediaType: "movie", Title: "爱情片", ReleaseDate: "2022-03-01", VoteAverage: 8.0, VoteCount: 900, GenreIDs: []int{10749}},
			mutate: func(f *actorFilter) { f.genresInclude = map[int]struct{}{28: {}} },
			want:   false,
		},
		{
			name:   "undated credit passes the year gate",
			credit: tmdb.PersonCredit{ID: 10, MediaType: "movie", Title: "未定档"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testActorFilter()
			if tt.mutate != nil {
				tt.mutate(&f)
			}
			assert.Equal(t, tt.want, f.keep(tt.credit, now))
		})
	}
}

func seedActorSubscription(t *testing.T, store storage.Storage) int32 {
	t.Helper()

	id, err := store.CreateActorSubscription(context.Background(), model.ActorSubscriptions{
		TmdbPersonID:     77,
		ActorName:        "吴京",
		ConfigStartYear:  2000,
		ConfigMediaTypes: "Movie,Series",
		ConfigMinRating:  6.0,
		Status:           "active",
	})
	require.NoError(t, err)
	return id
}

func TestTrackActorSubscriptions_SubscribesMissingWorks(t *testing.T) {
	ctx := context.Background()

	subscriber := &fakeSubscriber{}
	tmdbClient := &fakeTmdb{
		credits: map[int]*tmdb.CombinedCredits{
			77: {
				Cast: []tmdb.PersonCredit{
					{ID: 1, MediaType: "movie", Title: "流浪地球", ReleaseDate: "2019-02-05", VoteAverage: 7.9, VoteCount: 5000},
					{ID: 2, MediaType: "movie", Title: "未上映", ReleaseDate: time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")},
				},
			},
		},
	}

	m, store := newTestManager(t, &fakeEmby{}, tmdbClient, subscriber, nil)
	id := seedActorSubscription(t, store)

	require.NoError(t, m.TrackActorSubscriptions(ctx, 0))

	// the released work is dispatched, the future one waits
	assert.Equal(t, []int{1}, subscriber.movies)

	tracked, err := store.ListTrackedActorMedia(ctx, id)
	require.NoError(t, err)
	require.Len(t, tracked, 2)

	byMediaID := make(map[int32]string)
	for _, row := range tracked {
		byMediaID[row.TmdbMediaID] = row.Status
	}
	assert.Equal(t, string(storage.MediaStatusSubscribed), byMediaID[1])
	assert.Equal(t, string(storage.MediaStatusPendingRelease), byMediaID[2])

	sub, err := store.GetActorSubscription(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, sub.LastCheckedAt)
}

func TestTrackActorSubscriptions_DedupAcrossActors(t *testing.T) {
	ctx := context.Background()

	shared := tmdb.PersonCredit{ID: 1, MediaType: "movie", Title: "合作片", ReleaseDate: "2020-01-01", VoteAverage: 7.5, VoteCount: 800}
	subscriber := &fakeSubscriber{}
	tmdbClient := &fakeTmdb{
		credits: map[int]*tmdb.CombinedCredits{
			77: {Cast: []tmdb.PersonCredit{shared}},
			88: {Cast: []tmdb.PersonCredit{shared}},
		},
	}

	m, store := newTestManager(t, &fakeEmby{}, tmdbClient, subscriber, nil)
	seedActorSubscription(t, store)

	_, err := store.CreateActorSubscription(ctx, model.ActorSubscriptions{
		TmdbPersonID:     88,
		ActorName:        "刘德华",
		ConfigStartYear:  2000,
		ConfigMediaTypes: "Movie",
		ConfigMinRating:  6.0,
		Status:           "active",
	})
	require.NoError(t, err)

	require.NoError(t, m.TrackActorSubscriptions(ctx, 0))

	// the shared work is subscribed once, but both scans record SUBSCRIBED
	assert.Equal(t, []int{1}, subscriber.movies)
}

func TestScanActorSubscription_RemovesWorksOutsideFilter(t *testing.T) {
	ctx := context.Background()

	tmdbClient := &fakeTmdb{
		credits: map[int]*tmdb.CombinedCredits{
			77: {Cast: []tmdb.PersonCredit{
				{ID: 1, MediaType: "movie", Title: "流浪地球", ReleaseDate: "2019-02-05", VoteAverage: 7.9, VoteCount: 5000},
			}},
		},
	}

	m, store := newTestManager(t, &fakeEmby{}, tmdbClient, &fakeSubscriber{}, nil)
	id := seedActorSubscription(t, store)

	// a previously tracked work that no longer appears in the filmography
	require.NoError(t, store.ApplyTrackedMediaDiff(ctx, id, storage.TrackedMediaDiff{
		Insert: []model.TrackedActorMedia{
			{SubscriptionID: id, TmdbMediaID: 999, MediaType: "Movie", Title: "Old Work", Status: string(storage.MediaStatusMissing)},
		},
	}))

	require.NoError(t, m.ScanActorSubscription(ctx, id))

	tracked, err := store.ListTrackedActorMedia(ctx, id)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, int32(1), tracked[0].TmdbMediaID)
}

func TestScanActorSubscription_LibraryWinsOverSubscribe(t *testing.T) {
	ctx := context.Background()

	subscriber := &fakeSubscriber{}
	tmdbClient := &fakeTmdb{
		credits: map[int]*tmdb.CombinedCredits{
			77: {Cast: []tmdb.PersonCredit{
				{ID: 1, MediaType: "movie", Title: "流浪地球", ReleaseDate: "2019-02-05", VoteAverage: 7.9, VoteCount: 5000},
			}},
		},
	}

	m, store := newTestManager(t, &fakeEmby{}, tmdbClient, subscriber, nil)
	id := seedActorSubscription(t, store)

	seedMetadata(t, store, []model.MediaMetadata{
		{TmdbID: "1", ItemType: "Movie", Title: strPtr("流浪地球")},
	})

	require.NoError(t, m.ScanActorSubscription(ctx, id))

	assert.Empty(t, subscriber.movies)

	tracked, err := store.ListTrackedActorMedia(ctx, id)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, string(storage.MediaStatusInLibrary), tracked[0].Status)
}
