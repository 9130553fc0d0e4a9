package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestDB(t *testing.T) storage.Storage {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func strPtr(s string) *string { return &s }

func TestSQLite_UpsertMediaMetadataBatch(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	batch := []model.MediaMetadata{
		{TmdbID: "949", ItemType: "Movie", Title: strPtr("Heat")},
		{TmdbID: "1396", ItemType: "Series", Title: strPtr("Breaking Bad")},
	}

	require.NoError(t, store.UpsertMediaMetadataBatch(ctx, batch))

	got, err := store.GetMediaMetadata(ctx, "949", "Movie")
	require.NoError(t, err)
	assert.Equal(t, "Heat", *got.Title)

	// same key with new values replaces the row
	batch[0].Title = strPtr("Heat (1995)")
	require.NoError(t, store.UpsertMediaMetadataBatch(ctx, batch))

	got, err = store.GetMediaMetadata(ctx, "949", "Movie")
	require.NoError(t, err)
	assert.Equal(t, "Heat (1995)", *got.Title)

	all, err := store.ListMediaMetadata(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	movies, err := store.ListMediaMetadata(ctx, "Movie")
	require.NoError(t, err)
	assert.Len(t, movies, 1)
}

func TestSQLite_DeleteMediaMetadataByTmdbIDs(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	require.NoError(t, store.UpsertMediaMetadataBatch(ctx, []model.MediaMetadata{
		{TmdbID: "1", ItemType: "Movie"},
		{TmdbID: "1", ItemType: "Series"},
		{TmdbID: "2", ItemType: "Movie"},
	}))

	// only the movie row for tmdb 1 goes away
	err := store.DeleteMediaMetadataByTmdbIDs(ctx, []storage.MediaKey{{TmdbID: "1", ItemType: "Movie"}})
	require.NoError(t, err)

	_, err = store.GetMediaMetadata(ctx, "1", "Movie")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetMediaMetadata(ctx, "1", "Series")
	assert.NoError(t, err)

	_, err = store.GetMediaMetadata(ctx, "2", "Movie")
	assert.NoError(t, err)
}

func TestSQLite_UpsertPerson(t *testing.T) {
	t.Run("insert then merge ids", func(t *testing.T) {
		ctx := context.Background()
		store := initTestDB(t)

		mapID, err := store.UpsertPerson(ctx, storage.PersonIDs{
			Name:         "Tony Leung",
			EmbyPersonID: "emby-1",
		})
		require.NoError(t, err)
		require.NotZero(t, mapID)

		// second sighting brings the tmdb id; same row is reused
		again, err := store.UpsertPerson(ctx, storage.PersonIDs{
			Name:         "Tony Leung",
			EmbyPersonID: "emby-1",
			TmdbPersonID: 1337,
		})
		require.NoError(t, err)
		assert.Equal(t, mapID, again)

		person, err := store.GetPersonByTmdbID(ctx, 1337)
		require.NoError(t, err)
		assert.Equal(t, mapID, person.MapID)
		assert.Equal(t, "emby-1", *person.EmbyPersonID)
	})

	t.Run("name sighting without shared ids merges into the same row", func(t *testing.T) {
		ctx := context.Background()
		store := initTestDB(t)

		mapID, err := store.UpsertPerson(ctx, storage.PersonIDs{Name: "John Smith", EmbyPersonID: "e1"})
		require.NoError(t, err)

		// a later sighting carries only the name plus a fresh tmdb id
		again, err := store.UpsertPerson(ctx, storage.PersonIDs{Name: "John Smith", TmdbPersonID: 100})
		require.NoError(t, err)
		assert.Equal(t, mapID, again)

		person, err := store.GetPersonByTmdbID(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, person.EmbyPersonID)
		assert.Equal(t, "e1", *person.EmbyPersonID)
	})

	t.Run("same name different person gets its own row", func(t *testing.T) {
		ctx := context.Background()
		store := initTestDB(t)

		first, err := store.UpsertPerson(ctx, storage.PersonIDs{Name: "John Smith", TmdbPersonID: 100})
		require.NoError(t, err)

		// the name matches but the tmdb id contradicts row one
		second, err := store.UpsertPerson(ctx, storage.PersonIDs{Name: "John Smith", TmdbPersonID: 200})
		require.NoError(t, err)
		assert.NotEqual(t, first, second)

		// a pure id sighting still lands on the right row
		got, err := store.UpsertPerson(ctx, storage.PersonIDs{TmdbPersonID: 100, ImdbID: "nm0000001"})
		require.NoError(t, err)
		assert.Equal(t, first, got)

		person, err := store.GetPersonByTmdbID(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, person.ImdbID)
		assert.Equal(t, "nm0000001", *person.ImdbID)
	})

	t.Run("identifier owned by another row aborts the merge", func(t *testing.T) {
		ctx := context.Background()
		store := initTestDB(t)

		first, err := store.UpsertPerson(ctx, storage.PersonIDs{Name: "A", TmdbPersonID: 100})
		require.NoError(t, err)

		second, err := store.UpsertPerson(ctx, storage.PersonIDs{Name: "B", EmbyPersonID: "emby-b"})
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		// emby-b's row also claims tmdb 100, but row one already owns it; the
		// mutation is dropped and the owning row reported back
		got, err := store.UpsertPerson(ctx, storage.PersonIDs{Name: "B", EmbyPersonID: "emby-b", TmdbPersonID: 100})
		require.NoError(t, err)
		assert.Equal(t, first, got)

		owner, err := store.GetPersonByTmdbID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, first, owner.MapID)

		other, err := store.GetPersonByEmbyID(ctx, "emby-b")
		require.NoError(t, err)
		assert.Nil(t, other.TmdbPersonID)
	})

	t.Run("requires at least one identifier", func(t *testing.T) {
		ctx := context.Background()
		store := initTestDB(t)

		_, err := store.UpsertPerson(ctx, storage.PersonIDs{})
		assert.Error(t, err)
	})
}

func TestSQLite_Translations(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	require.NoError(t, store.SaveTranslation(ctx, "Inception", "盗梦空间", "llm"))

	got, err := store.GetTranslation(ctx, "Inception")
	require.NoError(t, err)
	assert.Equal(t, "盗梦空间", *got.TranslatedText)

	// saving a translation with no Han characters is refused outright
	assert.Error(t, store.SaveTranslation(ctx, "Tenet", "Tenet", "llm"))

	// an entry without Han characters that got in anyway (old data, imports)
	// is purged on read
	require.NoError(t, store.ImportAll(ctx, &storage.BackupDocument{
		Data: map[string][]map[string]any{
			"translation_cache": {
				{"original_text": "Tenet", "translated_text": "Tenet", "engine_used": "gemini"},
			},
		},
	}, storage.ImportModeMerge))

	_, err = store.GetTranslation(ctx, "Tenet")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// and it really is gone, not just hidden
	_, err = store.GetTranslation(ctx, "Tenet")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_CustomCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	id, err := store.CreateCustomCollection(ctx, model.CustomCollections{
		Name:           "90s Heist Films",
		Type:           "filter",
		DefinitionJSON: `{"logic":"AND","rules":[]}`,
		Status:         "active",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	embyID := "coll-42"
	sync := storage.CollectionSyncResult{
		EmbyCollectionID: &embyID,
		ItemTypes:        []string{"Movie"},
		HealthStatus:     "has_missing",
		InLibraryCount:   1,
		MissingCount:     1,
		Snapshot: []storage.SnapshotItem{
			{TmdbID: "949", ItemType: "Movie", Title: "Heat", ReleaseDate: "1995-12-15", Status: storage.MediaStatusInLibrary},
			{TmdbID: "629", ItemType: "Movie", Title: "The Usual Suspects", ReleaseDate: "1995-07-19", Status: storage.MediaStatusMissing},
		},
	}
	require.NoError(t, store.UpdateCustomCollectionAfterSync(ctx, id, sync))

	got, err := store.GetCustomCollection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "coll-42", *got.EmbyCollectionID)
	assert.Equal(t, int32(1), got.InLibraryCount)
	assert.Equal(t, int32(1), got.MissingCount)
	assert.Equal(t, "has_missing", *got.HealthStatus)
	require.NotNil(t, got.LastSyncedAt)

	require.NoError(t, store.DeleteCustomCollection(ctx, id))
	_, err = store.GetCustomCollection(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_MatchAndUpdateListCollectionsOnItemAdd(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	id, err := store.CreateCustomCollection(ctx, model.CustomCollections{
		Name:           "Oscar Winners",
		Type:           "list",
		DefinitionJSON: `{"url":"https://example.com/feed"}`,
		Status:         "active",
	})
	require.NoError(t, err)

	embyID := "coll-1"
	require.NoError(t, store.UpdateCustomCollectionAfterSync(ctx, id, storage.CollectionSyncResult{
		EmbyCollectionID: &embyID,
		ItemTypes:        []string{"Movie"},
		HealthStatus:     "has_missing",
		MissingCount:     1,
		Snapshot: []storage.SnapshotItem{
			{TmdbID: "389", Title: "12 Angry Men", Status: storage.MediaStatusMissing},
		},
	}))

	// a filter collection holding the same item is rebuilt from its rules
	// each cycle and must not take the flip
	filterID, err := store.CreateCustomCollection(ctx, model.CustomCollections{
		Name:           "Courtroom Dramas",
		Type:           "filter",
		DefinitionJSON: `{"logic":"AND","rules":[]}`,
		Status:         "active",
	})
	require.NoError(t, err)
	filterEmbyID := "coll-2"
	require.NoError(t, store.UpdateCustomCollectionAfterSync(ctx, filterID, storage.CollectionSyncResult{
		EmbyCollectionID: &filterEmbyID,
		ItemTypes:        []string{"Movie"},
		HealthStatus:     "has_missing",
		MissingCount:     1,
		Snapshot: []storage.SnapshotItem{
			{TmdbID: "389", Title: "12 Angry Men", Status: storage.MediaStatusMissing},
		},
	}))

	affected, err := store.MatchAndUpdateListCollectionsOnItemAdd(ctx, "389", "12 Angry Men")
	require.NoError(t, err)
	require.Len(t, affected, 1)
	assert.Equal(t, "coll-1", affected[0].EmbyCollectionID)

	filterGot, err := store.GetCustomCollection(ctx, filterID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), filterGot.MissingCount)

	got, err := store.GetCustomCollection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.InLibraryCount)
	assert.Equal(t, int32(0), got.MissingCount)
	assert.Equal(t, "ok", *got.HealthStatus)

	// already in library; nothing to flip
	affected, err = store.MatchAndUpdateListCollectionsOnItemAdd(ctx, "389", "12 Angry Men")
	require.NoError(t, err)
	assert.Empty(t, affected)
}

func TestSQLite_NativeCollections(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	name := "James Bond Collection"
	require.NoError(t, store.UpsertNativeCollection(ctx, model.CollectionsInfo{
		EmbyCollectionID: "native-1",
		Name:             &name,
		ItemType:         "Movie",
	}))
	require.NoError(t, store.UpsertNativeCollection(ctx, model.CollectionsInfo{
		EmbyCollectionID: "native-2",
		ItemType:         "Movie",
	}))

	require.NoError(t, store.UpdateNativeCollectionSnapshot(ctx, "native-1", "active", []storage.SnapshotItem{
		{TmdbID: "646683", Title: "No Time to Die", Status: storage.MediaStatusMissing},
		{TmdbID: "37724", Title: "Skyfall", Status: storage.MediaStatusInLibrary},
	}))

	flipped, err := store.BatchMarkMoviesSubscribed(ctx, []string{"native-1", "native-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	// second run finds nothing left in MISSING
	flipped, err = store.BatchMarkMoviesSubscribed(ctx, []string{"native-1"})
	require.NoError(t, err)
	assert.Zero(t, flipped)

	pruned, err := store.DeleteNativeCollectionsNotIn(ctx, []string{"native-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	_, err = store.GetNativeCollection(ctx, "native-2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_Watchlist(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	entry := model.Watchlist{
		ItemID:   "emby-item-1",
		TmdbID:   "1396",
		ItemName: strPtr("Breaking Bad"),
		ItemType: "Series",
	}
	require.NoError(t, store.AddToWatchlist(ctx, entry))
	// re-adding is a no-op
	require.NoError(t, store.AddToWatchlist(ctx, entry))

	got, err := store.GetWatchlistItem(ctx, "emby-item-1")
	require.NoError(t, err)
	assert.Equal(t, string(storage.WatchlistStateWatching), got.Status)

	pausedUntil := time.Now().AddDate(0, 0, 14).Format("2006-01-02")
	require.NoError(t, store.UpdateWatchlistItem(ctx, "emby-item-1", storage.WatchlistUpdate{
		Status:      storage.WatchlistStatePaused,
		PausedUntil: &pausedUntil,
		MissingInfo: &storage.MissingInfo{
			MissingSeasons: []storage.MissingSeason{{SeasonNumber: 5, AirDate: "2012-07-15"}},
		},
	}))

	got, err = store.GetWatchlistItem(ctx, "emby-item-1")
	require.NoError(t, err)
	assert.Equal(t, string(storage.WatchlistStatePaused), got.Status)
	require.NotNil(t, got.MissingInfoJSON)
	assert.Contains(t, *got.MissingInfoJSON, `"season_number":5`)

	// Completed -> Paused is not a legal transition
	require.NoError(t, store.UpdateWatchlistItem(ctx, "emby-item-1", storage.WatchlistUpdate{
		Status: storage.WatchlistStateCompleted,
	}))
	err = store.UpdateWatchlistItem(ctx, "emby-item-1", storage.WatchlistUpdate{
		Status: storage.WatchlistStatePaused,
	})
	assert.Error(t, err)

	require.NoError(t, store.SetWatchlistForceEnded(ctx, "emby-item-1", true))
	got, err = store.GetWatchlistItem(ctx, "emby-item-1")
	require.NoError(t, err)
	assert.True(t, got.ForceEnded)

	require.NoError(t, store.RemoveFromWatchlist(ctx, "emby-item-1"))
	_, err = store.GetWatchlistItem(ctx, "emby-item-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_ActorSubscriptions(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	id, err := store.CreateActorSubscription(ctx, model.ActorSubscriptions{
		TmdbPersonID:     1337,
		ActorName:        "Tony Leung",
		ConfigStartYear:  1990,
		ConfigMediaTypes: "Movie,TV",
		ConfigMinRating:  6.5,
		Status:           "active",
	})
	require.NoError(t, err)

	diff := storage.TrackedMediaDiff{
		Insert: []model.TrackedActorMedia{
			{TmdbMediaID: 843, MediaType: "Movie", Title: "In the Mood for Love", Status: string(storage.MediaStatusMissing)},
			{TmdbMediaID: 10997, MediaType: "Movie", Title: "Chungking Express", Status: string(storage.MediaStatusInLibrary)},
		},
	}
	require.NoError(t, store.ApplyTrackedMediaDiff(ctx, id, diff))

	tracked, err := store.ListTrackedActorMedia(ctx, id)
	require.NoError(t, err)
	assert.Len(t, tracked, 2)

	// one update, one delete
	require.NoError(t, store.ApplyTrackedMediaDiff(ctx, id, storage.TrackedMediaDiff{
		Update: []model.TrackedActorMedia{
			{TmdbMediaID: 843, Title: "In the Mood for Love", Status: string(storage.MediaStatusSubscribed)},
		},
		Delete: []int32{10997},
	}))

	tracked, err = store.ListTrackedActorMedia(ctx, id)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, string(storage.MediaStatusSubscribed), tracked[0].Status)

	// deleting the subscription cascades to tracked media
	require.NoError(t, store.DeleteActorSubscription(ctx, id))
	tracked, err = store.ListTrackedActorMedia(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tracked)
}

func TestSQLite_Logs(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	score := 7.5
	require.NoError(t, store.SaveFailed(ctx, model.FailedLog{
		ItemID:   "item-1",
		ItemName: strPtr("Old Boy"),
		Reason:   strPtr("no tmdb match"),
		Score:    &score,
	}))

	failed, err := store.GetFailed(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "no tmdb match", *failed.Reason)

	require.NoError(t, store.MoveFailedToProcessed(ctx, "item-1", nil))

	_, err = store.GetFailed(ctx, "item-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := store.ListFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLite_Jobs(t *testing.T) {
	t.Run("duplicate pending rejected", func(t *testing.T) {
		ctx := context.Background()
		store := initTestDB(t)

		job := storage.Job{Job: model.Job{Type: "collections-reconcile"}}
		id, err := store.CreateJob(ctx, job, storage.JobStatePending)
		require.NoError(t, err)
		require.NotZero(t, id)

		_, err = store.CreateJob(ctx, job, storage.JobStatePending)
		assert.ErrorIs(t, err, storage.ErrJobAlreadyPending)
	})

	t.Run("progress and state lifecycle", func(t *testing.T) {
		ctx := context.Background()
		store := initTestDB(t)

		payload := `{"collectionID":3}`
		job := storage.Job{Job: model.Job{Type: "collection-sync", Payload: &payload}}
		id, err := store.CreateJob(ctx, job, storage.JobStatePending)
		require.NoError(t, err)

		require.NoError(t, store.UpdateJobState(ctx, id, storage.JobStateRunning, nil))
		require.NoError(t, store.UpdateJobProgress(ctx, id, 40, "resolving list items"))

		got, err := store.GetJob(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, storage.JobStateRunning, got.State)
		assert.Equal(t, int32(40), got.Progress)
		assert.Equal(t, "resolving list items", *got.Message)
		assert.Equal(t, payload, *got.Payload)

		require.NoError(t, store.UpdateJobState(ctx, id, storage.JobStateDone, nil))

		// done is terminal
		err = store.UpdateJobState(ctx, id, storage.JobStateRunning, nil)
		assert.Error(t, err)
	})
}

func TestSQLite_Backup(t *testing.T) {
	ctx := context.Background()
	store := initTestDB(t)

	require.NoError(t, store.SaveTranslation(ctx, "Inception", "盗梦空间", "llm"))
	require.NoError(t, store.UpsertMediaMetadataBatch(ctx, []model.MediaMetadata{
		{TmdbID: "27205", ItemType: "Movie", Title: strPtr("Inception")},
	}))

	doc, err := store.ExportAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, doc.Data["translation_cache"], 1)
	assert.Len(t, doc.Data["media_metadata"], 1)

	t.Run("merge keeps manual translations", func(t *testing.T) {
		target := initTestDB(t)
		require.NoError(t, target.SaveTranslation(ctx, "Inception", "盗梦空间（手工）", "manual"))

		require.NoError(t, target.ImportAll(ctx, doc, storage.ImportModeMerge))

		got, err := target.GetTranslation(ctx, "Inception")
		require.NoError(t, err)
		// incoming llm translation must not clobber the manual one
		assert.Equal(t, "盗梦空间（手工）", *got.TranslatedText)
	})

	t.Run("overwrite replaces everything", func(t *testing.T) {
		target := initTestDB(t)
		require.NoError(t, target.SaveTranslation(ctx, "Memento", "记忆碎片", "manual"))

		// burn a few autoincrement ids so the reset is observable
		for i := 0; i < 3; i++ {
			_, err := target.CreateCustomCollection(ctx, model.CustomCollections{
				Name:           fmt.Sprintf("Old %d", i),
				Type:           "filter",
				DefinitionJSON: `{"logic":"AND","rules":[]}`,
				Status:         "active",
			})
			require.NoError(t, err)
		}

		require.NoError(t, target.ImportAll(ctx, doc, storage.ImportModeOverwrite))

		_, err := target.GetTranslation(ctx, "Memento")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		got, err := target.GetTranslation(ctx, "Inception")
		require.NoError(t, err)
		assert.Equal(t, "盗梦空间", *got.TranslatedText)

		// truncated tables restart their ids from one
		id, err := target.CreateCustomCollection(ctx, model.CustomCollections{
			Name:           "Fresh",
			Type:           "filter",
			DefinitionJSON: `{"logic":"AND","rules":[]}`,
			Status:         "active",
		})
		require.NoError(t, err)
		assert.Equal(t, int32(1), id)
	})

	t.Run("unknown table rejected", func(t *testing.T) {
		_, err := store.ExportAll(ctx, []string{"sqlite_master"})
		assert.Error(t, err)
	})
}
