package manager

import (
	"context"
	"testing"

	"github.com/collectarr/collectarr/pkg/emby"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessNewItem_FlipsListSnapshotAndAppends(t *testing.T) {
	ctx := context.Background()

	item := movieItem("e9", "900", "New Arrival")
	f := &fakeEmby{
		itemsByID:    map[string]emby.Item{"e9": item},
		libraryItems: []emby.Item{item},
	}

	m, store := newTestManager(t, f, &fakeTmdb{}, nil, nil)

	collectionID := "boxset-existing"
	id, err := store.CreateCustomCollection(ctx, model.CustomCollections{
		Name:           "Arrivals",
		Type:           "list",
		DefinitionJSON: `{"item_type":["Movie"],"url":"https://example.com/feed"}`,
		Status:         "active",
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateCustomCollectionAfterSync(ctx, id, storage.CollectionSyncResult{
		EmbyCollectionID: &collectionID,
		ItemTypes:        []string{"Movie"},
		HealthStatus:     "has_missing",
		MissingCount:     1,
		Snapshot: []storage.SnapshotItem{
			{TmdbID: "900", ItemType: "Movie", Title: "New Arrival", ReleaseDate: "2024-05-01", Status: storage.MediaStatusMissing},
		},
	}))

	require.NoError(t, m.ProcessNewItem(ctx, "e9"))

	// the snapshot flips to IN_LIBRARY and health recovers
	collection, items := loadSnapshot(t, store, id)
	require.Len(t, items, 1)
	assert.Equal(t, storage.MediaStatusInLibrary, items[0].Status)
	require.NotNil(t, collection.HealthStatus)
	assert.Equal(t, "ok", *collection.HealthStatus)
	assert.Equal(t, int32(0), collection.MissingCount)

	// and the item lands in the Emby collection
	assert.Contains(t, f.appended, [2]string{collectionID, "e9"})

	// the metadata cache now has the row
	row, err := store.GetMediaMetadata(ctx, "900", "Movie")
	require.NoError(t, err)
	assert.Equal(t, "New Arrival", *row.Title)
}

func TestProcessNewItem_MatchesFilterCollections(t *testing.T) {
	ctx := context.Background()

	item := movieItem("e1", "100", "Heat")
	f := &fakeEmby{
		itemsByID:    map[string]emby.Item{"e1": item},
		libraryItems: []emby.Item{item},
	}

	m, store := newTestManager(t, f, &fakeTmdb{}, nil, nil)

	// the row must exist before evaluation; ProcessNewItem upserts it first
	backing := "boxset-filter"
	id, err := store.CreateCustomCollection(ctx, model.CustomCollections{
		Name:           "All Movies",
		Type:           "filter",
		DefinitionJSON: `{"item_type":["Movie"],"logic":"AND","rules":[]}`,
		Status:         "active",
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateCustomCollectionAfterSync(ctx, id, storage.CollectionSyncResult{
		EmbyCollectionID: &backing,
		ItemTypes:        []string{"Movie"},
		HealthStatus:     "ok",
	}))

	require.NoError(t, m.ProcessNewItem(ctx, "e1"))

	assert.Contains(t, f.appended, [2]string{backing, "e1"})
}

func TestProcessNewItem_SkipsFilterCollectionsWithoutBacking(t *testing.T) {
	ctx := context.Background()

	item := movieItem("e1", "100", "Heat")
	f := &fakeEmby{
		itemsByID:    map[string]emby.Item{"e1": item},
		libraryItems: []emby.Item{item},
	}

	m, store := newTestManager(t, f, &fakeTmdb{}, nil, nil)

	_, err := store.CreateCustomCollection(ctx, model.CustomCollections{
		Name:           "Never Synced",
		Type:           "filter",
		DefinitionJSON: `{"item_type":["Movie"],"logic":"AND","rules":[]}`,
		Status:         "active",
	})
	require.NoError(t, err)

	require.NoError(t, m.ProcessNewItem(ctx, "e1"))

	assert.Empty(t, f.appended)
}
