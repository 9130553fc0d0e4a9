package manager

import (
	"context"
	"fmt"

	"github.com/collectarr/collectarr/pkg/emby"
	"github.com/collectarr/collectarr/pkg/filter"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

// ProcessNewItem propagates one "item added" event: refresh the metadata
// cache, evaluate the item against filter collections, and flip matching
// list-collection snapshots. DB transitions commit before any Emby append so
// a failed append self-heals on the next reconcile.
func (m MediaManager) ProcessNewItem(ctx context.Context, itemID string) error {
	log := logger.FromCtx(ctx)

	item, err := m.emby.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}

	if err := m.CheckAndAddToWatchlist(ctx, item); err != nil {
		log.Warnw("watchlist check failed", "item_id", itemID, "error", err)
	}

	if err := m.ProcessSingleItem(ctx, item); err != nil {
		return fmt.Errorf("failed to index item %s: %w", itemID, err)
	}

	tmdbID := item.TmdbID()
	if tmdbID == "" {
		log.Debugw("item has no tmdb id, skipping collection propagation", "item_id", itemID)
		return nil
	}

	matches, err := m.FindMatchingCollections(ctx, item)
	if err != nil {
		return err
	}
	for _, collection := range matches {
		if err := m.emby.AppendItemToCollection(ctx, *collection.EmbyCollectionID, item.ID); err != nil {
			log.Warnw("failed to append item to collection",
				"collection", collection.Name, "item_id", itemID, "error", err)
		}
	}

	affected, err := m.storage.MatchAndUpdateListCollectionsOnItemAdd(ctx, tmdbID, item.Name)
	if err != nil {
		return fmt.Errorf("failed to flip list snapshots: %w", err)
	}
	for _, collection := range affected {
		if collection.EmbyCollectionID == "" {
			continue
		}
		if err := m.emby.AppendItemToCollection(ctx, collection.EmbyCollectionID, item.ID); err != nil {
			log.Warnw("failed to append item to collection",
				"collection", collection.Name, "item_id", itemID, "error", err)
		}
	}

	// cover regeneration for the parent library is left to the server
	log.Infow("webhook propagation complete", "item_id", itemID,
		"filter_matches", len(matches), "list_flips", len(affected))
	return nil
}

// FindMatchingCollections evaluates a library item against every active
// filter collection that already has a backing Emby collection.
func (m MediaManager) FindMatchingCollections(ctx context.Context, item *emby.Item) ([]*model.CustomCollections, error) {
	log := logger.FromCtx(ctx)

	collections, err := m.storage.ListCustomCollections(ctx,
		table.CustomCollections.Status.EQ(sqlite.String("active")).
			AND(table.CustomCollections.Type.EQ(sqlite.String("filter"))))
	if err != nil {
		return nil, fmt.Errorf("failed to list filter collections: %w", err)
	}

	row, err := m.storage.GetMediaMetadata(ctx, item.TmdbID(), item.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to load item metadata: %w", err)
	}
	view := mediaView(row)

	now := today()
	var matches []*model.CustomCollections
	for _, collection := range collections {
		if collection.EmbyCollectionID == nil || *collection.EmbyCollectionID == "" {
			continue
		}

		def, err := filter.ParseDefinition(collection.DefinitionJSON)
		if err != nil {
			log.Warnw("skipping collection with malformed definition",
				"collection", collection.Name, "error", err)
			continue
		}
		if !def.HasItemType(item.Type) {
			continue
		}
		if filter.Evaluate(def, view, now) {
			matches = append(matches, collection)
		}
	}
	return matches, nil
}
