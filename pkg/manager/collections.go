package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/collectarr/collectarr/pkg/filter"
	"github.com/collectarr/collectarr/pkg/lists"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/dustin/go-humanize"
	"github.com/go-jet/jet/v2/sqlite"
)

// SyncAllCustomCollections runs one reconcile pass over every active custom
// collection. Per-collection failures are logged and the pass continues.
func (m MediaManager) SyncAllCustomCollections(ctx context.Context, jobID int64) error {
	log := logger.FromCtx(ctx)

	collections, err := m.storage.ListCustomCollections(ctx,
		table.CustomCollections.Status.EQ(sqlite.String("active")))
	if err != nil {
		return fmt.Errorf("failed to list custom collections: %w", err)
	}

	failed := 0
	for i, collection := range collections {
		if err := ctx.Err(); err != nil {
			return err
		}

		percent := int32(float64(i) / float64(len(collections)) * 100)
		m.progress(ctx, jobID, percent, fmt.Sprintf("reconciling %q", collection.Name))

		if err := m.syncCustomCollection(ctx, collection); err != nil {
			log.Errorw("collection reconcile failed",
				"collection", collection.Name, "error", err)
			failed++
		}
	}

	m.progress(ctx, jobID, 100, fmt.Sprintf("reconciled %s collections, %s failed",
		humanize.Comma(int64(len(collections)-failed)), humanize.Comma(int64(failed))))
	return nil
}

// SyncCustomCollection reconciles a single collection by id, regardless of
// its paused state.
func (m MediaManager) SyncCustomCollection(ctx context.Context, id int32) error {
	collection, err := m.storage.GetCustomCollection(ctx, id)
	if err != nil {
		return err
	}
	return m.syncCustomCollection(ctx, collection)
}

// syncCustomCollection is one reconcile pass: generate candidates, mirror
// them into the backing Emby collection, classify every candidate, and
// persist the new snapshot atomically.
func (m MediaManager) syncCustomCollection(ctx context.Context, collection *model.CustomCollections) error {
	log := logger.FromCtx(ctx)

	candidates, itemTypes, err := m.generateCandidates(ctx, collection)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		log.Warnw("collection generated no candidates", "collection", collection.Name)
		return m.storage.UpdateCustomCollectionAfterSync(ctx, collection.ID, storage.CollectionSyncResult{
			ItemTypes:    itemTypes,
			HealthStatus: "ok",
			Snapshot:     []storage.SnapshotItem{},
		})
	}

	tmdbIDs := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		tmdbIDs = append(tmdbIDs, candidate.TmdbID)
	}

	collectionID, presentIDs, err := m.emby.CreateOrUpdateCollection(ctx, collection.Name, tmdbIDs)
	if err != nil {
		return fmt.Errorf("failed to sync emby collection %q: %w", collection.Name, err)
	}

	inLibrary := make(map[string]struct{}, len(presentIDs))
	for _, id := range presentIDs {
		inLibrary[id] = struct{}{}
	}

	previous := previousStatuses(collection.GeneratedMediaInfoJSON)
	details := m.fetchCandidateDetails(ctx, candidates)

	now := today()
	snapshot := make([]storage.SnapshotItem, 0, len(candidates))
	for _, candidate := range candidates {
		item := details[candidateKey(candidate)]
		item.TmdbID = candidate.TmdbID
		item.ItemType = candidate.ItemType
		item.Status = classifyStatus(candidate.TmdbID, inLibrary, previous, item.ReleaseDate, now)
		snapshot = append(snapshot, item)
	}

	inLibraryCount, missingCount, health := snapshotCounts(snapshot)

	var embyCollectionID *string
	if collectionID != "" {
		embyCollectionID = &collectionID
	}

	return m.storage.UpdateCustomCollectionAfterSync(ctx, collection.ID, storage.CollectionSyncResult{
		EmbyCollectionID: embyCollectionID,
		ItemTypes:        itemTypes,
		HealthStatus:     health,
		InLibraryCount:   inLibraryCount,
		MissingCount:     missingCount,
		Snapshot:         snapshot,
	})
}

// generateCandidates produces the candidate TMDb items for a collection from
// its definition.
func (m MediaManager) generateCandidates(ctx context.Context, collection *model.CustomCollections) ([]lists.MediaRef, []string, error) {
	switch collection.Type {
	case "filter":
		def, err := filter.ParseDefinition(collection.DefinitionJSON)
		if err != nil {
			return nil, nil, err
		}
		refs, err := m.filterCandidates(ctx, def)
		return refs, def.ItemTypes, err

	case "list":
		def, err := lists.ParseDefinition(collection.DefinitionJSON)
		if err != nil {
			return nil, nil, err
		}
		return m.lists.Resolve(ctx, def), def.ItemTypes, nil
	}

	return nil, nil, fmt.Errorf("unknown collection type %q", collection.Type)
}

// filterCandidates evaluates the rule tree over every cached metadata row of
// the declared item types.
func (m MediaManager) filterCandidates(ctx context.Context, def filter.Definition) ([]lists.MediaRef, error) {
	now := today()

	var refs []lists.MediaRef
	for _, itemType := range def.ItemTypes {
		rows, err := m.storage.ListMediaMetadata(ctx, itemType)
		if err != nil {
			return nil, fmt.Errorf("failed to list metadata for %s: %w", itemType, err)
		}
		for _, row := range rows {
			if filter.Evaluate(def, mediaView(row), now) {
				refs = append(refs, lists.MediaRef{TmdbID: row.TmdbID, ItemType: itemType})
			}
		}
	}
	return refs, nil
}

func candidateKey(ref lists.MediaRef) string {
	return ref.ItemType + "-" + ref.TmdbID
}

// fetchCandidateDetails pulls title, release date and poster for every
// candidate with a bounded TMDb fanout. Candidates whose fetch fails fall
// back to the local metadata cache when present.
func (m MediaManager) fetchCandidateDetails(ctx context.Context, candidates []lists.MediaRef) map[string]storage.SnapshotItem {
	log := logger.FromCtx(ctx)

	details := make(map[string]storage.SnapshotItem, len(candidates))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, detailWorkers)

	for _, candidate := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(candidate lists.MediaRef) {
			defer wg.Done()
			defer func() { <-sem }()

			item, err := m.candidateDetail(ctx, candidate)
			if err != nil {
				log.Debugw("candidate detail fetch failed",
					"tmdb_id", candidate.TmdbID, "error", err)
				item = m.localDetail(ctx, candidate)
			}

			mu.Lock()
			details[candidateKey(candidate)] = item
			mu.Unlock()
		}(candidate)
	}
	wg.Wait()

	return details
}

func (m MediaManager) candidateDetail(ctx context.Context, candidate lists.MediaRef) (storage.SnapshotItem, error) {
	id, err := strconv.Atoi(candidate.TmdbID)
	if err != nil {
		return storage.SnapshotItem{}, fmt.Errorf("bad tmdb id %q", candidate.TmdbID)
	}

	switch candidate.ItemType {
	case "Movie":
		details, err := m.tmdb.GetMovieDetails(ctx, id)
		if err != nil {
			return storage.SnapshotItem{}, err
		}
		return storage.SnapshotItem{
			Title:       details.Title,
			ReleaseDate: details.ReleaseDate,
			PosterPath:  details.PosterPath,
		}, nil

	case "Series":
		details, err := m.tmdb.GetTVDetails(ctx, id)
		if err != nil {
			return storage.SnapshotItem{}, err
		}
		return storage.SnapshotItem{
			Title:       details.Name,
			ReleaseDate: details.FirstAirDate,
			PosterPath:  details.PosterPath,
		}, nil
	}

	return storage.SnapshotItem{}, fmt.Errorf("unknown item type %q", candidate.ItemType)
}

func (m MediaManager) localDetail(ctx context.Context, candidate lists.MediaRef) storage.SnapshotItem {
	row, err := m.storage.GetMediaMetadata(ctx, candidate.TmdbID, candidate.ItemType)
	if err != nil {
		return storage.SnapshotItem{}
	}

	item := storage.SnapshotItem{}
	if row.Title != nil {
		item.Title = *row.Title
	}
	if row.ReleaseDate != nil {
		item.ReleaseDate = row.ReleaseDate.Format(dateFormat)
	}
	return item
}

// previousStatuses indexes the previous snapshot by TMDb id for the sticky
// SUBSCRIBED rule.
func previousStatuses(raw *string) map[string]storage.MediaStatus {
	statuses := make(map[string]storage.MediaStatus)
	if raw == nil || *raw == "" {
		return statuses
	}

	items, err := unmarshalSnapshotItems(*raw)
	if err != nil {
		return statuses
	}
	for _, item := range items {
		statuses[item.TmdbID] = item.Status
	}
	return statuses
}

func snapshotCounts(items []storage.SnapshotItem) (inLibrary, missing int32, health string) {
	for _, item := range items {
		switch item.Status {
		case storage.MediaStatusInLibrary:
			inLibrary++
		case storage.MediaStatusMissing:
			missing++
		}
	}
	health = "ok"
	if missing > 0 {
		health = "has_missing"
	}
	return inLibrary, missing, health
}

// DeleteCustomCollection removes a collection, deleting the backing Emby
// collection best-effort first.
func (m MediaManager) DeleteCustomCollection(ctx context.Context, id int32) error {
	log := logger.FromCtx(ctx)

	collection, err := m.storage.GetCustomCollection(ctx, id)
	if err != nil {
		return err
	}

	if collection.EmbyCollectionID != nil && *collection.EmbyCollectionID != "" {
		if err := m.emby.DeleteItem(ctx, *collection.EmbyCollectionID); err != nil {
			log.Warnw("failed to delete emby collection, removing local row anyway",
				"collection", collection.Name, "error", err)
		}
	}

	return m.storage.DeleteCustomCollection(ctx, id)
}

// unmarshalSnapshotItems decodes a stored snapshot blob.
func unmarshalSnapshotItems(raw string) ([]storage.SnapshotItem, error) {
	var items []storage.SnapshotItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListCustomCollections exposes the stored collections with their health for
// the HTTP layer.
func (m MediaManager) ListCustomCollections(ctx context.Context) ([]*model.CustomCollections, error) {
	return m.storage.ListCustomCollections(ctx)
}
