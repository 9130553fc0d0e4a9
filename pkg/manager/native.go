package manager

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/collectarr/collectarr/pkg/emby"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/dustin/go-humanize"
)

// RefreshNativeCollections mirrors the server's box sets into collections_info
// and, for box sets that map to a TMDb franchise, records which parts are
// still missing from the library.
func (m MediaManager) RefreshNativeCollections(ctx context.Context, jobID int64) error {
	log := logger.FromCtx(ctx)

	m.progress(ctx, jobID, 0, "listing box sets")

	boxsets, err := m.emby.ListBoxSets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list box sets: %w", err)
	}

	ids := make([]string, 0, len(boxsets))
	for _, boxset := range boxsets {
		ids = append(ids, boxset.ID)
	}
	deleted, err := m.storage.DeleteNativeCollectionsNotIn(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to prune stale native collections: %w", err)
	}
	if deleted > 0 {
		log.Infow("pruned stale native collections", "count", deleted)
	}

	var failed int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, detailWorkers)
	var done int64

	for _, boxset := range boxsets {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(boxset emby.Item) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := m.refreshNativeCollection(ctx, boxset); err != nil {
				log.Errorw("native collection refresh failed", "collection", boxset.Name, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}

			mu.Lock()
			done++
			percent := int32(float64(done) / float64(len(boxsets)) * 100)
			mu.Unlock()
			m.progress(ctx, jobID, percent, fmt.Sprintf("refreshed %q", boxset.Name))
		}(boxset)
	}
	wg.Wait()

	m.progress(ctx, jobID, 100, fmt.Sprintf("refreshed %s box sets, %s failed",
		humanize.Comma(int64(len(boxsets))-failed), humanize.Comma(failed)))
	return nil
}

// refreshNativeCollection reconciles one box set. Box sets without a TMDb
// franchise id get a shadow row with just the member count; franchise-mapped
// ones additionally get a parts snapshot.
func (m MediaManager) refreshNativeCollection(ctx context.Context, boxset emby.Item) error {
	members, err := m.emby.GetCollectionItems(ctx, boxset.ID)
	if err != nil {
		return fmt.Errorf("failed to list members of %q: %w", boxset.Name, err)
	}

	inLibrary := make(map[string]struct{}, len(members))
	for _, member := range members {
		if tmdbID := member.TmdbID(); tmdbID != "" && member.Type == "Movie" {
			inLibrary[tmdbID] = struct{}{}
		}
	}

	name := boxset.Name
	info := model.CollectionsInfo{
		EmbyCollectionID: boxset.ID,
		Name:             &name,
		ItemType:         "Movie",
		InLibraryCount:   int32(len(inLibrary)),
	}

	franchiseID := boxset.TmdbID()
	if franchiseID == "" {
		// no franchise mapping, just track membership
		status := "ok"
		info.Status = &status
		hasMissing := false
		info.HasMissing = &hasMissing
		now := time.Now().UTC()
		info.LastCheckedAt = &now
		return m.storage.UpsertNativeCollection(ctx, info)
	}
	info.TmdbCollectionID = &franchiseID

	id, err := strconv.Atoi(franchiseID)
	if err != nil {
		return fmt.Errorf("box set %q has bad tmdb collection id %q", boxset.Name, franchiseID)
	}

	details, err := m.tmdb.GetCollectionDetails(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch franchise %s: %w", franchiseID, err)
	}
	if details.PosterPath != "" {
		poster := details.PosterPath
		info.PosterPath = &poster
	}

	previous := previousNativeStatuses(ctx, m.storage, boxset.ID)

	now := today()
	snapshot := make([]storage.SnapshotItem, 0, len(details.Parts))
	for _, part := range details.Parts {
		if part.MediaType != "" && part.MediaType != "movie" {
			continue
		}

		tmdbID := strconv.Itoa(part.ID)
		item := storage.SnapshotItem{
			TmdbID:      tmdbID,
			ItemType:    "Movie",
			Title:       part.Title,
			ReleaseDate: part.ReleaseDate,
			PosterPath:  part.PosterPath,
		}
		item.Status = classifyNativeStatus(tmdbID, inLibrary, previous, part.ReleaseDate, now)
		snapshot = append(snapshot, item)
	}

	_, missing, status := snapshotCounts(snapshot)
	hasMissing := missing > 0
	info.Status = &status
	info.HasMissing = &hasMissing
	checked := time.Now().UTC()
	info.LastCheckedAt = &checked

	if err := m.storage.UpsertNativeCollection(ctx, info); err != nil {
		return err
	}
	return m.storage.UpdateNativeCollectionSnapshot(ctx, boxset.ID, status, snapshot)
}

// classifyNativeStatus is classifyStatus with the franchise rule: parts
// without a release date keep whatever status the previous snapshot carried.
func classifyNativeStatus(tmdbID string, inLibrary map[string]struct{}, previous map[string]storage.MediaStatus, releaseDate string, today time.Time) storage.MediaStatus {
	if releaseDate == "" {
		if _, ok := inLibrary[tmdbID]; ok {
			return storage.MediaStatusInLibrary
		}
		if prev, ok := previous[tmdbID]; ok {
			return prev
		}
		return storage.MediaStatusMissing
	}
	return classifyStatus(tmdbID, inLibrary, previous, releaseDate, today)
}

// previousNativeStatuses loads the previous parts snapshot of a box set. A
// missing or malformed snapshot yields an empty map.
func previousNativeStatuses(ctx context.Context, store storage.Storage, embyCollectionID string) map[string]storage.MediaStatus {
	statuses := make(map[string]storage.MediaStatus)

	row, err := store.GetNativeCollection(ctx, embyCollectionID)
	if err != nil || row.MissingMoviesJSON == nil {
		return statuses
	}

	items, err := unmarshalSnapshotItems(*row.MissingMoviesJSON)
	if err != nil {
		return statuses
	}
	for _, item := range items {
		statuses[item.TmdbID] = item.Status
	}
	return statuses
}
