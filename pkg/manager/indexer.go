package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/collectarr/collectarr/pkg/emby"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/tmdb"
	"github.com/dustin/go-humanize"
)

const (
	defaultIndexBatchSize = 50
	deleteChunkSize       = 500
)

// IndexLibrary reconciles media_metadata against the server. Deep mode
// re-enriches every common item; quick mode only touches items the server
// reports as modified since the last sync.
func (m MediaManager) IndexLibrary(ctx context.Context, jobID int64, deep bool) error {
	log := logger.FromCtx(ctx)

	m.progress(ctx, jobID, 0, "fetching library items")

	items, err := m.emby.GetLibraryItems(ctx, m.libraryIDs, "Movie,Series", emby.IndexFields)
	if err != nil {
		return fmt.Errorf("failed to list library items: %w", err)
	}

	embyByKey := make(map[storage.MediaKey]emby.Item, len(items))
	for _, item := range items {
		tmdbID := item.TmdbID()
		if tmdbID == "" {
			continue
		}
		embyByKey[storage.MediaKey{TmdbID: tmdbID, ItemType: item.Type}] = item
	}

	dbRows, err := m.storage.ListMediaSyncInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached media: %w", err)
	}
	dbByKey := make(map[storage.MediaKey]*storage.MediaSyncInfo, len(dbRows))
	for _, row := range dbRows {
		dbByKey[storage.MediaKey{TmdbID: row.TmdbID, ItemType: row.ItemType}] = row
	}

	var toDelete []storage.MediaKey
	for key := range dbByKey {
		if _, ok := embyByKey[key]; !ok {
			toDelete = append(toDelete, key)
		}
	}

	var toWrite []emby.Item
	for key, item := range embyByKey {
		row, exists := dbByKey[key]
		if !exists {
			toWrite = append(toWrite, item)
			continue
		}
		if deep || needsUpdate(item, row) {
			toWrite = append(toWrite, item)
		}
	}

	log.Infow("library diff computed",
		"server_items", len(embyByKey),
		"cached_items", len(dbByKey),
		"to_write", len(toWrite),
		"to_delete", len(toDelete))

	for start := 0; start < len(toDelete); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(toDelete) {
			end = len(toDelete)
		}
		if err := m.storage.DeleteMediaMetadataByTmdbIDs(ctx, toDelete[start:end]); err != nil {
			return fmt.Errorf("failed to delete stale media: %w", err)
		}
	}

	batchSize := m.config.IndexBatchSize
	if batchSize <= 0 {
		batchSize = defaultIndexBatchSize
	}

	written := 0
	for start := 0; start < len(toWrite); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + batchSize
		if end > len(toWrite) {
			end = len(toWrite)
		}

		batch := m.enrichBatch(ctx, toWrite[start:end])
		if len(batch) > 0 {
			if err := m.storage.UpsertMediaMetadataBatch(ctx, batch); err != nil {
				return fmt.Errorf("failed to write metadata batch: %w", err)
			}
		}

		written += end - start
		percent := int32(float64(written) / float64(len(toWrite)) * 100)
		m.progress(ctx, jobID, percent, fmt.Sprintf("indexed %s of %s items",
			humanize.Comma(int64(written)), humanize.Comma(int64(len(toWrite)))))
	}

	m.progress(ctx, jobID, 100, fmt.Sprintf("indexed %s items, removed %s",
		humanize.Comma(int64(len(toWrite))), humanize.Comma(int64(len(toDelete)))))
	return nil
}

// needsUpdate compares the server's modification stamp against the cached
// sync time. Unparseable or missing stamps update conservatively.
func needsUpdate(item emby.Item, row *storage.MediaSyncInfo) bool {
	if row.LastSyncedAt == nil || item.DateModified == "" {
		return true
	}
	modified, err := parseEmbyTime(item.DateModified)
	if err != nil {
		return true
	}
	return modified.After(*row.LastSyncedAt)
}

// parseEmbyTime handles the server's ISO timestamps, with or without
// sub-second precision.
func parseEmbyTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// enrichBatch resolves persons and TMDb details for one batch of items
// concurrently. Items whose enrichment fails are indexed with the server-side
// fields only.
func (m MediaManager) enrichBatch(ctx context.Context, items []emby.Item) []model.MediaMetadata {
	results := make([]*model.MediaMetadata, len(items))

	var wg sync.WaitGroup
	sem := make(chan struct{}, detailWorkers)
	for idx, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, item emby.Item) {
			defer wg.Done()
			defer func() { <-sem }()

			meta := m.buildMetadata(ctx, item)
			results[idx] = &meta
		}(idx, item)
	}
	wg.Wait()

	batch := make([]model.MediaMetadata, 0, len(results))
	for _, meta := range results {
		if meta != nil {
			batch = append(batch, *meta)
		}
	}
	return batch
}

// buildMetadata assembles one media_metadata row from the server item plus
// TMDb details.
func (m MediaManager) buildMetadata(ctx context.Context, item emby.Item) model.MediaMetadata {
	log := logger.FromCtx(ctx)

	meta := model.MediaMetadata{
		TmdbID:   item.TmdbID(),
		ItemType: item.Type,
	}

	title := item.Name
	meta.Title = &title
	if item.OriginalTitle != "" {
		original := item.OriginalTitle
		meta.OriginalTitle = &original
	}
	if item.ProductionYear > 0 {
		year := int32(item.ProductionYear)
		meta.ReleaseYear = &year
	}
	if item.CommunityRating > 0 {
		rating := item.CommunityRating
		meta.Rating = &rating
	}
	if premiere, err := parseEmbyTime(item.PremiereDate); err == nil {
		meta.ReleaseDate = &premiere
	}
	if created, err := parseEmbyTime(item.DateCreated); err == nil {
		meta.DateAdded = &created
	}

	meta.GenresJSON = encodeStrings(item.Genres)
	meta.TagsJSON = encodeStrings(item.Tags)

	studios := make([]string, 0, len(item.Studios))
	for _, studio := range item.Studios {
		studios = append(studios, studio.Name)
	}
	meta.StudiosJSON = encodeStrings(studios)

	meta.ActorsJSON = encodePersons(m.resolveCast(ctx, item))

	directors, countries := m.fetchTmdbEnrichment(ctx, item)
	if len(directors) > 0 {
		meta.DirectorsJSON = encodePersons(directors)
	}
	if len(countries) == 0 {
		countries = item.ProductionLocations
	}
	meta.CountriesJSON = encodeStrings(countries)

	now := time.Now().UTC()
	meta.LastSyncedAt = &now

	log.Debugw("built metadata record", "tmdb_id", meta.TmdbID, "type", meta.ItemType)
	return meta
}

// resolveCast maps the item's cast through the person identity map so every
// actor entry carries its canonical TMDb person id when one is known.
func (m MediaManager) resolveCast(ctx context.Context, item emby.Item) []metaPerson {
	log := logger.FromCtx(ctx)

	cast := make([]metaPerson, 0, len(item.People))
	for _, person := range item.People {
		if person.Type != "Actor" {
			continue
		}

		entry := metaPerson{Name: person.Name}

		_, err := m.storage.UpsertPerson(ctx, storage.PersonIDs{
			Name:         person.Name,
			EmbyPersonID: person.ID,
		})
		if err != nil {
			log.Debugw("failed to resolve cast member", "name", person.Name, "error", err)
			cast = append(cast, entry)
			continue
		}

		if row, err := m.storage.GetPersonByEmbyID(ctx, person.ID); err == nil {
			entry.Name = row.PrimaryName
			if row.TmdbPersonID != nil {
				entry.ID = *row.TmdbPersonID
			}
			if entry.Name != person.Name {
				entry.OriginalName = person.Name
			}
		}

		cast = append(cast, entry)
	}
	return cast
}

// fetchTmdbEnrichment pulls directors and countries from TMDb. Movies use
// crew job=Director and production countries; series fall back to created_by
// when the crew has no director, and use origin countries.
func (m MediaManager) fetchTmdbEnrichment(ctx context.Context, item emby.Item) ([]metaPerson, []string) {
	log := logger.FromCtx(ctx)

	id, err := strconv.Atoi(item.TmdbID())
	if err != nil {
		return nil, nil
	}

	switch item.Type {
	case "Movie":
		details, err := m.tmdb.GetMovieDetails(ctx, id)
		if err != nil {
			log.Debugw("tmdb enrichment failed", "tmdb_id", item.TmdbID(), "error", err)
			return nil, nil
		}
		countries := make([]string, 0, len(details.ProductionCountries))
		for _, country := range details.ProductionCountries {
			countries = append(countries, country.Name)
		}
		return crewDirectors(details.Credits), countries

	case "Series":
		details, err := m.tmdb.GetTVDetails(ctx, id)
		if err != nil {
			log.Debugw("tmdb enrichment failed", "tmdb_id", item.TmdbID(), "error", err)
			return nil, nil
		}
		directors := crewDirectors(details.Credits)
		if len(directors) == 0 {
			for _, creator := range details.CreatedBy {
				directors = append(directors, metaPerson{ID: int32(creator.ID), Name: creator.Name})
			}
		}
		return directors, details.OriginCountry
	}

	return nil, nil
}

func crewDirectors(credits tmdb.Credits) []metaPerson {
	var directors []metaPerson
	for _, crew := range credits.Crew {
		if crew.Job == "Director" {
			directors = append(directors, metaPerson{ID: int32(crew.ID), Name: crew.Name})
		}
	}
	return directors
}

func encodeStrings(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func encodePersons(persons []metaPerson) *string {
	if len(persons) == 0 {
		return nil
	}
	b, err := json.Marshal(persons)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// ProcessSingleItem refreshes the metadata row for one server item, used by
// the webhook path so new arrivals are queryable immediately.
func (m MediaManager) ProcessSingleItem(ctx context.Context, item *emby.Item) error {
	if item.TmdbID() == "" {
		return fmt.Errorf("item %s has no tmdb id", item.ID)
	}
	if item.Type != "Movie" && item.Type != "Series" {
		return fmt.Errorf("item %s has unsupported type %s", item.ID, item.Type)
	}

	meta := m.buildMetadata(ctx, *item)
	return m.storage.UpsertMediaMetadataBatch(ctx, []model.MediaMetadata{meta})
}
