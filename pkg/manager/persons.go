package manager

import (
	"context"
	"fmt"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/dustin/go-humanize"
)

const (
	personPageSize      = 200
	aliasCooldownDays   = 30
	aliasBatchPerNumber = 30
)

// SyncPersonMap pages through the server's Persons and merges each into the
// identity map.
func (m MediaManager) SyncPersonMap(ctx context.Context, jobID int64) error {
	log := logger.FromCtx(ctx)

	start := 0
	merged := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		persons, total, err := m.emby.GetPersons(ctx, start, personPageSize)
		if err != nil {
			return fmt.Errorf("failed to page persons: %w", err)
		}
		if len(persons) == 0 {
			break
		}

		for _, person := range persons {
			ids := storage.PersonIDs{
				Name:         person.Name,
				EmbyPersonID: person.ID,
			}
			if tmdbID := person.TmdbID(); tmdbID != "" {
				if parsed, err := parseInt32(tmdbID); err == nil {
					ids.TmdbPersonID = parsed
				}
			}
			if imdbID := person.ImdbID(); imdbID != "" {
				ids.ImdbID = imdbID
			}

			if _, err := m.storage.UpsertPerson(ctx, ids); err != nil {
				log.Warnw("failed to merge person", "name", person.Name, "error", err)
				continue
			}
			merged++
		}

		start += len(persons)
		if total > 0 {
			percent := int32(float64(start) / float64(total) * 100)
			m.progress(ctx, jobID, percent, fmt.Sprintf("merged %s of %s persons",
				humanize.Comma(int64(start)), humanize.Comma(int64(total))))
		}
		if total > 0 && start >= total {
			break
		}
	}

	m.progress(ctx, jobID, 100, fmt.Sprintf("merged %s persons", humanize.Comma(int64(merged))))
	return nil
}

// EnrichPersonAliases tops up identity-map rows that have a TMDb person id
// but stale alias data, pulling imdb ids from TMDb person details.
func (m MediaManager) EnrichPersonAliases(ctx context.Context, jobID int64) error {
	log := logger.FromCtx(ctx)

	rows, err := m.storage.ListPersonsForEnrichment(ctx, aliasCooldownDays)
	if err != nil {
		return fmt.Errorf("failed to list persons for enrichment: %w", err)
	}
	if len(rows) > aliasBatchPerNumber {
		rows = rows[:aliasBatchPerNumber]
	}

	enriched := 0
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		details, err := m.tmdb.GetPersonDetails(ctx, int(*row.TmdbPersonID))
		if err != nil {
			log.Warnw("failed to fetch person details",
				"tmdb_person_id", *row.TmdbPersonID, "error", err)
			continue
		}

		imdbID := details.ImdbID
		if imdbID == "" && row.ImdbID != nil {
			imdbID = *row.ImdbID
		}
		if err := m.storage.UpdatePersonImdbID(ctx, row.MapID, imdbID); err != nil {
			log.Warnw("failed to update person imdb id", "map_id", row.MapID, "error", err)
			continue
		}
		enriched++

		percent := int32(float64(i+1) / float64(len(rows)) * 100)
		m.progress(ctx, jobID, percent, fmt.Sprintf("enriched %s of %s persons",
			humanize.Comma(int64(i+1)), humanize.Comma(int64(len(rows)))))
	}

	m.progress(ctx, jobID, 100, fmt.Sprintf("enriched %s persons", humanize.Comma(int64(enriched))))
	return nil
}
