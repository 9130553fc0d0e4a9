package manager

import (
	"context"
	"encoding/json"
	"errors"
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

// pauseHorizon is how far out the next episode must be before a series is
// paused instead of kept in active rotation.
const pauseHorizon = 3 * 24 * time.Hour

// noNextInfoPause is the re-check interval for series TMDb reports no next
// episode for.
const noNextInfoPause = 7 * 24 * time.Hour

// trackedTmdbStatuses are the TMDb series statuses worth watching for new
// episodes.
var trackedTmdbStatuses = map[string]struct{}{
	"Returning Series": {},
	"In Production":    {},
	"Planned":          {},
}

// ProcessWatchlist walks the watchlist and re-evaluates each tracked series
// against TMDb and the server. Full runs additionally prune entries whose
// series left the library.
func (m MediaManager) ProcessWatchlist(ctx context.Context, jobID int64, full bool) error {
	log := logger.FromCtx(ctx)

	if full {
		if err := m.pruneWatchlist(ctx); err != nil {
			return err
		}
	}

	entries, err := m.storage.ListWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("failed to list watchlist: %w", err)
	}

	now := today()
	due := make([]*model.Watchlist, 0, len(entries))
	for _, entry := range entries {
		switch storage.WatchlistState(entry.Status) {
		case storage.WatchlistStateWatching:
			due = append(due, entry)
		case storage.WatchlistStatePaused:
			if entry.PausedUntil == nil || !entry.PausedUntil.After(now) {
				due = append(due, entry)
			}
		}
	}

	log.Infow("watchlist pass", "entries", len(entries), "due", len(due))

	var failed int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, detailWorkers)
	var done int64

	for _, entry := range due {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(entry *model.Watchlist) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := m.processWatchlistEntry(ctx, entry); err != nil {
				log.Errorw("watchlist entry failed", "item_id", entry.ItemID, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}

			mu.Lock()
			done++
			percent := int32(float64(done) / float64(len(due)) * 100)
			mu.Unlock()
			m.progress(ctx, jobID, percent, fmt.Sprintf("checked %s of %s series",
				humanize.Comma(done), humanize.Comma(int64(len(due)))))
		}(entry)
	}
	wg.Wait()

	m.progress(ctx, jobID, 100, fmt.Sprintf("checked %s series, %s failed",
		humanize.Comma(int64(len(due))-failed), humanize.Comma(failed)))
	return nil
}

// pruneWatchlist drops entries whose series no longer exists on the server.
func (m MediaManager) pruneWatchlist(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	entries, err := m.storage.ListWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("failed to list watchlist: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := m.emby.GetItem(ctx, entry.ItemID)
		if err == nil {
			continue
		}
		if !errors.Is(err, emby.ErrNotFound) {
			log.Warnw("liveness check inconclusive, keeping entry", "item_id", entry.ItemID, "error", err)
			continue
		}

		log.Infow("pruning watchlist entry, series left the library", "item_id", entry.ItemID)
		if err := m.storage.RemoveFromWatchlist(ctx, entry.ItemID); err != nil {
			return fmt.Errorf("failed to prune watchlist entry %s: %w", entry.ItemID, err)
		}
	}
	return nil
}

// processWatchlistEntry re-evaluates one tracked series: fetch TMDb details
// and episodes, diff against the library's episode inventory, and decide the
// next watchlist state.
func (m MediaManager) processWatchlistEntry(ctx context.Context, entry *model.Watchlist) error {
	if _, err := m.emby.GetItem(ctx, entry.ItemID); err != nil {
		if errors.Is(err, emby.ErrNotFound) {
			return m.storage.RemoveFromWatchlist(ctx, entry.ItemID)
		}
		return fmt.Errorf("liveness check failed: %w", err)
	}

	tmdbID, err := strconv.Atoi(entry.TmdbID)
	if err != nil {
		return fmt.Errorf("bad tmdb id %q", entry.TmdbID)
	}

	details, err := m.tmdb.GetTVDetails(ctx, tmdbID)
	if err != nil {
		return fmt.Errorf("failed to fetch series details: %w", err)
	}

	episodes, err := m.tvEpisodes(ctx, tmdbID, details)
	if err != nil {
		return err
	}

	have, err := m.libraryEpisodes(ctx, entry.ItemID)
	if err != nil {
		return err
	}

	now := today()
	missing := computeMissing(episodes, have, now)
	metadataComplete := episodesDocumented(episodes)
	finaleAired := lastEpisodeAired(episodes, now)

	update := storage.WatchlistUpdate{MissingInfo: &missing}

	status := details.Status
	update.TmdbStatus = &status

	if details.NextEpisodeToAir != nil {
		if encoded, err := json.Marshal(details.NextEpisodeToAir); err == nil {
			next := string(encoded)
			update.NextEpisodeToAirJSON = &next
		}
	}

	update.Status, update.PausedUntil = decideWatchlistState(
		entry.ForceEnded, missing, metadataComplete, details, finaleAired, now)

	if err := m.storage.UpdateWatchlistItem(ctx, entry.ItemID, update); err != nil {
		return fmt.Errorf("failed to update watchlist entry: %w", err)
	}
	return nil
}

// decideWatchlistState picks the next state for a tracked series.
func decideWatchlistState(forceEnded bool, missing storage.MissingInfo, metadataComplete bool, details *tmdb.TVDetails, finaleAired bool, now time.Time) (storage.WatchlistState, *string) {
	if forceEnded {
		return storage.WatchlistStateCompleted, nil
	}

	nothingMissing := len(missing.MissingSeasons) == 0 && len(missing.MissingEpisodes) == 0
	ended := details.Status == "Ended" || details.Status == "Canceled"
	if nothingMissing && metadataComplete && (ended || finaleAired) {
		return storage.WatchlistStateCompleted, nil
	}

	if details.NextEpisodeToAir == nil {
		until := now.Add(noNextInfoPause).Format(dateFormat)
		return storage.WatchlistStatePaused, &until
	}

	if air, ok := parseDate(details.NextEpisodeToAir.AirDate); ok && air.Sub(now) > pauseHorizon {
		until := air.AddDate(0, 0, -1).Format(dateFormat)
		return storage.WatchlistStatePaused, &until
	}

	return storage.WatchlistStateWatching, nil
}

// tvEpisodes flattens every non-special season of a series to its episodes.
func (m MediaManager) tvEpisodes(ctx context.Context, tmdbID int, details *tmdb.TVDetails) ([]tmdb.Episode, error) {
	var episodes []tmdb.Episode
	for _, season := range details.Seasons {
		if season.SeasonNumber == 0 {
			continue
		}
		seasonDetails, err := m.tmdb.GetSeason(ctx, tmdbID, season.SeasonNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch season %d: %w", season.SeasonNumber, err)
		}
		episodes = append(episodes, seasonDetails.Episodes...)
	}
	return episodes, nil
}

// libraryEpisodes builds the (season, episode) inventory of a series on the
// server.
func (m MediaManager) libraryEpisodes(ctx context.Context, seriesItemID string) (map[[2]int]struct{}, error) {
	items, _, err := m.emby.GetItems(ctx, emby.ItemsRequest{
		ParentID:         seriesItemID,
		IncludeItemTypes: "Episode",
		Recursive:        true,
		Fields:           "ParentIndexNumber,IndexNumber",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list library episodes: %w", err)
	}

	have := make(map[[2]int]struct{}, len(items))
	for _, item := range items {
		if item.ParentIndexNumber == 0 {
			// specials are outside the tracked inventory
			continue
		}
		have[[2]int{item.ParentIndexNumber, item.IndexNumber}] = struct{}{}
	}
	return have, nil
}

// computeMissing diffs the aired TMDb episodes against the library inventory.
// A season with no library episodes at all is reported as a missing season;
// partially-present seasons report their absent aired episodes.
func computeMissing(episodes []tmdb.Episode, have map[[2]int]struct{}, now time.Time) storage.MissingInfo {
	seasonPresent := make(map[int]bool)
	for key := range have {
		seasonPresent[key[0]] = true
	}

	bySeason := make(map[int][]tmdb.Episode)
	var seasons []int
	for _, episode := range episodes {
		if _, seen := bySeason[episode.SeasonNumber]; !seen {
			seasons = append(seasons, episode.SeasonNumber)
		}
		bySeason[episode.SeasonNumber] = append(bySeason[episode.SeasonNumber], episode)
	}

	info := storage.MissingInfo{
		MissingSeasons:  []storage.MissingSeason{},
		MissingEpisodes: []storage.MissingEpisode{},
	}

	for _, seasonNumber := range seasons {
		seasonEpisodes := bySeason[seasonNumber]

		aired := false
		for _, episode := range seasonEpisodes {
			if air, ok := parseDate(episode.AirDate); ok && !air.After(now) {
				aired = true
				break
			}
		}
		if !aired {
			continue
		}

		if !seasonPresent[seasonNumber] {
			info.MissingSeasons = append(info.MissingSeasons, storage.MissingSeason{
				SeasonNumber: seasonNumber,
				AirDate:      seasonEpisodes[0].AirDate,
			})
			continue
		}

		for _, episode := range seasonEpisodes {
			air, ok := parseDate(episode.AirDate)
			if !ok || air.After(now) {
				continue
			}
			if _, present := have[[2]int{episode.SeasonNumber, episode.EpisodeNumber}]; !present {
				info.MissingEpisodes = append(info.MissingEpisodes, storage.MissingEpisode{
					SeasonNumber:  episode.SeasonNumber,
					EpisodeNumber: episode.EpisodeNumber,
					AirDate:       episode.AirDate,
					Name:          episode.Name,
				})
			}
		}
	}

	return info
}

// episodesDocumented reports whether every episode carries an overview, the
// proxy for TMDb metadata being settled.
func episodesDocumented(episodes []tmdb.Episode) bool {
	for _, episode := range episodes {
		if episode.Overview == "" {
			return false
		}
	}
	return len(episodes) > 0
}

// lastEpisodeAired reports whether the final known episode has aired.
func lastEpisodeAired(episodes []tmdb.Episode, now time.Time) bool {
	if len(episodes) == 0 {
		return false
	}
	last := episodes[len(episodes)-1]
	air, ok := parseDate(last.AirDate)
	return ok && !air.After(now)
}

// CheckAndAddToWatchlist inserts a freshly-added series when TMDb still
// considers it ongoing. Items already tracked are left untouched.
func (m MediaManager) CheckAndAddToWatchlist(ctx context.Context, item *emby.Item) error {
	log := logger.FromCtx(ctx)

	if item.Type != "Series" || item.TmdbID() == "" {
		return nil
	}

	tmdbID, err := strconv.Atoi(item.TmdbID())
	if err != nil {
		return fmt.Errorf("bad tmdb id %q", item.TmdbID())
	}

	details, err := m.tmdb.GetTVDetails(ctx, tmdbID)
	if err != nil {
		return fmt.Errorf("failed to fetch series details: %w", err)
	}

	if _, tracked := trackedTmdbStatuses[details.Status]; !tracked {
		log.Debugw("series not ongoing, skipping watchlist", "name", item.Name, "tmdb_status", details.Status)
		return nil
	}

	name := item.Name
	status := details.Status
	now := time.Now().UTC()
	entry := model.Watchlist{
		ItemID:     item.ID,
		TmdbID:     item.TmdbID(),
		ItemName:   &name,
		ItemType:   "Series",
		Status:     string(storage.WatchlistStateWatching),
		TmdbStatus: &status,
		AddedAt:    &now,
	}

	if err := m.storage.AddToWatchlist(ctx, entry); err != nil {
		return fmt.Errorf("failed to add to watchlist: %w", err)
	}
	log.Infow("added series to watchlist", "name", item.Name, "tmdb_id", item.TmdbID())
	return nil
}
