package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/dustin/go-humanize"
)

// AutoSubscribeAll walks every snapshot host — native collections, the
// watchlist and custom list collections — and dispatches a downloader
// subscription for each released item still marked MISSING. Statuses flip to
// SUBSCRIBED only when the downloader accepted the request.
func (m MediaManager) AutoSubscribeAll(ctx context.Context, jobID int64) error {
	sess := newSession()
	var subscribed, skipped int64

	m.progress(ctx, jobID, 0, "walking native collections")
	s, k, err := m.subscribeNativeCollections(ctx, sess)
	subscribed, skipped = subscribed+s, skipped+k
	if err != nil {
		return err
	}

	m.progress(ctx, jobID, 40, "walking watchlist")
	s, k, err = m.subscribeWatchlistSeasons(ctx, sess)
	subscribed, skipped = subscribed+s, skipped+k
	if err != nil {
		return err
	}

	m.progress(ctx, jobID, 70, "walking custom collections")
	s, k, err = m.subscribeCustomCollections(ctx, sess)
	subscribed, skipped = subscribed+s, skipped+k
	if err != nil {
		return err
	}

	m.progress(ctx, jobID, 100, fmt.Sprintf("subscribed %s items, skipped %s",
		humanize.Comma(subscribed), humanize.Comma(skipped)))
	return nil
}

func (m MediaManager) subscribeNativeCollections(ctx context.Context, sess *session) (subscribed, skipped int64, err error) {
	log := logger.FromCtx(ctx)

	collections, err := m.storage.ListNativeCollections(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list native collections: %w", err)
	}

	now := today()
	for _, collection := range collections {
		if err := ctx.Err(); err != nil {
			return subscribed, skipped, err
		}
		if collection.MissingMoviesJSON == nil {
			continue
		}

		items, err := unmarshalSnapshotItems(*collection.MissingMoviesJSON)
		if err != nil {
			log.Warnw("skipping native collection with malformed snapshot",
				"collection", collection.EmbyCollectionID, "error", err)
			continue
		}

		changed := false
		for i := range items {
			s, k, flipped := m.subscribeSnapshotItem(ctx, sess, &items[i], now, nil)
			subscribed, skipped = subscribed+s, skipped+k
			changed = changed || flipped
		}
		if !changed {
			continue
		}

		_, _, status := snapshotCounts(items)
		if err := m.storage.UpdateNativeCollectionSnapshot(ctx, collection.EmbyCollectionID, status, items); err != nil {
			return subscribed, skipped, fmt.Errorf("failed to persist native snapshot: %w", err)
		}
	}
	return subscribed, skipped, nil
}

func (m MediaManager) subscribeWatchlistSeasons(ctx context.Context, sess *session) (subscribed, skipped int64, err error) {
	log := logger.FromCtx(ctx)

	entries, err := m.storage.ListWatchlist(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list watchlist: %w", err)
	}

	now := today()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return subscribed, skipped, err
		}
		if entry.MissingInfoJSON == nil || storage.WatchlistState(entry.Status) == storage.WatchlistStateCompleted {
			continue
		}

		var info storage.MissingInfo
		if err := json.Unmarshal([]byte(*entry.MissingInfoJSON), &info); err != nil {
			log.Warnw("skipping watchlist entry with malformed missing info",
				"item_id", entry.ItemID, "error", err)
			continue
		}

		tmdbID, err := strconv.Atoi(entry.TmdbID)
		if err != nil {
			continue
		}

		name := entry.TmdbID
		if entry.ItemName != nil {
			name = *entry.ItemName
		}

		keep := make([]storage.MissingSeason, 0, len(info.MissingSeasons))
		for _, season := range info.MissingSeasons {
			if air, ok := parseDate(season.AirDate); !ok || air.After(now) {
				skipped++
				keep = append(keep, season)
				continue
			}

			key := fmt.Sprintf("%s-s%d", entry.TmdbID, season.SeasonNumber)
			if sess.alreadySubscribed(key) {
				skipped++
				continue
			}

			seasonNumber := season.SeasonNumber
			if err := m.subscriber.SubscribeSeries(ctx, name, tmdbID, &seasonNumber, false); err != nil {
				log.Warnw("season subscribe failed", "series", name,
					"season", season.SeasonNumber, "error", err)
				keep = append(keep, season)
				continue
			}
			sess.markSubscribed(key)
			subscribed++
		}

		// dispatched seasons come out of the row so the next run does not
		// subscribe them again
		if len(keep) != len(info.MissingSeasons) {
			info.MissingSeasons = keep
			if err := m.storage.UpdateWatchlistMissingInfo(ctx, entry.ItemID, info); err != nil {
				return subscribed, skipped, fmt.Errorf("failed to persist watchlist missing info: %w", err)
			}
		}
	}
	return subscribed, skipped, nil
}

func (m MediaManager) subscribeCustomCollections(ctx context.Context, sess *session) (subscribed, skipped int64, err error) {
	log := logger.FromCtx(ctx)

	collections, err := m.storage.ListCustomCollections(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list custom collections: %w", err)
	}

	now := today()
	for _, collection := range collections {
		if err := ctx.Err(); err != nil {
			return subscribed, skipped, err
		}
		if collection.Type != "list" || collection.GeneratedMediaInfoJSON == nil {
			continue
		}

		items, err := unmarshalSnapshotItems(*collection.GeneratedMediaInfoJSON)
		if err != nil {
			log.Warnw("skipping collection with malformed snapshot",
				"collection", collection.Name, "error", err)
			continue
		}

		changed := false
		for i := range items {
			s, k, flipped := m.subscribeSnapshotItem(ctx, sess, &items[i], now, nil)
			subscribed, skipped = subscribed+s, skipped+k
			changed = changed || flipped
		}
		if !changed {
			continue
		}

		if err := m.storage.UpdateCustomCollectionSnapshot(ctx, collection.ID, items); err != nil {
			return subscribed, skipped, fmt.Errorf("failed to persist collection snapshot: %w", err)
		}
	}
	return subscribed, skipped, nil
}

// subscribeSnapshotItem dispatches one snapshot row when it is MISSING and
// released, flipping it to SUBSCRIBED on downloader acceptance. The item type
// stored on the row decides the subscription kind; series subscribe whole.
func (m MediaManager) subscribeSnapshotItem(ctx context.Context, sess *session, item *storage.SnapshotItem, now time.Time, seasonNumber *int) (subscribed, skipped int64, flipped bool) {
	log := logger.FromCtx(ctx)

	if item.Status != storage.MediaStatusMissing {
		return 0, 0, false
	}
	if released, ok := parseDate(item.ReleaseDate); !ok || released.After(now) {
		return 0, 1, false
	}
	if sess.alreadySubscribed(item.TmdbID) {
		// another host already dispatched this item during this run
		item.Status = storage.MediaStatusSubscribed
		return 0, 0, true
	}

	tmdbID, err := strconv.Atoi(item.TmdbID)
	if err != nil {
		return 0, 1, false
	}

	if item.ItemType == "Series" {
		err = m.subscriber.SubscribeSeries(ctx, item.Title, tmdbID, seasonNumber, false)
	} else {
		err = m.subscriber.SubscribeMovie(ctx, item.Title, tmdbID)
	}
	if err != nil {
		log.Warnw("subscribe failed", "title", item.Title, "tmdb_id", item.TmdbID, "error", err)
		return 0, 0, false
	}

	sess.markSubscribed(item.TmdbID)
	item.Status = storage.MediaStatusSubscribed
	return 1, 0, true
}

// MarkNativeCollectionsSubscribed flips every MISSING movie of the given
// native collections to SUBSCRIBED without contacting the downloader, for
// users who arrange the downloads themselves.
func (m MediaManager) MarkNativeCollectionsSubscribed(ctx context.Context, embyCollectionIDs []string) (int, error) {
	return m.storage.BatchMarkMoviesSubscribed(ctx, embyCollectionIDs)
}
