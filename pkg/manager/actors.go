package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/table"
	"github.com/collectarr/collectarr/pkg/tmdb"
	"github.com/dustin/go-humanize"
	"github.com/go-jet/jet/v2/sqlite"
)

// ratingGraceWindow exempts recent releases from the vote-average gate:
// a fresh release rarely has a settled rating yet.
const ratingGraceWindow = 6 * 30 * 24 * time.Hour

// actorFilter is the decoded per-subscription filmography filter.
type actorFilter struct {
	startYear     int
	mediaTypes    map[string]struct{}
	genresInclude map[int]struct{}
	genresExclude map[int]struct{}
	minRating     float64
}

// TrackActorSubscriptions scans every active actor subscription in turn,
// sharing one session dedup set so a work appearing in several filmographies
// is subscribed at most once per run.
func (m MediaManager) TrackActorSubscriptions(ctx context.Context, jobID int64) error {
	log := logger.FromCtx(ctx)

	subs, err := m.storage.ListActorSubscriptions(ctx,
		table.ActorSubscriptions.Status.EQ(sqlite.String("active")))
	if err != nil {
		return fmt.Errorf("failed to list actor subscriptions: %w", err)
	}

	sess := newSession()
	failed := 0
	for i, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}

		percent := int32(float64(i) / float64(len(subs)) * 100)
		m.progress(ctx, jobID, percent, fmt.Sprintf("scanning %s", sub.ActorName))

		if err := m.scanActorSubscription(ctx, sub, sess); err != nil {
			log.Errorw("actor scan failed", "actor", sub.ActorName, "error", err)
			failed++
		}

		if i < len(subs)-1 && m.config.SubscribeDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.config.SubscribeDelay):
			}
		}
	}

	m.progress(ctx, jobID, 100, fmt.Sprintf("scanned %s actors, %s failed",
		humanize.Comma(int64(len(subs)-failed)), humanize.Comma(int64(failed))))
	return nil
}

// ScanActorSubscription runs one actor scan on demand with a fresh session.
func (m MediaManager) ScanActorSubscription(ctx context.Context, id int32) error {
	sub, err := m.storage.GetActorSubscription(ctx, id)
	if err != nil {
		return err
	}
	return m.scanActorSubscription(ctx, sub, newSession())
}

func (m MediaManager) scanActorSubscription(ctx context.Context, sub *model.ActorSubscriptions, sess *session) error {
	log := logger.FromCtx(ctx)

	credits, err := m.tmdb.GetPersonCombinedCredits(ctx, int(sub.TmdbPersonID))
	if err != nil {
		return fmt.Errorf("failed to fetch filmography for %s: %w", sub.ActorName, err)
	}

	filter := decodeActorFilter(sub)
	now := today()

	works := make(map[int]tmdb.PersonCredit)
	for _, credit := range append(credits.Cast, credits.Crew...) {
		if _, seen := works[credit.ID]; seen {
			continue
		}
		if filter.keep(credit, now) {
			works[credit.ID] = credit
		}
	}

	existing, err := m.storage.ListTrackedActorMedia(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to load tracked media: %w", err)
	}
	tracked := make(map[int32]*model.TrackedActorMedia, len(existing))
	for _, row := range existing {
		tracked[row.TmdbMediaID] = row
	}

	inLibrary, err := m.libraryIndex(ctx)
	if err != nil {
		return err
	}

	diff := storage.TrackedMediaDiff{}
	for _, credit := range works {
		if err := ctx.Err(); err != nil {
			return err
		}

		mediaType := creditItemType(credit.MediaType)
		tmdbID := strconv.Itoa(credit.ID)
		previous := storage.MediaStatus("")
		if row, ok := tracked[int32(credit.ID)]; ok {
			previous = storage.MediaStatus(row.Status)
		}

		status := m.classifyActorWork(ctx, sess, credit, mediaType, tmdbID, previous, inLibrary, now)

		row := model.TrackedActorMedia{
			SubscriptionID: sub.ID,
			TmdbMediaID:    int32(credit.ID),
			MediaType:      mediaType,
			Title:          credit.DisplayTitle(),
			Status:         string(status),
		}
		if released, ok := parseDate(credit.Date()); ok {
			row.ReleaseDate = &released
		}
		if credit.PosterPath != "" {
			poster := credit.PosterPath
			row.PosterPath = &poster
		}
		updated := time.Now().UTC()
		row.LastUpdatedAt = &updated

		if prev, ok := tracked[int32(credit.ID)]; !ok {
			diff.Insert = append(diff.Insert, row)
		} else if prev.Status != row.Status || prev.Title != row.Title {
			row.ID = prev.ID
			diff.Update = append(diff.Update, row)
		}
	}

	for mediaID := range tracked {
		if _, ok := works[int(mediaID)]; !ok {
			diff.Delete = append(diff.Delete, mediaID)
		}
	}

	if err := m.storage.ApplyTrackedMediaDiff(ctx, sub.ID, diff); err != nil {
		return fmt.Errorf("failed to apply tracked media diff: %w", err)
	}

	log.Infow("actor scan complete", "actor", sub.ActorName,
		"works", len(works), "inserted", len(diff.Insert),
		"updated", len(diff.Update), "removed", len(diff.Delete))

	return m.storage.MarkActorSubscriptionChecked(ctx, sub.ID)
}

// classifyActorWork ranks one filmography entry: library membership, then a
// sticky previous subscription, then this run's dedup set, then a pending
// release, and finally a direct subscribe attempt for released missing works.
func (m MediaManager) classifyActorWork(ctx context.Context, sess *session, credit tmdb.PersonCredit, mediaType, tmdbID string, previous storage.MediaStatus, inLibrary map[string]struct{}, now time.Time) storage.MediaStatus {
	log := logger.FromCtx(ctx)

	if _, ok := inLibrary[mediaType+"-"+tmdbID]; ok {
		return storage.MediaStatusInLibrary
	}
	if previous == storage.MediaStatusSubscribed {
		return storage.MediaStatusSubscribed
	}
	if sess.alreadySubscribed(tmdbID) {
		return storage.MediaStatusSubscribed
	}

	released, ok := parseDate(credit.Date())
	if !ok || released.After(now) {
		return storage.MediaStatusPendingRelease
	}

	var err error
	if mediaType == "Movie" {
		err = m.subscriber.SubscribeMovie(ctx, credit.DisplayTitle(), credit.ID)
	} else {
		err = m.subscriber.SubscribeSeries(ctx, credit.DisplayTitle(), credit.ID, nil, false)
	}
	if err != nil {
		log.Warnw("subscribe failed", "title", credit.DisplayTitle(), "tmdb_id", tmdbID, "error", err)
		return storage.MediaStatusMissing
	}

	sess.markSubscribed(tmdbID)
	return storage.MediaStatusSubscribed
}

// libraryIndex builds the (type, tmdb id) membership set from the metadata
// cache.
func (m MediaManager) libraryIndex(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.storage.ListMediaSyncInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load library index: %w", err)
	}
	index := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		index[row.ItemType+"-"+row.TmdbID] = struct{}{}
	}
	return index, nil
}

func decodeActorFilter(sub *model.ActorSubscriptions) actorFilter {
	filter := actorFilter{
		startYear:     int(sub.ConfigStartYear),
		mediaTypes:    make(map[string]struct{}),
		genresInclude: decodeGenreSet(sub.ConfigGenresIncludeJSON),
		genresExclude: decodeGenreSet(sub.ConfigGenresExcludeJSON),
		minRating:     sub.ConfigMinRating,
	}
	for _, mediaType := range strings.Split(sub.ConfigMediaTypes, ",") {
		if mediaType = strings.TrimSpace(mediaType); mediaType != "" {
			filter.mediaTypes[mediaType] = struct{}{}
		}
	}
	return filter
}

func decodeGenreSet(raw *string) map[int]struct{} {
	set := make(map[int]struct{})
	if raw == nil || *raw == "" {
		return set
	}
	var ids []int
	if err := json.Unmarshal([]byte(*raw), &ids); err != nil {
		return set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// keep applies the per-subscription filmography filter to one credit.
func (f actorFilter) keep(credit tmdb.PersonCredit, now time.Time) bool {
	if _, ok := f.mediaTypes[creditItemType(credit.MediaType)]; !ok {
		return false
	}

	released, dated := parseDate(credit.Date())
	if f.startYear > 0 && dated && released.Year() < f.startYear {
		return false
	}

	if len(f.genresInclude) > 0 && !intersects(credit.GenreIDs, f.genresInclude) {
		return false
	}
	if intersects(credit.GenreIDs, f.genresExclude) {
		return false
	}

	if credit.VoteCount > 50 && credit.VoteAverage < f.minRating {
		recent := dated && !released.Before(now.Add(-ratingGraceWindow))
		if !recent {
			return false
		}
	}

	return containsHan(credit.DisplayTitle())
}

func intersects(ids []int, set map[int]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func creditItemType(mediaType string) string {
	if mediaType == "tv" {
		return "Series"
	}
	return "Movie"
}
