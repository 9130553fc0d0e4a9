package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	chttp "github.com/collectarr/collectarr/pkg/http"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/maoyan"
	"github.com/collectarr/collectarr/pkg/tmdb"
	"github.com/go-playground/validator/v10"
)

// resolveWorkers bounds the TMDb fanout while resolving list entries.
const resolveWorkers = 5

// Definition is the decoded form of a list collection's definition blob.
type Definition struct {
	ItemTypes []string `json:"item_type" validate:"required,min=1,dive,oneof=Movie Series"`
	URL       string   `json:"url" validate:"required"`
	Limit     int      `json:"limit,omitempty" validate:"omitempty,gte=0"`
}

var validate = validator.New()

// ParseDefinition decodes and validates a list definition blob.
func ParseDefinition(raw string) (Definition, error) {
	var def Definition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		return def, fmt.Errorf("failed to decode list definition: %w", err)
	}
	if err := validate.Struct(def); err != nil {
		return def, fmt.Errorf("invalid list definition: %w", err)
	}
	return def, nil
}

// MediaRef is one resolved list entry.
type MediaRef struct {
	TmdbID   string `json:"tmdb_id"`
	ItemType string `json:"item_type"`
}

// ChartFetcher is the maoyan surface the importer dispatches platform lists to.
type ChartFetcher interface {
	ReadCache(rawURL string) ([]maoyan.MediaRef, bool)
	FetchTitles(ctx context.Context, spec maoyan.Spec) ([]maoyan.RankedTitle, error)
	WriteCache(ctx context.Context, rawURL string, refs []maoyan.MediaRef) error
}

// Importer resolves a list definition to TMDb ids. Failures never propagate
// to the reconciler; a list that cannot be fetched resolves to nothing.
type Importer struct {
	tmdb   tmdb.ITmdb
	http   chttp.HTTPClient
	charts ChartFetcher
}

func NewImporter(tmdbClient tmdb.ITmdb, httpClient chttp.HTTPClient, charts ChartFetcher) *Importer {
	return &Importer{
		tmdb:   tmdbClient,
		http:   httpClient,
		charts: charts,
	}
}

// Resolve fetches the list source and maps every entry to a TMDb id. The
// result is deduplicated and keeps the source order.
func (i *Importer) Resolve(ctx context.Context, def Definition) []MediaRef {
	log := logger.FromCtx(ctx)

	var refs []MediaRef
	if strings.HasPrefix(def.URL, maoyan.Scheme) {
		refs = i.resolveChart(ctx, def)
	} else {
		refs = i.resolveRSS(ctx, def)
	}

	deduped := dedupRefs(refs)
	log.Infow("resolved list", "url", def.URL, "entries", len(deduped))
	return deduped
}

// resolveChart handles maoyan:// sources through the chart fetcher, honoring
// its per-URL cache.
func (i *Importer) resolveChart(ctx context.Context, def Definition) []MediaRef {
	log := logger.FromCtx(ctx)

	spec, err := maoyan.ParseSpec(def.URL, def.Limit)
	if err != nil {
		log.Warnw("unusable maoyan url", "url", def.URL, "error", err)
		return nil
	}

	if cached, ok := i.charts.ReadCache(def.URL); ok {
		log.Debugw("maoyan cache hit", "url", def.URL, "entries", len(cached))
		return fromChartRefs(cached)
	}

	titles, err := i.charts.FetchTitles(ctx, spec)
	if err != nil {
		log.Warnw("maoyan fetch failed", "url", def.URL, "error", err)
		return nil
	}

	candidates := make([]candidate, 0, len(titles))
	for _, title := range titles {
		candidates = append(candidates, candidate{title: title.Title, itemTypes: []string{title.ItemType}})
	}

	refs := i.resolveAll(ctx, candidates)

	if len(refs) > 0 {
		if err := i.charts.WriteCache(ctx, def.URL, toChartRefs(refs)); err != nil {
			log.Warnw("failed to cache maoyan list", "url", def.URL, "error", err)
		}
	}

	return refs
}

// resolveRSS fetches the feed and resolves its items. limit truncates the
// feed before any matching happens.
func (i *Importer) resolveRSS(ctx context.Context, def Definition) []MediaRef {
	log := logger.FromCtx(ctx)

	items, err := i.fetchFeed(ctx, def.URL)
	if err != nil {
		log.Warnw("failed to fetch list feed", "url", def.URL, "error", err)
		return nil
	}

	if def.Limit > 0 && len(items) > def.Limit {
		items = items[:def.Limit]
	}

	candidates := make([]candidate, 0, len(items))
	for _, item := range items {
		cand := item.candidate()
		cand.itemTypes = def.ItemTypes
		candidates = append(candidates, cand)
	}

	return i.resolveAll(ctx, candidates)
}

// resolveAll resolves candidates against TMDb with a bounded worker pool,
// keeping the input order in the result.
func (i *Importer) resolveAll(ctx context.Context, candidates []candidate) []MediaRef {
	resolved := make([]*MediaRef, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, resolveWorkers)
	for idx, cand := range candidates {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, cand candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			if ref, ok := i.resolveCandidate(ctx, cand); ok {
				resolved[idx] = &ref
			}
		}(idx, cand)
	}
	wg.Wait()

	refs := make([]MediaRef, 0, len(resolved))
	for _, ref := range resolved {
		if ref != nil {
			refs = append(refs, *ref)
		}
	}
	return refs
}

// resolveCandidate tries each declared item type in order, preferring ID
// matches over title search.
func (i *Importer) resolveCandidate(ctx context.Context, cand candidate) (MediaRef, bool) {
	log := logger.FromCtx(ctx)

	title, yearHint, seasonNumber := NormalizeTitle(cand.title)

	for _, itemType := range cand.itemTypes {
		if cand.tmdbID != "" {
			if ref, ok := i.verifyTmdbID(ctx, cand.tmdbID, itemType); ok {
				return ref, true
			}
		}

		if cand.imdbID != "" {
			result, err := i.tmdb.ResolveIMDbID(ctx, cand.imdbID)
			if err == nil && mediaTypeToItemType(result.MediaType) == itemType {
				return MediaRef{TmdbID: strconv.Itoa(result.ID), ItemType: itemType}, true
			}
		}

		if title == "" {
			continue
		}

		results, err := i.tmdb.SearchMedia(ctx, title, itemType, yearHint)
		if err != nil || len(results) == 0 {
			continue
		}
		match := results[0]

		if itemType == "Series" && seasonNumber > 0 {
			if !i.seasonExists(ctx, match.ID, seasonNumber) {
				log.Debugw("rejecting match, season not on tmdb",
					"title", cand.title, "tmdb_id", match.ID, "season", seasonNumber)
				continue
			}
		}

		return MediaRef{TmdbID: strconv.Itoa(match.ID), ItemType: itemType}, true
	}

	log.Debugw("unresolved list entry", "title", cand.title)
	return MediaRef{}, false
}

// verifyTmdbID confirms a direct TMDb reference actually names the given
// item type before trusting it.
func (i *Importer) verifyTmdbID(ctx context.Context, tmdbID, itemType string) (MediaRef, bool) {
	id, err := strconv.Atoi(tmdbID)
	if err != nil {
		return MediaRef{}, false
	}

	switch itemType {
	case "Movie":
		if _, err := i.tmdb.GetMovieDetails(ctx, id); err == nil {
			return MediaRef{TmdbID: tmdbID, ItemType: itemType}, true
		}
	case "Series":
		if _, err := i.tmdb.GetTVDetails(ctx, id); err == nil {
			return MediaRef{TmdbID: tmdbID, ItemType: itemType}, true
		}
	}
	return MediaRef{}, false
}

func (i *Importer) seasonExists(ctx context.Context, tvID, seasonNumber int) bool {
	details, err := i.tmdb.GetTVDetails(ctx, tvID)
	if err != nil {
		return false
	}
	for _, season := range details.Seasons {
		if season.SeasonNumber == seasonNumber {
			return true
		}
	}
	return false
}

func mediaTypeToItemType(mediaType string) string {
	switch mediaType {
	case "movie":
		return "Movie"
	case "tv":
		return "Series"
	}
	return ""
}

func dedupRefs(refs []MediaRef) []MediaRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]MediaRef, 0, len(refs))
	for _, ref := range refs {
		key := ref.ItemType + "-" + ref.TmdbID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ref)
	}
	return out
}

func fromChartRefs(refs []maoyan.MediaRef) []MediaRef {
	out := make([]MediaRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, MediaRef{TmdbID: ref.ID, ItemType: ref.Type})
	}
	return out
}

func toChartRefs(refs []MediaRef) []maoyan.MediaRef {
	out := make([]maoyan.MediaRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, maoyan.MediaRef{ID: ref.TmdbID, Type: ref.ItemType})
	}
	return out
}
