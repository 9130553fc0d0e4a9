package maoyan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	chttp "github.com/collectarr/collectarr/pkg/http"
	cio "github.com/collectarr/collectarr/pkg/io"
	"github.com/collectarr/collectarr/pkg/logger"
)

const (
	piaofangHost = "piaofang.maoyan.com"

	// Scheme marks a list source as a Maoyan chart instead of an RSS feed.
	Scheme = "maoyan://"

	// DefaultLimit caps each chart when the definition gives no limit.
	DefaultLimit = 50
)

// chart type codes of the webHeatData endpoint
var seriesTypeCodes = map[string]string{
	"web-heat": "0",
	"web-tv":   "1",
	"zongyi":   "2",
}

// platform codes of the webHeatData endpoint; "all" maps to no filter
var platformCodes = map[string]string{
	"all":     "",
	"tencent": "3",
	"iqiyi":   "2",
	"youku":   "1",
	"mango":   "7",
}

// Spec is a parsed maoyan:// chart reference.
type Spec struct {
	Types    []string
	Platform string
	Limit    int
}

// RankedTitle is one chart entry. ItemType is Movie for the box office chart
// and Series for the heat charts.
type RankedTitle struct {
	Title    string
	ItemType string
}

// MediaRef is a chart entry resolved to a TMDb id. The JSON shape matches the
// cache files so old caches stay readable.
type MediaRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ParseSpec parses a maoyan://types[-platform] reference. The platform suffix
// is only recognized when the last dash segment names a known platform, since
// chart types themselves contain dashes.
func ParseSpec(rawURL string, limit int) (Spec, error) {
	if !strings.HasPrefix(rawURL, Scheme) {
		return Spec{}, fmt.Errorf("not a maoyan url: %s", rawURL)
	}

	contentKey := strings.TrimPrefix(rawURL, Scheme)
	parts := strings.Split(contentKey, "-")

	platform := "all"
	typePart := contentKey
	if len(parts) > 1 {
		last := parts[len(parts)-1]
		if _, ok := platformCodes[last]; ok && last != "all" {
			platform = last
			typePart = strings.Join(parts[:len(parts)-1], "-")
		}
	}

	types := make([]string, 0)
	for _, t := range strings.Split(typePart, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if t != "movie" {
			if _, ok := seriesTypeCodes[t]; !ok {
				return Spec{}, fmt.Errorf("unknown maoyan chart type %q", t)
			}
		}
		types = append(types, t)
	}
	if len(types) == 0 {
		return Spec{}, errors.New("maoyan url names no chart types")
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	return Spec{Types: types, Platform: platform, Limit: limit}, nil
}

// Fetcher pulls charts from the piaofang dashboard API and keeps a per-URL
// file cache of resolved entries.
type Fetcher struct {
	http     chttp.HTTPClient
	files    cio.FileIO
	cacheDir string
	cacheTTL time.Duration
}

func NewFetcher(httpClient chttp.HTTPClient, files cio.FileIO, cacheDir string, cacheTTL time.Duration) *Fetcher {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Fetcher{
		http:     httpClient,
		files:    files,
		cacheDir: cacheDir,
		cacheTTL: cacheTTL,
	}
}

// FetchTitles pulls every chart the spec names. The movie chart yields Movie
// titles, the heat charts yield Series titles deduplicated across charts.
func (f *Fetcher) FetchTitles(ctx context.Context, spec Spec) ([]RankedTitle, error) {
	log := logger.FromCtx(ctx)

	titles := make([]RankedTitle, 0)
	seenSeries := make(map[string]struct{})

	for _, chartType := range spec.Types {
		if chartType == "movie" {
			movieTitles, err := f.fetchMovieChart(ctx, spec.Limit)
			if err != nil {
				return nil, err
			}
			titles = append(titles, movieTitles...)
			continue
		}

		seriesTitles, err := f.fetchHeatChart(ctx, chartType, spec.Platform, spec.Limit)
		if err != nil {
			return nil, err
		}
		for _, title := range seriesTitles {
			if _, ok := seenSeries[title.Title]; ok {
				continue
			}
			seenSeries[title.Title] = struct{}{}
			titles = append(titles, title)
		}
	}

	log.Infow("fetched maoyan charts", "types", spec.Types, "platform", spec.Platform, "titles", len(titles))
	return titles, nil
}

func (f *Fetcher) fetchMovieChart(ctx context.Context, limit int) ([]RankedTitle, error) {
	b, err := f.get(ctx, &url.URL{Scheme: "https", Host: piaofangHost, Path: "/dashboard-ajax/movie"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movie chart: %w", err)
	}

	var response struct {
		MovieList struct {
			List []struct {
				MovieInfo struct {
					MovieName string `json:"movieName"`
				} `json:"movieInfo"`
			} `json:"list"`
		} `json:"movieList"`
	}
	if err := json.Unmarshal(b, &response); err != nil {
		return nil, fmt.Errorf("failed to decode movie chart: %w", err)
	}

	titles := make([]RankedTitle, 0, limit)
	for _, entry := range response.MovieList.List {
		if entry.MovieInfo.MovieName == "" {
			continue
		}
		titles = append(titles, RankedTitle{Title: entry.MovieInfo.MovieName, ItemType: "Movie"})
		if len(titles) >= limit {
			break
		}
	}

	return titles, nil
}

func (f *Fetcher) fetchHeatChart(ctx context.Context, chartType, platform string, limit int) ([]RankedTitle, error) {
	values := url.Values{}
	values.Set("seriesType", seriesTypeCodes[chartType])
	values.Set("platformType", platformCodes[platform])
	values.Set("showDate", "2")

	u := &url.URL{
		Scheme:   "https",
		Host:     piaofangHost,
		Path:     "/dashboard/webHeatData",
		RawQuery: values.Encode(),
	}

	b, err := f.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s chart: %w", chartType, err)
	}

	var response struct {
		DataList struct {
			List []struct {
				SeriesInfo struct {
					Name string `json:"name"`
				} `json:"seriesInfo"`
			} `json:"list"`
		} `json:"dataList"`
	}
	if err := json.Unmarshal(b, &response); err != nil {
		return nil, fmt.Errorf("failed to decode %s chart: %w", chartType, err)
	}

	titles := make([]RankedTitle, 0, limit)
	for _, entry := range response.DataList.List {
		if entry.SeriesInfo.Name == "" {
			continue
		}
		titles = append(titles, RankedTitle{Title: entry.SeriesInfo.Name, ItemType: "Series"})
		if len(titles) >= limit {
			break
		}
	}

	return titles, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) ([]byte, error) {
	if f.http == nil {
		return nil, errors.New("http client is nil")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	// the dashboard API rejects the default Go user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code not ok: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// ReadCache returns the cached resolution for a chart URL when it is younger
// than the TTL.
func (f *Fetcher) ReadCache(rawURL string) ([]MediaRef, bool) {
	path := f.cachePath(rawURL)

	info, err := f.files.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) >= f.cacheTTL {
		return nil, false
	}

	file, err := f.files.Open(path)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	var refs []MediaRef
	if err := json.NewDecoder(file).Decode(&refs); err != nil {
		return nil, false
	}

	return refs, true
}

// WriteCache stores a chart resolution atomically via a temp file rename so a
// crash never leaves a half-written cache behind.
func (f *Fetcher) WriteCache(ctx context.Context, rawURL string, refs []MediaRef) error {
	log := logger.FromCtx(ctx)

	if err := f.files.MkdirAll(f.cacheDir, 0o755); err != nil {
		return err
	}

	path := f.cachePath(rawURL)
	tempPath := path + ".tmp"

	file, err := f.files.Create(tempPath)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(file).Encode(refs); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	// the rename refuses to clobber, so drop the stale cache first
	if _, err := f.files.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	if err := f.files.Rename(tempPath, path); err != nil {
		return err
	}

	log.Debugw("wrote maoyan cache", "url", rawURL, "entries", len(refs))
	return nil
}

func (f *Fetcher) cachePath(rawURL string) string {
	h := fnv.New64a()
	h.Write([]byte(rawURL))
	return filepath.Join(f.cacheDir, fmt.Sprintf("maoyan_cache_%x.json", h.Sum64()))
}
