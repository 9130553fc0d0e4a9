package lists

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/collectarr/collectarr/pkg/http/mocks"
	"github.com/collectarr/collectarr/pkg/maoyan"
	"github.com/collectarr/collectarr/pkg/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeTmdb struct {
	tmdb.ITmdb
	movies  map[int]*tmdb.MovieDetails
	series  map[int]*tmdb.TVDetails
	finds   map[string]*tmdb.SearchResult
	results map[string][]tmdb.SearchResult
}

func (f *fakeTmdb) GetMovieDetails(_ context.Context, id int) (*tmdb.MovieDetails, error) {
	if d, ok := f.movies[id]; ok {
		return d, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) GetTVDetails(_ context.Context, id int) (*tmdb.TVDetails, error) {
	if d, ok := f.series[id]; ok {
		return d, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) ResolveIMDbID(_ context.Context, imdbID string) (*tmdb.SearchResult, error) {
	if r, ok := f.finds[imdbID]; ok {
		return r, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) SearchMedia(_ context.Context, title, mediaType string, _ int) ([]tmdb.SearchResult, error) {
	return f.results[mediaType+":"+title], nil
}

type fakeCharts struct {
	cached    []maoyan.MediaRef
	hasCache  bool
	titles    []maoyan.RankedTitle
	fetchErr  error
	written   []maoyan.MediaRef
	wroteURL  string
	fetchSpec maoyan.Spec
}

func (f *fakeCharts) ReadCache(string) ([]maoyan.MediaRef, bool) {
	return f.cached, f.hasCache
}

func (f *fakeCharts) FetchTitles(_ context.Context, spec maoyan.Spec) ([]maoyan.RankedTitle, error) {
	f.fetchSpec = spec
	return f.titles, f.fetchErr
}

func (f *fakeCharts) WriteCache(_ context.Context, rawURL string, refs []maoyan.MediaRef) error {
	f.wroteURL = rawURL
	f.written = refs
	return nil
}

func feedResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

const sampleFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<item><title>1. Oppenheimer (2023)</title><link>https://example.com/m/1</link><guid>tt15398776</guid></item>
<item><title>2. Dune: Part Two</title><link>https://example.com/m/2</link><guid>tmdb://693134</guid></item>
<item><title>3. Some Obscure Film</title><link>https://example.com/m/3</link><guid>3</guid></item>
<item><title>2. Dune: Part Two</title><link>https://example.com/m/2</link><guid>tmdb://693134</guid></item>
</channel></rss>`

func TestImporter_ResolveRSS(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)
	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "example.com", req.URL.Host)
		return feedResponse(sampleFeed), nil
	})

	tmdbFake := &fakeTmdb{
		movies: map[int]*tmdb.MovieDetails{693134: {ID: 693134, Title: "Dune: Part Two"}},
		finds:  map[string]*tmdb.SearchResult{"tt15398776": {ID: 872585, MediaType: "movie"}},
		results: map[string][]tmdb.SearchResult{
			"Movie:Some Obscure Film": {{ID: 4242, Title: "Some Obscure Film"}},
		},
	}

	importer := NewImporter(tmdbFake, httpMock, &fakeCharts{})
	refs := importer.Resolve(context.Background(), Definition{
		ItemTypes: []string{"Movie"},
		URL:       "https://example.com/top.xml",
	})

	require.Len(t, refs, 3)
	assert.Equal(t, MediaRef{TmdbID: "872585", ItemType: "Movie"}, refs[0])
	assert.Equal(t, MediaRef{TmdbID: "693134", ItemType: "Movie"}, refs[1])
	assert.Equal(t, MediaRef{TmdbID: "4242", ItemType: "Movie"}, refs[2])
}

func TestImporter_ResolveRSS_limitBeforeMatching(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)
	httpMock.EXPECT().Do(gomock.Any()).Return(feedResponse(sampleFeed), nil)

	tmdbFake := &fakeTmdb{
		finds: map[string]*tmdb.SearchResult{"tt15398776": {ID: 872585, MediaType: "movie"}},
	}

	importer := NewImporter(tmdbFake, httpMock, &fakeCharts{})
	refs := importer.Resolve(context.Background(), Definition{
		ItemTypes: []string{"Movie"},
		URL:       "https://example.com/top.xml",
		Limit:     1,
	})

	require.Len(t, refs, 1)
	assert.Equal(t, "872585", refs[0].TmdbID)
}

func TestImporter_ResolveRSS_fetchErrorYieldsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)
	httpMock.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection refused"))

	importer := NewImporter(&fakeTmdb{}, httpMock, &fakeCharts{})
	refs := importer.Resolve(context.Background(), Definition{
		ItemTypes: []string{"Movie"},
		URL:       "https://example.com/top.xml",
	})

	assert.Empty(t, refs)
}

func TestImporter_ResolveRSS_malformedXMLYieldsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)
	httpMock.EXPECT().Do(gomock.Any()).Return(feedResponse("this is not xml <<<"), nil)

	importer := NewImporter(&fakeTmdb{}, httpMock, &fakeCharts{})
	refs := importer.Resolve(context.Background(), Definition{
		ItemTypes: []string{"Movie"},
		URL:       "https://example.com/top.xml",
	})

	assert.Empty(t, refs)
}

func TestImporter_seasonValidation(t *testing.T) {
	tmdbFake := &fakeTmdb{
		series: map[int]*tmdb.TVDetails{
			95403: {ID: 95403, Seasons: []tmdb.SeasonSummary{{SeasonNumber: 1}, {SeasonNumber: 2}}},
		},
		results: map[string][]tmdb.SearchResult{
			"Series:庆余年": {{ID: 95403, Name: "庆余年"}},
		},
	}
	importer := NewImporter(tmdbFake, nil, &fakeCharts{})

	t.Run("existing season accepted", func(t *testing.T) {
		ref, ok := importer.resolveCandidate(context.Background(), candidate{
			title:     "庆余年 第二季",
			itemTypes: []string{"Series"},
		})
		require.True(t, ok)
		assert.Equal(t, "95403", ref.TmdbID)
	})

	t.Run("absent season rejected", func(t *testing.T) {
		_, ok := importer.resolveCandidate(context.Background(), candidate{
			title:     "庆余年 第五季",
			itemTypes: []string{"Series"},
		})
		assert.False(t, ok)
	})
}

func TestImporter_ResolveChart(t *testing.T) {
	t.Run("cache hit skips fetch", func(t *testing.T) {
		charts := &fakeCharts{
			hasCache: true,
			cached:   []maoyan.MediaRef{{ID: "603", Type: "Movie"}},
		}
		importer := NewImporter(&fakeTmdb{}, nil, charts)

		refs := importer.Resolve(context.Background(), Definition{
			ItemTypes: []string{"Movie"},
			URL:       "maoyan://movie",
		})

		require.Len(t, refs, 1)
		assert.Equal(t, MediaRef{TmdbID: "603", ItemType: "Movie"}, refs[0])
	})

	t.Run("fetch resolves titles and writes cache", func(t *testing.T) {
		charts := &fakeCharts{
			titles: []maoyan.RankedTitle{{Title: "沙丘2", ItemType: "Movie"}},
		}
		tmdbFake := &fakeTmdb{
			results: map[string][]tmdb.SearchResult{
				"Movie:沙丘2": {{ID: 693134, Title: "沙丘2"}},
			},
		}
		importer := NewImporter(tmdbFake, nil, charts)

		refs := importer.Resolve(context.Background(), Definition{
			ItemTypes: []string{"Movie"},
			URL:       "maoyan://movie-tencent",
			Limit:     10,
		})

		require.Len(t, refs, 1)
		assert.Equal(t, "693134", refs[0].TmdbID)
		assert.Equal(t, "maoyan://movie-tencent", charts.wroteURL)
		require.Len(t, charts.written, 1)
		assert.Equal(t, 10, charts.fetchSpec.Limit)
		assert.Equal(t, "tencent", charts.fetchSpec.Platform)
	})

	t.Run("fetcher failure yields empty", func(t *testing.T) {
		charts := &fakeCharts{fetchErr: errors.New("blocked")}
		importer := NewImporter(&fakeTmdb{}, nil, charts)

		refs := importer.Resolve(context.Background(), Definition{
			ItemTypes: []string{"Movie"},
			URL:       "maoyan://movie",
		})
		assert.Empty(t, refs)
	})
}

func TestParseListDefinition(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		def, err := ParseDefinition(`{"item_type":["Movie","Series"],"url":"https://example.com/feed","limit":25}`)
		require.NoError(t, err)
		assert.Equal(t, 25, def.Limit)
		assert.True(t, strings.HasPrefix(def.URL, "https://"))
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := ParseDefinition(`{"item_type":["Movie"]}`)
		assert.Error(t, err)
	})

	t.Run("bad item type", func(t *testing.T) {
		_, err := ParseDefinition(`{"item_type":["Album"],"url":"https://example.com"}`)
		assert.Error(t, err)
	})
}
