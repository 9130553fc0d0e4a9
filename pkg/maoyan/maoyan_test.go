package maoyan_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/collectarr/collectarr/pkg/http/mocks"
	cio "github.com/collectarr/collectarr/pkg/io"
	"github.com/collectarr/collectarr/pkg/maoyan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		limit   int
		want    maoyan.Spec
		wantErr bool
	}{
		{
			name:  "movie chart",
			url:   "maoyan://movie",
			limit: 10,
			want:  maoyan.Spec{Types: []string{"movie"}, Platform: "all", Limit: 10},
		},
		{
			name:  "heat chart with platform",
			url:   "maoyan://web-heat-tencent",
			limit: 10,
			want:  maoyan.Spec{Types: []string{"web-heat"}, Platform: "tencent", Limit: 10},
		},
		{
			name:  "chart type dashes are not a platform",
			url:   "maoyan://web-tv",
			limit: 10,
			want:  maoyan.Spec{Types: []string{"web-tv"}, Platform: "all", Limit: 10},
		},
		{
			name:  "multiple types share the platform suffix",
			url:   "maoyan://movie,zongyi-mango",
			limit: 10,
			want:  maoyan.Spec{Types: []string{"movie", "zongyi"}, Platform: "mango", Limit: 10},
		},
		{
			name:  "zero limit falls back to the default",
			url:   "maoyan://movie",
			limit: 0,
			want:  maoyan.Spec{Types: []string{"movie"}, Platform: "all", Limit: maoyan.DefaultLimit},
		},
		{
			name:    "unknown chart type",
			url:     "maoyan://box-office",
			limit:   10,
			wantErr: true,
		},
		{
			name:    "no chart types",
			url:     "maoyan://",
			limit:   10,
			wantErr: true,
		},
		{
			name:    "not a maoyan url",
			url:     "https://example.com/rss",
			limit:   10,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := maoyan.ParseSpec(tt.url, tt.limit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetcher_FetchTitles(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/dashboard-ajax/movie", req.URL.Path)
		assert.NotContains(t, req.Header.Get("User-Agent"), "Go-http-client")
		return jsonResponse(http.StatusOK, `{"movieList":{"list":[
			{"movieInfo":{"movieName":"流浪地球"}},
			{"movieInfo":{"movieName":"满江红"}},
			{"movieInfo":{"movieName":""}},
			{"movieInfo":{"movieName":"独行月球"}}]}}`), nil
	})

	fetcher := maoyan.NewFetcher(httpMock, &cio.MediaFileSystem{}, t.TempDir(), time.Hour)

	titles, err := fetcher.FetchTitles(context.Background(), maoyan.Spec{
		Types:    []string{"movie"},
		Platform: "all",
		Limit:    2,
	})
	require.NoError(t, err)
	// limit truncates and the empty entry is skipped
	require.Len(t, titles, 2)
	assert.Equal(t, maoyan.RankedTitle{Title: "流浪地球", ItemType: "Movie"}, titles[0])
	assert.Equal(t, maoyan.RankedTitle{Title: "满江红", ItemType: "Movie"}, titles[1])
}

func TestFetcher_FetchTitles_heatChartDedup(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	body := `{"dataList":{"list":[
		{"seriesInfo":{"name":"庆余年"}},
		{"seriesInfo":{"name":"繁花"}}]}}`

	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/dashboard/webHeatData", req.URL.Path)
		assert.Equal(t, "0", req.URL.Query().Get("seriesType"))
		assert.Equal(t, "3", req.URL.Query().Get("platformType"))
		return jsonResponse(http.StatusOK, body), nil
	})
	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "1", req.URL.Query().Get("seriesType"))
		return jsonResponse(http.StatusOK, body), nil
	})

	fetcher := maoyan.NewFetcher(httpMock, &cio.MediaFileSystem{}, t.TempDir(), time.Hour)

	titles, err := fetcher.FetchTitles(context.Background(), maoyan.Spec{
		Types:    []string{"web-heat", "web-tv"},
		Platform: "tencent",
		Limit:    10,
	})
	require.NoError(t, err)
	// the same series on two charts shows up once
	require.Len(t, titles, 2)
	assert.Equal(t, maoyan.RankedTitle{Title: "庆余年", ItemType: "Series"}, titles[0])
	assert.Equal(t, maoyan.RankedTitle{Title: "繁花", ItemType: "Series"}, titles[1])
}

func TestFetcher_Cache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	refs := []maoyan.MediaRef{
		{ID: "615656", Type: "Movie"},
		{ID: "94997", Type: "Series"},
	}

	fetcher := maoyan.NewFetcher(nil, &cio.MediaFileSystem{}, dir, time.Hour)
	require.NoError(t, fetcher.WriteCache(ctx, "maoyan://movie", refs))

	got, ok := fetcher.ReadCache("maoyan://movie")
	require.True(t, ok)
	assert.Equal(t, refs, got)

	_, ok = fetcher.ReadCache("maoyan://web-heat")
	assert.False(t, ok)

	// rewrites replace the previous cache in place
	require.NoError(t, fetcher.WriteCache(ctx, "maoyan://movie", refs[:1]))
	got, ok = fetcher.ReadCache("maoyan://movie")
	require.True(t, ok)
	assert.Equal(t, refs[:1], got)

	// a second fetcher with an expired ttl sees the same file as stale
	expired := maoyan.NewFetcher(nil, &cio.MediaFileSystem{}, dir, time.Nanosecond)
	_, ok = expired.ReadCache("maoyan://movie")
	assert.False(t, ok)
}
