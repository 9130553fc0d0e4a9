package tmdb_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/collectarr/collectarr/pkg/http/mocks"
	"github.com/collectarr/collectarr/pkg/tmdb"
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

func TestClient_GetMovieDetails(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/3/movie/27205", req.URL.Path)
		assert.Equal(t, "credits", req.URL.Query().Get("append_to_response"))
		assert.Equal(t, "zh-CN", req.URL.Query().Get("language"))
		assert.Equal(t, "Bearer token", req.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `{
			"id":27205,"title":"盗梦空间","original_title":"Inception",
			"release_date":"2010-07-15","vote_average":8.4,
			"production_countries":[{"iso_3166_1":"US","name":"United States of America"}],
			"credits":{"crew":[{"id":525,"name":"Christopher Nolan","job":"Director","department":"Directing"}]}}`), nil
	})

	client := tmdb.New(httpMock, "token", "")
	details, err := client.GetMovieDetails(context.Background(), 27205)
	require.NoError(t, err)
	assert.Equal(t, "盗梦空间", details.Title)
	assert.Equal(t, "Inception", details.OriginalTitle)
	require.Len(t, details.Credits.Crew, 1)
	assert.Equal(t, "Director", details.Credits.Crew[0].Job)
	assert.Equal(t, "US", details.ProductionCountries[0].ISO31661)
}

func TestClient_GetTVDetails_nextEpisode(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/3/tv/1399", req.URL.Path)
		return jsonResponse(http.StatusOK, `{
			"id":1399,"name":"权力的游戏","status":"Returning Series","in_production":true,
			"number_of_seasons":2,
			"seasons":[{"season_number":1,"episode_count":10,"air_date":"2011-04-17"},
				{"season_number":2,"episode_count":10,"air_date":"2012-04-01"}],
			"next_episode_to_air":{"episode_number":3,"season_number":2,"air_date":"2030-01-01"}}`), nil
	})

	client := tmdb.New(httpMock, "token", "zh-CN")
	details, err := client.GetTVDetails(context.Background(), 1399)
	require.NoError(t, err)
	assert.Equal(t, "Returning Series", details.Status)
	require.NotNil(t, details.NextEpisodeToAir)
	assert.Equal(t, 3, details.NextEpisodeToAir.EpisodeNumber)
	assert.Len(t, details.Seasons, 2)
}

func TestClient_SearchMedia(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/3/search/movie", req.URL.Path)
		assert.Equal(t, "沙丘", req.URL.Query().Get("query"))
		assert.Equal(t, "2021", req.URL.Query().Get("primary_release_year"))
		return jsonResponse(http.StatusOK, `{"results":[
			{"id":438631,"title":"沙丘","release_date":"2021-09-15"}],"total_results":1}`), nil
	})

	client := tmdb.New(httpMock, "token", "zh-CN")
	results, err := client.SearchMedia(context.Background(), "沙丘", "Movie", 2021)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 438631, results[0].ID)
	assert.Equal(t, "沙丘", results[0].DisplayTitle())
}

func TestClient_SearchMedia_unknownType(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	client := tmdb.New(httpMock, "token", "zh-CN")
	_, err := client.SearchMedia(context.Background(), "anything", "Album", 0)
	assert.Error(t, err)
}

func TestClient_ResolveIMDbID(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/3/find/tt1375666", req.URL.Path)
		assert.Equal(t, "imdb_id", req.URL.Query().Get("external_source"))
		return jsonResponse(http.StatusOK, `{
			"movie_results":[{"id":27205,"title":"盗梦空间"}],"tv_results":[]}`), nil
	})

	client := tmdb.New(httpMock, "token", "zh-CN")
	result, err := client.ResolveIMDbID(context.Background(), "tt1375666")
	require.NoError(t, err)
	assert.Equal(t, 27205, result.ID)
	assert.Equal(t, "movie", result.MediaType)
}

func TestClient_ResolveIMDbID_noMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	httpMock.EXPECT().Do(gomock.Any()).Return(
		jsonResponse(http.StatusOK, `{"movie_results":[],"tv_results":[]}`), nil)

	client := tmdb.New(httpMock, "token", "zh-CN")
	_, err := client.ResolveIMDbID(context.Background(), "tt0000000")
	assert.ErrorIs(t, err, tmdb.ErrNotFound)
}

func TestClient_GetPersonDetails_notFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	httpMock.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusNotFound, `{}`), nil)

	client := tmdb.New(httpMock, "token", "zh-CN")
	_, err := client.GetPersonDetails(context.Background(), 99999999)
	assert.ErrorIs(t, err, tmdb.ErrNotFound)
}

func TestClient_GetPersonCombinedCredits(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/3/person/525/combined_credits", req.URL.Path)
		return jsonResponse(http.StatusOK, `{
			"cast":[{"id":1,"media_type":"movie","title":"Cameo","release_date":"2002-01-01"}],
			"crew":[{"id":27205,"media_type":"movie","title":"盗梦空间","job":"Director","vote_average":8.4,"vote_count":34000,"release_date":"2010-07-15"}]}`), nil
	})

	client := tmdb.New(httpMock, "token", "zh-CN")
	credits, err := client.GetPersonCombinedCredits(context.Background(), 525)
	require.NoError(t, err)
	require.Len(t, credits.Crew, 1)
	assert.Equal(t, "Director", credits.Crew[0].Job)
	assert.Equal(t, "盗梦空间", credits.Crew[0].DisplayTitle())
	assert.Equal(t, "2010-07-15", credits.Crew[0].Date())
}
