package moviepilot_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/collectarr/collectarr/pkg/http/mocks"
	"github.com/collectarr/collectarr/pkg/moviepilot"
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

func expectLogin(t *testing.T, httpMock *mocks.MockHTTPClient, token string) {
	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/v1/login/access-token", req.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
		require.NoError(t, req.ParseForm())
		assert.Equal(t, "admin", req.PostForm.Get("username"))
		return jsonResponse(http.StatusOK, `{"access_token":"`+token+`","token_type":"bearer"}`), nil
	})
}

func TestClient_SubscribeMovie(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	expectLogin(t, httpMock, "tok1")
	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/v1/subscribe/", req.URL.Path)
		assert.Equal(t, "Bearer tok1", req.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		assert.Equal(t, "沙丘", payload["name"])
		assert.Equal(t, float64(438631), payload["tmdbid"])
		assert.Equal(t, "电影", payload["type"])
		return jsonResponse(http.StatusOK, `{"success":true}`), nil
	})

	client := moviepilot.New(httpMock, "http", "moviepilot:3000", "admin", "pass")
	err := client.SubscribeMovie(context.Background(), "沙丘", 438631)
	require.NoError(t, err)
}

func TestClient_SubscribeSeries_seasonAndBestVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	expectLogin(t, httpMock, "tok1")
	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		assert.Equal(t, "电视剧", payload["type"])
		assert.Equal(t, float64(2), payload["season"])
		assert.Equal(t, float64(1), payload["best_version"])
		return jsonResponse(http.StatusOK, `{"success":true}`), nil
	})

	client := moviepilot.New(httpMock, "http", "moviepilot:3000", "admin", "pass")
	season := 2
	err := client.SubscribeSeries(context.Background(), "权力的游戏", 1399, &season, true)
	require.NoError(t, err)
}

func TestClient_tokenReuseAndRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	client := moviepilot.New(httpMock, "http", "moviepilot:3000", "admin", "pass")

	// first call logs in once
	expectLogin(t, httpMock, "tok1")
	httpMock.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusOK, `{"success":true}`), nil)
	require.NoError(t, client.SubscribeMovie(context.Background(), "first", 1))

	// second call reuses the token, gets a 401, re-logs-in, retries
	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer tok1", req.Header.Get("Authorization"))
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	})
	expectLogin(t, httpMock, "tok2")
	httpMock.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer tok2", req.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `{"success":true}`), nil
	})
	require.NoError(t, client.SubscribeMovie(context.Background(), "second", 2))
}

func TestClient_Subscribe_logicalFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	expectLogin(t, httpMock, "tok1")
	httpMock.EXPECT().Do(gomock.Any()).Return(
		jsonResponse(http.StatusOK, `{"success":false,"message":"无法识别媒体信息"}`), nil)

	client := moviepilot.New(httpMock, "http", "moviepilot:3000", "admin", "pass")
	err := client.SubscribeMovie(context.Background(), "unknown", 999)
	assert.Error(t, err)
}

func TestClient_Subscribe_alreadyExistsIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpMock := mocks.NewMockHTTPClient(ctrl)

	expectLogin(t, httpMock, "tok1")
	httpMock.EXPECT().Do(gomock.Any()).Return(
		jsonResponse(http.StatusOK, `{"success":false,"message":"订阅已存在"}`), nil)

	client := moviepilot.New(httpMock, "http", "moviepilot:3000", "admin", "pass")
	err := client.SubscribeMovie(context.Background(), "dupe", 7)
	require.NoError(t, err)
}
