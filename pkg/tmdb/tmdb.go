package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	chttp "github.com/collectarr/collectarr/pkg/http"
	"github.com/collectarr/collectarr/pkg/logger"
)

const apiHost = "api.themoviedb.org"

// ErrNotFound is returned when TMDb has no record for the requested id.
var ErrNotFound = errors.New("not found in tmdb")

// ITmdb is the metadata surface the reconciliation layers depend on.
type ITmdb interface {
	GetMovieDetails(ctx context.Context, movieID int) (*MovieDetails, error)
	GetTVDetails(ctx context.Context, tvID int) (*TVDetails, error)
	GetSeason(ctx context.Context, tvID, seasonNumber int) (*SeasonDetails, error)
	GetCollectionDetails(ctx context.Context, collectionID int) (*CollectionDetails, error)
	SearchMedia(ctx context.Context, title, mediaType string, yearHint int) ([]SearchResult, error)
	ResolveIMDbID(ctx context.Context, imdbID string) (*SearchResult, error)
	GetPersonDetails(ctx context.Context, personID int) (*PersonDetails, error)
	GetPersonCombinedCredits(ctx context.Context, personID int) (*CombinedCredits, error)
}

// Client is a thin client for TMDb's v3 API using bearer token auth. Wrap the
// http client with chttp.RateLimitedClient so 429s are retried transparently.
type Client struct {
	http     chttp.HTTPClient
	apiKey   string
	language string
}

func New(httpClient chttp.HTTPClient, apiKey, language string) *Client {
	if language == "" {
		language = "zh-CN"
	}
	return &Client{
		http:     httpClient,
		apiKey:   apiKey,
		language: language,
	}
}

// GetMovieDetails fetches a movie with credits appended.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int) (*MovieDetails, error) {
	values := url.Values{}
	values.Set("append_to_response", "credits")

	details := &MovieDetails{}
	if err := c.getJSON(ctx, fmt.Sprintf("/3/movie/%d", movieID), values, details); err != nil {
		return nil, err
	}
	return details, nil
}

// GetTVDetails fetches a series with credits appended.
func (c *Client) GetTVDetails(ctx context.Context, tvID int) (*TVDetails, error) {
	values := url.Values{}
	values.Set("append_to_response", "credits")

	details := &TVDetails{}
	if err := c.getJSON(ctx, fmt.Sprintf("/3/tv/%d", tvID), values, details); err != nil {
		return nil, err
	}
	return details, nil
}

// GetSeason fetches one season with its episode list.
func (c *Client) GetSeason(ctx context.Context, tvID, seasonNumber int) (*SeasonDetails, error) {
	details := &SeasonDetails{}
	if err := c.getJSON(ctx, fmt.Sprintf("/3/tv/%d/season/%d", tvID, seasonNumber), nil, details); err != nil {
		return nil, err
	}
	return details, nil
}

// GetCollectionDetails fetches a native TMDb collection with its parts.
func (c *Client) GetCollectionDetails(ctx context.Context, collectionID int) (*CollectionDetails, error) {
	details := &CollectionDetails{}
	if err := c.getJSON(ctx, fmt.Sprintf("/3/collection/%d", collectionID), nil, details); err != nil {
		return nil, err
	}
	return details, nil
}

// SearchMedia searches movies or series by title. mediaType is "Movie" or
// "Series"; a non-zero yearHint narrows the search.
func (c *Client) SearchMedia(ctx context.Context, title, mediaType string, yearHint int) ([]SearchResult, error) {
	values := url.Values{}
	values.Set("query", title)
	values.Set("include_adult", "false")

	var path string
	switch mediaType {
	case "Movie":
		path = "/3/search/movie"
		if yearHint > 0 {
			values.Set("primary_release_year", strconv.Itoa(yearHint))
		}
	case "Series":
		path = "/3/search/tv"
		if yearHint > 0 {
			values.Set("first_air_date_year", strconv.Itoa(yearHint))
		}
	default:
		return nil, fmt.Errorf("unknown media type %q", mediaType)
	}

	response := &searchResponse{}
	if err := c.getJSON(ctx, path, values, response); err != nil {
		return nil, err
	}

	return response.Results, nil
}

// ResolveIMDbID maps an IMDb id to its TMDb record. Movie results win over TV
// results when both exist.
func (c *Client) ResolveIMDbID(ctx context.Context, imdbID string) (*SearchResult, error) {
	values := url.Values{}
	values.Set("external_source", "imdb_id")

	response := &findResponse{}
	if err := c.getJSON(ctx, "/3/find/"+url.PathEscape(imdbID), values, response); err != nil {
		return nil, err
	}

	if len(response.MovieResults) > 0 {
		result := response.MovieResults[0]
		result.MediaType = "movie"
		return &result, nil
	}
	if len(response.TVResults) > 0 {
		result := response.TVResults[0]
		result.MediaType = "tv"
		return &result, nil
	}

	return nil, ErrNotFound
}

// GetPersonDetails fetches a person's details including imdb_id and aliases.
func (c *Client) GetPersonDetails(ctx context.Context, personID int) (*PersonDetails, error) {
	details := &PersonDetails{}
	if err := c.getJSON(ctx, fmt.Sprintf("/3/person/%d", personID), nil, details); err != nil {
		return nil, err
	}
	return details, nil
}

// GetPersonCombinedCredits fetches a person's movie and TV credits in one call.
func (c *Client) GetPersonCombinedCredits(ctx context.Context, personID int) (*CombinedCredits, error) {
	credits := &CombinedCredits{}
	if err := c.getJSON(ctx, fmt.Sprintf("/3/person/%d/combined_credits", personID), nil, credits); err != nil {
		return nil, err
	}
	return credits, nil
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	log := logger.FromCtx(ctx)
	if c.http == nil {
		return errors.New("http client is nil")
	}

	if values == nil {
		values = url.Values{}
	}
	values.Set("language", c.language)

	u := url.URL{
		Scheme:   "https",
		Host:     apiHost,
		Path:     path,
		RawQuery: values.Encode(),
	}

	log.Debugw("tmdb request", "path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status code not ok: %s", resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode tmdb response: %w", err)
	}

	return nil
}
