package moviepilot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	chttp "github.com/collectarr/collectarr/pkg/http"
	"github.com/collectarr/collectarr/pkg/logger"
)

// media type labels the MoviePilot subscribe API expects
const (
	typeMovie  = "电影"
	typeSeries = "电视剧"
)

// ISubscriber is the downloader surface the reconciliation layers depend on.
type ISubscriber interface {
	SubscribeMovie(ctx context.Context, title string, tmdbID int) error
	SubscribeSeries(ctx context.Context, name string, tmdbID int, seasonNumber *int, bestVersion bool) error
}

// Client talks to a MoviePilot instance. It logs in lazily with the
// configured credentials and caches the access token; on a 401 the token is
// discarded and the request retried once with a fresh login.
type Client struct {
	http     chttp.HTTPClient
	scheme   string
	host     string
	username string
	password string

	mu    sync.Mutex
	token string
}

func New(httpClient chttp.HTTPClient, scheme, host, username, password string) *Client {
	return &Client{
		http:     httpClient,
		scheme:   scheme,
		host:     host,
		username: username,
		password: password,
	}
}

// SubscribeMovie submits a movie subscription.
func (c *Client) SubscribeMovie(ctx context.Context, title string, tmdbID int) error {
	payload := map[string]any{
		"name":   title,
		"tmdbid": tmdbID,
		"type":   typeMovie,
	}
	return c.subscribe(ctx, payload)
}

// SubscribeSeries submits a series subscription, optionally scoped to one
// season. bestVersion asks MoviePilot to upgrade an existing copy.
func (c *Client) SubscribeSeries(ctx context.Context, name string, tmdbID int, seasonNumber *int, bestVersion bool) error {
	payload := map[string]any{
		"name":   name,
		"tmdbid": tmdbID,
		"type":   typeSeries,
	}
	if seasonNumber != nil {
		payload["season"] = *seasonNumber
	}
	if bestVersion {
		payload["best_version"] = 1
	}
	return c.subscribe(ctx, payload)
}

func (c *Client) subscribe(ctx context.Context, payload map[string]any) error {
	log := logger.FromCtx(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := c.doAuthed(ctx, http.MethodPost, "/api/v1/subscribe/", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("subscribe failed: %s", resp.Status)
	}

	// MoviePilot reports logical failures inside a 200 response
	var result struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &result); err == nil && result.Success != nil && !*result.Success {
		// an already-existing subscription is not a failure
		if strings.Contains(result.Message, "已存在") {
			log.Debugw("subscription already exists", "name", payload["name"])
			return nil
		}
		return fmt.Errorf("subscribe rejected: %s", result.Message)
	}

	log.Infow("submitted subscription", "name", payload["name"], "tmdbid", payload["tmdbid"])
	return nil
}

// doAuthed performs an authenticated request, logging in on demand and
// retrying once when the cached token has expired.
func (c *Client) doAuthed(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if c.http == nil {
		return nil, errors.New("http client is nil")
	}

	token, err := c.accessToken(ctx, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.request(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		token, err = c.accessToken(ctx, true)
		if err != nil {
			return nil, err
		}
		return c.request(ctx, method, path, body, token)
	}

	return resp, nil
}

func (c *Client) request(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	u := url.URL{
		Scheme: c.scheme,
		Host:   c.host,
		Path:   path,
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return c.http.Do(req)
}

func (c *Client) accessToken(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !refresh {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	u := url.URL{
		Scheme: c.scheme,
		Host:   c.host,
		Path:   "/api/v1/login/access-token",
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("moviepilot login failed: %s", resp.Status)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if result.AccessToken == "" {
		return "", errors.New("moviepilot login returned no token")
	}

	c.token = result.AccessToken
	return c.token, nil
}
