package emby

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

	chttp "github.com/collectarr/collectarr/pkg/http"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/google/go-querystring/query"
)

// ErrNotFound is returned when the server reports an item does not exist.
var ErrNotFound = errors.New("item not found")

// Client talks to an Emby/Jellyfin-compatible server. Authentication uses the
// X-Emby-Token header, which both servers accept.
type Client struct {
	http   chttp.HTTPClient
	scheme string
	host   string
	apiKey string
	userID string
}

func New(httpClient chttp.HTTPClient, scheme, host, apiKey, userID string) *Client {
	return &Client{
		http:   httpClient,
		scheme: scheme,
		host:   host,
		apiKey: apiKey,
		userID: userID,
	}
}

// GetLibraries lists the server's views for the configured user.
func (c *Client) GetLibraries(ctx context.Context) ([]Library, error) {
	u := c.url(fmt.Sprintf("/Users/%s/Views", c.userID), nil)

	b, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var response struct {
		Items []Library `json:"Items"`
	}
	if err := json.Unmarshal(b, &response); err != nil {
		return nil, fmt.Errorf("failed to decode libraries: %w", err)
	}

	return response.Items, nil
}

// GetItems fetches items from the given libraries. Pagination is handled by
// the caller through StartIndex/Limit on the request.
func (c *Client) GetItems(ctx context.Context, request ItemsRequest) ([]Item, int, error) {
	values, err := query.Values(request)
	if err != nil {
		return nil, 0, err
	}

	u := c.url(fmt.Sprintf("/Users/%s/Items", c.userID), values)

	b, err := c.get(ctx, u)
	if err != nil {
		return nil, 0, err
	}

	var response itemsResponse
	if err := json.Unmarshal(b, &response); err != nil {
		return nil, 0, fmt.Errorf("failed to decode items: %w", err)
	}

	return response.Items, response.TotalRecordCount, nil
}

// GetLibraryItems pages through every item of the given libraries.
func (c *Client) GetLibraryItems(ctx context.Context, libraryIDs []string, itemTypes, fields string) ([]Item, error) {
	const pageSize = 500

	items := make([]Item, 0)
	for _, libraryID := range libraryIDs {
		start := 0
		for {
			page, total, err := c.GetItems(ctx, ItemsRequest{
				ParentID:         libraryID,
				IncludeItemTypes: itemTypes,
				Fields:           fields,
				Recursive:        true,
				StartIndex:       start,
				Limit:            pageSize,
				EnableTotalCount: true,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list items of library %s: %w", libraryID, err)
			}

			items = append(items, page...)
			start += len(page)
			if len(page) == 0 || start >= total {
				break
			}
		}
	}

	return items, nil
}

// GetItem fetches one item with full details.
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	values := url.Values{}
	values.Set("Fields", IndexFields)

	u := c.url(fmt.Sprintf("/Users/%s/Items/%s", c.userID, itemID), values)

	b, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	item := &Item{}
	if err := json.Unmarshal(b, item); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	if item.ID == "" {
		return nil, ErrNotFound
	}

	return item, nil
}

// GetItemCount returns the number of items of the given type under a parent.
func (c *Client) GetItemCount(ctx context.Context, parentID, itemType string) (int, error) {
	_, total, err := c.GetItems(ctx, ItemsRequest{
		ParentID:         parentID,
		IncludeItemTypes: itemType,
		Recursive:        true,
		Limit:            1,
		EnableTotalCount: true,
	})
	return total, err
}

// ListBoxSets lists the server-side collections.
func (c *Client) ListBoxSets(ctx context.Context) ([]Item, error) {
	items, _, err := c.GetItems(ctx, ItemsRequest{
		IncludeItemTypes: "BoxSet",
		Fields:           "ProviderIds,Name",
		Recursive:        true,
	})
	return items, err
}

// GetCollectionItems lists the members of one collection.
func (c *Client) GetCollectionItems(ctx context.Context, collectionID string) ([]Item, error) {
	items, _, err := c.GetItems(ctx, ItemsRequest{
		ParentID: collectionID,
		Fields:   "ProviderIds,Name,PremiereDate",
	})
	return items, err
}

// FindItemsByTmdbIDs resolves TMDb ids to library items via the provider-id
// lookup. Returns a map keyed by tmdb id; absent keys are not in the library.
func (c *Client) FindItemsByTmdbIDs(ctx context.Context, tmdbIDs []string) (map[string]Item, error) {
	found := make(map[string]Item, len(tmdbIDs))

	// the provider lookup accepts a comma list; chunk to keep URLs sane
	const chunkSize = 50
	for start := 0; start < len(tmdbIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(tmdbIDs) {
			end = len(tmdbIDs)
		}

		refs := make([]string, 0, end-start)
		for _, id := range tmdbIDs[start:end] {
			refs = append(refs, "tmdb."+id)
		}

		items, _, err := c.GetItems(ctx, ItemsRequest{
			AnyProviderIDs: strings.Join(refs, ","),
			Fields:         "ProviderIds,Name",
			Recursive:      true,
		})
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			if tmdbID := item.TmdbID(); tmdbID != "" {
				found[tmdbID] = item
			}
		}
	}

	return found, nil
}

// CreateOrUpdateCollection ensures a collection with the given name exists and
// contains every library item matching the tmdb ids. Returns the collection id
// and the subset of tmdb ids present in the library.
func (c *Client) CreateOrUpdateCollection(ctx context.Context, name string, tmdbIDs []string) (string, []string, error) {
	log := logger.FromCtx(ctx)

	present, err := c.FindItemsByTmdbIDs(ctx, tmdbIDs)
	if err != nil {
		return "", nil, err
	}

	presentIDs := make([]string, 0, len(present))
	itemIDs := make([]string, 0, len(present))
	for _, tmdbID := range tmdbIDs {
		if item, ok := present[tmdbID]; ok {
			presentIDs = append(presentIDs, tmdbID)
			itemIDs = append(itemIDs, item.ID)
		}
	}

	if len(itemIDs) == 0 {
		log.Debugw("no library items for collection, skipping creation", "collection", name)
		return "", presentIDs, nil
	}

	collectionID, err := c.findBoxSetByName(ctx, name)
	if err != nil {
		return "", nil, err
	}

	if collectionID == "" {
		values := url.Values{}
		values.Set("Name", name)
		values.Set("Ids", strings.Join(itemIDs, ","))

		u := c.url("/Collections", values)
		b, err := c.post(ctx, u, nil)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create collection %q: %w", name, err)
		}

		var response struct {
			ID string `json:"Id"`
		}
		if err := json.Unmarshal(b, &response); err != nil {
			return "", nil, fmt.Errorf("failed to decode create collection response: %w", err)
		}

		return response.ID, presentIDs, nil
	}

	values := url.Values{}
	values.Set("Ids", strings.Join(itemIDs, ","))
	u := c.url(fmt.Sprintf("/Collections/%s/Items", collectionID), values)
	if _, err := c.post(ctx, u, nil); err != nil {
		return "", nil, fmt.Errorf("failed to update collection %q: %w", name, err)
	}

	return collectionID, presentIDs, nil
}

// AppendItemToCollection adds one library item to an existing collection.
// Adding an item that is already a member is a server-side no-op.
func (c *Client) AppendItemToCollection(ctx context.Context, collectionID, itemID string) error {
	values := url.Values{}
	values.Set("Ids", itemID)

	u := c.url(fmt.Sprintf("/Collections/%s/Items", collectionID), values)
	_, err := c.post(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("failed to append item to collection: %w", err)
	}

	return nil
}

// DeleteItem removes an item (used for retiring backing collections).
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	u := c.url(fmt.Sprintf("/Items/%s", itemID), nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("status code not ok: %s", resp.Status)
	}

	return nil
}

// GetPersons pages through the server's person catalog.
func (c *Client) GetPersons(ctx context.Context, startIndex, limit int) ([]Item, int, error) {
	values := url.Values{}
	values.Set("StartIndex", fmt.Sprintf("%d", startIndex))
	values.Set("Limit", fmt.Sprintf("%d", limit))
	values.Set("Fields", "ProviderIds,Name")

	u := c.url("/Persons", values)

	b, err := c.get(ctx, u)
	if err != nil {
		return nil, 0, err
	}

	var response itemsResponse
	if err := json.Unmarshal(b, &response); err != nil {
		return nil, 0, fmt.Errorf("failed to decode persons: %w", err)
	}

	return response.Items, response.TotalRecordCount, nil
}

// UpdatePersonName renames a person entity on the server.
func (c *Client) UpdatePersonName(ctx context.Context, personID, name string) error {
	body, err := json.Marshal(map[string]string{"Id": personID, "Name": name})
	if err != nil {
		return err
	}

	u := c.url(fmt.Sprintf("/Items/%s", personID), nil)
	if _, err := c.post(ctx, u, body); err != nil {
		return fmt.Errorf("failed to update person name: %w", err)
	}

	return nil
}

func (c *Client) findBoxSetByName(ctx context.Context, name string) (string, error) {
	items, _, err := c.GetItems(ctx, ItemsRequest{
		IncludeItemTypes: "BoxSet",
		SearchTerm:       name,
		Recursive:        true,
	})
	if err != nil {
		return "", err
	}

	for _, item := range items {
		if item.Name == name {
			return item.ID, nil
		}
	}

	return "", nil
}

func (c *Client) url(path string, values url.Values) *url.URL {
	u := &url.URL{
		Scheme: c.scheme,
		Host:   c.host,
		Path:   path,
	}
	if values != nil {
		u.RawQuery = values.Encode()
	}
	return u
}

func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	return c.do(ctx, http.MethodGet, u, nil)
}

func (c *Client) post(ctx context.Context, u *url.URL, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, u, body)
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, body []byte) ([]byte, error) {
	log := logger.FromCtx(ctx)
	if c.http == nil {
		return nil, errors.New("http client is nil")
	}

	log.Debugw("emby request", "method", method, "url", u.String())

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", u.Path, ErrNotFound)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("status code not ok: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
