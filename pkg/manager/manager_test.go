package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/collectarr/collectarr/config"
	"github.com/collectarr/collectarr/pkg/emby"
	"github.com/collectarr/collectarr/pkg/lists"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite"
	"github.com/collectarr/collectarr/pkg/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestStore(t *testing.T) storage.Storage {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

// fakeEmby implements EmbyClientInterface with overridable hooks and records
// the mutations the manager performs.
type fakeEmby struct {
	mu sync.Mutex

	libraryItems    []emby.Item
	itemsByID       map[string]emby.Item
	boxsets         []emby.Item
	collectionItems map[string][]emby.Item
	persons         []emby.Item

	createOrUpdate func(name string, tmdbIDs []string) (string, []string, error)

	appended [][2]string
	deleted  []string
}

func (f *fakeEmby) GetLibraries(ctx context.Context) ([]emby.Library, error) {
	return []emby.Library{{ID: "lib1", Name: "Movies"}}, nil
}

func (f *fakeEmby) GetItems(ctx context.Context, request emby.ItemsRequest) ([]emby.Item, int, error) {
	items := f.collectionItems[request.ParentID]
	return items, len(items), nil
}

func (f *fakeEmby) GetLibraryItems(ctx context.Context, libraryIDs []string, itemTypes, fields string) ([]emby.Item, error) {
	return f.libraryItems, nil
}

func (f *fakeEmby) GetItem(ctx context.Context, itemID string) (*emby.Item, error) {
	if item, ok := f.itemsByID[itemID]; ok {
		return &item, nil
	}
	return nil, emby.ErrNotFound
}

func (f *fakeEmby) GetItemCount(ctx context.Context, parentID, itemType string) (int, error) {
	return len(f.collectionItems[parentID]), nil
}

func (f *fakeEmby) ListBoxSets(ctx context.Context) ([]emby.Item, error) {
	return f.boxsets, nil
}

func (f *fakeEmby) GetCollectionItems(ctx context.Context, collectionID string) ([]emby.Item, error) {
	return f.collectionItems[collectionID], nil
}

func (f *fakeEmby) FindItemsByTmdbIDs(ctx context.Context, tmdbIDs []string) (map[string]emby.Item, error) {
	found := make(map[string]emby.Item)
	for _, item := range f.libraryItems {
		for _, tmdbID := range tmdbIDs {
			if item.TmdbID() == tmdbID {
				found[tmdbID] = item
			}
		}
	}
	return found, nil
}

func (f *fakeEmby) CreateOrUpdateCollection(ctx context.Context, name string, tmdbIDs []string) (string, []string, error) {
	if f.createOrUpdate != nil {
		return f.createOrUpdate(name, tmdbIDs)
	}

	present, _ := f.FindItemsByTmdbIDs(ctx, tmdbIDs)
	presentIDs := make([]string, 0, len(present))
	for _, tmdbID := range tmdbIDs {
		if _, ok := present[tmdbID]; ok {
			presentIDs = append(presentIDs, tmdbID)
		}
	}
	if len(presentIDs) == 0 {
		return "", presentIDs, nil
	}
	return "boxset-" + name, presentIDs, nil
}

func (f *fakeEmby) AppendItemToCollection(ctx context.Context, collectionID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, [2]string{collectionID, itemID})
	return nil
}

func (f *fakeEmby) DeleteItem(ctx context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, itemID)
	return nil
}

func (f *fakeEmby) GetPersons(ctx context.Context, startIndex, limit int) ([]emby.Item, int, error) {
	if startIndex >= len(f.persons) {
		return nil, len(f.persons), nil
	}
	end := startIndex + limit
	if end > len(f.persons) {
		end = len(f.persons)
	}
	return f.persons[startIndex:end], len(f.persons), nil
}

func (f *fakeEmby) UpdatePersonName(ctx context.Context, personID, name string) error {
	return nil
}

// fakeTmdb implements tmdb.ITmdb from static maps.
type fakeTmdb struct {
	movies      map[int]*tmdb.MovieDetails
	tv          map[int]*tmdb.TVDetails
	seasons     map[int]map[int]*tmdb.SeasonDetails
	collections map[int]*tmdb.CollectionDetails
	persons     map[int]*tmdb.PersonDetails
	credits     map[int]*tmdb.CombinedCredits
}

func (f *fakeTmdb) GetMovieDetails(ctx context.Context, movieID int) (*tmdb.MovieDetails, error) {
	if details, ok := f.movies[movieID]; ok {
		return details, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) GetTVDetails(ctx context.Context, tvID int) (*tmdb.TVDetails, error) {
	if details, ok := f.tv[tvID]; ok {
		return details, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) GetSeason(ctx context.Context, tvID, seasonNumber int) (*tmdb.SeasonDetails, error) {
	if seasons, ok := f.seasons[tvID]; ok {
		if details, ok := seasons[seasonNumber]; ok {
			return details, nil
		}
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) GetCollectionDetails(ctx context.Context, collectionID int) (*tmdb.CollectionDetails, error) {
	if details, ok := f.collections[collectionID]; ok {
		return details, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) SearchMedia(ctx context.Context, title, mediaType string, yearHint int) ([]tmdb.SearchResult, error) {
	return nil, nil
}

func (f *fakeTmdb) ResolveIMDbID(ctx context.Context, imdbID string) (*tmdb.SearchResult, error) {
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) GetPersonDetails(ctx context.Context, personID int) (*tmdb.PersonDetails, error) {
	if details, ok := f.persons[personID]; ok {
		return details, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeTmdb) GetPersonCombinedCredits(ctx context.Context, personID int) (*tmdb.CombinedCredits, error) {
	if credits, ok := f.credits[personID]; ok {
		return credits, nil
	}
	return nil, tmdb.ErrNotFound
}

// fakeSubscriber records dispatches and can be told to fail.
type fakeSubscriber struct {
	mu     sync.Mutex
	movies []int
	series []int
	fail   bool
}

func (f *fakeSubscriber) SubscribeMovie(ctx context.Context, title string, tmdbID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("downloader unavailable")
	}
	f.movies = append(f.movies, tmdbID)
	return nil
}

func (f *fakeSubscriber) SubscribeSeries(ctx context.Context, name string, tmdbID int, seasonNumber *int, bestVersion bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("downloader unavailable")
	}
	f.series = append(f.series, tmdbID)
	return nil
}

func (f *fakeSubscriber) movieCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.movies)
}

// fakeLists resolves every definition to a fixed ref list.
type fakeLists struct {
	refs []lists.MediaRef
}

func (f *fakeLists) Resolve(ctx context.Context, def lists.Definition) []lists.MediaRef {
	return f.refs
}

func newTestManager(t *testing.T, embyClient *fakeEmby, tmdbClient *fakeTmdb, subscriber *fakeSubscriber, listResolver *fakeLists) (MediaManager, storage.Storage) {
	t.Helper()

	store := initTestStore(t)
	if embyClient == nil {
		embyClient = &fakeEmby{}
	}
	if tmdbClient == nil {
		tmdbClient = &fakeTmdb{}
	}
	if subscriber == nil {
		subscriber = &fakeSubscriber{}
	}
	if listResolver == nil {
		listResolver = &fakeLists{}
	}

	m := New(embyClient, tmdbClient, subscriber, listResolver, store, config.Manager{}, []string{"lib1"})
	return m, store
}

func strPtr(s string) *string { return &s }

func movieItem(id, tmdbID, name string) emby.Item {
	return emby.Item{
		ID:          id,
		Name:        name,
		Type:        "Movie",
		ProviderIds: map[string]string{"Tmdb": tmdbID},
	}
}

func TestClassifyStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inLibrary := map[string]struct{}{"100": {}}
	previous := map[string]storage.MediaStatus{
		"200": storage.MediaStatusSubscribed,
		"100": storage.MediaStatusSubscribed,
	}

	tests := []struct {
		name        string
		tmdbID      string
		releaseDate string
		want        storage.MediaStatus
	}{
		{"library beats sticky subscription", "100", "2020-01-01", storage.MediaStatusInLibrary},
		{"sticky subscription beats pending", "200", "2030-01-01", storage.MediaStatusSubscribed},
		{"future release pending", "300", "2030-01-01", storage.MediaStatusPendingRelease},
		{"released and absent is missing", "300", "2020-01-01", storage.MediaStatusMissing},
		{"release day counts as released", "300", "2025-06-01", storage.MediaStatusMissing},
		{"no release date is missing", "300", "", storage.MediaStatusMissing},
		{"unparseable date is missing", "300", "soon", storage.MediaStatusMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyStatus(tt.tmdbID, inLibrary, previous, tt.releaseDate, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionDedup(t *testing.T) {
	sess := newSession()
	assert.False(t, sess.alreadySubscribed("42"))

	sess.markSubscribed("42")
	assert.True(t, sess.alreadySubscribed("42"))
	assert.False(t, sess.alreadySubscribed("43"))
}

func TestContainsHan(t *testing.T) {
	assert.True(t, containsHan("流浪地球"))
	assert.True(t, containsHan("The Wandering Earth 流浪地球"))
	assert.False(t, containsHan("The Wandering Earth"))
	assert.False(t, containsHan(""))
}
