package manager

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/collectarr/collectarr/config"
	"github.com/collectarr/collectarr/pkg/emby"
	"github.com/collectarr/collectarr/pkg/filter"
	"github.com/collectarr/collectarr/pkg/lists"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/moviepilot"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/collectarr/collectarr/pkg/tmdb"
)

// detailWorkers bounds the concurrent TMDb/Emby fanout inside one task.
const detailWorkers = 5

const dateFormat = "2006-01-02"

// EmbyClientInterface is the server facade the manager consumes.
type EmbyClientInterface interface {
	GetLibraries(ctx context.Context) ([]emby.Library, error)
	GetItems(ctx context.Context, request emby.ItemsRequest) ([]emby.Item, int, error)
	GetLibraryItems(ctx context.Context, libraryIDs []string, itemTypes, fields string) ([]emby.Item, error)
	GetItem(ctx context.Context, itemID string) (*emby.Item, error)
	GetItemCount(ctx context.Context, parentID, itemType string) (int, error)
	ListBoxSets(ctx context.Context) ([]emby.Item, error)
	GetCollectionItems(ctx context.Context, collectionID string) ([]emby.Item, error)
	FindItemsByTmdbIDs(ctx context.Context, tmdbIDs []string) (map[string]emby.Item, error)
	CreateOrUpdateCollection(ctx context.Context, name string, tmdbIDs []string) (string, []string, error)
	AppendItemToCollection(ctx context.Context, collectionID, itemID string) error
	DeleteItem(ctx context.Context, itemID string) error
	GetPersons(ctx context.Context, startIndex, limit int) ([]emby.Item, int, error)
	UpdatePersonName(ctx context.Context, personID, name string) error
}

// ListResolver resolves a list definition to TMDb references.
type ListResolver interface {
	Resolve(ctx context.Context, def lists.Definition) []lists.MediaRef
}

// MediaManager drives the reconciliation engine: library index, collection
// passes, actor scans, the subscribe gate and webhook propagation.
type MediaManager struct {
	emby       EmbyClientInterface
	tmdb       tmdb.ITmdb
	subscriber moviepilot.ISubscriber
	lists      ListResolver
	storage    storage.Storage
	config     config.Manager
	libraryIDs []string
}

func New(embyClient EmbyClientInterface, tmdbClient tmdb.ITmdb, subscriber moviepilot.ISubscriber, listResolver ListResolver, store storage.Storage, cfg config.Manager, libraryIDs []string) MediaManager {
	return MediaManager{
		emby:       embyClient,
		tmdb:       tmdbClient,
		subscriber: subscriber,
		lists:      listResolver,
		storage:    store,
		config:     cfg,
		libraryIDs: libraryIDs,
	}
}

// progress persists a job's progress and message. Ad-hoc invocations pass
// jobID 0 and report nothing.
func (m MediaManager) progress(ctx context.Context, jobID int64, percent int32, message string) {
	if jobID == 0 {
		return
	}
	if err := m.storage.UpdateJobProgress(ctx, jobID, percent, message); err != nil {
		logger.FromCtx(ctx).Debugw("failed to update job progress", "job_id", jobID, "error", err)
	}
}

// session carries per-task state across reconcilers, most importantly the
// set of TMDb ids already subscribed during this run so the same work is
// never dispatched twice in one pass.
type session struct {
	subscribed map[string]struct{}
}

func newSession() *session {
	return &session{subscribed: make(map[string]struct{})}
}

func (s *session) markSubscribed(tmdbID string) {
	s.subscribed[tmdbID] = struct{}{}
}

func (s *session) alreadySubscribed(tmdbID string) bool {
	_, ok := s.subscribed[tmdbID]
	return ok
}

// classifyStatus applies the status precedence for one tracked item: library
// membership beats a sticky subscription, which beats a pending release.
func classifyStatus(tmdbID string, inLibrary map[string]struct{}, previous map[string]storage.MediaStatus, releaseDate string, today time.Time) storage.MediaStatus {
	if _, ok := inLibrary[tmdbID]; ok {
		return storage.MediaStatusInLibrary
	}
	if previous[tmdbID] == storage.MediaStatusSubscribed {
		return storage.MediaStatusSubscribed
	}
	if released, ok := parseDate(releaseDate); ok && released.After(today) {
		return storage.MediaStatusPendingRelease
	}
	return storage.MediaStatusMissing
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(dateFormat, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func parseInt32(value string) (int32, error) {
	parsed, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(parsed), nil
}

// today truncates now to a UTC calendar date so release comparisons ignore
// the time of day.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// containsHan reports whether the string carries at least one Han character.
func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// mediaView flattens a media_metadata row into the filter engine's input,
// decoding the JSON list columns. Malformed columns decode to empty lists.
func mediaView(row *model.MediaMetadata) filter.Media {
	view := filter.Media{
		Genres:    decodeStrings(row.GenresJSON),
		Studios:   decodeStrings(row.StudiosJSON),
		Countries: decodeStrings(row.CountriesJSON),
		Tags:      decodeStrings(row.TagsJSON),
		Actors:    decodePersonNames(row.ActorsJSON),
		Directors: decodePersonNames(row.DirectorsJSON),
	}
	if row.Title != nil {
		view.Title = *row.Title
	}
	if row.ReleaseYear != nil {
		view.ReleaseYear = int(*row.ReleaseYear)
	}
	if row.Rating != nil {
		view.Rating = *row.Rating
	}
	if row.ReleaseDate != nil {
		view.ReleaseDate = *row.ReleaseDate
	}
	if row.DateAdded != nil {
		view.DateAdded = *row.DateAdded
	}
	return view
}

func decodeStrings(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(*raw), &values); err != nil {
		return nil
	}
	return values
}

// metaPerson is one entry of the actors/directors JSON columns.
type metaPerson struct {
	ID           int32  `json:"id,omitempty"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name,omitempty"`
}

func decodePersonNames(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var persons []metaPerson
	if err := json.Unmarshal([]byte(*raw), &persons); err != nil {
		return nil
	}
	names := make([]string, 0, len(persons))
	for _, p := range persons {
		if name := strings.TrimSpace(p.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
