package storage

import (
	"context"
	"errors"
	"time"

	"github.com/collectarr/collectarr/pkg/machine"
	"github.com/collectarr/collectarr/pkg/storage/sqlite/schema/gen/model"
	"github.com/go-jet/jet/v2/sqlite"
)

var ErrNotFound = errors.New("not found in storage")
var ErrJobAlreadyPending = errors.New("job of this type already pending")

type Storage interface {
	MediaMetadataStorage
	PersonStorage
	TranslationStorage
	CustomCollectionStorage
	NativeCollectionStorage
	WatchlistStorage
	ActorStorage
	LogStorage
	JobStorage
	BackupStorage
	Close() error
}

// MediaStatus classifies a tracked item inside a collection snapshot.
type MediaStatus string

const (
	MediaStatusNew            MediaStatus = ""
	MediaStatusInLibrary      MediaStatus = "IN_LIBRARY"
	MediaStatusSubscribed     MediaStatus = "SUBSCRIBED"
	MediaStatusPendingRelease MediaStatus = "PENDING_RELEASE"
	MediaStatusMissing        MediaStatus = "MISSING"
)

// Machine returns the allowed status transitions for a snapshot item.
// IN_LIBRARY is terminal; leaving the library is handled by the indexer diff
// which drops the row entirely.
func (s MediaStatus) Machine() *machine.StateMachine[MediaStatus] {
	return machine.New(s,
		machine.From(MediaStatusNew).To(MediaStatusInLibrary, MediaStatusSubscribed, MediaStatusPendingRelease, MediaStatusMissing),
		machine.From(MediaStatusPendingRelease).To(MediaStatusMissing, MediaStatusSubscribed, MediaStatusInLibrary),
		machine.From(MediaStatusMissing).To(MediaStatusSubscribed, MediaStatusInLibrary),
		machine.From(MediaStatusSubscribed).To(MediaStatusMissing, MediaStatusInLibrary),
	)
}

// SnapshotItem is one row of a persisted collection snapshot. The item type is
// stored per row so the subscribe gate never has to guess it from the
// collection definition.
type SnapshotItem struct {
	TmdbID      string      `json:"tmdb_id"`
	ItemType    string      `json:"item_type,omitempty"`
	Title       string      `json:"title"`
	ReleaseDate string      `json:"release_date"`
	PosterPath  string      `json:"poster_path,omitempty"`
	Status      MediaStatus `json:"status"`
}

// WatchlistState tracks a series through the watchlist lifecycle.
type WatchlistState string

const (
	WatchlistStateNew       WatchlistState = ""
	WatchlistStateWatching  WatchlistState = "Watching"
	WatchlistStatePaused    WatchlistState = "Paused"
	WatchlistStateCompleted WatchlistState = "Completed"
)

// Machine returns the allowed watchlist transitions. Completed series can
// revive when a new season shows up on TMDb.
func (s WatchlistState) Machine() *machine.StateMachine[WatchlistState] {
	return machine.New(s,
		machine.From(WatchlistStateNew).To(WatchlistStateWatching),
		machine.From(WatchlistStateWatching).To(WatchlistStatePaused, WatchlistStateCompleted),
		machine.From(WatchlistStatePaused).To(WatchlistStateWatching, WatchlistStateCompleted),
		machine.From(WatchlistStateCompleted).To(WatchlistStateWatching),
	)
}

// MissingSeason is one absent season recorded on a watchlist row.
type MissingSeason struct {
	SeasonNumber int    `json:"season_number"`
	AirDate      string `json:"air_date"`
	Name         string `json:"name,omitempty"`
}

// MissingEpisode is one absent episode recorded on a watchlist row.
type MissingEpisode struct {
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
	Name          string `json:"name,omitempty"`
}

// MissingInfo is the structured payload of watchlist.missing_info_json.
type MissingInfo struct {
	MissingSeasons  []MissingSeason  `json:"missing_seasons"`
	MissingEpisodes []MissingEpisode `json:"missing_episodes"`
}

// PersonIDs carries the identifiers handed to UpsertPerson. Any subset may be
// set; at least one ID or a name is required.
type PersonIDs struct {
	Name         string
	EmbyPersonID string
	TmdbPersonID int32
	ImdbID       string
	DoubanID     string
}

type MediaMetadataStorage interface {
	UpsertMediaMetadataBatch(ctx context.Context, batch []model.MediaMetadata) error
	DeleteMediaMetadataByTmdbIDs(ctx context.Context, pairs []MediaKey) error
	GetMediaMetadata(ctx context.Context, tmdbID, itemType string) (*model.MediaMetadata, error)
	GetMediaMetadataByTmdbID(ctx context.Context, tmdbID string) (*model.MediaMetadata, error)
	ListMediaMetadata(ctx context.Context, itemType string) ([]*model.MediaMetadata, error)
	ListMediaSyncInfo(ctx context.Context) ([]*MediaSyncInfo, error)
}

// MediaKey identifies a media_metadata row.
type MediaKey struct {
	TmdbID   string
	ItemType string
}

// MediaSyncInfo is the slim projection the indexer diffs against.
type MediaSyncInfo struct {
	TmdbID       string `alias:"media_metadata.tmdb_id"`
	ItemType     string `alias:"media_metadata.item_type"`
	LastSyncedAt *time.Time
}

type PersonStorage interface {
	// UpsertPerson merges the given identifiers into the identity map,
	// refusing to merge when a shared ID column would point at a different
	// existing row. It returns the map id of the row that now carries the
	// identifiers, which may be a pre-existing conflicting row.
	UpsertPerson(ctx context.Context, ids PersonIDs) (int32, error)
	GetPersonByEmbyID(ctx context.Context, embyPersonID string) (*model.PersonIdentityMap, error)
	GetPersonByTmdbID(ctx context.Context, tmdbPersonID int32) (*model.PersonIdentityMap, error)
	ListPersonsForEnrichment(ctx context.Context, cooldownDays int) ([]*model.PersonIdentityMap, error)
	UpdatePersonImdbID(ctx context.Context, mapID int32, imdbID string) error
}

type TranslationStorage interface {
	SaveTranslation(ctx context.Context, original, translated, engine string) error
	// GetTranslation deletes and reports not-found for cached translations
	// that no longer pass the target-script check.
	GetTranslation(ctx context.Context, original string) (*model.TranslationCache, error)
}

type CustomCollectionStorage interface {
	CreateCustomCollection(ctx context.Context, collection model.CustomCollections) (int32, error)
	GetCustomCollection(ctx context.Context, id int32) (*model.CustomCollections, error)
	ListCustomCollections(ctx context.Context, where ...sqlite.BoolExpression) ([]*model.CustomCollections, error)
	UpdateCustomCollection(ctx context.Context, id int32, name, collectionType, definitionJSON, status string) error
	DeleteCustomCollection(ctx context.Context, id int32) error
	// UpdateCustomCollectionAfterSync replaces the snapshot and health stats
	// in a single statement so readers never see a half-written pass.
	UpdateCustomCollectionAfterSync(ctx context.Context, id int32, sync CollectionSyncResult) error
	UpdateCustomCollectionSnapshot(ctx context.Context, id int32, items []SnapshotItem) error
	// MatchAndUpdateListCollectionsOnItemAdd flips the matching snapshot row
	// of every active list collection to IN_LIBRARY and returns the affected
	// Emby collections.
	MatchAndUpdateListCollectionsOnItemAdd(ctx context.Context, tmdbID, name string) ([]AffectedCollection, error)
}

// CollectionSyncResult is everything a reconcile pass persists on a custom
// collection.
type CollectionSyncResult struct {
	EmbyCollectionID *string
	ItemTypes        []string
	HealthStatus     string
	InLibraryCount   int32
	MissingCount     int32
	Snapshot         []SnapshotItem
	PosterPath       *string
}

// AffectedCollection names an Emby collection whose snapshot changed during
// webhook propagation.
type AffectedCollection struct {
	ID               int32
	Name             string
	EmbyCollectionID string
}

type NativeCollectionStorage interface {
	UpsertNativeCollection(ctx context.Context, info model.CollectionsInfo) error
	GetNativeCollection(ctx context.Context, embyCollectionID string) (*model.CollectionsInfo, error)
	ListNativeCollections(ctx context.Context, where ...sqlite.BoolExpression) ([]*model.CollectionsInfo, error)
	DeleteNativeCollectionsNotIn(ctx context.Context, embyCollectionIDs []string) (int64, error)
	UpdateNativeCollectionSnapshot(ctx context.Context, embyCollectionID string, status string, items []SnapshotItem) error
	// BatchMarkMoviesSubscribed flips every MISSING snapshot row of the given
	// collections to SUBSCRIBED without contacting the downloader.
	BatchMarkMoviesSubscribed(ctx context.Context, embyCollectionIDs []string) (int, error)
}

type WatchlistStorage interface {
	AddToWatchlist(ctx context.Context, entry model.Watchlist) error
	GetWatchlistItem(ctx context.Context, itemID string) (*model.Watchlist, error)
	ListWatchlist(ctx context.Context, where ...sqlite.BoolExpression) ([]*model.Watchlist, error)
	RemoveFromWatchlist(ctx context.Context, itemID string) error
	UpdateWatchlistItem(ctx context.Context, itemID string, update WatchlistUpdate) error
	UpdateWatchlistMissingInfo(ctx context.Context, itemID string, info MissingInfo) error
	SetWatchlistForceEnded(ctx context.Context, itemID string, forceEnded bool) error
}

// WatchlistUpdate carries the per-pass mutation of a watchlist row.
type WatchlistUpdate struct {
	Status               WatchlistState
	PausedUntil          *string
	TmdbStatus           *string
	NextEpisodeToAirJSON *string
	MissingInfo          *MissingInfo
}

type ActorStorage interface {
	CreateActorSubscription(ctx context.Context, sub model.ActorSubscriptions) (int32, error)
	GetActorSubscription(ctx context.Context, id int32) (*model.ActorSubscriptions, error)
	ListActorSubscriptions(ctx context.Context, where ...sqlite.BoolExpression) ([]*model.ActorSubscriptions, error)
	UpdateActorSubscription(ctx context.Context, sub model.ActorSubscriptions) error
	DeleteActorSubscription(ctx context.Context, id int32) error
	MarkActorSubscriptionChecked(ctx context.Context, id int32) error
	ListTrackedActorMedia(ctx context.Context, subscriptionID int32) ([]*model.TrackedActorMedia, error)
	// ApplyTrackedMediaDiff applies the insert/update/delete sets computed by
	// one actor scan in a single transaction.
	ApplyTrackedMediaDiff(ctx context.Context, subscriptionID int32, diff TrackedMediaDiff) error
}

// TrackedMediaDiff is the outcome of one actor filmography scan.
type TrackedMediaDiff struct {
	Insert []model.TrackedActorMedia
	Update []model.TrackedActorMedia
	Delete []int32 // tmdb media ids now outside the filter
}

type LogStorage interface {
	SaveProcessed(ctx context.Context, entry model.ProcessedLog) error
	SaveFailed(ctx context.Context, entry model.FailedLog) error
	GetFailed(ctx context.Context, itemID string) (*model.FailedLog, error)
	// MoveFailedToProcessed removes the failed row and writes the processed
	// row in one transaction.
	MoveFailedToProcessed(ctx context.Context, itemID string, score *float64) error
	ListFailed(ctx context.Context) ([]*model.FailedLog, error)
}

type JobState string

const (
	JobStateNew       JobState = ""
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateError     JobState = "error"
	JobStateDone      JobState = "done"
	JobStateCancelled JobState = "cancelled"
)

type Job struct {
	model.Job
	State JobState `alias:"job_transition.to_state" json:"state"`
}

type JobTransition model.JobTransition

func (j Job) Machine() *machine.StateMachine[JobState] {
	return machine.New(j.State,
		machine.From(JobStateNew).To(JobStatePending),
		machine.From(JobStatePending).To(JobStateRunning, JobStateCancelled),
		machine.From(JobStateRunning).To(JobStateError, JobStateDone, JobStateCancelled),
	)
}

type JobStorage interface {
	CreateJob(ctx context.Context, job Job, initialState JobState) (int64, error)
	GetJob(ctx context.Context, id int64) (*Job, error)
	CountJobs(ctx context.Context, where ...sqlite.BoolExpression) (int, error)
	ListJobs(ctx context.Context, offset, limit int, where ...sqlite.BoolExpression) ([]*Job, error)
	UpdateJobState(ctx context.Context, id int64, state JobState, errorMsg *string) error
	UpdateJobProgress(ctx context.Context, id int64, progress int32, message string) error
	DeleteJob(ctx context.Context, id int64) error
	DeleteJobs(ctx context.Context, where ...sqlite.BoolExpression) (int64, error)
}

// ImportMode selects how a backup document is applied.
type ImportMode string

const (
	ImportModeOverwrite ImportMode = "overwrite"
	ImportModeMerge     ImportMode = "merge"
)

// BackupDocument is the JSON interchange shape for export/import.
type BackupDocument struct {
	Data map[string][]map[string]any `json:"data"`
}

type BackupStorage interface {
	ExportAll(ctx context.Context, tables []string) (*BackupDocument, error)
	ImportAll(ctx context.Context, doc *BackupDocument, mode ImportMode) error
}
