package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Emby       Emby       `json:"emby" yaml:"emby" mapstructure:"emby"`
	TMDB       TMDB       `json:"tmdb" yaml:"tmdb" mapstructure:"tmdb"`
	MoviePilot MoviePilot `json:"moviepilot" yaml:"moviepilot" mapstructure:"moviepilot"`
	Storage    Storage    `json:"storage" yaml:"storage" mapstructure:"storage"`
	Server     Server     `json:"server" yaml:"server" mapstructure:"server"`
	Manager    Manager    `json:"manager" yaml:"manager" mapstructure:"manager"`
}

type Emby struct {
	Scheme     string   `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host       string   `json:"host" yaml:"host" mapstructure:"host"`
	APIKey     string   `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	UserID     string   `json:"userId" yaml:"userId" mapstructure:"userId"`
	LibraryIDs []string `json:"libraryIds" yaml:"libraryIds" mapstructure:"libraryIds"`
}

type TMDB struct {
	APIKey      string        `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	Language    string        `json:"language" yaml:"language" mapstructure:"language"`
	BaseBackoff time.Duration `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
}

type MoviePilot struct {
	Scheme   string `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
}

type Server struct {
	Port int `json:"port" yaml:"port" mapstructure:"port"`
}

// Storage configuration is assumed to be for sqlite database only currently
type Storage struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"filePath"`
}

// Manager houses configuration related to the reconcilers and the task
// orchestrator.
type Manager struct {
	IndexBatchSize int           `json:"indexBatchSize" yaml:"indexBatchSize" mapstructure:"indexBatchSize"`
	SubscribeDelay time.Duration `json:"subscribeDelay" yaml:"subscribeDelay" mapstructure:"subscribeDelay"`
	ListCacheDir   string        `json:"listCacheDir" yaml:"listCacheDir" mapstructure:"listCacheDir"`
	ListCacheTTL   time.Duration `json:"listCacheTTL" yaml:"listCacheTTL" mapstructure:"listCacheTTL"`
	Jobs           Jobs          `json:"jobs" yaml:"jobs" mapstructure:"jobs"`
}

// Jobs carries the per-task scheduling intervals. A zero interval disables
// interval scheduling for that task; it can still be triggered by hand.
type Jobs struct {
	FullScan            time.Duration `json:"fullScan" yaml:"fullScan" mapstructure:"fullScan"`
	PopulateMetadata    time.Duration `json:"populateMetadata" yaml:"populateMetadata" mapstructure:"populateMetadata"`
	SyncPersonMap       time.Duration `json:"syncPersonMap" yaml:"syncPersonMap" mapstructure:"syncPersonMap"`
	EnrichAliases       time.Duration `json:"enrichAliases" yaml:"enrichAliases" mapstructure:"enrichAliases"`
	ProcessWatchlist    time.Duration `json:"processWatchlist" yaml:"processWatchlist" mapstructure:"processWatchlist"`
	RefreshCollections  time.Duration `json:"refreshCollections" yaml:"refreshCollections" mapstructure:"refreshCollections"`
	CustomCollections   time.Duration `json:"customCollections" yaml:"customCollections" mapstructure:"customCollections"`
	ActorTracking       time.Duration `json:"actorTracking" yaml:"actorTracking" mapstructure:"actorTracking"`
	AutoSubscribe       time.Duration `json:"autoSubscribe" yaml:"autoSubscribe" mapstructure:"autoSubscribe"`
	JobScheduleInterval time.Duration `json:"jobScheduleInterval" yaml:"jobScheduleInterval" mapstructure:"jobScheduleInterval"`
	CleanupPeriod       time.Duration `json:"cleanupPeriod" yaml:"cleanupPeriod" mapstructure:"cleanupPeriod"`
	MinJobsToKeep       int           `json:"minJobsToKeep" yaml:"minJobsToKeep" mapstructure:"minJobsToKeep"`
}

type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads a new configuration
func New(cu ConfigUnmarshaler) (Config, error) {
	var c Config

	if cu.ConfigFileUsed() != "" {
		err := cu.ReadInConfig()
		if err != nil {
			return c, err
		}
	}

	err := cu.Unmarshal(&c)
	return c, err
}
