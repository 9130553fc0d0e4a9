package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "collectarr",
	Short: "collectarr cli",
	Long:  `keeps a media server's collections, watchlist and actor subscriptions reconciled`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
}

const (
	defaultJobTicker = time.Hour * 6
)

func initConfig() {
	viper.SetConfigFile(cfgFile)

	viper.SetEnvPrefix("COLLECTARR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	viper.SetDefault("emby.scheme", "http")
	viper.SetDefault("emby.host", "localhost:8096")
	viper.SetDefault("emby.apiKey", "")
	viper.SetDefault("emby.userId", "")
	viper.SetDefault("emby.libraryIds", []string{})

	viper.SetDefault("tmdb.apiKey", "")
	viper.SetDefault("tmdb.language", "zh-CN")
	viper.SetDefault("tmdb.backoff", time.Millisecond*500)
	viper.SetDefault("tmdb.maxRetries", 3)

	viper.SetDefault("moviepilot.scheme", "http")
	viper.SetDefault("moviepilot.host", "")
	viper.SetDefault("moviepilot.username", "")
	viper.SetDefault("moviepilot.password", "")

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("storage.filePath", "collectarr.sqlite")

	viper.SetDefault("manager.indexBatchSize", 200)
	viper.SetDefault("manager.subscribeDelay", time.Second*2)
	viper.SetDefault("manager.listCacheDir", ".cache/lists")
	viper.SetDefault("manager.listCacheTTL", time.Hour*24)

	viper.SetDefault("manager.jobs.fullScan", time.Hour*24)
	viper.SetDefault("manager.jobs.populateMetadata", defaultJobTicker)
	viper.SetDefault("manager.jobs.syncPersonMap", time.Hour*24)
	viper.SetDefault("manager.jobs.enrichAliases", time.Hour*12)
	viper.SetDefault("manager.jobs.processWatchlist", defaultJobTicker)
	viper.SetDefault("manager.jobs.refreshCollections", defaultJobTicker)
	viper.SetDefault("manager.jobs.customCollections", defaultJobTicker)
	viper.SetDefault("manager.jobs.actorTracking", time.Hour*24)
	viper.SetDefault("manager.jobs.autoSubscribe", defaultJobTicker)
	viper.SetDefault("manager.jobs.jobScheduleInterval", time.Minute)
	viper.SetDefault("manager.jobs.cleanupPeriod", time.Hour*24*7)
	viper.SetDefault("manager.jobs.minJobsToKeep", 5)
}
