package cmd

import (
	"context"

	"github.com/collectarr/collectarr/config"
	"github.com/collectarr/collectarr/pkg/emby"
	chttp "github.com/collectarr/collectarr/pkg/http"
	cio "github.com/collectarr/collectarr/pkg/io"
	"github.com/collectarr/collectarr/pkg/lists"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/manager"
	"github.com/collectarr/collectarr/pkg/maoyan"
	"github.com/collectarr/collectarr/pkg/moviepilot"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite"
	"github.com/collectarr/collectarr/pkg/tmdb"
	"github.com/collectarr/collectarr/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the reconciliation server",
	Long:  `start the reconciliation server`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatalw("failed to read configurations", "error", err)
		}

		store, m, err := buildManager(cfg)
		if err != nil {
			log.Fatalw("failed to wire dependencies", "error", err)
		}
		defer store.Close()

		scheduler := manager.NewScheduler(store, cfg.Manager, m.Executors())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ctx = logger.WithCtx(ctx, log)

		go func() {
			if err := scheduler.Run(ctx); err != nil {
				log.Errorw("scheduler stopped", "error", err)
			}
		}()

		srv := server.New(log, m, scheduler, store)
		log.Error(srv.Serve(cfg.Server.Port))
	},
}

// buildManager wires the clients and storage a manager needs from config.
func buildManager(cfg config.Config) (storage.Storage, manager.MediaManager, error) {
	store, err := sqlite.New(cfg.Storage.FilePath)
	if err != nil {
		return nil, manager.MediaManager{}, err
	}

	httpClient := chttp.NewRateLimitedHTTPClient(
		chttp.WithMaxRetries(cfg.TMDB.MaxRetries),
		chttp.WithBaseBackoff(cfg.TMDB.BaseBackoff),
	)

	embyClient := emby.New(httpClient, cfg.Emby.Scheme, cfg.Emby.Host, cfg.Emby.APIKey, cfg.Emby.UserID)
	tmdbClient := tmdb.New(httpClient, cfg.TMDB.APIKey, cfg.TMDB.Language)
	subscriber := moviepilot.New(httpClient, cfg.MoviePilot.Scheme, cfg.MoviePilot.Host, cfg.MoviePilot.Username, cfg.MoviePilot.Password)

	charts := maoyan.NewFetcher(httpClient, &cio.MediaFileSystem{}, cfg.Manager.ListCacheDir, cfg.Manager.ListCacheTTL)
	importer := lists.NewImporter(tmdbClient, httpClient, charts)

	m := manager.New(embyClient, tmdbClient, subscriber, importer, store, cfg.Manager, cfg.Emby.LibraryIDs)
	return store, m, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
