package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/collectarr/collectarr/config"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/storage"
	"github.com/collectarr/collectarr/pkg/storage/sqlite"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	backupFile   string
	backupTables []string
	importMode   string
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "export and import the database",
	Long:  `export and import the database`,
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "export tables to a json document",
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		store := openStore(log)
		defer store.Close()

		doc, err := store.ExportAll(context.Background(), backupTables)
		if err != nil {
			log.Fatalw("failed to export", "error", err)
		}

		encoded, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			log.Fatalw("failed to encode backup", "error", err)
		}

		if backupFile == "" {
			os.Stdout.Write(encoded)
			return
		}
		if err := os.WriteFile(backupFile, encoded, 0o644); err != nil {
			log.Fatalw("failed to write backup file", "error", err)
		}
		log.Infow("backup written", "file", backupFile)
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import",
	Short: "apply a json backup document",
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		if backupFile == "" {
			log.Fatal("a backup file is required")
		}

		b, err := os.ReadFile(backupFile)
		if err != nil {
			log.Fatalw("failed to read backup file", "error", err)
		}

		var doc storage.BackupDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			log.Fatalw("malformed backup document", "error", err)
		}

		store := openStore(log)
		defer store.Close()

		if err := store.ImportAll(context.Background(), &doc, storage.ImportMode(importMode)); err != nil {
			log.Fatalw("failed to import", "error", err)
		}
		log.Infow("backup imported", "file", backupFile, "mode", importMode)
	},
}

func openStore(log *zap.SugaredLogger) storage.Storage {
	cfg, err := config.New(viper.GetViper())
	if err != nil {
		log.Fatalw("failed to read configurations", "error", err)
	}

	store, err := sqlite.New(cfg.Storage.FilePath)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	return store
}

func init() {
	backupCmd.PersistentFlags().StringVarP(&backupFile, "file", "f", "", "backup file path")
	backupExportCmd.Flags().StringSliceVar(&backupTables, "tables", nil, "tables to export, defaults to all")
	backupImportCmd.Flags().StringVar(&importMode, "mode", string(storage.ImportModeMerge), "import mode: overwrite or merge")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}
