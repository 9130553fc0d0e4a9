package cmd

import (
	"context"
	"fmt"

	"github.com/collectarr/collectarr/config"
	"github.com/collectarr/collectarr/pkg/logger"
	"github.com/collectarr/collectarr/pkg/manager"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	taskCollectionID   int32
	taskSubscriptionID int32
	taskChainLinks     []string
)

// taskCmd represents the task command
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "run and inspect reconciliation tasks",
	Long:  `run and inspect reconciliation tasks`,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "list task keys",
	Run: func(cmd *cobra.Command, args []string) {
		for _, key := range manager.TaskKeys() {
			fmt.Println(key)
		}
	},
}

var taskRunCmd = &cobra.Command{
	Use:   "run <key>",
	Short: "run a task to completion",
	Args:  cobra.ExactArgs(1),
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

		ctx := logger.WithCtx(context.Background(), log)

		jobType := manager.JobType(args[0])
		executors := m.Executors()
		executor, ok := executors[jobType]
		if !ok {
			log.Fatalw("unknown task", "task", args[0])
		}

		payload := manager.TaskPayload{
			CollectionID:   taskCollectionID,
			SubscriptionID: taskSubscriptionID,
			Chain:          taskChainLinks,
		}

		if err := executor(ctx, 0, payload); err != nil {
			log.Fatalw("task failed", "task", args[0], "error", err)
		}
		log.Infow("task finished", "task", args[0])
	},
}

func init() {
	taskRunCmd.Flags().Int32Var(&taskCollectionID, "collection-id", 0, "collection id for parameterized tasks")
	taskRunCmd.Flags().Int32Var(&taskSubscriptionID, "subscription-id", 0, "actor subscription id for parameterized tasks")
	taskRunCmd.Flags().StringSliceVar(&taskChainLinks, "chain", nil, "task keys for a task chain")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskRunCmd)
	rootCmd.AddCommand(taskCmd)
}
