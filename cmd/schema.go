package cmd

import (
	"log"
	"os"

	"github.com/collectarr/collectarr/pkg/storage/sqlite"
	"github.com/spf13/cobra"

	jet "github.com/go-jet/jet/v2/generator/sqlite"
)

var outputDirectory string

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "generate database code",
	Long:  `generate database code`,
	Run: func(cmd *cobra.Command, args []string) {
		// opening the store runs the migrations, leaving a database jet can
		// introspect
		tmpStorage, err := sqlite.New("tmp.sqlite")
		if err != nil {
			log.Fatal(err)
		}
		defer os.Remove("tmp.sqlite")

		if err := tmpStorage.Close(); err != nil {
			log.Fatal(err)
		}

		if err := jet.GenerateDSN("tmp.sqlite", outputDirectory); err != nil {
			log.Fatal(err)
		}

		log.Printf("successfully generated to %s", outputDirectory)
	},
}

func init() {
	generateCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVarP(&outputDirectory, "out", "o", "./pkg/storage/sqlite/schema", "directory to output generated code to")
}
