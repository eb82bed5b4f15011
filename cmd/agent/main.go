// Command agent answers questions by routing them to a weather lookup or to
// the indexed documents, and manages the document index.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Weather and document question answering assistant",
	Long: `agent classifies each question as a weather question or a general one.
Weather questions are answered from live OpenWeatherMap data, everything else
from the documents indexed in Postgres/pgvector.

Subcommands: index (add documents), query (ask one question) and serve
(HTTP API).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "optional YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
