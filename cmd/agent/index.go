package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/ingestion"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index local documents or a Google Drive folder",
	Long: `index extracts text from PDFs (OCR for scans), images, text and markdown
files, splits it into overlapping chunks, embeds them with Ollama and stores
them in pgvector. Files whose content was already indexed are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		asJSON, _ := cmd.Flags().GetBool("json")
		if list, _ := cmd.Flags().GetBool("list"); list {
			return listIndexed(cmd, a, asJSON)
		}

		if err := a.openStore(ctx); err != nil {
			return fmt.Errorf("DB init: %w", err)
		}
		if err := a.openLedger(ctx); err != nil {
			a.log.Warn("ingest ledger unavailable, every file will be indexed", zap.Error(err))
		}
		p := a.pipeline()

		folder, _ := cmd.Flags().GetString("gdrive-folder")
		var sum ingestion.Summary
		if folder != "" {
			src, err := ingestion.NewDriveSource(ctx, a.cfg.Ingestion.DriveCredentialsFile, a.cfg.Ingestion.DriveTokenFile)
			if err != nil {
				return err
			}
			sum, err = p.IngestDrive(ctx, src, folder)
			if err != nil {
				return err
			}
		} else {
			path, _ := cmd.Flags().GetString("path")
			if path == "" {
				path = a.cfg.Ingestion.DocumentsDir
			}
			sum, err = p.IngestPath(ctx, path)
			if err != nil {
				return err
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}
		fmt.Printf("Indexing complete: %d files, %d indexed, %d skipped, %d failed, %d chunks.\n",
			sum.Files, sum.Indexed, sum.Skipped, sum.Failed, sum.Chunks)
		return nil
	},
}

func init() {
	indexCmd.Flags().String("path", "", "file or folder to index (default: ingestion.documents_dir)")
	indexCmd.Flags().String("gdrive-folder", "", "Google Drive folder id to index instead of a local path")
	indexCmd.Flags().Bool("json", false, "print the summary as JSON")
	indexCmd.Flags().Bool("list", false, "list already indexed files instead of indexing")

	rootCmd.AddCommand(indexCmd)
}

// listIndexed prints the ingest ledger, newest first.
func listIndexed(cmd *cobra.Command, a *app, asJSON bool) error {
	if err := a.openLedger(cmd.Context()); err != nil {
		return fmt.Errorf("ledger init: %w", err)
	}
	records, err := a.ledger.List(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		fmt.Println("No files indexed yet.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-7s %4d chunks  %s\n",
			r.IngestedAt.Local().Format(time.DateTime), r.Source, r.Chunks, r.Path)
	}
	return nil
}
