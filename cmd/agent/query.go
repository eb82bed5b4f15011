package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer one question",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, _ := cmd.Flags().GetString("query")
		if strings.TrimSpace(q) == "" {
			q = strings.Join(args, " ")
		}
		if strings.TrimSpace(q) == "" {
			return errors.New(`please provide -q "your query"`)
		}

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.openStore(ctx); err != nil {
			a.log.Warn("vector store unavailable, document questions cannot use context", zap.Error(err))
		}
		wf, err := a.workflow()
		if err != nil {
			return err
		}

		st := wf.Run(ctx, q)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		answer := st.Answer()
		if answer == "" {
			answer = "(no answer generated)"
		}
		fmt.Println("Answer:", answer)
		if st.HasErrors() {
			for _, e := range st.Errors {
				fmt.Fprintln(os.Stderr, "warning:", e)
			}
			fmt.Fprintf(os.Stderr, "trace id: %s\n", st.TraceID)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringP("query", "q", "", "query text")
	queryCmd.Flags().Bool("json", false, "print the full final state as JSON")

	rootCmd.AddCommand(queryCmd)
}
