package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tbxark/eventagent/internal/logger"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the capability catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify that every required parameter has a question and every option round-trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildCore(cfg, logger.New(cfg.Logging.Level, cfg.Logging.Format))
			if err != nil {
				return err
			}
			defer a.Close()

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Key", "Required", "Prompt", "Options")
			required := map[string]bool{}
			for _, k := range a.planner.Required() {
				required[string(k)] = true
			}
			for _, k := range a.cat.Keys() {
				prompt, options := "-", "-"
				if q, ok := a.planner.Question(k); ok {
					prompt = q.Prompt
					options = strings.Join(q.Labels(), ", ")
				}
				_ = table.Append(string(k), fmt.Sprint(required[string(k)]), prompt, options)
			}
			_ = table.Render()

			if err := a.planner.Check(); err != nil {
				return err
			}
			fmt.Println("catalog OK")
			return nil
		},
	})
	return cmd
}
