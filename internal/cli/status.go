package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and alert summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			health, err := apiClient.Health().Ready(ctx)
			if err != nil {
				return fmt.Errorf("server not reachable: %w", err)
			}

			summary, err := apiClient.Alerts().GetSummary(ctx)
			if err != nil {
				return fmt.Errorf("failed to get alert summary: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(map[string]interface{}{
					"health": health,
					"alerts": summary,
				})
			}

			fmt.Printf("Server:   %s\n", formatStatus(health["status"]))
			fmt.Printf("Database: %s\n", health["database"])
			fmt.Println()

			t := NewTable("STATUS", "COUNT")
			for status, count := range summary {
				t.AddRow(formatStatus(status), fmt.Sprintf("%d", count))
			}
			t.Render()
			return nil
		},
	}
}
