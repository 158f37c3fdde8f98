package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/probegrid/probegrid/pkg/client"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Browse the event log",
	}

	cmd.AddCommand(newEventListCmd())
	cmd.AddCommand(newEventGetCmd())

	return cmd
}

var severityLabels = map[int]string{
	0: "DEBUG",
	1: "INFO",
	2: "WARNING",
	3: "ERROR",
	4: "CRITICAL",
}

func newEventListCmd() *cobra.Command {
	var category, eventType, deviceUID, agentUID string
	var minSeverity, pageSize int
	var recent bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var page *client.EventPage
			var err error
			if recent {
				page, err = apiClient.Events().ListRecent(ctx, &client.ListOptions{PageSize: pageSize})
			} else {
				opts := &client.EventListOptions{
					ListOptions: client.ListOptions{PageSize: pageSize},
					Category:    category,
					EventType:   eventType,
					DeviceUID:   deviceUID,
					AgentUID:    agentUID,
				}
				if minSeverity > 0 {
					opts.MinSeverity = &minSeverity
				}
				page, err = apiClient.Events().List(ctx, opts)
			}
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("TIME", "CATEGORY", "SEVERITY", "TYPE", "MESSAGE")
			for _, e := range page.Data {
				t.AddRow(
					e.OccurredAt.Format("2006-01-02 15:04:05"),
					e.Category,
					severityLabels[e.Severity],
					e.EventType,
					truncate(e.Message, 60),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&eventType, "type", "", "filter by event type")
	cmd.Flags().StringVar(&deviceUID, "device", "", "filter by device")
	cmd.Flags().StringVar(&agentUID, "agent", "", "filter by agent")
	cmd.Flags().IntVar(&minSeverity, "min-severity", 0, "minimum severity (0-4)")
	cmd.Flags().IntVar(&pageSize, "limit", 50, "maximum events to show")
	cmd.Flags().BoolVar(&recent, "recent", false, "only events from the last hour")

	return cmd
}

func newEventGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get event details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := apiClient.Events().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get event: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(e)
			}

			fmt.Printf("ID:       %s\n", e.ID)
			fmt.Printf("Time:     %s\n", e.OccurredAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Category: %s\n", e.Category)
			fmt.Printf("Severity: %s (%s)\n", severityLabels[e.Severity], strconv.Itoa(e.Severity))
			fmt.Printf("Type:     %s\n", e.EventType)
			fmt.Printf("Message:  %s\n", e.Message)
			if e.DeviceUID != "" {
				fmt.Printf("Device:   %s\n", e.DeviceUID)
			}
			if e.AgentUID != "" {
				fmt.Printf("Agent:    %s\n", e.AgentUID)
			}
			if e.SourceName != "" {
				fmt.Printf("Source:   %s (%s)\n", e.SourceName, e.SourceType)
			}
			return nil
		},
	}
}
