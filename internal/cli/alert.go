package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/probegrid/probegrid/pkg/client"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage alerts",
	}

	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertGetCmd())
	cmd.AddCommand(newAlertSummaryCmd())
	cmd.AddCommand(newAlertAcknowledgeCmd())
	cmd.AddCommand(newAlertResolveCmd())
	cmd.AddCommand(newAlertEscalateCmd())
	cmd.AddCommand(newAlertSuppressCmd())
	cmd.AddCommand(newAlertReopenCmd())

	return cmd
}

func newAlertListCmd() *cobra.Command {
	var severity, status, sourceType string
	var active bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var alerts []client.Alert
			if active {
				var err error
				alerts, err = apiClient.Alerts().ListActive(ctx)
				if err != nil {
					return fmt.Errorf("failed to list alerts: %w", err)
				}
			} else {
				page, err := apiClient.Alerts().List(ctx, &client.AlertListOptions{
					Status:     status,
					Severity:   severity,
					SourceType: sourceType,
				})
				if err != nil {
					return fmt.Errorf("failed to list alerts: %w", err)
				}
				alerts = page.Data
			}

			if getOutputFormat() != "table" {
				return printOutput(alerts)
			}

			t := NewTable("ID", "SEVERITY", "STATUS", "TITLE", "TRIGGERED")
			for _, a := range alerts {
				t.AddRow(
					a.ID,
					formatSeverity(a.Severity),
					formatStatus(a.Status),
					truncate(a.Title, 50),
					a.TriggeredAt.Format("2006-01-02 15:04:05"),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&sourceType, "source-type", "", "filter by source type")
	cmd.Flags().BoolVar(&active, "active", false, "only non-resolved alerts")

	return cmd
}

func newAlertGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get alert details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := apiClient.Alerts().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get alert: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(a)
			}

			fmt.Printf("ID:        %s\n", a.ID)
			fmt.Printf("Title:     %s\n", a.Title)
			fmt.Printf("Severity:  %s\n", formatSeverity(a.Severity))
			fmt.Printf("Status:    %s\n", formatStatus(a.Status))
			fmt.Printf("Triggered: %s\n", a.TriggeredAt.Format("2006-01-02 15:04:05"))
			if a.SourceName != "" {
				fmt.Printf("Source:    %s (%s)\n", a.SourceName, a.SourceType)
			}
			if a.AcknowledgedBy != "" {
				fmt.Printf("Ack by:    %s\n", a.AcknowledgedBy)
			}
			if a.EscalationLevel > 0 {
				fmt.Printf("Escalated: level %d (%s)\n", a.EscalationLevel, a.EscalationReason)
			}
			if a.ResolvedBy != "" {
				fmt.Printf("Resolved:  %s - %s\n", a.ResolvedBy, a.ResolutionNote)
			}
			fmt.Printf("Notified:  %d time(s)\n", a.NotificationCount)
			return nil
		},
	}
}

func newAlertSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show alert counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := apiClient.Alerts().GetSummary(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get alert summary: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(summary)
			}

			t := NewTable("STATUS", "COUNT")
			for status, count := range summary {
				t.AddRow(formatStatus(status), fmt.Sprintf("%d", count))
			}
			t.Render()
			return nil
		},
	}
}

func newAlertAcknowledgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "acknowledge <id>",
		Aliases: []string{"ack"},
		Short:   "Acknowledge a pending alert",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Alerts().Acknowledge(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to acknowledge alert: %w", err)
			}
			fmt.Printf("Alert %s acknowledged\n", a.ID)
			return nil
		},
	}
}

func newAlertResolveCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Alerts().Resolve(context.Background(), args[0], note)
			if err != nil {
				return fmt.Errorf("failed to resolve alert: %w", err)
			}
			fmt.Printf("Alert %s resolved\n", a.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "resolution note")

	return cmd
}

func newAlertEscalateCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "escalate <id>",
		Short: "Escalate an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Alerts().Escalate(context.Background(), args[0], reason)
			if err != nil {
				return fmt.Errorf("failed to escalate alert: %w", err)
			}
			fmt.Printf("Alert %s escalated to level %d\n", a.ID, a.EscalationLevel)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "escalation reason")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newAlertSuppressCmd() *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "suppress <id>",
		Short: "Suppress an alert for a duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			until := time.Now().Add(duration)
			a, err := apiClient.Alerts().Suppress(context.Background(), args[0], until)
			if err != nil {
				return fmt.Errorf("failed to suppress alert: %w", err)
			}
			fmt.Printf("Alert %s suppressed until %s\n", a.ID, until.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "for", time.Hour, "suppression duration")

	return cmd
}

func newAlertReopenCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reopen <id>",
		Short: "Reopen a resolved or suppressed alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Alerts().Reopen(context.Background(), args[0], reason)
			if err != nil {
				return fmt.Errorf("failed to reopen alert: %w", err)
			}
			fmt.Printf("Alert %s reopened\n", a.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reopen reason")

	return cmd
}
