package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/probegrid/probegrid/pkg/client"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Manage service checks",
	}

	cmd.AddCommand(newCheckListCmd())
	cmd.AddCommand(newCheckGetCmd())
	cmd.AddCommand(newCheckCreateCmd())
	cmd.AddCommand(newCheckEnableCmd())
	cmd.AddCommand(newCheckDisableCmd())
	cmd.AddCommand(newCheckDeleteCmd())
	cmd.AddCommand(newCheckResetCmd())

	return cmd
}

func renderCheckTable(checks []client.ServiceCheck) {
	t := NewTable("ID", "NAME", "TYPE", "TARGET", "ENABLED", "FAILURES", "LAST RESULT")
	for _, c := range checks {
		t.AddRow(
			c.ID,
			truncate(c.Name, 30),
			c.CheckType,
			truncate(c.Target, 40),
			formatBool(c.Enabled),
			strconv.Itoa(c.ConsecutiveFailures),
			formatStatus(c.LastResult),
		)
	}
	t.Render()
}

func newCheckListCmd() *cobra.Command {
	var checkType, agentID string
	var failing bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List service checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var checks []client.ServiceCheck
			var err error
			if failing {
				checks, err = apiClient.Checks().ListFailing(ctx)
			} else {
				checks, err = apiClient.Checks().List(ctx, &client.CheckListOptions{
					CheckType: checkType,
					AgentID:   agentID,
				})
			}
			if err != nil {
				return fmt.Errorf("failed to list checks: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(checks)
			}
			renderCheckTable(checks)
			return nil
		},
	}

	cmd.Flags().StringVar(&checkType, "type", "", "filter by check type")
	cmd.Flags().StringVar(&agentID, "agent", "", "filter by agent")
	cmd.Flags().BoolVar(&failing, "failing", false, "only checks with a failure streak")

	return cmd
}

func newCheckGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get check details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := apiClient.Checks().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get check: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(sc)
			}

			fmt.Printf("ID:       %s\n", sc.ID)
			fmt.Printf("Name:     %s\n", sc.Name)
			fmt.Printf("Type:     %s\n", sc.CheckType)
			fmt.Printf("Target:   %s\n", sc.Target)
			fmt.Printf("Enabled:  %s\n", formatBool(sc.Enabled))
			fmt.Printf("Interval: %ds  Timeout: %ds  Retries: %d\n", sc.IntervalSeconds, sc.TimeoutSeconds, sc.Retries)
			fmt.Printf("Failures: %d\n", sc.ConsecutiveFailures)
			if sc.LastResult != "" {
				fmt.Printf("Last:     %s", formatStatus(sc.LastResult))
				if sc.LastResponseTimeMS != nil {
					fmt.Printf(" (%dms)", *sc.LastResponseTimeMS)
				}
				fmt.Println()
			}
			if sc.LastError != "" {
				fmt.Printf("Error:    %s\n", sc.LastError)
			}
			return nil
		},
	}
}

func newCheckCreateCmd() *cobra.Command {
	var req client.CreateCheckRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new service check",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := apiClient.Checks().Create(context.Background(), req)
			if err != nil {
				return fmt.Errorf("failed to create check: %w", err)
			}
			fmt.Printf("Check %s created\n", sc.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "check name")
	cmd.Flags().StringVar(&req.CheckType, "type", "http", "check type: ping, http, tcp, snmp, grpc, dns, custom")
	cmd.Flags().StringVar(&req.Target, "target", "", "probe target (URL, host:port, hostname)")
	cmd.Flags().StringVar(&req.AgentID, "agent", "", "agent responsible for this check")
	cmd.Flags().IntVar(&req.IntervalSeconds, "interval", 0, "run interval in seconds (default 60)")
	cmd.Flags().IntVar(&req.TimeoutSeconds, "timeout", 0, "probe timeout in seconds (default 10)")
	cmd.Flags().IntVar(&req.Retries, "retries", 0, "failure streak before an alert (default 3)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newCheckEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := apiClient.Checks().Enable(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to enable check: %w", err)
			}
			fmt.Printf("Check %s enabled\n", args[0])
			return nil
		},
	}
}

func newCheckDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := apiClient.Checks().Disable(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to disable check: %w", err)
			}
			fmt.Printf("Check %s disabled\n", args[0])
			return nil
		},
	}
}

func newCheckDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Checks().Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete check: %w", err)
			}
			fmt.Printf("Check %s deleted\n", args[0])
			return nil
		},
	}
}

func newCheckResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-failures <id>",
		Short: "Clear a check's failure streak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := apiClient.Checks().ResetFailures(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to reset failures: %w", err)
			}
			fmt.Printf("Check %s failure streak cleared\n", args[0])
			return nil
		},
	}
}
