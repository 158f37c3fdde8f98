package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/probegrid/probegrid/pkg/client"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage polling schedules",
	}

	cmd.AddCommand(newScheduleListCmd())
	cmd.AddCommand(newScheduleGetCmd())
	cmd.AddCommand(newScheduleCreateCmd())
	cmd.AddCommand(newScheduleEnableCmd())
	cmd.AddCommand(newScheduleDisableCmd())
	cmd.AddCommand(newScheduleDeleteCmd())

	return cmd
}

func newScheduleListCmd() *cobra.Command {
	var scheduleType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List polling schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedules, err := apiClient.Schedules().List(context.Background(), &client.ScheduleListOptions{
				ScheduleType: scheduleType,
			})
			if err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(schedules)
			}

			t := NewTable("ID", "NAME", "TYPE", "INTERVAL", "ENABLED", "RUNS", "LAST RESULT", "LOCKED BY")
			for _, ps := range schedules {
				t.AddRow(
					ps.ID,
					truncate(ps.Name, 30),
					ps.ScheduleType,
					strconv.Itoa(ps.IntervalSeconds)+"s",
					formatBool(ps.Enabled),
					strconv.FormatInt(ps.ExecutionCount, 10),
					formatStatus(ps.LastResult),
					ps.LockedBy,
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&scheduleType, "type", "", "filter by schedule type")

	return cmd
}

func newScheduleGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := apiClient.Schedules().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get schedule: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(ps)
			}

			fmt.Printf("ID:       %s\n", ps.ID)
			fmt.Printf("Name:     %s\n", ps.Name)
			fmt.Printf("Type:     %s (every %ds)\n", ps.ScheduleType, ps.IntervalSeconds)
			fmt.Printf("Enabled:  %s\n", formatBool(ps.Enabled))
			fmt.Printf("Runs:     %d\n", ps.ExecutionCount)
			if ps.LastResult != "" {
				fmt.Printf("Last run: %s (%d/%d checks ok)\n",
					formatStatus(ps.LastResult), ps.LastSuccessCount, ps.LastCheckCount)
			}
			if ps.LockedBy != "" {
				fmt.Printf("Locked:   by %s\n", ps.LockedBy)
			}
			return nil
		},
	}
}

func newScheduleCreateCmd() *cobra.Command {
	var req client.CreateScheduleRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new polling schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := apiClient.Schedules().Create(context.Background(), req)
			if err != nil {
				return fmt.Errorf("failed to create schedule: %w", err)
			}
			fmt.Printf("Schedule %s created\n", ps.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "schedule name")
	cmd.Flags().StringVar(&req.ScheduleType, "type", "interval", "schedule type: interval, manual")
	cmd.Flags().IntVar(&req.IntervalSeconds, "interval", 0, "execution interval in seconds")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newScheduleEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := apiClient.Schedules().Enable(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to enable schedule: %w", err)
			}
			fmt.Printf("Schedule %s enabled\n", args[0])
			return nil
		},
	}
}

func newScheduleDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := apiClient.Schedules().Disable(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to disable schedule: %w", err)
			}
			fmt.Printf("Schedule %s disabled\n", args[0])
			return nil
		},
	}
}

func newScheduleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Schedules().Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete schedule: %w", err)
			}
			fmt.Printf("Schedule %s deleted\n", args[0])
			return nil
		},
	}
}
