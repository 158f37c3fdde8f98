package client_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/probegrid/probegrid/pkg/client"
)

// Example demonstrates basic usage of the ProbeGrid client
func Example() {
	c := client.NewClient(client.Config{
		BaseURL: "https://probegrid.example.com",
		Token:   "your-jwt-token",
	})

	ctx := context.Background()

	// List active alerts
	alerts, err := c.Alerts().ListActive(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Found %d active alerts\n", len(alerts))
}

// ExampleAlertService_List demonstrates listing alerts with filters
func ExampleAlertService_List() {
	c := client.NewClient(client.Config{
		BaseURL: "https://probegrid.example.com",
		Token:   "your-jwt-token",
	})

	page, err := c.Alerts().List(context.Background(), &client.AlertListOptions{
		ListOptions: client.ListOptions{
			Page:     1,
			PageSize: 20,
		},
		Severity: "critical",
		Status:   "pending",
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, a := range page.Data {
		fmt.Printf("  - %s: %s\n", a.Severity, a.Title)
	}
}

// ExampleAlertService_Acknowledge demonstrates the alert lifecycle
func ExampleAlertService_Acknowledge() {
	c := client.NewClient(client.Config{
		BaseURL: "https://probegrid.example.com",
		Token:   "your-jwt-token",
	})

	ctx := context.Background()

	a, err := c.Alerts().Acknowledge(ctx, "alert-id")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Alert %s is now %s\n", a.ID, a.Status)

	// Resolve once the incident is dealt with
	a, err = c.Alerts().Resolve(ctx, a.ID, "restarted the frontend pods")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Alert %s is now %s\n", a.ID, a.Status)
}

// ExampleCheckService_Create demonstrates registering a service check
func ExampleCheckService_Create() {
	c := client.NewClient(client.Config{
		BaseURL: "https://probegrid.example.com",
		Token:   "your-jwt-token",
	})

	sc, err := c.Checks().Create(context.Background(), client.CreateCheckRequest{
		Name:            "API health",
		CheckType:       "http",
		Target:          "https://api.example.com/healthz",
		IntervalSeconds: 60,
		TimeoutSeconds:  10,
		Retries:         3,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Created check: %s (ID: %s)\n", sc.Name, sc.ID)
}

// ExampleScheduleService_AcquireLock demonstrates manual lock handling for
// a custom executor
func ExampleScheduleService_AcquireLock() {
	c := client.NewClient(client.Config{
		BaseURL: "https://probegrid.example.com",
		Token:   "your-jwt-token",
	})

	ctx := context.Background()

	token, err := c.Schedules().AcquireLock(ctx, "schedule-id", "executor-7")
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.IsConflict() {
			fmt.Println("Another node holds the lock, skipping")
			return
		}
		log.Fatal(err)
	}
	defer c.Schedules().ReleaseLock(ctx, "schedule-id", token)

	// ... run the schedule's work while holding the lock ...
}

// ExampleEventService_List demonstrates browsing the event log
func ExampleEventService_List() {
	c := client.NewClient(client.Config{
		BaseURL: "https://probegrid.example.com",
		Token:   "your-jwt-token",
	})

	since := time.Now().Add(-24 * time.Hour)
	minSeverity := 2

	page, err := c.Events().List(context.Background(), &client.EventListOptions{
		Category:    "alert",
		MinSeverity: &minSeverity,
		Since:       &since,
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, e := range page.Data {
		fmt.Printf("%s %s: %s\n", e.OccurredAt.Format(time.RFC3339), e.EventType, e.Message)
	}
}
