package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage test runs",
	}

	cmd.AddCommand(newRunsCreateCmd())
	cmd.AddCommand(newRunsGetCmd())
	cmd.AddCommand(newRunsUpdateCmd())
	cmd.AddCommand(newRunsCloneCmd())
	cmd.AddCommand(newRunsFinishCmd())
	cmd.AddCommand(newRunsReopenCmd())
	cmd.AddCommand(newRunsExecutionsCmd())
	cmd.AddCommand(newRunsSummaryCmd())
	return cmd
}

func newRunsCreateCmd() *cobra.Command {
	var planID, environmentID, build, summary, assigneeID string
	var caseIDs []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new test run from a plan's cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := CreateTestRunRequest{
				PlanID:        planID,
				CaseIDs:       caseIDs,
				EnvironmentID: environmentID,
				Build:         build,
				Summary:       summary,
				AssigneeID:    assigneeID,
			}

			body, err := client.Post("/api/v1/runs", req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var run TestRunResponse
			if err := json.Unmarshal(body, &run); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test run created: %s", run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan-id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("plan-id")
	cmd.Flags().StringSliceVar(&caseIDs, "case-id", nil, "Case ID to include; repeat for each case (at least one required)")
	cmd.MarkFlagRequired("case-id")
	cmd.Flags().StringVar(&environmentID, "environment-id", "", "Environment to run against")
	cmd.Flags().StringVar(&build, "build", "", "Build or version identifier under test")
	cmd.Flags().StringVar(&summary, "summary", "", "Run summary")
	cmd.Flags().StringVar(&assigneeID, "assignee-id", "", "Default assignee for every execution")
	return cmd
}

func newRunsGetCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a test run by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/runs/%s", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var run TestRunResponse
			if err := json.Unmarshal(body, &run); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			environment := "-"
			if run.EnvironmentID != nil {
				environment = run.EnvironmentID.String()
			}
			finished := "-"
			if run.FinishedAt != nil {
				finished = run.FinishedAt.Format("2006-01-02 15:04:05")
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"ID", run.ID.String()},
				{"Plan ID", run.PlanID.String()},
				{"Environment", environment},
				{"Build", run.Build},
				{"Summary", run.Summary},
				{"Manager ID", run.ManagerID.String()},
				{"Status", colorStatus(string(run.Status))},
				{"Finished At", finished},
				{"Created At", run.CreatedAt.Format("2006-01-02 15:04:05")},
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test run ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newRunsUpdateCmd() *cobra.Command {
	var id, build, summary, environmentID string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a test run's build, summary or environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := UpdateTestRunRequest{}
			if cmd.Flags().Changed("build") {
				req.Build = &build
			}
			if cmd.Flags().Changed("summary") {
				req.Summary = &summary
			}
			if cmd.Flags().Changed("environment-id") {
				req.EnvironmentID = &environmentID
			}

			body, err := client.Put(fmt.Sprintf("/api/v1/runs/%s", id), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var run TestRunResponse
			if err := json.Unmarshal(body, &run); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test run updated: %s", run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test run ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&build, "build", "", "New build identifier")
	cmd.Flags().StringVar(&summary, "summary", "", "New run summary")
	cmd.Flags().StringVar(&environmentID, "environment-id", "", "New environment ID (empty string clears it)")
	return cmd
}

func newRunsCloneCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone a run's case selection into a fresh run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/runs/%s/clone", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var run TestRunResponse
			if err := json.Unmarshal(body, &run); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test run cloned: %s", run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test run ID to clone (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newRunsFinishCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Finish a test run, freezing its executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/runs/%s/finish", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var run TestRunResponse
			if err := json.Unmarshal(body, &run); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test run %s is now %s", run.ID, colorStatus(string(run.Status))))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test run ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newRunsReopenCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "reopen",
		Short: "Reopen a finished test run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/runs/%s/reopen", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var run TestRunResponse
			if err := json.Unmarshal(body, &run); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test run %s is now %s", run.ID, colorStatus(string(run.Status))))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test run ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newRunsExecutionsCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "executions",
		Short: "List the executions of a test run in plan order",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/runs/%s/executions", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var execs []ExecutionResponse
			if err := json.Unmarshal(body, &execs); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printTable(executionHeaders(), executionRows(execs))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test run ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newRunsSummaryCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show status counts and progress for a test run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/runs/%s/summary", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var s RunSummaryResponse
			if err := json.Unmarshal(body, &s); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"Total", strconv.Itoa(s.Total)},
				{"Idle", strconv.Itoa(s.Idle)},
				{"Running", strconv.Itoa(s.Running)},
				{"Passed", strconv.Itoa(s.Passed)},
				{"Failed", strconv.Itoa(s.Failed)},
				{"Errored", strconv.Itoa(s.Errored)},
				{"Blocked", strconv.Itoa(s.Blocked)},
				{"Waived", strconv.Itoa(s.Waived)},
				{"Completed", strconv.Itoa(s.Completed)},
				{"Percent Complete", fmt.Sprintf("%.1f%%", s.PercentComplete)},
				{"Pass Rate", fmt.Sprintf("%.1f%%", s.PassRate)},
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test run ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}
