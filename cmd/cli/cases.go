package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newCasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Manage test cases",
	}

	cmd.AddCommand(newCasesListCmd())
	cmd.AddCommand(newCasesCreateCmd())
	cmd.AddCommand(newCasesGetCmd())
	cmd.AddCommand(newCasesReviseCmd())
	cmd.AddCommand(newCasesEnableCmd())
	cmd.AddCommand(newCasesDisableCmd())
	cmd.AddCommand(newCasesVersionsCmd())
	cmd.AddCommand(newCasesVersionCmd())
	cmd.AddCommand(newCasesExecutionsCmd())
	cmd.AddCommand(newCasesHistoryCmd())
	return cmd
}

func newCasesListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List test cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}

			body, err := client.Get("/api/v1/cases", query)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[TestCaseResponse]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "SUMMARY", "STATUS", "VERSION", "UPDATED AT"}
			var rows [][]string
			for _, c := range resp.Items {
				rows = append(rows, []string{
					c.ID.String(),
					truncate(c.Summary, 50),
					colorStatus(c.Status),
					strconv.Itoa(int(c.Version)),
					c.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nShowing %d of %d test cases", len(resp.Items), resp.Total))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func newCasesCreateCmd() *cobra.Command {
	var summary, notes, stepsFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new test case",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := CreateTestCaseRequest{
				Summary: summary,
				Notes:   notes,
			}

			if stepsFile != "" {
				data, err := os.ReadFile(stepsFile)
				if err != nil {
					return fmt.Errorf("failed to read steps file: %w", err)
				}
				if err := json.Unmarshal(data, &req.Steps); err != nil {
					return fmt.Errorf("failed to parse steps file: %w", err)
				}
			}

			body, err := client.Post("/api/v1/cases", req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var c TestCaseResponse
			if err := json.Unmarshal(body, &c); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test case created: %s (%s)", truncate(c.Summary, 60), c.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "One-line summary of the case (required)")
	cmd.MarkFlagRequired("summary")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&stepsFile, "steps-file", "", "JSON file containing steps array")
	return cmd
}

func newCasesGetCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a test case by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/cases/%s", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var c TestCaseResponse
			if err := json.Unmarshal(body, &c); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"ID", c.ID.String()},
				{"Summary", c.Summary},
				{"Status", colorStatus(c.Status)},
				{"Version", strconv.Itoa(int(c.Version))},
				{"Notes", c.Notes},
				{"Author ID", c.AuthorID.String()},
				{"Created At", c.CreatedAt.Format("2006-01-02 15:04:05")},
				{"Updated At", c.UpdatedAt.Format("2006-01-02 15:04:05")},
			}
			printTable(headers, rows)

			if len(c.Steps) > 0 {
				printMessage("\nSteps:")
				for i, step := range c.Steps {
					printMessage(fmt.Sprintf("  %d. %s", i+1, step.Action))
					if step.Expected != "" {
						printMessage(fmt.Sprintf("     Expect: %s", step.Expected))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newCasesReviseCmd() *cobra.Command {
	var id, summary, notes, stepsFile string

	cmd := &cobra.Command{
		Use:   "revise",
		Short: "Revise a test case, bumping its version",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := ReviseTestCaseRequest{}
			if cmd.Flags().Changed("summary") {
				req.Summary = &summary
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}
			if stepsFile != "" {
				data, err := os.ReadFile(stepsFile)
				if err != nil {
					return fmt.Errorf("failed to read steps file: %w", err)
				}
				var steps []StepJSON
				if err := json.Unmarshal(data, &steps); err != nil {
					return fmt.Errorf("failed to parse steps file: %w", err)
				}
				req.Steps = &steps
			}

			body, err := client.Put(fmt.Sprintf("/api/v1/cases/%s", id), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var c TestCaseResponse
			if err := json.Unmarshal(body, &c); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test case revised: %s (now version %d)", c.ID, c.Version))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&summary, "summary", "", "New summary")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")
	cmd.Flags().StringVar(&stepsFile, "steps-file", "", "JSON file containing the new steps array")
	return cmd
}

func newCasesEnableCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Mark a test case active",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setCaseStatus(id, "active")
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newCasesDisableCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable a test case so new runs cannot select it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setCaseStatus(id, "disabled")
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func setCaseStatus(id, status string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	body, err := client.Patch(fmt.Sprintf("/api/v1/cases/%s/status", id), SetCaseStatusRequest{Status: status})
	if err != nil {
		return err
	}

	if flagJSON {
		var raw json.RawMessage
		json.Unmarshal(body, &raw)
		printJSON(raw)
		return nil
	}

	var c TestCaseResponse
	if err := json.Unmarshal(body, &c); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printMessage(fmt.Sprintf("Test case %s is now %s", c.ID, colorStatus(c.Status)))
	return nil
}

func newCasesVersionsCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the immutable version snapshots of a test case",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/cases/%s/versions", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var versions []CaseVersionResponse
			if err := json.Unmarshal(body, &versions); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"VERSION", "SUMMARY", "STEPS", "CREATED BY", "CREATED AT"}
			var rows [][]string
			for _, v := range versions {
				rows = append(rows, []string{
					strconv.Itoa(int(v.Version)),
					truncate(v.Summary, 50),
					strconv.Itoa(len(v.Steps)),
					v.CreatedBy.String(),
					v.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newCasesVersionCmd() *cobra.Command {
	var id string
	var version int

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Get a single version snapshot of a test case",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/cases/%s/versions/%d", id, version), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var v CaseVersionResponse
			if err := json.Unmarshal(body, &v); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"Case ID", v.CaseID.String()},
				{"Version", strconv.Itoa(int(v.Version))},
				{"Summary", v.Summary},
				{"Notes", v.Notes},
				{"Created By", v.CreatedBy.String()},
				{"Created At", v.CreatedAt.Format("2006-01-02 15:04:05")},
			}
			printTable(headers, rows)

			if len(v.Steps) > 0 {
				printMessage("\nSteps:")
				for i, step := range v.Steps {
					printMessage(fmt.Sprintf("  %d. %s", i+1, step.Action))
					if step.Expected != "" {
						printMessage(fmt.Sprintf("     Expect: %s", step.Expected))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().IntVar(&version, "version", 0, "Version number (required)")
	cmd.MarkFlagRequired("version")
	return cmd
}

func newCasesExecutionsCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "executions",
		Short: "List every execution of a test case across all runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/cases/%s/executions", id), nil)
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

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newCasesHistoryCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the full transition ledger of a test case",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/cases/%s/history", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var records []TransitionResponse
			if err := json.Unmarshal(body, &records); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printTable(transitionHeaders(), transitionRows(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}
