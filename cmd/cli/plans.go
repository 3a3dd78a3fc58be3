package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage test plans",
	}

	cmd.AddCommand(newPlansListCmd())
	cmd.AddCommand(newPlansCreateCmd())
	cmd.AddCommand(newPlansGetCmd())
	cmd.AddCommand(newPlansUpdateCmd())
	cmd.AddCommand(newPlansDeleteCmd())
	cmd.AddCommand(newPlansCloneCmd())
	cmd.AddCommand(newPlansChildrenCmd())
	cmd.AddCommand(newPlansAddCaseCmd())
	cmd.AddCommand(newPlansCasesCmd())
	cmd.AddCommand(newPlansRemoveCaseCmd())
	cmd.AddCommand(newPlansRunsCmd())
	cmd.AddCommand(newPlansMatrixCmd())
	cmd.AddCommand(newPlansHealthCmd())
	return cmd
}

func newPlansListCmd() *cobra.Command {
	var product string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List test plans for a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			query := url.Values{}
			query.Set("product", product)
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}

			body, err := client.Get("/api/v1/plans", query)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[TestPlanResponse]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "NAME", "PRODUCT", "VERSION", "ACTIVE", "CREATED AT"}
			var rows [][]string
			for _, p := range resp.Items {
				rows = append(rows, []string{
					p.ID.String(),
					truncate(p.Name, 40),
					p.Product,
					p.ProductVersion,
					fmt.Sprintf("%v", p.IsActive),
					p.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nShowing %d of %d test plans", len(resp.Items), resp.Total))
			return nil
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "Product name (required)")
	cmd.MarkFlagRequired("product")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func newPlansCreateCmd() *cobra.Command {
	var name, product, productVersion string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new test plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := CreateTestPlanRequest{
				Name:           name,
				Product:        product,
				ProductVersion: productVersion,
			}

			body, err := client.Post("/api/v1/plans", req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var p TestPlanResponse
			if err := json.Unmarshal(body, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test plan created: %s (%s)", p.Name, p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Plan name (required)")
	cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&product, "product", "", "Product the plan belongs to (required)")
	cmd.MarkFlagRequired("product")
	cmd.Flags().StringVar(&productVersion, "product-version", "", "Product version under test")
	return cmd
}

func newPlansGetCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a test plan by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/plans/%s", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var p TestPlanResponse
			if err := json.Unmarshal(body, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			parent := "-"
			if p.ParentID != nil {
				parent = p.ParentID.String()
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"ID", p.ID.String()},
				{"Name", p.Name},
				{"Product", p.Product},
				{"Product Version", p.ProductVersion},
				{"Parent ID", parent},
				{"Author ID", p.AuthorID.String()},
				{"Active", fmt.Sprintf("%v", p.IsActive)},
				{"Created At", p.CreatedAt.Format("2006-01-02 15:04:05")},
				{"Updated At", p.UpdatedAt.Format("2006-01-02 15:04:05")},
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newPlansUpdateCmd() *cobra.Command {
	var id, name, product, productVersion string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a test plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := UpdateTestPlanRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("product") {
				req.Product = &product
			}
			if cmd.Flags().Changed("product-version") {
				req.ProductVersion = &productVersion
			}

			body, err := client.Put(fmt.Sprintf("/api/v1/plans/%s", id), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var p TestPlanResponse
			if err := json.Unmarshal(body, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test plan updated: %s (%s)", p.Name, p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&name, "name", "", "New plan name")
	cmd.Flags().StringVar(&product, "product", "", "New product name")
	cmd.Flags().StringVar(&productVersion, "product-version", "", "New product version")
	return cmd
}

func newPlansDeleteCmd() *cobra.Command {
	var id string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a test plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(fmt.Sprintf("Delete test plan %s?", id), yes) {
				printMessage("Aborted.")
				return nil
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			_, err = client.Delete(fmt.Sprintf("/api/v1/plans/%s", id))
			if err != nil {
				return err
			}

			printMessage("Test plan deleted successfully.")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation")
	return cmd
}

func newPlansCloneCmd() *cobra.Command {
	var id, name string

	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone a test plan into a child plan with the same cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/plans/%s/clone", id), CloneTestPlanRequest{Name: name})
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var p TestPlanResponse
			if err := json.Unmarshal(body, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Test plan cloned: %s (%s)", p.Name, p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID to clone (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&name, "name", "", "Name for the cloned plan (required)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newPlansChildrenCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "children",
		Short: "List the plans cloned from a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/plans/%s/children", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var children []TestPlanResponse
			if err := json.Unmarshal(body, &children); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "NAME", "PRODUCT", "VERSION", "CREATED AT"}
			var rows [][]string
			for _, p := range children {
				rows = append(rows, []string{
					p.ID.String(),
					truncate(p.Name, 40),
					p.Product,
					p.ProductVersion,
					p.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newPlansAddCaseCmd() *cobra.Command {
	var id, caseID string
	var sortKey int

	cmd := &cobra.Command{
		Use:   "add-case",
		Short: "Add a test case to a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := AddPlanCaseRequest{
				CaseID:  caseID,
				SortKey: sortKey,
			}

			_, err = client.Post(fmt.Sprintf("/api/v1/plans/%s/cases", id), req)
			if err != nil {
				return err
			}

			printMessage("Case added to test plan.")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&caseID, "case-id", "", "Test case ID to add (required)")
	cmd.MarkFlagRequired("case-id")
	cmd.Flags().IntVar(&sortKey, "sort-key", 0, "Ordering key within the plan")
	return cmd
}

func newPlansCasesCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List the case memberships of a plan in sort order",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/plans/%s/cases", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var memberships []PlanCaseResponse
			if err := json.Unmarshal(body, &memberships); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"CASE ID", "SORT KEY", "ADDED BY", "ADDED AT"}
			var rows [][]string
			for _, m := range memberships {
				rows = append(rows, []string{
					m.CaseID.String(),
					strconv.Itoa(m.SortKey),
					m.AddedBy.String(),
					m.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newPlansRemoveCaseCmd() *cobra.Command {
	var id, caseID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove-case",
		Short: "Remove a test case from a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(fmt.Sprintf("Remove case %s from plan %s?", caseID, id), yes) {
				printMessage("Aborted.")
				return nil
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			_, err = client.Delete(fmt.Sprintf("/api/v1/plans/%s/cases/%s", id, caseID))
			if err != nil {
				return err
			}

			printMessage("Case removed from test plan.")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&caseID, "case-id", "", "Test case ID to remove (required)")
	cmd.MarkFlagRequired("case-id")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation")
	return cmd
}

func newPlansRunsCmd() *cobra.Command {
	var id string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the test runs executed against a plan",
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

			body, err := client.Get(fmt.Sprintf("/api/v1/plans/%s/runs", id), query)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[TestRunResponse]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "BUILD", "STATUS", "MANAGER", "CREATED AT"}
			var rows [][]string
			for _, run := range resp.Items {
				rows = append(rows, []string{
					run.ID.String(),
					run.Build,
					colorStatus(string(run.Status)),
					run.ManagerID.String(),
					run.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nShowing %d of %d test runs", len(resp.Items), resp.Total))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func newPlansMatrixCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Show the case-by-run status matrix for a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/plans/%s/matrix", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var matrix StatusMatrixResponse
			if err := json.Unmarshal(body, &matrix); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"CASE ID"}
			for i, runID := range matrix.RunIDs {
				headers = append(headers, fmt.Sprintf("RUN %d (%s)", i+1, truncate(runID.String(), 11)))
			}

			var rows [][]string
			for _, row := range matrix.Rows {
				cells := []string{row.CaseID.String()}
				for _, status := range row.Statuses {
					if status == "" {
						cells = append(cells, "-")
						continue
					}
					cells = append(cells, colorStatus(string(status)))
				}
				rows = append(rows, cells)
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newPlansHealthCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show cases that failed or errored across a plan's runs, worst first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/plans/%s/health", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var health []CaseHealthResponse
			if err := json.Unmarshal(body, &health); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"CASE ID", "TOTAL", "PASSED", "FAILED", "ERRORED"}
			var rows [][]string
			for _, h := range health {
				rows = append(rows, []string{
					h.CaseID.String(),
					strconv.Itoa(h.Total),
					strconv.Itoa(h.Passed),
					strconv.Itoa(h.Failed),
					strconv.Itoa(h.Errored),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test plan ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}
