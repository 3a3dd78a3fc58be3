package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newEnvironmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "environments",
		Short: "Manage test environments",
	}

	cmd.AddCommand(newEnvironmentsListCmd())
	cmd.AddCommand(newEnvironmentsCreateCmd())
	cmd.AddCommand(newEnvironmentsGetCmd())
	cmd.AddCommand(newEnvironmentsUpdateCmd())
	cmd.AddCommand(newEnvironmentsDeleteCmd())
	return cmd
}

func newEnvironmentsListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List test environments",
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

			body, err := client.Get("/api/v1/environments", query)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[EnvironmentResponse]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "NAME", "BASE URL", "ACTIVE", "CREATED AT"}
			var rows [][]string
			for _, e := range resp.Items {
				rows = append(rows, []string{
					e.ID.String(),
					e.Name,
					truncate(e.BaseURL, 40),
					fmt.Sprintf("%v", e.IsActive),
					e.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nShowing %d environments", len(resp.Items)))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func newEnvironmentsCreateCmd() *cobra.Command {
	var name, baseURL, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new test environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := CreateEnvironmentRequest{
				Name:        name,
				BaseURL:     baseURL,
				Description: description,
			}

			body, err := client.Post("/api/v1/environments", req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var e EnvironmentResponse
			if err := json.Unmarshal(body, &e); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Environment created: %s (%s)", e.Name, e.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Environment name (required)")
	cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL of the environment")
	cmd.Flags().StringVar(&description, "description", "", "Environment description")
	return cmd
}

func newEnvironmentsGetCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a test environment by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/environments/%s", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var e EnvironmentResponse
			if err := json.Unmarshal(body, &e); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"ID", e.ID.String()},
				{"Name", e.Name},
				{"Base URL", e.BaseURL},
				{"Description", e.Description},
				{"Active", fmt.Sprintf("%v", e.IsActive)},
				{"Created By", e.CreatedBy.String()},
				{"Created At", e.CreatedAt.Format("2006-01-02 15:04:05")},
				{"Updated At", e.UpdatedAt.Format("2006-01-02 15:04:05")},
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Environment ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newEnvironmentsUpdateCmd() *cobra.Command {
	var id, name, baseURL, description string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a test environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := UpdateEnvironmentRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("base-url") {
				req.BaseURL = &baseURL
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}

			body, err := client.Put(fmt.Sprintf("/api/v1/environments/%s", id), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var e EnvironmentResponse
			if err := json.Unmarshal(body, &e); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Environment updated: %s (%s)", e.Name, e.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Environment ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&name, "name", "", "New environment name")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "New base URL")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func newEnvironmentsDeleteCmd() *cobra.Command {
	var id string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a test environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(fmt.Sprintf("Delete environment %s?", id), yes) {
				printMessage("Aborted.")
				return nil
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			_, err = client.Delete(fmt.Sprintf("/api/v1/environments/%s", id))
			if err != nil {
				return err
			}

			printMessage("Environment deleted successfully.")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Environment ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation")
	return cmd
}
