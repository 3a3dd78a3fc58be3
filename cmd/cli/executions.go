package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

func newExecutionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "executions",
		Short: "Work with test executions",
	}

	cmd.AddCommand(newExecutionsGetCmd())
	cmd.AddCommand(newExecutionsSetStatusCmd())
	cmd.AddCommand(newExecutionsNoteCmd())
	cmd.AddCommand(newExecutionsAssignCmd())
	cmd.AddCommand(newExecutionsHistoryCmd())
	cmd.AddCommand(newExecutionsLinksCmd())
	cmd.AddCommand(newExecutionsAddLinkCmd())
	cmd.AddCommand(newExecutionsRemoveLinkCmd())
	cmd.AddCommand(newExecutionsStepNotesCmd())
	cmd.AddCommand(newExecutionsNoteStepCmd())
	cmd.AddCommand(newExecutionsAttachmentsCmd())
	cmd.AddCommand(newExecutionsUploadCmd())
	cmd.AddCommand(newExecutionsDownloadCmd())
	cmd.AddCommand(newExecutionsURLCmd())
	cmd.AddCommand(newExecutionsDeleteAttachmentCmd())
	return cmd
}

func executionHeaders() []string {
	return []string{"ID", "CASE ID", "VER", "STATUS", "ASSIGNEE", "TOKEN", "UPDATED AT"}
}

func executionRows(execs []ExecutionResponse) [][]string {
	var rows [][]string
	for _, e := range execs {
		assignee := "-"
		if e.AssigneeID != nil {
			assignee = e.AssigneeID.String()
		}
		rows = append(rows, []string{
			e.ID.String(),
			e.CaseID.String(),
			strconv.Itoa(int(e.CaseVersion)),
			colorStatus(string(e.Status)),
			assignee,
			strconv.Itoa(int(e.Token)),
			e.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func transitionHeaders() []string {
	return []string{"WHEN", "EXECUTION", "FROM", "TO", "ACTOR", "COMMENT"}
}

func transitionRows(records []TransitionResponse) [][]string {
	var rows [][]string
	for _, rec := range records {
		from := "-"
		if rec.FromStatus != nil {
			from = colorStatus(string(*rec.FromStatus))
		}
		rows = append(rows, []string{
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.ExecutionID.String(),
			from,
			colorStatus(string(rec.ToStatus)),
			rec.ActorID.String(),
			truncate(rec.Comment, 40),
		})
	}
	return rows
}

func printExecution(e ExecutionResponse) {
	assignee := "-"
	if e.AssigneeID != nil {
		assignee = e.AssigneeID.String()
	}
	testedBy := "-"
	if e.TestedBy != nil {
		testedBy = e.TestedBy.String()
	}

	headers := []string{"FIELD", "VALUE"}
	rows := [][]string{
		{"ID", e.ID.String()},
		{"Run ID", e.RunID.String()},
		{"Case ID", e.CaseID.String()},
		{"Case Version", strconv.Itoa(int(e.CaseVersion))},
		{"Status", colorStatus(string(e.Status))},
		{"Assignee", assignee},
		{"Tested By", testedBy},
		{"Token", strconv.Itoa(int(e.Token))},
		{"Updated At", e.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	printTable(headers, rows)

	if e.Notes != "" {
		printMessage("\nNotes:")
		printMessage(e.Notes)
	}
}

func newExecutionsGetCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a test execution by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/executions/%s", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var e ExecutionResponse
			if err := json.Unmarshal(body, &e); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printExecution(e)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newExecutionsSetStatusCmd() *cobra.Command {
	var id, status, comment string
	var token uint

	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Record a status transition on an execution",
		Long: `Record a status transition on an execution.

The token must match the execution's current token; fetch the execution
first and pass its token back. A stale token means someone else recorded
a transition in between, and the server rejects the write.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := SetExecutionStatusRequest{
				Status:  status,
				Comment: comment,
				Token:   token,
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/executions/%s/status", id), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var e ExecutionResponse
			if err := json.Unmarshal(body, &e); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Execution %s is now %s (token %d)", e.ID, colorStatus(string(e.Status)), e.Token))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&status, "status", "", "New status: running, passed, failed, errored, blocked, waived or idle (required)")
	cmd.MarkFlagRequired("status")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment recorded with the transition")
	cmd.Flags().UintVar(&token, "token", 0, "Current token of the execution (required)")
	cmd.MarkFlagRequired("token")
	return cmd
}

func newExecutionsNoteCmd() *cobra.Command {
	var id, note string

	cmd := &cobra.Command{
		Use:   "note",
		Short: "Append a timestamped note to an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/executions/%s/notes", id), AppendExecutionNoteRequest{Note: note})
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			printMessage("Note appended.")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&note, "note", "", "Note text (required)")
	cmd.MarkFlagRequired("note")
	return cmd
}

func newExecutionsAssignCmd() *cobra.Command {
	var id, assigneeID string
	var clear bool

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign an execution to a tester, or clear the assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clear && !cmd.Flags().Changed("assignee-id") {
				return fmt.Errorf("either --assignee-id or --clear is required")
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			req := AssignExecutionRequest{}
			if !clear {
				req.AssigneeID = &assigneeID
			}

			body, err := client.Put(fmt.Sprintf("/api/v1/executions/%s/assignee", id), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var e ExecutionResponse
			if err := json.Unmarshal(body, &e); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if e.AssigneeID == nil {
				printMessage(fmt.Sprintf("Execution %s is now unassigned", e.ID))
			} else {
				printMessage(fmt.Sprintf("Execution %s assigned to %s", e.ID, e.AssigneeID))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&assigneeID, "assignee-id", "", "Tester to assign")
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the current assignment")
	return cmd
}

func newExecutionsHistoryCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the transition ledger of an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/executions/%s/history", id), nil)
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

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newExecutionsLinksCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "links",
		Short: "List the external links attached to an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/executions/%s/links", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var links []LinkResponse
			if err := json.Unmarshal(body, &links); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "NAME", "URL", "CREATED AT"}
			var rows [][]string
			for _, l := range links {
				rows = append(rows, []string{
					l.ID.String(),
					l.Name,
					truncate(l.URL, 60),
					l.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newExecutionsAddLinkCmd() *cobra.Command {
	var id, name, linkURL string

	cmd := &cobra.Command{
		Use:   "add-link",
		Short: "Attach an external link to an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			req := AddExecutionLinkRequest{
				Name: name,
				URL:  linkURL,
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/executions/%s/links", id), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var l LinkResponse
			if err := json.Unmarshal(body, &l); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Link added: %s (%s)", l.Name, l.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&name, "name", "", "Link name, e.g. an issue key (required)")
	cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&linkURL, "url", "", "Link URL (required)")
	cmd.MarkFlagRequired("url")
	return cmd
}

func newExecutionsRemoveLinkCmd() *cobra.Command {
	var id, linkID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove-link",
		Short: "Remove an external link from an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(fmt.Sprintf("Remove link %s?", linkID), yes) {
				printMessage("Aborted.")
				return nil
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			_, err = client.Delete(fmt.Sprintf("/api/v1/executions/%s/links/%s", id, linkID))
			if err != nil {
				return err
			}

			printMessage("Link removed.")
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&linkID, "link-id", "", "Link ID to remove (required)")
	cmd.MarkFlagRequired("link-id")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation")
	return cmd
}

func newExecutionsStepNotesCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "step-notes",
		Short: "List per-step notes of an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/executions/%s/step-notes", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var notes []StepNoteResponse
			if err := json.Unmarshal(body, &notes); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"STEP", "NOTES", "NOTED BY", "UPDATED AT"}
			var rows [][]string
			for _, n := range notes {
				rows = append(rows, []string{
					strconv.Itoa(n.StepIndex),
					truncate(n.Notes, 60),
					n.NotedBy.String(),
					n.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newExecutionsNoteStepCmd() *cobra.Command {
	var id, notes string
	var step int

	cmd := &cobra.Command{
		Use:   "note-step",
		Short: "Set the note on one step of an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Put(fmt.Sprintf("/api/v1/executions/%s/step-notes/%d", id, step), UpsertStepNoteRequest{Notes: notes})
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var n StepNoteResponse
			if err := json.Unmarshal(body, &n); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Note set on step %d of execution %s", n.StepIndex, n.ExecutionID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().IntVar(&step, "step", 0, "Zero-based step index (required)")
	cmd.MarkFlagRequired("step")
	cmd.Flags().StringVar(&notes, "notes", "", "Note text (required)")
	cmd.MarkFlagRequired("notes")
	return cmd
}

func newExecutionsAttachmentsCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "attachments",
		Short: "List the attachments of an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/executions/%s/attachments", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var attachments []AttachmentResponse
			if err := json.Unmarshal(body, &attachments); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "KIND", "FILE NAME", "SIZE", "UPLOADED AT"}
			var rows [][]string
			for _, a := range attachments {
				rows = append(rows, []string{
					a.ID.String(),
					a.Kind,
					a.FileName,
					strconv.FormatInt(a.FileSize, 10),
					a.UploadedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newExecutionsUploadCmd() *cobra.Command {
	var id, filePath, kind, description string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload an attachment to an execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			file, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer file.Close()

			fields := map[string]string{"kind": kind}
			if description != "" {
				fields["description"] = description
			}

			body, err := client.PostFile(fmt.Sprintf("/api/v1/executions/%s/attachments", id), "file", filepath.Base(filePath), file, fields)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var a AttachmentResponse
			if err := json.Unmarshal(body, &a); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Attachment uploaded: %s (%s, %d bytes)", a.FileName, a.ID, a.FileSize))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Execution ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&filePath, "file", "", "Path of the file to upload (required)")
	cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&kind, "kind", "", "Attachment kind: image, video, log or document (required)")
	cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVar(&description, "description", "", "Attachment description")
	return cmd
}

func newExecutionsDownloadCmd() *cobra.Command {
	var attachmentID, output string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download an attachment's content to a local file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/attachments/%s/download", attachmentID), nil)
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, body, 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			printMessage(fmt.Sprintf("Downloaded %d bytes to %s", len(body), output))
			return nil
		},
	}

	cmd.Flags().StringVar(&attachmentID, "attachment-id", "", "Attachment ID (required)")
	cmd.MarkFlagRequired("attachment-id")
	cmd.Flags().StringVar(&output, "output", "", "Path to write the file to (required)")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newExecutionsURLCmd() *cobra.Command {
	var attachmentID string

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Get a direct URL for an attachment's content",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/attachments/%s/url", attachmentID), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp AttachmentURLResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(resp.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&attachmentID, "attachment-id", "", "Attachment ID (required)")
	cmd.MarkFlagRequired("attachment-id")
	return cmd
}

func newExecutionsDeleteAttachmentCmd() *cobra.Command {
	var attachmentID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-attachment",
		Short: "Delete an attachment and its stored content",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction(fmt.Sprintf("Delete attachment %s?", attachmentID), yes) {
				printMessage("Aborted.")
				return nil
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			_, err = client.Delete(fmt.Sprintf("/api/v1/attachments/%s", attachmentID))
			if err != nil {
				return err
			}

			printMessage("Attachment deleted successfully.")
			return nil
		},
	}

	cmd.Flags().StringVar(&attachmentID, "attachment-id", "", "Attachment ID (required)")
	cmd.MarkFlagRequired("attachment-id")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation")
	return cmd
}
