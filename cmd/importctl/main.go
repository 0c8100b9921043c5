// Package main provides importctl, the CLI for the bulk-import service.
// It validates spreadsheets locally with the same rules the server applies,
// submits them, and manages imported records and background jobs.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/internhub/bulkimport/internal/client"
	"github.com/internhub/bulkimport/internal/importer"
	"github.com/internhub/bulkimport/internal/session"
)

var (
	serverURL   string
	sessionPath string
	apiKey      string
	institution string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "importctl",
		Short: "Bulk-import spreadsheets of students, staff, and internships",
		Long: `importctl validates and submits bulk-import spreadsheets.

Files are validated locally before upload: rows with errors are reported
with their row numbers and never sent. A login session file provides the
institution the records are scoped to.`,
		SilenceUsage: true,
	}

	defaultSession := filepath.Join(os.Getenv("HOME"), ".internhub", "session.json")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Import service base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", defaultSession, "Path to the login session file")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("IMPORT_API_KEY"), "API key for the import service")
	rootCmd.PersistentFlags().StringVar(&institution, "institution", "", "Act on behalf of this institution (directorate only)")

	rootCmd.AddCommand(
		newValidateCmd(),
		newUploadCmd(),
		newTemplateCmd(),
		newRecordsCmd(),
		newJobCmd(),
		newRollbackCmd(),
		newVariantsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient loads the session file and builds an API client from the
// persistent flags.
func newClient() (*client.Client, error) {
	sess, err := session.Load(sessionPath)
	if err != nil {
		return nil, fmt.Errorf("load session (log in first): %w", err)
	}

	var opts []client.Option
	if apiKey != "" {
		opts = append(opts, client.WithAPIKey(apiKey))
	}
	return client.New(serverURL, sess, opts...), nil
}

func newVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the available import variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range importer.Variants() {
				rs, _ := importer.Get(name)
				fmt.Printf("%-14s %s\n", name, rs.Label)
			}
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <variant> <file>",
		Short: "Validate a spreadsheet locally without uploading",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, path := args[0], args[1]

			sheet, _, err := client.ParseFile(path)
			if err != nil {
				return err
			}

			rs, ok := importer.Get(variant)
			if !ok {
				return fmt.Errorf("unknown variant: %s", variant)
			}
			review, err := importer.Validate(rs, sheet.Headers, sheet.Rows)
			if err != nil {
				return err
			}

			printReview(review)
			if len(review.Invalid) > 0 {
				return fmt.Errorf("%d row(s) failed validation", len(review.Invalid))
			}
			return nil
		},
	}
}

func printReview(review *importer.Result) {
	fmt.Printf("valid rows:   %d\n", len(review.Valid))
	fmt.Printf("invalid rows: %d\n", len(review.Invalid))

	for _, row := range review.Invalid {
		fmt.Printf("  row %d: %s\n", row.RowNumber, strings.Join(row.Errors, "; "))
	}
	for _, row := range review.Valid {
		if len(row.Warnings) > 0 {
			fmt.Printf("  row %d (warning): %s\n", row.RowNumber, strings.Join(row.Warnings, "; "))
		}
	}
}

func newUploadCmd() *cobra.Command {
	var async, wait, force bool

	cmd := &cobra.Command{
		Use:   "upload <variant> <file>",
		Short: "Validate and submit a spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, path := args[0], args[1]

			c, err := newClient()
			if err != nil {
				return err
			}

			sheet, raw, err := client.ParseFile(path)
			if err != nil {
				return err
			}

			review, err := c.Validate(variant, sheet)
			if err != nil {
				return err
			}
			printReview(review)
			if len(review.Invalid) > 0 && !force {
				return fmt.Errorf("validation failed; fix the rows above or pass --force to submit the valid ones")
			}

			result, err := c.Submit(cmd.Context(), client.SubmitRequest{
				Variant:     variant,
				FileName:    filepath.Base(path),
				FileData:    raw,
				Institution: institution,
				Async:       async,
				Progress: func(sent, total int64) {
					fmt.Fprintf(os.Stderr, "\ruploading... %d/%d bytes", sent, total)
					if sent == total {
						fmt.Fprintln(os.Stderr)
					}
				},
			})
			if err != nil {
				return err
			}

			if async {
				fmt.Printf("job queued: %s\n", result.JobID)
				if !wait {
					return nil
				}
				result, err = c.PollJob(cmd.Context(), result.JobID, time.Second)
				if err != nil {
					return err
				}
			}

			printResult(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "Process the import in the background")
	cmd.Flags().BoolVar(&wait, "wait", false, "With --async, poll until the job finishes")
	cmd.Flags().BoolVar(&force, "force", false, "Submit even when some rows fail validation")
	return cmd
}

func printResult(result *importer.UploadResult) {
	fmt.Printf("total: %d  imported: %d  failed: %d\n", result.Total, result.Success, result.Failed)
	for _, rec := range result.FailedRecords {
		fmt.Printf("  row %d (%s): %s\n", rec.Row, rec.Identifier, rec.Message)
	}
}

func newTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template <variant>",
		Short: "Download the variant's empty .xlsx template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant := args[0]
			if output == "" {
				output = variant + "_template.xlsx"
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.DownloadTemplate(cmd.Context(), variant, output); err != nil {
				return err
			}
			fmt.Printf("saved %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <variant>_template.xlsx)")
	return cmd
}

func newRecordsCmd() *cobra.Command {
	var deleteID, toggleID string

	cmd := &cobra.Command{
		Use:   "records <variant>",
		Short: "List, toggle, or delete imported records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant := args[0]

			c, err := newClient()
			if err != nil {
				return err
			}

			list, err := c.NewRecordList(cmd.Context(), variant, institution)
			if err != nil {
				return err
			}

			switch {
			case toggleID != "":
				if err := list.Toggle(cmd.Context(), toggleID); err != nil {
					return err
				}
			case deleteID != "":
				if err := list.Delete(cmd.Context(), deleteID); err != nil {
					return err
				}
			}

			for _, rec := range list.Records {
				status := "active"
				if !rec.Active {
					status = "inactive"
				}
				fmt.Printf("%s  %-30s %s\n", rec.ID, rec.Identifier, status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&toggleID, "toggle", "", "Toggle the active flag of this record id")
	cmd.Flags().StringVar(&deleteID, "delete", "", "Delete this record id")
	return cmd
}

func newJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "job <jobID>",
		Short: "Show the status of a background import job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			job, err := c.JobStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("job %s: %s\n", job.ID, job.Status)
			if job.Error != "" {
				fmt.Printf("error: %s\n", job.Error)
			}
			if job.Result != nil {
				printResult(job.Result)
			}
			return nil
		},
	}
}

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <jobID>",
		Short: "Delete every record a background import inserted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			deleted, err := c.Rollback(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d record(s)\n", deleted)
			return nil
		},
	}
}
