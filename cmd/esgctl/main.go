package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/esgdigest/internal/pipeline"
	"github.com/dgallion1/esgdigest/internal/report"
	"github.com/dgallion1/esgdigest/internal/source"
	"github.com/dgallion1/esgdigest/internal/store"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "esgctl",
		Short: "ESG report analysis from the command line",
		Long: `esgctl runs the esgdigest analysis pipeline against local files
without the HTTP service: parse, segment into chapters, classify each
chapter, and extract indicators and goals into the same SQLite database
the server uses.`,
		Version: version,
	}

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(reportsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a sustainability report file",
		Long: `Analyze runs the full pipeline synchronously on one file and
persists the results. Summarization is disabled; chapter summaries are
content excerpts, so runs are deterministic and need no API key.

Example:
  esgctl analyze 2024-esg-report.pdf --company "Acme Corp"
  esgctl analyze report.txt --company acme --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			company, _ := cmd.Flags().GetString("company")
			title, _ := cmd.Flags().GetString("title")
			asJSON, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")

			path := args[0]
			filename := filepath.Base(path)
			if !source.IsSupportedExtension(filename) {
				return fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
			}
			if company == "" {
				return fmt.Errorf("--company flag is required")
			}
			if title == "" {
				title = strings.TrimSuffix(filename, filepath.Ext(filename))
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			st, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			ctx := context.Background()
			rep := &report.Report{
				Company:     company,
				Filename:    filename,
				Title:       title,
				ContentHash: pipeline.ContentHashHex(data),
			}
			if err := st.CreateReport(ctx, rep); err != nil {
				return err
			}

			var logOut io.Writer = io.Discard
			if verbose {
				logOut = os.Stderr
			}
			log := slog.New(slog.NewTextHandler(logOut, nil))

			w := pipeline.NewWorker(st, nil, log, "繁體中文", 200, true)
			job := pipeline.NewJob(rep.ID, company, filename, title, data)

			if !asJSON {
				fmt.Printf("Analyzing %s for %s... ", filename, company)
			}
			start := time.Now()
			w.Process(ctx, job)

			snap := job.Snapshot()
			if snap.Status == pipeline.StatusFailed {
				if !asJSON {
					fmt.Println("failed")
				}
				return fmt.Errorf("analysis failed in phase %s: %s", snap.Phase, strings.Join(snap.Progress.Errors, "; "))
			}

			stored, err := st.GetReport(ctx, rep.ID)
			if err != nil {
				return fmt.Errorf("load report: %w", err)
			}
			chapters, err := st.ChaptersByReport(ctx, rep.ID)
			if err != nil {
				return fmt.Errorf("load chapters: %w", err)
			}
			indicators, err := st.IndicatorsByReport(ctx, rep.ID)
			if err != nil {
				return fmt.Errorf("load indicators: %w", err)
			}
			goals, err := st.GoalsByReport(ctx, rep.ID)
			if err != nil {
				return fmt.Errorf("load goals: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"report":     stored,
					"chapters":   chapters,
					"indicators": indicators,
					"goals":      goals,
				})
			}

			fmt.Printf("done in %v\n\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("Report %s\n", stored.ID)
			fmt.Printf("  Pages:      %d\n", stored.TotalPages)
			fmt.Printf("  Structure:  %s\n", snap.Progress.StructureSource)
			fmt.Printf("  Chapters:   %d\n", len(chapters))
			for _, ch := range chapters {
				// Pages print 1-based for humans; storage is 0-based.
				loc := fmt.Sprintf("p.%d-end", ch.StartPage+1)
				if ch.EndPage != nil {
					loc = fmt.Sprintf("p.%d-%d", ch.StartPage+1, *ch.EndPage+1)
				}
				fmt.Printf("    [%-7s] %-10s %s\n", ch.Type, loc, ch.Title)
			}
			fmt.Printf("  Indicators: %d\n", len(indicators))
			fmt.Printf("  Goals:      %d\n", len(goals))
			return nil
		},
	}

	cmd.Flags().String("db", "esgdigest.db", "SQLite database path")
	cmd.Flags().StringP("company", "c", "", "Company the report belongs to")
	cmd.Flags().StringP("title", "t", "", "Report title (defaults to the filename)")
	cmd.Flags().Bool("json", false, "Print full results as JSON")
	cmd.Flags().BoolP("verbose", "v", false, "Log pipeline progress to stderr")
	return cmd
}

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List stored reports",
		Long: `Reports lists the reports in the database, newest first.

Example:
  esgctl reports
  esgctl reports --company acme --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			company, _ := cmd.Flags().GetString("company")
			asJSON, _ := cmd.Flags().GetBool("json")

			st, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			reports, err := st.ListReports(context.Background(), company)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}

			if len(reports) == 0 {
				fmt.Println("No reports stored.")
				return nil
			}
			for _, r := range reports {
				fmt.Printf("%s  %-10s  %4d pages  %s  %s\n", r.ID, r.Status, r.TotalPages, r.Company, r.Title)
			}
			return nil
		},
	}

	cmd.Flags().String("db", "esgdigest.db", "SQLite database path")
	cmd.Flags().StringP("company", "c", "", "Filter by company")
	cmd.Flags().Bool("json", false, "Print results as JSON")
	return cmd
}
