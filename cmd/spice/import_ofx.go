package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files exported from
your bank and fold them into your behavior model, oldest first.

Re-importing a statement is safe: transactions already recorded are skipped.

Examples:
  # Import single file
  spice import-ofx ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory for user 2
  spice import-ofx --user 2 ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Parse and summarize without saving")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	userID := userFlag(cmd)
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	slog.Info("🌶️  Importing OFX files...", "file_count", len(files), "user_id", userID, "dry_run", dryRun)

	parser := ofx.NewParser(slog.Default())
	var all []model.Transaction
	for _, path := range files {
		txns, err := parseOFXFile(cmd, parser, path, userID)
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}
		fmt.Fprintf(out, "  - %s: %d transactions\n", filepath.Base(path), len(txns))
		all = append(all, txns...)
	}

	if len(all) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found in any file"))
		return nil
	}
	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions parsed, nothing saved", len(all))))
		return nil
	}

	return withApp(cmd, func(a *app) error {
		handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
		ctx := handler.HandleInterrupts(cmd.Context(), "Import", "Run the same import again to pick up where it stopped.")
		defer handler.Stop()

		bar := progressbar.NewOptions(len(all),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Processing transactions"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		summary, err := a.engine.ProcessTransactions(ctx, all, func() { _ = bar.Add(1) })
		_ = bar.Finish()

		if handler.WasInterrupted() || errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, cli.RenderBatchSummary(summary))
			return nil
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		return emit(cmd, summary, func() string { return cli.RenderBatchSummary(summary) })
	})
}

func parseOFXFile(cmd *cobra.Command, parser *ofx.Parser, path string, userID int64) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.ParseFile(cmd.Context(), f, userID)
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("No files found matching pattern", "pattern", pattern)
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	return files, nil
}

// readSource opens path, or stdin for "-".
func readSource(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(strings.TrimSpace(path))
}
