package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/VaultIntake/internal/classify"
	"github.com/dharsanguruparan/VaultIntake/internal/ingest"
	"github.com/dharsanguruparan/VaultIntake/internal/logging"
	"github.com/dharsanguruparan/VaultIntake/internal/model"
	"github.com/dharsanguruparan/VaultIntake/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "vaultintake: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "vaultintake",
		Short: "VaultIntake command line tools",
		Long: `VaultIntake runs the ingestion pipeline against local files: classify them,
fingerprint them, expand zip archives and report duplicates, without starting the API.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.AddCommand(
		newIngestCmd(),
		newClassifyCmd(),
	)
	return cmd
}

func newIngestCmd() *cobra.Command {
	var (
		maxSize          int64
		pretty           bool
		metadataPrefixes []string
		forkPrefixes     []string
	)
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest local files and print the result records as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(args)
			if err != nil {
				return err
			}
			ingester := ingest.New(storage.NewHashSet(),
				ingest.WithMaxSize(maxSize),
				ingest.WithFilter(ingest.EntryFilter{
					MetadataPrefixes:     metadataPrefixes,
					ResourceForkPrefixes: forkPrefixes,
				}),
				ingest.WithLogger(slog.Default()),
			)
			records, err := ingester.Ingest(cmd.Context(), items)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records, pretty)
		},
	}
	cmd.Flags().Int64Var(&maxSize, "max-size", ingest.DefaultMaxSize, "Largest accepted file in bytes")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().StringSliceVar(&metadataPrefixes, "metadata-prefix", ingest.DefaultMetadataPrefixes, "Archive member path prefixes treated as noise")
	cmd.Flags().StringSliceVar(&forkPrefixes, "fork-prefix", ingest.DefaultResourceForkPrefixes, "Archive member name prefixes treated as resource forks")
	return cmd
}

type classification struct {
	File     string         `json:"file"`
	FileType model.FileType `json:"file_type"`
	MIMEType string         `json:"mime_type"`
}

func newClassifyCmd() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "classify <file>...",
		Short: "Print the detected file type and MIME type of local files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]classification, 0, len(args))
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				fileType, mimeType := classify.Classify(filepath.Base(path), content)
				out = append(out, classification{File: path, FileType: fileType, MIMEType: mimeType})
			}
			return writeJSON(cmd.OutOrStdout(), out, pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
	return cmd
}

// readItems loads files into memory; the record keeps the base name as an
// upload would.
func readItems(paths []string) ([]model.UploadItem, error) {
	items := make([]model.UploadItem, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if content == nil {
			content = []byte{}
		}
		items = append(items, model.UploadItem{Filename: filepath.Base(path), Content: content})
	}
	return items, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
