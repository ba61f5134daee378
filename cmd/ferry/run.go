package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ferryd/ferry/internal/dest"
	"github.com/ferryd/ferry/internal/engine"
	"github.com/ferryd/ferry/internal/manifest"
	"github.com/ferryd/ferry/internal/source"
	"github.com/ferryd/ferry/internal/store"
	"github.com/spf13/cobra"
)

var (
	runHost          string
	runPort          int
	runUser          string
	runPassword      string
	runRemotePath    string
	runProtocol      string
	runS3Bucket      string
	runS3Prefix      string
	runRegion        string
	runOverwrite     bool
	runLocalPath     string
	runColumn        string
	runNoDelete      bool
	runStrictCleanup bool
	runHistoryDB     string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run MANIFEST",
		Short: "Transfer the files named in a CSV manifest",
		Long: `Transfer every file named in the manifest from the source server to the
destination. The manifest is a CSV file with a header row; the column holding
the filenames defaults to "filename" and can be changed with
--filename-column.

The destination is an S3 bucket when --s3-bucket is set, otherwise a local
directory. Files already present in the bucket are skipped unless --overwrite
is given. After each confirmed write the source copy is deleted; --no-delete
leaves the source untouched.

The exit code is 0 only when every manifest entry was transferred or
skipped.`,
		Example: `  ferry run manifest.csv --host files.example.com --user batch --s3-bucket acme-inbound --s3-prefix incoming
  ferry run manifest.csv --host files.example.com --user batch --local-path /srv/drop
  ferry run manifest.csv --protocol ftp --host legacy.example.com --user batch
  ferry run manifest.csv --config ferry.yaml --overwrite --no-delete`,
		Args: cobra.ExactArgs(1),
		RunE: runTransfer,
	}

	cmd.Flags().StringVar(&runHost, "host", "", "source server hostname")
	cmd.Flags().IntVar(&runPort, "port", 0, "source server port (default 22 for sftp, 21 for ftp)")
	cmd.Flags().StringVar(&runUser, "user", "", "source server username")
	cmd.Flags().StringVar(&runPassword, "password", "", "source server password (falls back to FERRY_SOURCE_PASSWORD)")
	cmd.Flags().StringVar(&runRemotePath, "remote-path", "", "directory on the source server")
	cmd.Flags().StringVar(&runProtocol, "protocol", "", "source protocol (sftp or ftp)")
	cmd.Flags().StringVar(&runS3Bucket, "s3-bucket", "", "destination S3 bucket (enables S3 mode)")
	cmd.Flags().StringVar(&runS3Prefix, "s3-prefix", "", "key prefix inside the bucket")
	cmd.Flags().StringVar(&runRegion, "region", "", "AWS region for the bucket")
	cmd.Flags().BoolVar(&runOverwrite, "overwrite", false, "replace objects that already exist in the bucket")
	cmd.Flags().StringVar(&runLocalPath, "local-path", "", "destination directory for local mode")
	cmd.Flags().StringVar(&runColumn, "filename-column", "", "manifest column holding the filenames")
	cmd.Flags().BoolVar(&runNoDelete, "no-delete", false, "keep source files after transfer")
	cmd.Flags().BoolVar(&runStrictCleanup, "strict-cleanup", false, "count source delete failures against the exit code")
	cmd.Flags().StringVar(&runHistoryDB, "history-db", "", "SQLite file recording run history (disabled if empty)")

	return cmd
}

// applyRunFlags overlays command-line flags on the loaded config. Only flags
// the user actually set override file values.
func applyRunFlags(cmd *cobra.Command) {
	if runHost != "" {
		globalCfg.Source.Host = runHost
	}
	if cmd.Flags().Changed("port") {
		globalCfg.Source.Port = runPort
	}
	if runUser != "" {
		globalCfg.Source.User = runUser
	}
	if runPassword != "" {
		globalCfg.Source.Password = runPassword
	}
	if runRemotePath != "" {
		globalCfg.Source.RemotePath = runRemotePath
	}
	if runProtocol != "" {
		globalCfg.Source.Protocol = runProtocol
	}
	if runS3Bucket != "" {
		globalCfg.Destination.S3.Bucket = runS3Bucket
	}
	if runS3Prefix != "" {
		globalCfg.Destination.S3.Prefix = runS3Prefix
	}
	if runRegion != "" {
		globalCfg.Destination.S3.Region = runRegion
	}
	if cmd.Flags().Changed("overwrite") {
		globalCfg.Destination.S3.Overwrite = runOverwrite
	}
	if runLocalPath != "" {
		globalCfg.Destination.Local.Path = runLocalPath
	}
	if runColumn != "" {
		globalCfg.Manifest.Column = runColumn
	}
	if runNoDelete {
		globalCfg.DeleteAfterTransfer = false
	}
	if cmd.Flags().Changed("strict-cleanup") {
		globalCfg.StrictCleanup = runStrictCleanup
	}
	if runHistoryDB != "" {
		globalCfg.HistoryDB = runHistoryDB
	}
}

func runTransfer(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	applyRunFlags(cmd)
	globalCfg.Finalize()
	if err := globalCfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	reader := manifest.NewReader(manifestPath, globalCfg.Manifest.Column, logger)
	list, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	if len(list.Entries) == 0 {
		return fmt.Errorf("manifest %s contains no usable entries", manifestPath)
	}

	src, err := source.Connect(globalCfg.Source, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to source: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("failed to close source connection", "error", err)
		}
	}()

	dst, err := dest.New(ctx, globalCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to prepare destination: %w", err)
	}

	eng := engine.New(src, dst, globalCfg, logger)

	if globalCfg.HistoryDB != "" {
		journal, err := store.New(globalCfg.HistoryDB, logger)
		if err != nil {
			logger.Warn("run history disabled", "error", err)
		} else {
			defer journal.Close()
			eng.SetJournal(journal)
		}
	}

	report, runErr := eng.Run(ctx, list)
	if report != nil && !quiet {
		report.WriteSummary(os.Stdout)
	}
	if runErr != nil {
		return fmt.Errorf("transfer aborted: %w", runErr)
	}

	failures := report.FailureCount()
	if globalCfg.StrictCleanup {
		failures += report.CleanupFailed
	}
	if failures > 0 {
		return fmt.Errorf("completed with %d failed transfer(s)", failures)
	}
	return nil
}
