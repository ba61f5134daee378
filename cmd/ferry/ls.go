package main

import (
	"fmt"
	"sort"

	"github.com/ferryd/ferry/internal/source"
	"github.com/spf13/cobra"
)

var (
	lsHost       string
	lsPort       int
	lsUser       string
	lsPassword   string
	lsRemotePath string
	lsProtocol   string
)

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the files in the source server directory",
		Long: `List the regular files in the remote directory, one per line. Useful for
building a manifest or checking what a previous run left behind on the
source.`,
		Example: `  ferry ls --host files.example.com --user batch
  ferry ls --protocol ftp --host legacy.example.com --user batch --remote-path /outbound`,
		RunE: lsRun,
	}

	cmd.Flags().StringVar(&lsHost, "host", "", "source server hostname")
	cmd.Flags().IntVar(&lsPort, "port", 0, "source server port (default 22 for sftp, 21 for ftp)")
	cmd.Flags().StringVar(&lsUser, "user", "", "source server username")
	cmd.Flags().StringVar(&lsPassword, "password", "", "source server password (falls back to FERRY_SOURCE_PASSWORD)")
	cmd.Flags().StringVar(&lsRemotePath, "remote-path", "", "directory on the source server")
	cmd.Flags().StringVar(&lsProtocol, "protocol", "", "source protocol (sftp or ftp)")

	return cmd
}

func lsRun(cmd *cobra.Command, args []string) error {
	if lsHost != "" {
		globalCfg.Source.Host = lsHost
	}
	if cmd.Flags().Changed("port") {
		globalCfg.Source.Port = lsPort
	}
	if lsUser != "" {
		globalCfg.Source.User = lsUser
	}
	if lsPassword != "" {
		globalCfg.Source.Password = lsPassword
	}
	if lsRemotePath != "" {
		globalCfg.Source.RemotePath = lsRemotePath
	}
	if lsProtocol != "" {
		globalCfg.Source.Protocol = lsProtocol
	}

	globalCfg.Finalize()
	if globalCfg.Source.Host == "" {
		return fmt.Errorf("source host is required")
	}

	src, err := source.Connect(globalCfg.Source, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to source: %w", err)
	}
	defer src.Close()

	names, err := src.List()
	if err != nil {
		return fmt.Errorf("failed to list remote directory: %w", err)
	}

	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	logger.Debug("listed remote directory", "path", globalCfg.Source.RemotePath, "files", len(names))
	return nil
}
