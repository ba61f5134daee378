package main

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ferryd/ferry/internal/config"
	"github.com/ferryd/ferry/internal/store"
)

func setTestGlobals(t *testing.T) {
	origCfg := globalCfg
	origLogger := logger
	globalCfg = config.DefaultConfig()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(func() {
		globalCfg = origCfg
		logger = origLogger
	})
}

func TestApplyRunFlags(t *testing.T) {
	setTestGlobals(t)

	cmd := newRunCmd()
	args := []string{
		"--host", "files.example.com",
		"--user", "batch",
		"--protocol", "ftp",
		"--s3-bucket", "acme-inbound",
		"--s3-prefix", "incoming",
		"--overwrite",
		"--no-delete",
		"--strict-cleanup",
	}
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	applyRunFlags(cmd)
	globalCfg.Finalize()

	if globalCfg.Source.Host != "files.example.com" {
		t.Errorf("host not applied: %q", globalCfg.Source.Host)
	}
	if globalCfg.Source.Protocol != config.ProtocolFTP {
		t.Errorf("protocol not applied: %q", globalCfg.Source.Protocol)
	}
	if globalCfg.Source.Port != 21 {
		t.Errorf("ftp port default not applied: %d", globalCfg.Source.Port)
	}
	if globalCfg.Destination.Mode() != config.ModeS3 {
		t.Errorf("bucket flag must switch the destination to S3 mode")
	}
	if globalCfg.Destination.S3.Prefix != "incoming/" {
		t.Errorf("prefix not normalized: %q", globalCfg.Destination.S3.Prefix)
	}
	if !globalCfg.Destination.S3.Overwrite {
		t.Error("overwrite flag not applied")
	}
	if globalCfg.DeleteAfterTransfer {
		t.Error("--no-delete must disable source deletion")
	}
	if !globalCfg.StrictCleanup {
		t.Error("--strict-cleanup not applied")
	}
}

func TestApplyRunFlagsKeepsConfigValues(t *testing.T) {
	setTestGlobals(t)
	globalCfg.Source.Host = "from-config.example.com"
	globalCfg.Destination.S3.Overwrite = true

	cmd := newRunCmd()
	if err := cmd.Flags().Parse(nil); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	applyRunFlags(cmd)

	if globalCfg.Source.Host != "from-config.example.com" {
		t.Errorf("unset flag must not clobber config host: %q", globalCfg.Source.Host)
	}
	if !globalCfg.Destination.S3.Overwrite {
		t.Error("unset --overwrite must not clobber the config value")
	}
}

func TestHistoryRun(t *testing.T) {
	setTestGlobals(t)

	dbPath := filepath.Join(t.TempDir(), "history.db")
	journal, err := store.New(dbPath, logger)
	if err != nil {
		t.Fatalf("opening journal: %v", err)
	}
	run := &store.TransferRun{
		SourceHost:  "files.example.com",
		Mode:        config.ModeS3,
		StartTime:   time.Now().Add(-time.Minute),
		EndTime:     time.Now(),
		Total:       3,
		Transferred: 2,
		NotFound:    1,
		ExitCode:    1,
	}
	if err := journal.RecordRun(run); err != nil {
		t.Fatalf("recording run: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("closing journal: %v", err)
	}

	cmd := newHistoryCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	origDB := historyDB
	historyDB = dbPath
	t.Cleanup(func() { historyDB = origDB })

	if err := historyRun(cmd, nil); err != nil {
		t.Fatalf("historyRun returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "files.example.com") {
		t.Errorf("expected source host in output:\n%s", out)
	}
}

func TestHistoryRunNoDatabase(t *testing.T) {
	setTestGlobals(t)

	origDB := historyDB
	historyDB = ""
	t.Cleanup(func() { historyDB = origDB })

	if err := historyRun(newHistoryCmd(), nil); err == nil {
		t.Fatal("expected an error when no history database is configured")
	}
}
