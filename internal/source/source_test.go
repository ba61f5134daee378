package source

import (
	"errors"
	"fmt"
	"net/textproto"
	"testing"

	"github.com/jlaffaye/ftp"

	"github.com/ferryd/ferry/internal/config"
)

func TestConnectRejectsUnknownProtocol(t *testing.T) {
	_, err := Connect(config.SourceConfig{Protocol: "gopher"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown protocol")
	}
}

func TestFTPNotFound(t *testing.T) {
	missing := &textproto.Error{Code: ftp.StatusFileUnavailable, Msg: "No such file"}
	if !ftpNotFound(missing) {
		t.Error("expected 550 reply to be treated as not found")
	}
	if !ftpNotFound(fmt.Errorf("stat: %w", missing)) {
		t.Error("expected wrapped 550 reply to be treated as not found")
	}

	denied := &textproto.Error{Code: ftp.StatusNotLoggedIn, Msg: "Not logged in"}
	if ftpNotFound(denied) {
		t.Error("530 reply must not be treated as not found")
	}
	if ftpNotFound(errors.New("connection reset")) {
		t.Error("transport error must not be treated as not found")
	}
}

func TestSFTPRemoteJoin(t *testing.T) {
	c := &sftpClient{remoteDir: "/outbound/batch"}
	if got := c.remote("a.csv"); got != "/outbound/batch/a.csv" {
		t.Errorf("unexpected remote path %q", got)
	}

	c = &sftpClient{remoteDir: "/"}
	if got := c.remote("a.csv"); got != "/a.csv" {
		t.Errorf("unexpected remote path %q", got)
	}
}
