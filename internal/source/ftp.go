package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/textproto"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/ferryd/ferry/internal/config"
)

const ftpDialTimeout = 10 * time.Second

// ftpClient is a plain FTP control session, chdir'd into the remote
// directory at connect time.
type ftpClient struct {
	conn   *ftp.ServerConn
	logger *slog.Logger
}

func dialFTP(cfg config.SourceConfig, logger *slog.Logger) (Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(ftpDialTimeout))
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %w", addr, err)
	}

	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	if err := conn.Type(ftp.TransferTypeBinary); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("setting binary transfer mode: %w", err)
	}

	if err := conn.ChangeDir(cfg.RemotePath); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("remote path %s: %w", cfg.RemotePath, err)
	}

	logger.Info("connected to ftp server", "host", cfg.Host, "remote_path", cfg.RemotePath)
	return &ftpClient{conn: conn, logger: logger}, nil
}

// ftpNotFound reports whether err is a 550 reply (file unavailable).
func ftpNotFound(err error) bool {
	var proto *textproto.Error
	return errors.As(err, &proto) && proto.Code == ftp.StatusFileUnavailable
}

func (c *ftpClient) Stat(name string) error {
	if _, err := c.conn.FileSize(name); err != nil {
		if ftpNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("stat %s: %w", name, err)
	}
	return nil
}

func (c *ftpClient) Fetch(name string, dst io.Writer) error {
	resp, err := c.conn.Retr(name)
	if err != nil {
		if ftpNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("retrieving %s: %w", name, err)
	}
	defer resp.Close()

	if _, err := io.Copy(dst, resp); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

func (c *ftpClient) Delete(name string) error {
	if err := c.conn.Delete(name); err != nil {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	return nil
}

func (c *ftpClient) List() ([]string, error) {
	entries, err := c.conn.List("")
	if err != nil {
		return nil, fmt.Errorf("listing remote directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type == ftp.EntryTypeFile {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

func (c *ftpClient) Close() error {
	return c.conn.Quit()
}
