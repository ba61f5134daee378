package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/ferryd/ferry/internal/config"
)

const sftpDialTimeout = 10 * time.Second

// sftpClient is an SFTP session over SSH password authentication.
type sftpClient struct {
	ssh       *ssh.Client
	sftp      *sftp.Client
	remoteDir string
	logger    *slog.Logger
}

func dialSFTP(cfg config.SourceConfig, logger *slog.Logger) (Client, error) {
	sshCfg := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         sftpDialTimeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	sshConn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	sftpConn, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("opening sftp subsystem: %w", err)
	}

	// Resolve the remote directory up front so a bad path fails the run
	// before any entry is processed.
	fi, err := sftpConn.Stat(cfg.RemotePath)
	if err != nil {
		sftpConn.Close()
		sshConn.Close()
		return nil, fmt.Errorf("remote path %s: %w", cfg.RemotePath, err)
	}
	if !fi.IsDir() {
		sftpConn.Close()
		sshConn.Close()
		return nil, fmt.Errorf("remote path %s is not a directory", cfg.RemotePath)
	}

	logger.Info("connected to sftp server", "host", cfg.Host, "remote_path", cfg.RemotePath)
	return &sftpClient{
		ssh:       sshConn,
		sftp:      sftpConn,
		remoteDir: cfg.RemotePath,
		logger:    logger,
	}, nil
}

func (c *sftpClient) remote(name string) string {
	return path.Join(c.remoteDir, name)
}

func (c *sftpClient) Stat(name string) error {
	if _, err := c.sftp.Stat(c.remote(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("stat %s: %w", name, err)
	}
	return nil
}

func (c *sftpClient) Fetch(name string, dst io.Writer) error {
	f, err := c.sftp.Open(c.remote(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("opening remote file %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("reading remote file %s: %w", name, err)
	}
	return nil
}

func (c *sftpClient) Delete(name string) error {
	if err := c.sftp.Remove(c.remote(name)); err != nil {
		return fmt.Errorf("deleting remote file %s: %w", name, err)
	}
	return nil
}

func (c *sftpClient) List() ([]string, error) {
	infos, err := c.sftp.ReadDir(c.remoteDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.remoteDir, err)
	}

	var names []string
	for _, fi := range infos {
		if fi.Mode().IsRegular() {
			names = append(names, fi.Name())
		}
	}
	return names, nil
}

func (c *sftpClient) Close() error {
	sftpErr := c.sftp.Close()
	sshErr := c.ssh.Close()
	if sftpErr != nil {
		return sftpErr
	}
	return sshErr
}
