package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
)

// SFTPConfig configures an SFTPPublisher.
type SFTPConfig struct {
	Host                  string
	Port                  int
	User                  string
	Password              string
	RemoteDir             string
	BaseURL               string
	KnownHosts            string
	InsecureIgnoreHostKey bool
	Timeout               time.Duration
}

// remoteFS is the subset of *sftp.Client used for uploads.
type remoteFS interface {
	MkdirAll(dir string) error
	Create(name string) (io.WriteCloser, error)
	Close() error
}

type sftpFS struct {
	client *sftp.Client
	conn   *ssh.Client
}

func (f *sftpFS) MkdirAll(dir string) error { return f.client.MkdirAll(dir) }

func (f *sftpFS) Create(name string) (io.WriteCloser, error) { return f.client.Create(name) }

func (f *sftpFS) Close() error {
	err := f.client.Close()
	if cerr := f.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// SFTPPublisher uploads pages as static files. One SSH session is shared by all
// uploads of a run and opened on first use.
type SFTPPublisher struct {
	cfg  SFTPConfig
	dial func(ctx context.Context) (remoteFS, error)

	mu sync.Mutex
	fs remoteFS
}

// NewSFTPPublisher validates cfg and returns a publisher. No connection is made yet.
func NewSFTPPublisher(cfg SFTPConfig) (*SFTPPublisher, error) {
	if cfg.Host == "" || cfg.User == "" {
		return nil, errors.ConfigError("sftp: missing host or user (SFTP_HOST / SFTP_USER)").Build()
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	p := &SFTPPublisher{cfg: cfg}
	p.dial = p.dialSSH
	return p, nil
}

// Name implements Publisher.
func (p *SFTPPublisher) Name() string { return "sftp" }

func (p *SFTPPublisher) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if p.cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicitly requested by configuration
	}
	cb, err := knownhosts.New(p.cfg.KnownHosts)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "sftp: cannot read known_hosts").
			WithContext("file", p.cfg.KnownHosts).
			Build()
	}
	return cb, nil
}

func (p *SFTPPublisher) dialSSH(ctx context.Context) (remoteFS, error) {
	cb, err := p.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	sshCfg := &ssh.ClientConfig{
		User:            p.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(p.cfg.Password)},
		HostKeyCallback: cb,
		Timeout:         p.cfg.Timeout,
	}
	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))

	type dialRes struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialRes, 1)
	go func() {
		c, err := ssh.Dial("tcp", addr, sshCfg)
		ch <- dialRes{client: c, err: err}
	}()

	var conn *ssh.Client
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.client != nil {
				_ = r.client.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			b := errors.WrapError(r.err, errors.CategoryNetwork, "sftp: dial failed").WithContext("host", addr)
			if strings.Contains(r.err.Error(), "unable to authenticate") {
				b = errors.WrapError(r.err, errors.CategoryAuth, "sftp: authentication failed").WithContext("host", addr)
			} else {
				b = b.Retryable()
			}
			return nil, b.Build()
		}
		conn = r.client
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "sftp: new client").WithContext("host", addr).Build()
	}
	slog.Debug("SFTP session opened", slog.String("host", addr), slog.String("user", p.cfg.User))
	return &sftpFS{client: client, conn: conn}, nil
}

func (p *SFTPPublisher) session(ctx context.Context) (remoteFS, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fs != nil {
		return p.fs, nil
	}
	fs, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	if err := fs.MkdirAll(p.cfg.RemoteDir); err != nil {
		_ = fs.Close()
		return nil, errors.WrapError(err, errors.CategoryPublish, fmt.Sprintf("sftp: mkdir %s", p.cfg.RemoteDir)).Build()
	}
	p.fs = fs
	return fs, nil
}

// reset drops a broken session so the next attempt reconnects.
func (p *SFTPPublisher) reset(broken remoteFS) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fs == broken {
		_ = p.fs.Close()
		p.fs = nil
	}
}

// Publish uploads p.Content to RemoteDir/p.FileName and returns its public URL.
func (p *SFTPPublisher) Publish(ctx context.Context, page Page) (Published, error) {
	if page.FileName == "" || strings.ContainsAny(page.FileName, "/\\") {
		return Published{}, errors.ValidationError("sftp: page file name must be a plain file name").
			WithContext("file", page.FileName).
			Build()
	}
	fs, err := p.session(ctx)
	if err != nil {
		return Published{}, err
	}

	remotePath := path.Join(p.cfg.RemoteDir, page.FileName)
	if err := upload(fs, remotePath, page.Content); err != nil {
		p.reset(fs)
		return Published{}, errors.WrapError(err, errors.CategoryNetwork, "sftp: upload failed").
			WithContext("file", remotePath).
			Retryable().
			Build()
	}

	u := PublicURL(p.cfg.BaseURL, page.FileName)
	slog.Debug("Uploaded page", logfields.Code(page.Code), logfields.File(remotePath), logfields.URL(u))
	return Published{URL: u}, nil
}

func upload(fs remoteFS, remotePath, content string) error {
	dst, err := fs.Create(remotePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, bytes.NewReader([]byte(content))); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// PublicURL joins the public base URL and an escaped file name.
func PublicURL(baseURL, fileName string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(fileName)
}

// Close implements Publisher.
func (p *SFTPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fs == nil {
		return nil
	}
	err := p.fs.Close()
	p.fs = nil
	return err
}
