// Package source reads captured SOAP responses from local files, stdin,
// HTTP endpoints or an SFTP capture drop.
package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"csfe-soap/internal/common"
	"csfe-soap/internal/consts"

	CharmLog "github.com/charmbracelet/log"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

var ErrTooLarge = common.ErrTooLarge

// Opener resolves response references. The zero value reads files, stdin and
// HTTP with default settings.
type Opener struct {
	HTTPClient *http.Client
	Stdin      io.Reader

	// SFTPUser and SFTPPassword are used when an sftp:// reference carries
	// no credentials.
	SFTPUser     string
	SFTPPassword string

	// HostKeyCallback verifies the SFTP server. Nil accepts any host key and
	// logs a warning.
	HostKeyCallback ssh.HostKeyCallback

	Logger *CharmLog.Logger
}

// Read returns the bytes behind ref: "-" for stdin, an http(s):// or
// sftp:// URL, or a local path.
func (o *Opener) Read(ctx context.Context, ref string) ([]byte, error) {
	logger := o.logger()

	switch {
	case ref == "-":
		logger.Debug("Reading response from stdin")
		stdin := o.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		return readLimited(stdin)

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		logger.Debug("Fetching response over HTTP", "url", ref)
		return o.readHTTP(ctx, ref)

	case strings.HasPrefix(ref, "sftp://"):
		logger.Debug("Fetching response over SFTP", "ref", redact(ref))
		return o.readSFTP(ctx, ref)

	default:
		logger.Debug("Reading response file", "path", ref)
		f, err := os.Open(ref)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readLimited(f)
	}
}

func (o *Opener) readHTTP(ctx context.Context, ref string) ([]byte, error) {
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source: GET %s: status %d", ref, res.StatusCode)
	}
	return readLimited(res.Body)
}

func (o *Opener) readSFTP(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("source: invalid sftp reference: %w", err)
	}

	user, password := o.SFTPUser, o.SFTPPassword
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			password = p
		}
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "22")
	}

	hostKeyCallback := o.HostKeyCallback
	if hostKeyCallback == nil {
		o.logger().Warn("Host key checking is off; set sftp.known_hosts to verify the server", "host", host)
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	sshConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         15 * time.Second,
	}

	var dialer net.Dialer
	netConn, err := dialer.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, fmt.Errorf("source: dial %s: %w", host, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, host, sshConfig)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("source: ssh handshake with %s: %w", host, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, fmt.Errorf("source: sftp session: %w", err)
	}
	defer client.Close()

	return ReadSFTP(client, u.Path)
}

// ReadSFTP reads one file through an established SFTP session.
func ReadSFTP(client *sftp.Client, path string) ([]byte, error) {
	f, err := client.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	return common.ReadLimited(r, consts.MAX_BODY_BYTES)
}

func (o *Opener) logger() *CharmLog.Logger {
	if o.Logger == nil {
		return CharmLog.Default()
	}
	return o.Logger
}

func redact(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return "sftp://"
	}
	return u.Redacted()
}
