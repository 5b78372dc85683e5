package drop

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"csfe-soap/internal/common"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ServerConfig authenticates SFTP passwords against the shared token.
func ServerConfig(auth *common.Authenticator, hostKey ssh.Signer) *ssh.ServerConfig {
	config := &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			user, err := auth.Validate(string(password))
			if err != nil {
				return nil, err
			}

			return &ssh.Permissions{
				Extensions: map[string]string{
					"user":  user.Username,
					"email": user.Email,
				},
			}, nil
		},
	}
	config.AddHostKey(hostKey)
	return config
}

// Serve accepts SSH connections until ctx is done or the listener is
// closed. Open sessions are closed with ctx and Serve waits for them.
func (d *Drop) Serve(ctx context.Context, listener net.Listener, config *ssh.ServerConfig) error {
	var sessions sync.WaitGroup
	defer sessions.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			d.logger.Warn("Failed to accept connection", "error", err)
			continue
		}

		sessions.Add(1)
		go func() {
			defer sessions.Done()
			d.session(ctx, conn, config)
		}()
	}
}

func (d *Drop) session(ctx context.Context, netConn net.Conn, config *ssh.ServerConfig) {
	defer netConn.Close()
	stop := context.AfterFunc(ctx, func() { netConn.Close() })
	defer stop()

	sshConn, chans, reqs, err := ssh.NewServerConn(netConn, config)
	if err != nil {
		d.logger.Warn("SSH handshake failed", "remoteAddr", netConn.RemoteAddr(), "error", err)
		return
	}
	defer sshConn.Close()
	logger := d.logger.With("user", sshConn.Permissions.Extensions["user"], "remoteAddr", sshConn.RemoteAddr())
	logger.Info("Session opened")

	go ssh.DiscardRequests(reqs)
	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "only session channels are served")
			continue
		}

		channel, requests, err := newChannel.Accept()
		if err != nil {
			logger.Error("Could not accept channel", "error", err)
			continue
		}
		go d.serveChannel(channel, requests)
	}
	logger.Info("Session closed")
}

// serveChannel waits for the sftp subsystem request and refuses shells,
// exec and everything else.
func (d *Drop) serveChannel(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	for req := range requests {
		accepted := req.Type == "subsystem" && isSFTPSubsystem(req.Payload)
		if req.WantReply {
			req.Reply(accepted, nil)
		}
		if !accepted {
			d.logger.Warn("Refused channel request", "type", req.Type)
			continue
		}

		go ssh.DiscardRequests(requests)
		server := sftp.NewRequestServer(channel, d.Handlers())
		if err := server.Serve(); err != nil && !errors.Is(err, io.EOF) {
			d.logger.Warn("SFTP transfer ended with error", "error", err)
		}
		return
	}
}

func isSFTPSubsystem(payload []byte) bool {
	var subsystem struct {
		Name string
	}
	return ssh.Unmarshal(payload, &subsystem) == nil && subsystem.Name == "sftp"
}
