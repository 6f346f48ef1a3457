// Package fetch retrieves router configurations over SSH.
package fetch

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/util"
)

// Defaults applied to zero-valued Client fields
const (
	DefaultPort    = 22
	DefaultCommand = "show running-config"
	DefaultTimeout = 30 * time.Second
)

// Client runs commands on one router. Host keys are not verified.
type Client struct {
	Host     string `validate:"required"`
	Port     int    `validate:"gte=0"`
	User     string `validate:"required"`
	Password string
	Command  string
	Timeout  time.Duration
}

// Addr returns host:port, using DefaultPort when Port is zero
func (c *Client) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Client) command() string {
	return util.CoalesceString(c.Command, DefaultCommand)
}

func (c *Client) sshConfig() *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User: c.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = c.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.timeout(),
	}
}

// Dial opens an SSH connection honoring ctx and Timeout
func (c *Client) Dial(ctx context.Context) (*ssh.Client, error) {
	if err := model.ValidateStruct(c); err != nil {
		return nil, err
	}
	addr := c.Addr()

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, c.sshConfig())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SSH handshake %s: %w", addr, err)
	}
	conn.SetDeadline(time.Time{})
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// Exec runs cmd in a new session and returns its combined output. The
// session is closed if ctx is done first.
func (c *Client) Exec(ctx context.Context, cmd string) (string, error) {
	client, err := c.Dial(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()
	return runCommand(ctx, client, cmd)
}

// RunningConfig returns the output of Command, by default
// "show running-config", with line endings normalized.
func (c *Client) RunningConfig(ctx context.Context) (string, error) {
	log := util.WithField("host", c.Host)
	log.Debugf("fetching configuration with %q", c.command())

	out, err := c.Exec(ctx, c.command())
	if err != nil {
		return "", err
	}
	out = strings.ReplaceAll(out, "\r\n", "\n")
	log.Infof("fetched %d bytes", len(out))
	return out, nil
}

func runCommand(ctx context.Context, client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("SSH session: %w", err)
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(cmd)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		session.Close()
		return "", fmt.Errorf("SSH exec '%s': %w", cmd, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return string(r.out), fmt.Errorf("SSH exec '%s': %w", cmd, r.err)
		}
		return string(r.out), nil
	}
}
