package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/netpec/pkg/util"
)

// DefaultRemoteRedis is where Tunnel forwards when no remote address is given
const DefaultRemoteRedis = "127.0.0.1:6379"

// Tunnel forwards a local TCP port to an address reachable from the SSH
// host. It is used to publish to a Redis server that only listens on the
// loopback of a jump host.
type Tunnel struct {
	localAddr  string
	remoteAddr string
	sshClient  *ssh.Client
	listener   net.Listener
	done       chan struct{}
	wg         sync.WaitGroup
}

// OpenTunnel dials the SSH host described by c and listens on a random
// local port. Connections to it are forwarded to remote, or
// DefaultRemoteRedis when remote is empty.
func OpenTunnel(ctx context.Context, c *Client, remote string) (*Tunnel, error) {
	if remote == "" {
		remote = DefaultRemoteRedis
	}
	sshClient, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("local listen: %w", err)
	}

	t := &Tunnel{
		localAddr:  listener.Addr().String(),
		remoteAddr: remote,
		sshClient:  sshClient,
		listener:   listener,
		done:       make(chan struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

// LocalAddr returns the local address (e.g. "127.0.0.1:54321")
func (t *Tunnel) LocalAddr() string {
	return t.localAddr
}

// Close stops the listener, waits for forwarding goroutines and closes the
// SSH connection.
func (t *Tunnel) Close() error {
	close(t.done)
	t.listener.Close()
	err := t.sshClient.Close()
	t.wg.Wait()
	return err
}

func (t *Tunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			case <-time.After(50 * time.Millisecond):
			}
			util.WithField("tunnel", t.localAddr).Debugf("accept: %v", err)
			continue
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

// forward connects local to the remote address and copies in both
// directions until either side finishes or the tunnel closes.
func (t *Tunnel) forward(local net.Conn) {
	defer t.wg.Done()

	remote, err := t.sshClient.Dial("tcp", t.remoteAddr)
	if err != nil {
		local.Close()
		util.WithField("tunnel", t.localAddr).Warnf("forwarding to %s: %v", t.remoteAddr, err)
		return
	}

	var once sync.Once
	closeBoth := func() {
		once.Do(func() {
			local.Close()
			remote.Close()
		})
	}
	finished := make(chan struct{}, 2)
	splice := func(dst, src net.Conn) {
		io.Copy(dst, src)
		closeBoth()
		finished <- struct{}{}
	}
	go splice(remote, local)
	go splice(local, remote)

	select {
	case <-finished:
	case <-t.done:
		closeBoth()
	}
	<-finished
}
