package fetch

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

const (
	testUser     = "admin"
	testPassword = "secret"
	hangCommand  = "hang"
)

// fakeRouter is an in-process SSH server that answers exec requests from a
// fixed table and forwards direct-tcpip channels.
type fakeRouter struct {
	ln      net.Listener
	outputs map[string]string
	release chan struct{}

	mu       sync.Mutex
	commands []string
}

func newFakeRouter(t *testing.T, outputs map[string]string) *fakeRouter {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == testUser && string(pass) == testPassword {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	r := &fakeRouter{ln: ln, outputs: outputs, release: make(chan struct{})}
	t.Cleanup(func() {
		close(r.release)
		ln.Close()
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go r.serve(conn, cfg)
		}
	}()
	return r
}

func (r *fakeRouter) client(t *testing.T) *Client {
	t.Helper()
	host, port, err := net.SplitHostPort(r.ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	p, _ := strconv.Atoi(port)
	return &Client{Host: host, Port: p, User: testUser, Password: testPassword}
}

func (r *fakeRouter) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

func (r *fakeRouter) serve(conn net.Conn, cfg *ssh.ServerConfig) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		switch nc.ChannelType() {
		case "session":
			ch, chReqs, err := nc.Accept()
			if err != nil {
				continue
			}
			go r.session(ch, chReqs)
		case "direct-tcpip":
			go r.forward(nc)
		default:
			nc.Reject(ssh.UnknownChannelType, nc.ChannelType())
		}
	}
}

func (r *fakeRouter) session(ch ssh.Channel, reqs <-chan *ssh.Request) {
	defer ch.Close()
	for req := range reqs {
		if req.Type != "exec" {
			req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			req.Reply(false, nil)
			return
		}
		req.Reply(true, nil)

		r.mu.Lock()
		r.commands = append(r.commands, payload.Command)
		r.mu.Unlock()

		if payload.Command == hangCommand {
			<-r.release
			return
		}
		out, ok := r.outputs[payload.Command]
		status := uint32(0)
		if !ok {
			out = fmt.Sprintf("%% Invalid input: %s\r\n", payload.Command)
			status = 1
		}
		io.WriteString(ch, out)
		ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
		return
	}
}

func (r *fakeRouter) forward(nc ssh.NewChannel) {
	var payload struct {
		Addr     string
		Port     uint32
		OrigAddr string
		OrigPort uint32
	}
	if err := ssh.Unmarshal(nc.ExtraData(), &payload); err != nil {
		nc.Reject(ssh.ConnectionFailed, err.Error())
		return
	}
	target, err := net.Dial("tcp", net.JoinHostPort(payload.Addr, strconv.Itoa(int(payload.Port))))
	if err != nil {
		nc.Reject(ssh.ConnectionFailed, err.Error())
		return
	}
	ch, reqs, err := nc.Accept()
	if err != nil {
		target.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	go func() {
		io.Copy(ch, target)
		ch.CloseWrite()
	}()
	io.Copy(target, ch)
	target.Close()
	ch.Close()
}
