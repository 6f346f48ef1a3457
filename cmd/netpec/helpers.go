package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/newtron-network/netpec/pkg/analysis"
	"github.com/newtron-network/netpec/pkg/audit"
	"github.com/newtron-network/netpec/pkg/fetch"
	"github.com/newtron-network/netpec/pkg/metrics"
	"github.com/newtron-network/netpec/pkg/store"
	"github.com/newtron-network/netpec/pkg/topology"
	"github.com/newtron-network/netpec/pkg/util"
)

// configExtensions are picked up when a directory is given as a config argument
var configExtensions = []string{".cfg", ".conf", ".txt"}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return util.CoalesceString(os.Getenv("USER"), "unknown")
}

// loadTopology returns nil when no topology is configured
func loadTopology() (*topology.File, error) {
	if app.topologyPath == "" {
		return nil, nil
	}
	return topology.Load(app.topologyPath)
}

func newAnalyzer() (*analysis.Analyzer, error) {
	topo, err := loadTopology()
	if err != nil {
		return nil, err
	}
	a := analysis.NewAnalyzer(topo)
	a.Metrics = metrics.DefaultRegistry()
	return a, nil
}

// expandConfigArgs replaces directory arguments with the configuration
// files they contain, sorted by name.
func expandConfigArgs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading configuration file: %w", err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading configuration directory: %w", err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !hasConfigExtension(e.Name()) {
				continue
			}
			found = append(found, filepath.Join(arg, e.Name()))
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no configuration files (%s) in %s", strings.Join(configExtensions, ", "), arg)
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, analysis.ErrNoConfigs
	}
	return paths, nil
}

func hasConfigExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range configExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// analyzeArgs expands args, analyzes the files and records an audit event
func analyzeArgs(args []string) (*analysis.Result, error) {
	event := audit.NewEvent(currentUser(), audit.EventTypeAnalyze)

	result, err := func() (*analysis.Result, error) {
		paths, err := expandConfigArgs(args)
		if err != nil {
			return nil, err
		}
		event.WithSource(strings.Join(paths, ","))
		a, err := newAnalyzer()
		if err != nil {
			return nil, err
		}
		return a.AnalyzeFiles(paths...)
	}()

	if result != nil {
		event.WithRouters(result.Hostnames...).WithAnalysis(result.ID.String(), result.Fingerprint,
			result.TrieStats.TotalPrefixes, len(result.PECs), len(result.Skipped))
	}
	logAudit(event.Finish(err))
	return result, err
}

func logAudit(event *audit.Event) {
	if err := audit.Log(event); err != nil {
		util.Warnf("Could not write audit event: %v", err)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// createOutput returns a file for path, or w when path is empty or "-"
func createOutput(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// parseSince accepts Go durations plus a "d" suffix for days
func parseSince(last string, now time.Time) (time.Time, error) {
	if days, ok := strings.CutSuffix(last, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid duration: %s", last)
		}
		return now.AddDate(0, 0, -n), nil
	}
	d, err := time.ParseDuration(last)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration: %s", last)
	}
	return now.Add(-d), nil
}

// sshClient builds a fetch client for host from settings and flags
// splitHosts accepts hosts as separate arguments or comma-separated lists
func splitHosts(args []string) []string {
	var hosts []string
	for _, arg := range args {
		hosts = util.AppendUnique(hosts, util.SplitCommaSeparated(arg)...)
	}
	return hosts
}

func sshClient(host, userFlag string, port int, command string, timeout time.Duration) *fetch.Client {
	return &fetch.Client{
		Host:     host,
		Port:     port,
		User:     util.CoalesceString(userFlag, app.settings.SSHUser, currentUser()),
		Password: sshPassword(),
		Command:  command,
		Timeout:  timeout,
	}
}

var (
	passwordOnce sync.Once
	prompted     string
)

// sshPassword returns NETPEC_SSH_PASSWORD, or asks once on an interactive
// terminal. Concurrent fetches share the answer.
func sshPassword() string {
	if app.settings.SSHPassword != "" {
		return app.settings.SSHPassword
	}
	passwordOnce.Do(func() {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return
		}
		fmt.Fprint(os.Stderr, "SSH password: ")
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			util.Warnf("Could not read password: %v", err)
			return
		}
		prompted = string(pw)
	})
	return prompted
}

// openStore connects to the configured Redis, through an SSH tunnel when
// redis_ssh_host is set. The returned func closes everything.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	addr := app.settings.GetRedisAddr()
	var tunnel *fetch.Tunnel
	if host := app.settings.RedisSSHHost; host != "" {
		var err error
		tunnel, err = fetch.OpenTunnel(ctx, sshClient(host, "", 0, "", 0), addr)
		if err != nil {
			return nil, nil, fmt.Errorf("opening tunnel to %s: %w", host, err)
		}
		util.WithField("host", host).Debugf("tunneling %s via %s", addr, tunnel.LocalAddr())
		addr = tunnel.LocalAddr()
	}

	s := store.New(addr, app.settings.RedisDB)
	closeAll := func() {
		s.Close()
		if tunnel != nil {
			tunnel.Close()
		}
	}
	if err := s.Ping(ctx); err != nil {
		closeAll()
		return nil, nil, err
	}
	return s, closeAll, nil
}
