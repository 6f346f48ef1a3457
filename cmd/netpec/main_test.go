package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newtron-network/netpec/pkg/audit"
)

const fixture = "../../pkg/parser/testdata/r1.cfg"

// runCLI executes the root command with a clean flag state and an isolated
// home directory, returning stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	*app = App{}
	analyzeFormat, analyzeOutput, analyzeResultFile, analyzeMetricsFile = "", "", "", ""
	analyzeTree, analyzePublish, analyzeShowSkipped = false, false, false
	treeJSON = false
	historyRouter, historyUser, historyOperation, historyLast = "", "", "", ""
	historyLimit, historyFailures = 100, false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("NETPEC_AUDIT_LOG", filepath.Join(home, "audit.log"))
	for _, env := range []string{"NETPEC_TOPOLOGY", "NETPEC_REDIS_ADDR", "NETPEC_REDIS_DB", "NETPEC_SSH_USER"} {
		t.Setenv(env, "")
	}
	t.Cleanup(func() { audit.SetDefaultLogger(nil) })
	return home
}

func TestAnalyze_CSV(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "analyze", fixture, "--format", "csv")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != `"ID","Prefix","Type","Prefix Length","Source Types","Origin","IP Range","Description"` {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) < 2 {
		t.Fatal("no PEC rows")
	}
	if !strings.Contains(out, `"10.0.12.0/24"`) {
		t.Error("interface subnet 10.0.12.0/24 missing from output")
	}
}

func TestAnalyze_OutputFileAndResult(t *testing.T) {
	home := isolate(t)
	csvPath := filepath.Join(home, "pecs.json")
	resultPath := filepath.Join(home, "result.json")
	metricsPath := filepath.Join(home, "netpec.prom")

	out, err := runCLI(t, "analyze", fixture, "-f", "json", "-o", csvPath, "--result", resultPath, "--metrics-file", metricsPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when -o is given, got %q", out)
	}

	var pecs []map[string]any
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &pecs); err != nil || len(pecs) == 0 {
		t.Fatalf("PEC file: %v (%d PECs)", err, len(pecs))
	}

	var result struct {
		Hostnames []string `json:"hostnames"`
		TrieTree  any      `json:"trieTree"`
	}
	data, err = os.ReadFile(resultPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Hostnames) != 1 || result.Hostnames[0] != "r1" || result.TrieTree == nil {
		t.Errorf("result file = %+v", result)
	}

	metricsText, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(metricsText), "netpec_") {
		t.Error("metrics file has no netpec metrics")
	}
}

func TestAnalyze_BadFormat(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "analyze", fixture, "--format", "xml"); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestLookup_JSON(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "lookup", "10.0.12.5", fixture, "--json")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var lookup struct {
		Prefix string `json:"prefix"`
		Origin string `json:"origin"`
		PEC    struct {
			Prefix string `json:"prefix"`
		} `json:"pec"`
	}
	if err := json.Unmarshal([]byte(out), &lookup); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if lookup.Prefix != "10.0.12.0/24" || lookup.Origin != "r1" {
		t.Errorf("lookup = %+v", lookup)
	}
	if lookup.PEC.Prefix == "" {
		t.Error("lookup has no PEC")
	}
}

func TestLookup_Table(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "lookup", "10.0.12.5", fixture)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	for _, want := range []string{"Longest match", "10.0.12.0/24", "ROUTER", "interface"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLookup_InvalidAddress(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "lookup", "300.1.1.1", fixture); err == nil {
		t.Error("expected error for invalid address")
	}
}

func TestTree(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "tree", fixture)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if !strings.HasPrefix(out, "### trie: nodes(") {
		t.Errorf("tree output starts with %q", strings.SplitN(out, "\n", 2)[0])
	}
	if !strings.Contains(out, "[root] depth: 0 path: 0.0.0.0/0") {
		t.Error("tree output has no root line")
	}
}

func TestStatsAndValidate(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "stats", fixture)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Prefixes", "PECs after merge", "PEC types", "Source types"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q", want)
		}
	}

	out, err = runCLI(t, "validate", fixture)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "PECs: valid") {
		t.Errorf("validate output = %q", out)
	}
}

func TestHistory_RecordsAnalyses(t *testing.T) {
	isolate(t)

	if _, err := runCLI(t, "analyze", fixture); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "analyze", filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Fatal("expected error for missing file")
	}

	out, err := runCLI(t, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var events []audit.Event
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if !events[0].Success || events[0].Operation != audit.EventTypeAnalyze || events[0].PECCount == 0 {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Success || events[1].Error == "" {
		t.Errorf("second event should record the failure: %+v", events[1])
	}

	out, err = runCLI(t, "history", "--router", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "analyze") || strings.Contains(out, "failed") {
		t.Errorf("history --router r1 = %q", out)
	}
}

func TestSettingsCommands(t *testing.T) {
	home := isolate(t)

	if _, err := runCLI(t, "settings", "set", "redis_addr", "10.9.9.9:6380"); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".netpec", "settings.json")); err != nil {
		t.Fatalf("settings file not written: %v", err)
	}

	out, err := runCLI(t, "settings", "get", "redis_addr")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "10.9.9.9:6380" {
		t.Errorf("settings get = %q", out)
	}

	if _, err := runCLI(t, "settings", "set", "colour", "blue"); err == nil {
		t.Error("unknown setting should fail")
	}

	out, err = runCLI(t, "settings", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "redis_addr") || !strings.Contains(out, "(not set)") {
		t.Errorf("settings show = %q", out)
	}

	if _, err := runCLI(t, "settings", "clear"); err != nil {
		t.Fatal(err)
	}
	out, _ = runCLI(t, "settings", "get", "redis_addr")
	if strings.TrimSpace(out) != "(not set)" {
		t.Errorf("after clear, redis_addr = %q", out)
	}
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "netpec dev build") {
		t.Errorf("version = %q", out)
	}
}
