// Package parser turns router configuration text into model.Config records.
//
// Cisco IOS style configuration is parsed fully. Juniper, Huawei and Arista
// configurations are recognized but yield an empty configuration with a
// placeholder hostname.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/util"
)

// Vendor identifies a configuration dialect
type Vendor string

// Vendor constants
const (
	VendorCisco   Vendor = "cisco"
	VendorJuniper Vendor = "juniper"
	VendorHuawei  Vendor = "huawei"
	VendorArista  Vendor = "arista"
)

// detectLines is how many leading lines DetectVendor looks at
const detectLines = 10

// vendorParser builds a configuration from the lines of one file.
type vendorParser func(lines []string) *model.Config

// vendorParsers maps each dialect to its parser.
var vendorParsers map[Vendor]vendorParser

func init() {
	vendorParsers = map[Vendor]vendorParser{
		VendorCisco:   parseCisco,
		VendorJuniper: placeholder(VendorJuniper, "juniper-router"),
		VendorHuawei:  placeholder(VendorHuawei, "huawei-router"),
		VendorArista:  placeholder(VendorArista, "arista-router"),
	}
}

func placeholder(v Vendor, hostname string) vendorParser {
	return func([]string) *model.Config {
		cfg := model.NewConfig(hostname)
		cfg.Vendor = string(v)
		return cfg
	}
}

// DetectVendor guesses the dialect from the first lines of a file. Cisco is
// both the first match tried and the fallback.
func DetectVendor(lines []string) Vendor {
	head := lines
	if len(head) > detectLines {
		head = head[:detectLines]
	}
	text := strings.ToLower(strings.Join(head, "\n"))
	has := func(s string) bool { return strings.Contains(text, s) }

	switch {
	case has("version") && has("hostname"):
		return VendorCisco
	case has("version") && has("system"):
		return VendorJuniper
	case has("sysname") || has("display"):
		return VendorHuawei
	case has("!") && has("hostname"):
		return VendorArista
	}
	return VendorCisco
}

// ParseVendor parses lines with the given dialect's parser
func ParseVendor(v Vendor, lines []string) (*model.Config, error) {
	p, ok := vendorParsers[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrUnsupportedVendor, v)
	}
	return p(lines), nil
}

// Parse reads a whole configuration from r, detects its dialect and parses it
func Parse(r io.Reader) (*model.Config, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	return ParseVendor(DetectVendor(lines), lines)
}

// ParseString parses configuration text
func ParseString(text string) (*model.Config, error) {
	return Parse(strings.NewReader(text))
}

// ParseFile parses the configuration file at path
func ParseFile(path string) (*model.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}
	return cfg, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return lines, nil
}
