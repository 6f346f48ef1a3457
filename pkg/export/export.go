// Package export renders PEC lists and tries for files and terminals.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/newtron-network/netpec/pkg/cli"
	"github.com/newtron-network/netpec/pkg/pec"
)

// Format names an output format
type Format string

// Format constants
const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatText  Format = "txt"
	FormatTable Format = "table"
)

// ErrUnsupportedFormat is returned for a format name Write does not know
var ErrUnsupportedFormat = errors.New("unsupported export format")

// csvHeader lists the CSV columns in order
var csvHeader = []string{"ID", "Prefix", "Type", "Prefix Length", "Source Types", "Origin", "IP Range", "Description"}

// ParseFormat maps a case-insensitive name to a Format
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case FormatJSON, FormatCSV, FormatText, FormatTable:
		return f, nil
	case "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Write renders pecs to w in the named format
func Write(w io.Writer, format string, pecs []*pec.PEC) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		return JSON(w, pecs)
	case FormatCSV:
		return CSV(w, pecs)
	case FormatTable:
		Table(w, pecs)
		return nil
	default:
		return Text(w, pecs)
	}
}

// JSON writes pecs as an indented JSON array
func JSON(w io.Writer, pecs []*pec.PEC) error {
	if pecs == nil {
		pecs = []*pec.PEC{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pecs)
}

// CSV writes a header and one row per PEC with every field double-quoted.
// An empty list writes nothing.
func CSV(w io.Writer, pecs []*pec.PEC) error {
	if len(pecs) == 0 {
		return nil
	}
	if err := csvRow(w, csvHeader); err != nil {
		return err
	}
	for _, p := range pecs {
		row := []string{
			strconv.Itoa(p.ID),
			p.Prefix,
			string(p.Kind),
			strconv.Itoa(p.Characteristics.PrefixLength),
			sourceTypes(p, ";"),
			cli.OrNA(p.Origin),
			p.IPRange.String(),
			p.Description,
		}
		if err := csvRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

// csvRow quotes every field; encoding/csv only quotes when it must.
func csvRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// Text writes a human-readable report
func Text(w io.Writer, pecs []*pec.PEC) error {
	if len(pecs) == 0 {
		_, err := io.WriteString(w, "No PECs found.\n")
		return err
	}
	var b strings.Builder
	b.WriteString("Packet Equivalence Classes (PECs)\n")
	b.WriteString("=====================================\n\n")
	for _, p := range pecs {
		ospf, err := json.Marshal(p.Characteristics.OSPFConfig)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "PEC %d: %s (%s)\n", p.ID, p.Prefix, p.Kind)
		fmt.Fprintf(&b, "  Prefix Length: %d bits\n", p.Characteristics.PrefixLength)
		fmt.Fprintf(&b, "  IP Range: %s - %s\n", p.IPRange.Start, p.IPRange.End)
		fmt.Fprintf(&b, "  Source Types: %s\n", sourceTypes(p, ", "))
		fmt.Fprintf(&b, "  Origin: %s\n", cli.OrNA(p.Origin))
		fmt.Fprintf(&b, "  OSPF Config: %s\n", ospf)
		fmt.Fprintf(&b, "  Description: %s\n\n", p.Description)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Table writes one aligned row per PEC
func Table(w io.Writer, pecs []*pec.PEC) {
	t := cli.NewTableTo(w, "ID", "PREFIX", "TYPE", "LEN", "SOURCES", "ORIGIN", "RANGE")
	for _, p := range pecs {
		t.Row(
			strconv.Itoa(p.ID),
			p.Prefix,
			cli.Kind(string(p.Kind)),
			strconv.Itoa(p.Characteristics.PrefixLength),
			sourceTypes(p, ","),
			cli.OrNA(p.Origin),
			p.IPRange.String(),
		)
	}
	t.Flush()
}

func sourceTypes(p *pec.PEC, sep string) string {
	types := make([]string, len(p.Characteristics.SourceTypes))
	for i, t := range p.Characteristics.SourceTypes {
		types[i] = string(t)
	}
	return strings.Join(types, sep)
}
