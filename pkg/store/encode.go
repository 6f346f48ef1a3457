package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/newtron-network/netpec/pkg/analysis"
	"github.com/newtron-network/netpec/pkg/pec"
)

func summarize(r *analysis.Result) Summary {
	valid := r.Validation == nil || r.Validation.Valid
	return Summary{
		ID:          r.ID.String(),
		Hostnames:   r.Hostnames,
		Fingerprint: r.Fingerprint,
		CreatedAt:   r.CreatedAt,
		Prefixes:    r.TrieStats.TotalPrefixes,
		Nodes:       r.TrieStats.TotalNodes,
		PECs:        len(r.PECs),
		Collected:   r.PECStats.CollectedPECs,
		Skipped:     len(r.Skipped),
		Valid:       valid,
	}
}

func summaryFields(s Summary) map[string]string {
	return map[string]string{
		"hostnames":   strings.Join(s.Hostnames, ","),
		"fingerprint": s.Fingerprint,
		"created_at":  s.CreatedAt.UTC().Format(time.RFC3339Nano),
		"prefixes":    strconv.Itoa(s.Prefixes),
		"nodes":       strconv.Itoa(s.Nodes),
		"pecs":        strconv.Itoa(s.PECs),
		"collected":   strconv.Itoa(s.Collected),
		"skipped":     strconv.Itoa(s.Skipped),
		"valid":       strconv.FormatBool(s.Valid),
	}
}

// parseSummary decodes summary fields. Missing or malformed numbers read
// as zero.
func parseSummary(id string, fields map[string]string) Summary {
	s := Summary{
		ID:          id,
		Hostnames:   splitList(fields["hostnames"], ","),
		Fingerprint: fields["fingerprint"],
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	s.Prefixes, _ = strconv.Atoi(fields["prefixes"])
	s.Nodes, _ = strconv.Atoi(fields["nodes"])
	s.PECs, _ = strconv.Atoi(fields["pecs"])
	s.Collected, _ = strconv.Atoi(fields["collected"])
	s.Skipped, _ = strconv.Atoi(fields["skipped"])
	s.Valid, _ = strconv.ParseBool(fields["valid"])
	return s
}

func pecFields(p *pec.PEC) map[string]string {
	types := make([]string, len(p.Characteristics.SourceTypes))
	for i, t := range p.Characteristics.SourceTypes {
		types[i] = string(t)
	}
	return map[string]string{
		"id":            strconv.Itoa(p.ID),
		"prefix":        p.Prefix,
		"type":          string(p.Kind),
		"prefix_length": strconv.Itoa(p.Characteristics.PrefixLength),
		"origin":        p.Origin,
		"range":         p.IPRange.String(),
		"source_types":  strings.Join(types, ";"),
		"description":   p.Description,
	}
}

func parsePEC(fields map[string]string) PECEntry {
	e := PECEntry{
		Prefix:      fields["prefix"],
		Kind:        pec.Kind(fields["type"]),
		Origin:      fields["origin"],
		Range:       fields["range"],
		SourceTypes: splitList(fields["source_types"], ";"),
		Description: fields["description"],
	}
	e.ID, _ = strconv.Atoi(fields["id"])
	e.PrefixLength, _ = strconv.Atoi(fields["prefix_length"])
	return e
}

func splitList(s, sep string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, sep)
}
