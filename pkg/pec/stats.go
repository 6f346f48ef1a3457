package pec

import (
	"fmt"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/util"
)

// Stats holds distributions over an extraction result
type Stats struct {
	TotalPECs                int            `json:"totalPECs"`
	CollectedPECs            int            `json:"collectedPECs"`
	PrefixLengthDistribution map[int]int    `json:"prefixLengthDistribution"`
	SourceTypeDistribution   map[string]int `json:"sourceTypeDistribution"`
	RouterDistribution       map[string]int `json:"routerDistribution"`
	TypeDistribution         map[Kind]int   `json:"typeDistribution"`
	OSPFConfigDistribution   map[string]int `json:"ospfConfigDistribution"`
}

// Stats summarizes the last Extract
func (e *Extractor) Stats() Stats {
	s := ComputeStats(e.pecs)
	s.CollectedPECs = e.collected
	return s
}

// ComputeStats summarizes pecs. Routers are counted by PEC origin and OSPF
// origins by OSPFConfig.Origin.
func ComputeStats(pecs []*PEC) Stats {
	s := Stats{
		TotalPECs:                len(pecs),
		PrefixLengthDistribution: map[int]int{},
		SourceTypeDistribution:   map[string]int{},
		RouterDistribution:       map[string]int{},
		TypeDistribution:         map[Kind]int{},
		OSPFConfigDistribution:   map[string]int{},
	}
	for _, p := range pecs {
		s.PrefixLengthDistribution[p.Characteristics.PrefixLength]++
		for _, t := range p.Characteristics.SourceTypes {
			s.SourceTypeDistribution[string(t)]++
		}
		if p.Origin != "" {
			s.RouterDistribution[p.Origin]++
		}
		s.TypeDistribution[p.Kind]++
		if o := p.Characteristics.OSPFConfig.Origin; o != "" {
			s.OSPFConfigDistribution[o]++
		}
	}
	return s
}

// ValidationReport lists integrity problems found in a PEC list. Errors
// make the list invalid; warnings do not.
type ValidationReport struct {
	Valid    bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Err returns the errors as a *util.ValidationError, or nil when valid
func (r *ValidationReport) Err() error {
	if r.Valid {
		return nil
	}
	return util.NewValidationError(r.Errors...)
}

// Validate checks the last Extract
func (e *Extractor) Validate() *ValidationReport {
	return Validate(e.pecs)
}

// Validate checks prefix format and path/length consistency (errors), and
// missing sources and inverted ranges (warnings). Messages number PECs by
// list position starting at 1.
func Validate(pecs []*PEC) *ValidationReport {
	r := &ValidationReport{Valid: true, Errors: []string{}, Warnings: []string{}}
	for i, p := range pecs {
		n := i + 1
		if _, _, err := addr.ParsePrefix(p.Prefix); err != nil {
			r.Valid = false
			r.Errors = append(r.Errors, fmt.Sprintf("PEC %d: Invalid prefix format: %s", n, p.Prefix))
		}
		if len(p.Sources) == 0 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("PEC %d: No source information", n))
		}
		if len(p.BinaryPath) != p.Characteristics.PrefixLength {
			r.Valid = false
			r.Errors = append(r.Errors, fmt.Sprintf("PEC %d: Path length mismatch", n))
		}
		if p.IPRange.Start != "" && p.IPRange.End != "" && addr.CompareIP(p.IPRange.Start, p.IPRange.End) > 0 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("PEC %d: Invalid IP range", n))
		}
	}
	return r
}
