package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/pec"
	"github.com/newtron-network/netpec/pkg/trie"
)

// Skip reasons
const (
	ReasonInvalidPrefix     = "invalid_prefix"
	ReasonInvalidRecord     = "invalid_record"
	ReasonUnresolvedAddress = "unresolved_address"
)

// SkippedRecord is a configuration record that did not reach the trie
type SkippedRecord struct {
	Router string           `json:"router"`
	Type   model.SourceType `json:"type"`
	Value  string           `json:"value"`
	Reason string           `json:"reason"`
	Error  string           `json:"error,omitempty"`
}

// Result is the outcome of one analysis
type Result struct {
	ID          uuid.UUID             `json:"id"`
	Fingerprint string                `json:"fingerprint,omitempty"`
	Hostnames   []string              `json:"hostnames"`
	Configs     []*model.Config       `json:"configs"`
	Tree        *trie.NodeView        `json:"trieTree"`
	PECs        []*pec.PEC            `json:"pecs"`
	TrieStats   trie.Stats            `json:"trieStats"`
	PECStats    pec.Stats             `json:"pecStats"`
	Validation  *pec.ValidationReport `json:"validation"`
	Skipped     []SkippedRecord       `json:"skipped"`
	CreatedAt   time.Time             `json:"createdAt"`
	Duration    time.Duration         `json:"duration"`

	trie      *trie.Trie
	extractor *pec.Extractor
}

// Lookup is the answer to "which class does this address fall in"
type Lookup struct {
	IP      string               `json:"ip"`
	Prefix  string               `json:"prefix"`
	Origin  string               `json:"origin,omitempty"`
	Sources []model.SourceRecord `json:"sources"`
	PEC     *pec.PEC             `json:"pec"`
}

// Trie returns the trie the result was built from, or nil for a result
// decoded from storage.
func (r *Result) Trie() *trie.Trie {
	return r.trie
}

// LookupIP returns the longest matching prefix for ip and the PEC that
// covers it.
func (r *Result) LookupIP(ip string) (*Lookup, error) {
	if r.trie == nil || r.extractor == nil {
		return nil, fmt.Errorf("analysis %s has no trie loaded", r.ID)
	}
	node, err := r.trie.LongestMatch(ip)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", ip, err)
	}
	p, err := r.extractor.FindForIP(ip, r.trie)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", ip, err)
	}
	return &Lookup{
		IP:      ip,
		Prefix:  node.Prefix,
		Origin:  node.Origin,
		Sources: append([]model.SourceRecord{}, node.Sources...),
		PEC:     p,
	}, nil
}

// SkippedBy counts skipped records per reason
func (r *Result) SkippedBy() map[string]int {
	counts := map[string]int{}
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}
