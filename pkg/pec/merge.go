package pec

import (
	"fmt"
	"maps"
	"slices"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/util"
)

// Merge makes one left-to-right pass over pecs. Each PEC not yet absorbed
// absorbs every later unabsorbed PEC that can merge with the accumulated
// result so far. Absorbed PECs are never reconsidered, so the outcome
// depends on input order and is not a maximal grouping.
//
// The input slice and its PECs are not modified.
func Merge(pecs []*PEC) []*PEC {
	out := make([]*PEC, 0, len(pecs))
	processed := make([]bool, len(pecs))

	for i, current := range pecs {
		if processed[i] {
			continue
		}
		processed[i] = true
		merged := current
		for j := i + 1; j < len(pecs); j++ {
			if processed[j] || !CanMerge(merged, pecs[j]) {
				continue
			}
			util.Logger.Debugf("merging PEC %d (%s) into PEC %d (%s)", pecs[j].ID, pecs[j].Prefix, merged.ID, merged.Prefix)
			merged = mergeTwo(merged, pecs[j])
			processed[j] = true
		}
		out = append(out, merged)
	}
	return out
}

// CanMerge reports whether a and b are adjacent (path lengths differ by
// one and the shorter path is a prefix of the longer) and carry equal OSPF
// and routing-policy summaries.
func CanMerge(a, b *PEC) bool {
	shorter, longer := a.BinaryPath, b.BinaryPath
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(longer)-len(shorter) != 1 || !longer.HasPrefix(shorter) {
		return false
	}
	return a.Characteristics.OSPFConfig.Equal(b.Characteristics.OSPFConfig) &&
		a.Characteristics.RoutingPolicies.Equal(b.Characteristics.RoutingPolicies)
}

func mergeTwo(a, b *PEC) *PEC {
	path := a.BinaryPath
	if len(b.BinaryPath) < len(path) {
		path = b.BinaryPath
	}

	sources := util.AppendUnique([]model.SourceRecord{}, a.Sources...)
	sources = util.AppendUnique(sources, b.Sources...)

	weights := cloneWeights(b.Weights)
	maps.Copy(weights, a.Weights)

	return &PEC{
		ID:              min(a.ID, b.ID),
		Prefix:          shorterPrefix(a.Prefix, b.Prefix),
		BinaryPath:      path,
		Kind:            KindMerged,
		Sources:         sources,
		Origin:          util.CoalesceString(a.Origin, b.Origin),
		Weights:         weights,
		Characteristics: mergeCharacteristics(a.Characteristics, b.Characteristics),
		Description:     fmt.Sprintf("Merged PEC from %d and %d", a.ID, b.ID),
		IPRange:         mergeRanges(a.IPRange, b.IPRange),
	}
}

// shorterPrefix returns the prefix with the smaller length, a on ties or
// when either length cannot be read.
func shorterPrefix(a, b string) string {
	la, errA := addr.PrefixLength(a)
	lb, errB := addr.PrefixLength(b)
	if errA != nil || errB != nil || la <= lb {
		return a
	}
	return b
}

func mergeCharacteristics(a, b Characteristics) Characteristics {
	return Characteristics{
		PrefixLength:    min(a.PrefixLength, b.PrefixLength),
		SourceTypes:     util.AppendUnique(slices.Clone(a.SourceTypes), b.SourceTypes...),
		RouterCount:     max(a.RouterCount, b.RouterCount),
		InterfaceCount:  max(a.InterfaceCount, b.InterfaceCount),
		ActionTypes:     util.AppendUnique(slices.Clone(a.ActionTypes), b.ActionTypes...),
		OSPFConfig:      a.OSPFConfig,
		NetworkTopology: a.NetworkTopology,
		RoutingPolicies: a.RoutingPolicies,
		TrafficFlow:     a.TrafficFlow,
	}
}

func mergeRanges(a, b IPRange) IPRange {
	r := a
	if addr.CompareIP(b.Start, a.Start) < 0 {
		r.Start = b.Start
	}
	if addr.CompareIP(b.End, a.End) > 0 {
		r.End = b.End
	}
	return r
}
