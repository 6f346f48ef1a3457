package pec

import (
	"maps"
	"slices"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
)

// Kind tells how a PEC was produced
type Kind string

// Kind constants
const (
	KindExact        Kind = "exact"
	KindIntermediate Kind = "intermediate"
	KindMerged       Kind = "merged"
)

// FlowBidirectional is the only traffic direction the extractor reports
const FlowBidirectional = "bidirectional"

// PEC is a packet equivalence class: a region of address space expected to
// receive uniform forwarding and policy treatment.
type PEC struct {
	ID              int                  `json:"id"`
	Prefix          string               `json:"prefix"`
	BinaryPath      addr.Bits            `json:"binaryPath"`
	Kind            Kind                 `json:"type"`
	Sources         []model.SourceRecord `json:"sources"`
	Origin          string               `json:"origin,omitempty"`
	Weights         map[string]int       `json:"weights"`
	Characteristics Characteristics      `json:"characteristics"`
	Description     string               `json:"description"`
	IPRange         IPRange              `json:"ipRange"`
}

// IPRange is the first and last address of a PEC, dotted decimal
type IPRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether other lies entirely within r
func (r IPRange) Contains(other IPRange) bool {
	return addr.CompareIP(r.Start, other.Start) <= 0 && addr.CompareIP(other.End, r.End) <= 0
}

// String renders the range as start-end
func (r IPRange) String() string {
	return r.Start + "-" + r.End
}

// Characteristics summarizes the configuration attached to a PEC
type Characteristics struct {
	PrefixLength    int                `json:"prefixLength"`
	SourceTypes     []model.SourceType `json:"sourceTypes"`
	RouterCount     int                `json:"routerCount"`
	InterfaceCount  int                `json:"interfaceCount"`
	ActionTypes     []string           `json:"actionTypes"`
	OSPFConfig      OSPFConfig         `json:"ospfConfig"`
	NetworkTopology TopologySummary    `json:"networkTopology"`
	RoutingPolicies RoutingPolicies    `json:"routingPolicies"`
	TrafficFlow     TrafficFlow        `json:"trafficFlow"`
}

// OSPFConfig is the routing-protocol view of a PEC. Two PECs can only merge
// when their OSPFConfig values are equal.
type OSPFConfig struct {
	Origin  string         `json:"origin,omitempty"`
	Weights map[string]int `json:"weights"`
	Area    string         `json:"area,omitempty"`
	Cost    int            `json:"cost,omitempty"`
}

// Equal compares two configs field by field
func (o OSPFConfig) Equal(other OSPFConfig) bool {
	return o.Origin == other.Origin &&
		o.Area == other.Area &&
		o.Cost == other.Cost &&
		maps.Equal(o.Weights, other.Weights)
}

// TopologySummary lists the routers a PEC's weights refer to
type TopologySummary struct {
	ConnectedRouters []string       `json:"connectedRouters"`
	LinkCosts        map[string]int `json:"linkCosts"`
	PathCosts        map[string]int `json:"pathCosts"` // origin router's direct link costs
}

// RoutingPolicies names the policy objects attached to a PEC, in source order
type RoutingPolicies struct {
	AccessLists []string `json:"accessLists"`
	PrefixLists []string `json:"prefixLists"`
	RouteMaps   []string `json:"routeMaps"`
	Community   []string `json:"community"`
}

// Equal compares the name lists element by element
func (p RoutingPolicies) Equal(other RoutingPolicies) bool {
	return slices.Equal(p.AccessLists, other.AccessLists) &&
		slices.Equal(p.PrefixLists, other.PrefixLists) &&
		slices.Equal(p.RouteMaps, other.RouteMaps) &&
		slices.Equal(p.Community, other.Community)
}

// TrafficFlow describes the direction traffic for a PEC is filtered in
type TrafficFlow struct {
	Direction     string   `json:"direction"`
	Ingress       []string `json:"ingress"` // interfaces filtering inbound
	Egress        []string `json:"egress"`  // interfaces filtering outbound
	LoadBalancing bool     `json:"loadBalancing"`
}
