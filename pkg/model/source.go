package model

// SourceType identifies the configuration element that announced a prefix
type SourceType string

// SourceType constants
const (
	SourceStaticRoute SourceType = "static-route"
	SourceAccessList  SourceType = "access-list"
	SourceNamedACL    SourceType = "named-acl"
	SourcePrefixList  SourceType = "prefix-list"
	SourceBGP         SourceType = "bgp"
	SourceInterface   SourceType = "interface"
	SourceRouteMap    SourceType = "route-map"
	SourceOSPF        SourceType = "ospf"
)

// Action constants
const (
	ActionPermit = "permit"
	ActionDeny   = "deny"
)

// Direction constants
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// SourceRecord describes one configuration element attached to a trie node.
// It is a value type: two records are the same source iff they compare equal.
type SourceRecord struct {
	Type        SourceType `json:"type" validate:"required,oneof=static-route access-list named-acl prefix-list bgp interface route-map ospf"`
	Router      string     `json:"router,omitempty"`
	Interface   string     `json:"interface,omitempty"`
	NextHop     string     `json:"nextHop,omitempty" validate:"omitempty,ipv4"`
	Action      string     `json:"action,omitempty" validate:"omitempty,oneof=permit deny"`
	Protocol    string     `json:"protocol,omitempty"`
	ACLName     string     `json:"aclName,omitempty"`
	ACLNumber   string     `json:"aclNumber,omitempty" validate:"omitempty,numeric"`
	ACLType     string     `json:"aclType,omitempty" validate:"omitempty,oneof=standard extended"`
	ListName    string     `json:"listName,omitempty"`
	Direction   string     `json:"direction,omitempty" validate:"omitempty,oneof=in out"`
	Description string     `json:"description,omitempty"`
	Area        string     `json:"area,omitempty"`
	Cost        int        `json:"cost,omitempty" validate:"gte=0"`
}

// PolicyName returns the ACL, prefix-list or route-map name the record
// references, or "" for routing sources.
func (s SourceRecord) PolicyName() string {
	switch s.Type {
	case SourceAccessList:
		return s.ACLNumber
	case SourceNamedACL:
		return s.ACLName
	case SourcePrefixList, SourceRouteMap:
		return s.ListName
	}
	return ""
}
