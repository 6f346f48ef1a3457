package model

// AddressKind classifies one side of an ACL rule
type AddressKind string

// AddressKind constants
const (
	AddressAny     AddressKind = "any"
	AddressHost    AddressKind = "host"
	AddressPrefix  AddressKind = "prefix"
	AddressIP      AddressKind = "ip"
	AddressUnknown AddressKind = "unknown"
)

// AnyPrefix is the prefix an "any" address expands to
const AnyPrefix = "0.0.0.0/0"

// AddressSpec is the source or destination of an ACL rule.
// Wildcard forms are converted to AddressPrefix by the parser; a wildcard that
// cannot be converted becomes AddressUnknown with the raw text as Value.
type AddressSpec struct {
	Kind  AddressKind `json:"type"`
	Value string      `json:"value,omitempty"`
}

// Prefix returns the a.b.c.d/n prefix the address covers, or false when it
// cannot be inserted (pending host, unknown).
func (a *AddressSpec) Prefix() (string, bool) {
	if a == nil || a.Value == "" {
		return "", false
	}
	switch a.Kind {
	case AddressAny, AddressPrefix:
		return a.Value, true
	case AddressIP, AddressHost:
		return a.Value + "/32", true
	}
	return "", false
}

// ACLRule represents a single permit/deny line
type ACLRule struct {
	Action      string       `json:"action"`             // permit, deny
	Protocol    string       `json:"protocol,omitempty"` // ip, tcp, udp, icmp, ...
	Source      *AddressSpec `json:"source,omitempty"`
	Destination *AddressSpec `json:"destination,omitempty"`
	Options     string       `json:"options,omitempty"`
	Line        string       `json:"line"` // Original text
}

// AccessList is a numbered ACL: a single standard entry (Prefix set) or an
// extended list holding Rules
type AccessList struct {
	Number   string     `json:"number"`
	Type     string     `json:"type"` // standard, extended
	Action   string     `json:"action,omitempty"`
	Prefix   string     `json:"prefix,omitempty"`
	Wildcard string     `json:"wildcard,omitempty"`
	Rules    []*ACLRule `json:"rules,omitempty"`
}

// NamedACL is an "ip access-list [standard|extended] NAME" block
type NamedACL struct {
	Name        string     `json:"name"`
	Type        string     `json:"type"`                // standard, extended
	Direction   string     `json:"direction,omitempty"` // in, out (from the first interface that applies it)
	Description string     `json:"description"`
	Rules       []*ACLRule `json:"rules"`
}

// AppliedACL is an "ip access-group NAME in|out" line under an interface
type AppliedACL struct {
	ACLName   string `json:"aclName"`
	Direction string `json:"direction"`
}

// ACL type constants
const (
	ACLTypeStandard = "standard"
	ACLTypeExtended = "extended"
)

// NewNamedACL creates an empty named ACL
func NewNamedACL(name, aclType, description string) *NamedACL {
	return &NamedACL{
		Name:        name,
		Type:        aclType,
		Description: description,
		Rules:       []*ACLRule{},
	}
}

// AddRule appends a rule to the ACL
func (a *NamedACL) AddRule(rule *ACLRule) {
	a.Rules = append(a.Rules, rule)
}

// NewExtendedAccessList creates an empty numbered extended ACL
func NewExtendedAccessList(number string) *AccessList {
	return &AccessList{
		Number: number,
		Type:   ACLTypeExtended,
		Rules:  []*ACLRule{},
	}
}
