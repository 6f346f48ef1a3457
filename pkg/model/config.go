// Package model defines the records exchanged between the configuration
// parser, the prefix trie, and the PEC extractor.
package model

// Config is the structured form of one router's configuration
type Config struct {
	Hostname     string         `json:"hostname"`
	Vendor       string         `json:"vendor,omitempty"`
	StaticRoutes []*StaticRoute `json:"staticRoutes"`
	AccessLists  []*AccessList  `json:"accessLists"`
	NamedACLs    []*NamedACL    `json:"namedAcls"`
	PrefixLists  []*PrefixList  `json:"prefixLists"`
	RouteMaps    []*RouteMap    `json:"routeMaps,omitempty"`
	Interfaces   []*Interface   `json:"interfaces"`
	BGPNetworks  []*BGPNetwork  `json:"bgpNetworks"`
	OSPFNetworks []*OSPFNetwork `json:"ospfNetworks,omitempty"`
}

// NewConfig creates an empty configuration with non-nil record lists
func NewConfig(hostname string) *Config {
	return &Config{
		Hostname:     hostname,
		StaticRoutes: []*StaticRoute{},
		AccessLists:  []*AccessList{},
		NamedACLs:    []*NamedACL{},
		PrefixLists:  []*PrefixList{},
		Interfaces:   []*Interface{},
		BGPNetworks:  []*BGPNetwork{},
	}
}

// StaticRoute represents "ip route PREFIX MASK {IFACE|NEXTHOP} [NEXTHOP]"
type StaticRoute struct {
	Prefix    string `json:"prefix"` // a.b.c.d/n
	Mask      string `json:"mask"`
	Interface string `json:"interface,omitempty"`
	NextHop   string `json:"nextHop,omitempty"`
}

// PrefixList represents one "ip prefix-list NAME [seq N] ACTION PREFIX" entry
type PrefixList struct {
	Name   string `json:"name"`
	Seq    int    `json:"seq,omitempty"`
	Action string `json:"action"`
	Prefix string `json:"prefix"`
}

// RouteMap represents one "route-map NAME ACTION SEQ" clause and its match lines
type RouteMap struct {
	Name        string   `json:"name"`
	Action      string   `json:"action"`
	Seq         int      `json:"seq"`
	PrefixLists []string `json:"prefixLists,omitempty"` // match ip address prefix-list
	ACLs        []string `json:"acls,omitempty"`        // match ip address
}

// BGPNetwork represents "network A mask M" under router bgp
type BGPNetwork struct {
	Prefix string `json:"prefix"`
	Mask   string `json:"mask"`
}

// OSPFNetwork represents "network A WILDCARD area N" under router ospf
type OSPFNetwork struct {
	Process   string `json:"process"`
	Prefix    string `json:"prefix"`
	Area      string `json:"area"`
	Interface string `json:"interface,omitempty"` // first costed interface inside Prefix
	Cost      int    `json:"cost,omitempty"`
}

// FindNamedACL returns the named ACL with the given name, or nil
func (c *Config) FindNamedACL(name string) *NamedACL {
	for _, acl := range c.NamedACLs {
		if acl.Name == name {
			return acl
		}
	}
	return nil
}

// PrefixListEntries returns every entry of the named prefix list in order
func (c *Config) PrefixListEntries(name string) []*PrefixList {
	var entries []*PrefixList
	for _, pl := range c.PrefixLists {
		if pl.Name == name {
			entries = append(entries, pl)
		}
	}
	return entries
}

// RecordCount returns the number of top-level records parsed
func (c *Config) RecordCount() int {
	return len(c.StaticRoutes) + len(c.AccessLists) + len(c.NamedACLs) +
		len(c.PrefixLists) + len(c.RouteMaps) + len(c.Interfaces) +
		len(c.BGPNetworks) + len(c.OSPFNetworks)
}
