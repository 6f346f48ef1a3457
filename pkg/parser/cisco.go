package parser

import (
	"strconv"
	"strings"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/util"
)

type section int

const (
	sectionNone section = iota
	sectionInterface
	sectionNamedACL
	sectionNumberedACL
	sectionRouteMap
	sectionOSPF
	sectionBGP
	sectionOther
)

// ciscoParser holds the block currently open while walking an IOS
// configuration line by line. A block stays open until a "!" line or the
// next top-level statement.
type ciscoParser struct {
	cfg         *model.Config
	section     section
	iface       *model.Interface
	namedACL    *model.NamedACL
	numberedACL *model.AccessList
	routeMap    *model.RouteMap
	ospfProcess string
}

func parseCisco(lines []string) *model.Config {
	p := &ciscoParser{cfg: model.NewConfig("")}
	p.cfg.Vendor = string(VendorCisco)

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "!") {
			p.closeSection()
			continue
		}
		fields := strings.Fields(line)
		if p.header(fields) {
			continue
		}
		p.subCommand(fields, line)
	}
	p.closeSection()
	p.finish()

	util.WithRouter(p.cfg.Hostname).Debugf("parsed %d records (%d static routes, %d ACLs, %d named ACLs, %d prefix-list entries, %d interfaces)",
		p.cfg.RecordCount(), len(p.cfg.StaticRoutes), len(p.cfg.AccessLists), len(p.cfg.NamedACLs),
		len(p.cfg.PrefixLists), len(p.cfg.Interfaces))
	return p.cfg
}

// header handles top-level statements. It returns false for lines that
// belong to the open block.
func (p *ciscoParser) header(f []string) bool {
	switch f[0] {
	case "hostname":
		if len(f) > 1 {
			p.closeSection()
			p.cfg.Hostname = f[1]
			return true
		}
	case "interface":
		if len(f) > 1 {
			p.closeSection()
			p.iface = &model.Interface{
				Name:        util.NormalizeInterfaceName(f[1]),
				AppliedACLs: []*model.AppliedACL{},
			}
			p.section = sectionInterface
			return true
		}
	case "access-list":
		p.closeSection()
		p.numberedACLLine(f)
		return true
	case "router":
		p.closeSection()
		p.section = sectionOther
		if len(f) > 1 {
			switch f[1] {
			case "ospf":
				p.section = sectionOSPF
				if len(f) > 2 {
					p.ospfProcess = f[2]
				}
			case "bgp":
				p.section = sectionBGP
			}
		}
		return true
	case "route-map":
		if len(f) > 1 {
			p.closeSection()
			p.routeMapHeader(f)
			return true
		}
	case "ip":
		if len(f) < 2 {
			return false
		}
		switch f[1] {
		case "route":
			p.closeSection()
			p.staticRoute(f[2:])
			return true
		case "access-list":
			p.closeSection()
			p.namedACLHeader(f[2:])
			return true
		case "prefix-list":
			p.closeSection()
			p.prefixList(f[2:])
			return true
		}
	}
	return false
}

func (p *ciscoParser) subCommand(f []string, line string) {
	// BGP network statements are accepted anywhere
	if f[0] == "network" && len(f) >= 4 && f[2] == "mask" {
		p.cfg.BGPNetworks = append(p.cfg.BGPNetworks, &model.BGPNetwork{
			Prefix: joinPrefix(f[1], f[3]),
			Mask:   f[3],
		})
		return
	}

	switch p.section {
	case sectionInterface:
		p.interfaceLine(f)
	case sectionNamedACL:
		if rule := parseRule(stripSequence(f), line); rule != nil {
			p.namedACL.AddRule(rule)
		}
	case sectionNumberedACL:
		if rule := parseRule(stripSequence(f), line); rule != nil {
			p.numberedACL.Rules = append(p.numberedACL.Rules, rule)
		}
	case sectionRouteMap:
		p.routeMapLine(f)
	case sectionOSPF:
		p.ospfLine(f)
	}
}

func (p *ciscoParser) closeSection() {
	if p.iface != nil && p.iface.HasIPAddress() {
		p.cfg.Interfaces = append(p.cfg.Interfaces, p.iface)
	}
	p.iface = nil
	p.namedACL = nil
	p.numberedACL = nil
	p.routeMap = nil
	p.section = sectionNone
}

// staticRoute parses the words after "ip route":
// [vrf NAME] PREFIX MASK {INTERFACE [NEXTHOP] | NEXTHOP} [...]
func (p *ciscoParser) staticRoute(f []string) {
	if len(f) >= 2 && f[0] == "vrf" {
		f = f[2:]
	}
	if len(f) < 3 {
		return
	}
	route := &model.StaticRoute{
		Prefix: joinPrefix(f[0], f[1]),
		Mask:   f[1],
	}
	if isIP(f[2]) {
		route.NextHop = f[2]
	} else {
		route.Interface = util.NormalizeInterfaceName(f[2])
		if len(f) > 3 && isIP(f[3]) {
			route.NextHop = f[3]
		}
	}
	p.cfg.StaticRoutes = append(p.cfg.StaticRoutes, route)
}

// namedACLHeader parses the words after "ip access-list":
// [standard|extended] NAME
func (p *ciscoParser) namedACLHeader(f []string) {
	aclType := model.ACLTypeStandard
	if len(f) > 0 && (f[0] == model.ACLTypeStandard || f[0] == model.ACLTypeExtended) {
		aclType = f[0]
		f = f[1:]
	}
	if len(f) == 0 {
		return
	}
	name := f[0]
	p.namedACL = model.NewNamedACL(name, aclType, aclDescription(name))
	p.cfg.NamedACLs = append(p.cfg.NamedACLs, p.namedACL)
	p.section = sectionNamedACL
}

// numberedACLLine handles "access-list N ...". Standard lists produce one
// record per line; extended lists collect their rules under one record.
func (p *ciscoParser) numberedACLLine(f []string) {
	if len(f) < 3 {
		return
	}
	number := f[1]
	switch {
	case f[2] == "remark":
		return
	case f[2] == model.ACLTypeExtended:
		p.numberedACL = p.extendedACL(number)
		p.section = sectionNumberedACL
	case isRuleAction(f[2]) && isExtendedNumber(number):
		if rule := parseRule(f[2:], strings.Join(f, " ")); rule != nil {
			acl := p.extendedACL(number)
			acl.Rules = append(acl.Rules, rule)
		}
	case isRuleAction(f[2]):
		p.cfg.AccessLists = append(p.cfg.AccessLists, standardEntry(number, f[2], f[3:]))
	}
}

func (p *ciscoParser) extendedACL(number string) *model.AccessList {
	for _, acl := range p.cfg.AccessLists {
		if acl.Number == number && acl.Type == model.ACLTypeExtended {
			return acl
		}
	}
	acl := model.NewExtendedAccessList(number)
	p.cfg.AccessLists = append(p.cfg.AccessLists, acl)
	return acl
}

// standardEntry builds a standard ACL record from ACTION's address words.
// An address that cannot be expressed as a prefix leaves Prefix empty.
func standardEntry(number, action string, f []string) *model.AccessList {
	acl := &model.AccessList{Number: number, Type: model.ACLTypeStandard, Action: action}
	spec, used := parseAddress(f)
	if spec == nil {
		return acl
	}
	if used == 2 && spec.Kind != model.AddressHost {
		acl.Wildcard = f[1]
	}
	if prefix, ok := spec.Prefix(); ok {
		acl.Prefix = prefix
	}
	return acl
}

// prefixList parses the words after "ip prefix-list":
// NAME [seq N] ACTION PREFIX [ge N] [le N]
func (p *ciscoParser) prefixList(f []string) {
	if len(f) < 3 || f[1] == "description" {
		return
	}
	entry := &model.PrefixList{Name: f[0]}
	f = f[1:]
	if f[0] == "seq" && len(f) >= 2 {
		entry.Seq, _ = strconv.Atoi(f[1])
		f = f[2:]
	}
	if len(f) < 2 {
		return
	}
	entry.Action = f[0]
	entry.Prefix = f[1]
	p.cfg.PrefixLists = append(p.cfg.PrefixLists, entry)
}

func (p *ciscoParser) routeMapHeader(f []string) {
	rm := &model.RouteMap{Name: f[1], Action: model.ActionPermit, Seq: 10}
	if len(f) > 2 {
		rm.Action = f[2]
	}
	if len(f) > 3 {
		if seq, err := strconv.Atoi(f[3]); err == nil {
			rm.Seq = seq
		}
	}
	p.cfg.RouteMaps = append(p.cfg.RouteMaps, rm)
	p.routeMap = rm
	p.section = sectionRouteMap
}

// routeMapLine records "match ip address [prefix-list] NAME..."
func (p *ciscoParser) routeMapLine(f []string) {
	if len(f) < 4 || f[0] != "match" || f[1] != "ip" || f[2] != "address" {
		return
	}
	if f[3] == "prefix-list" {
		p.routeMap.PrefixLists = append(p.routeMap.PrefixLists, f[4:]...)
		return
	}
	p.routeMap.ACLs = append(p.routeMap.ACLs, f[3:]...)
}

// ospfLine records "network ADDRESS WILDCARD area AREA"
func (p *ciscoParser) ospfLine(f []string) {
	if len(f) < 5 || f[0] != "network" || f[3] != "area" {
		return
	}
	prefix, ok := addr.WildcardToCIDR(f[1], f[2])
	if !ok {
		util.WithRouter(p.cfg.Hostname).Warnf("ignoring ospf network %s %s: bad wildcard", f[1], f[2])
		return
	}
	p.cfg.OSPFNetworks = append(p.cfg.OSPFNetworks, &model.OSPFNetwork{
		Process: p.ospfProcess,
		Prefix:  prefix,
		Area:    f[4],
	})
}

func (p *ciscoParser) interfaceLine(f []string) {
	switch {
	case len(f) >= 4 && f[0] == "ip" && f[1] == "address":
		// the first address is primary; secondaries are ignored
		if p.iface.IPAddress == "" && (len(f) == 4 || f[4] != "secondary") {
			p.iface.IPAddress = joinPrefix(f[2], f[3])
		}
	case len(f) >= 4 && f[0] == "ip" && f[1] == "access-group":
		p.iface.ApplyACL(f[2], f[3])
	case len(f) >= 4 && f[0] == "ip" && f[1] == "ospf" && f[2] == "cost":
		p.iface.OSPFCost, _ = strconv.Atoi(f[3])
	case f[0] == "description":
		p.iface.Description = strings.Join(f[1:], " ")
	case f[0] == "shutdown":
		p.iface.Shutdown = true
	}
}

// finish fills in values that depend on the whole file: named ACL
// directions from the first interface applying them, and OSPF costs from
// the first costed interface inside each network.
func (p *ciscoParser) finish() {
	for _, acl := range p.cfg.NamedACLs {
		for _, iface := range p.cfg.Interfaces {
			if dir := iface.ACLDirection(acl.Name); dir != "" {
				acl.Direction = dir
				break
			}
		}
	}
	for _, network := range p.cfg.OSPFNetworks {
		for _, iface := range p.cfg.Interfaces {
			if iface.OSPFCost == 0 {
				continue
			}
			ip, _, _ := strings.Cut(iface.IPAddress, "/")
			if inside, err := addr.Contains(network.Prefix, ip); err == nil && inside {
				network.Interface = iface.Name
				network.Cost = iface.OSPFCost
				break
			}
		}
	}
}

// joinPrefix renders ADDRESS MASK as ADDRESS/LEN. A mask that cannot be
// read is kept verbatim so the bad prefix is reported when inserted.
func joinPrefix(address, mask string) string {
	n, err := addr.MaskLength(mask)
	if err != nil {
		return address + "/" + mask
	}
	return address + "/" + strconv.Itoa(n)
}

// isExtendedNumber reports whether an ACL number falls in the IOS extended
// ranges 100-199 and 2000-2699.
func isExtendedNumber(number string) bool {
	n, err := strconv.Atoi(number)
	if err != nil {
		return false
	}
	return (n >= 100 && n <= 199) || (n >= 2000 && n <= 2699)
}

func isRuleAction(word string) bool {
	return word == model.ActionPermit || word == model.ActionDeny
}

// stripSequence drops a leading sequence number ("10 permit ip any any").
func stripSequence(f []string) []string {
	if len(f) > 1 && isRuleAction(f[1]) {
		if _, err := strconv.Atoi(f[0]); err == nil {
			return f[1:]
		}
	}
	return f
}
