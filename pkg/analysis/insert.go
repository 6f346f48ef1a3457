package analysis

import (
	"errors"
	"fmt"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/metrics"
	"github.com/newtron-network/netpec/pkg/model"
	"github.com/newtron-network/netpec/pkg/trie"
	"github.com/newtron-network/netpec/pkg/util"
)

// builder inserts the records of one or more configurations into a trie
type builder struct {
	trie    *trie.Trie
	metrics *metrics.Registry
	skipped []SkippedRecord
}

// config inserts cfg's records in a fixed order: static routes, numbered
// ACLs, named ACLs, prefix lists, interfaces, BGP networks, OSPF networks,
// route-maps. ACL rules insert the source before the destination.
func (b *builder) config(cfg *model.Config) {
	router := cfg.Hostname

	for _, route := range cfg.StaticRoutes {
		b.insert(route.Prefix, model.SourceRecord{
			Type:      model.SourceStaticRoute,
			Router:    router,
			Interface: route.Interface,
			NextHop:   route.NextHop,
		})
	}

	for _, acl := range cfg.AccessLists {
		b.accessList(router, acl)
	}

	for _, acl := range cfg.NamedACLs {
		src := model.SourceRecord{
			Type:        model.SourceNamedACL,
			Router:      router,
			Interface:   appliedInterface(cfg, acl.Name),
			ACLName:     acl.Name,
			ACLType:     acl.Type,
			Direction:   acl.Direction,
			Description: acl.Description,
		}
		for _, rule := range acl.Rules {
			src.Action = rule.Action
			src.Protocol = rule.Protocol
			b.insertAddress(rule.Source, src)
			b.insertAddress(rule.Destination, src)
		}
	}

	for _, pl := range cfg.PrefixLists {
		b.insert(pl.Prefix, model.SourceRecord{
			Type:     model.SourcePrefixList,
			Router:   router,
			ListName: pl.Name,
			Action:   pl.Action,
		})
	}

	for _, iface := range cfg.Interfaces {
		b.insert(subnet(iface.IPAddress), model.SourceRecord{
			Type:        model.SourceInterface,
			Router:      router,
			Interface:   iface.Name,
			Description: iface.Description,
			Cost:        iface.OSPFCost,
		})
	}

	for _, network := range cfg.BGPNetworks {
		b.insert(network.Prefix, model.SourceRecord{
			Type:   model.SourceBGP,
			Router: router,
		})
	}

	for _, network := range cfg.OSPFNetworks {
		b.insert(network.Prefix, model.SourceRecord{
			Type:      model.SourceOSPF,
			Router:    router,
			Interface: network.Interface,
			Area:      network.Area,
			Cost:      network.Cost,
		})
	}

	for _, rm := range cfg.RouteMaps {
		b.routeMap(cfg, rm)
	}
}

func (b *builder) accessList(router string, acl *model.AccessList) {
	src := model.SourceRecord{
		Type:      model.SourceAccessList,
		Router:    router,
		ACLNumber: acl.Number,
		ACLType:   acl.Type,
		Action:    acl.Action,
	}
	if acl.Type != model.ACLTypeExtended {
		if acl.Prefix == "" {
			b.skip(src, acl.Wildcard, ReasonUnresolvedAddress, nil)
			return
		}
		b.insert(acl.Prefix, src)
		return
	}
	for _, rule := range acl.Rules {
		src.Action = rule.Action
		src.Protocol = rule.Protocol
		b.insertAddress(rule.Source, src)
		b.insertAddress(rule.Destination, src)
	}
}

// routeMap inserts the prefixes a route-map clause matches: the entries of
// its prefix lists and the prefixes of its standard ACLs.
func (b *builder) routeMap(cfg *model.Config, rm *model.RouteMap) {
	src := model.SourceRecord{
		Type:        model.SourceRouteMap,
		Router:      cfg.Hostname,
		ListName:    rm.Name,
		Action:      rm.Action,
		Description: fmt.Sprintf("seq %d", rm.Seq),
	}
	for _, name := range rm.PrefixLists {
		for _, entry := range cfg.PrefixListEntries(name) {
			b.insert(entry.Prefix, src)
		}
	}
	for _, number := range rm.ACLs {
		for _, acl := range cfg.AccessLists {
			if acl.Number == number && acl.Prefix != "" {
				b.insert(acl.Prefix, src)
			}
		}
	}
}

func (b *builder) insertAddress(spec *model.AddressSpec, src model.SourceRecord) {
	if spec == nil {
		return
	}
	prefix, ok := spec.Prefix()
	if !ok {
		b.skip(src, spec.Value, ReasonUnresolvedAddress, fmt.Errorf("%s address %q", spec.Kind, spec.Value))
		return
	}
	b.insert(prefix, src)
}

func (b *builder) insert(prefix string, src model.SourceRecord) {
	if err := src.Validate(); err != nil {
		b.skip(src, prefix, ReasonInvalidRecord, err)
		return
	}
	if err := b.trie.Insert(prefix, src); err != nil {
		reason := ReasonInvalidRecord
		if errors.Is(err, util.ErrInvalidPrefixFormat) {
			reason = ReasonInvalidPrefix
		}
		b.skip(src, prefix, reason, err)
		return
	}
	b.metrics.RecordInsert(string(src.Type))
}

func (b *builder) skip(src model.SourceRecord, value, reason string, err error) {
	rec := SkippedRecord{Router: src.Router, Type: src.Type, Value: value, Reason: reason}
	if err != nil {
		rec.Error = err.Error()
	}
	b.skipped = append(b.skipped, rec)
	b.metrics.RecordInsertError(reason)
	util.WithRouter(src.Router).WithField("type", src.Type).Warnf("skipping %q: %s", value, util.CoalesceString(rec.Error, reason))
}

// appliedInterface returns the first interface that applies the named ACL
func appliedInterface(cfg *model.Config, name string) string {
	for _, iface := range cfg.Interfaces {
		if iface.ACLDirection(name) != "" {
			return iface.Name
		}
	}
	return ""
}

// subnet turns an interface address such as 10.0.12.1/24 into its network
// prefix. Malformed input is returned unchanged so that Insert reports it.
func subnet(address string) string {
	bits, err := addr.PrefixToBits(address)
	if err != nil {
		return address
	}
	return addr.BitsToPrefix(bits)
}
