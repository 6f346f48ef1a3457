package parser

import (
	"regexp"
	"strings"

	"github.com/newtron-network/netpec/pkg/addr"
	"github.com/newtron-network/netpec/pkg/model"
)

// dottedRe matches anything shaped like a dotted quad, valid or not, so that
// a malformed wildcard is still recognized as one.
var dottedRe = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// knownACLDescriptions describes ACLs that follow the lab naming scheme
var knownACLDescriptions = map[string]string{
	"BLOCK_R1_NETWORK2_IN":  "Block incoming traffic from R1 Network2",
	"BLOCK_R1_NETWORK2_OUT": "Block outgoing traffic to R1 Network2",
	"PERMIT_TRUSTED_IN":     "Permit incoming traffic from trusted sources",
	"DENY_UNTRUSTED_IN":     "Deny incoming traffic from untrusted sources",
}

func aclDescription(name string) string {
	if d, ok := knownACLDescriptions[name]; ok {
		return d
	}
	return "Access Control List: " + name
}

// portOperators take one argument, except range which takes two
var portOperators = map[string]int{
	"eq": 1, "neq": 1, "gt": 1, "lt": 1, "range": 2,
}

// parseRule parses ACTION [PROTOCOL] SOURCE [PORTS] [DESTINATION [PORTS]]
// [OPTIONS...]. Standard rules have no protocol and only a source. Trailing
// "!" comments are dropped. Addresses that cannot be read are tagged unknown
// rather than rejecting the rule.
func parseRule(f []string, line string) *model.ACLRule {
	f = stripComment(f)
	if len(f) < 2 || !isRuleAction(f[0]) {
		return nil
	}
	rule := &model.ACLRule{Action: f[0], Line: strings.TrimSpace(line)}
	rest := f[1:]

	if isAddressWord(rest[0]) {
		var used int
		rule.Source, used = parseAddress(rest)
		rule.Options = strings.Join(rest[used:], " ")
		return rule
	}

	rule.Protocol = rest[0]
	rest = rest[1:]
	var options []string

	if len(rest) > 0 {
		var used int
		rule.Source, used = parseAddress(rest)
		rest = rest[used:]
		used = portMatch(rest)
		options = append(options, rest[:used]...)
		rest = rest[used:]
	}
	if len(rest) > 0 && isAddressWord(rest[0]) {
		var used int
		rule.Destination, used = parseAddress(rest)
		rest = rest[used:]
	}
	options = append(options, rest...)
	rule.Options = strings.Join(options, " ")
	return rule
}

// parseAddress reads one address from the front of f and returns it with
// the number of words consumed.
func parseAddress(f []string) (*model.AddressSpec, int) {
	if len(f) == 0 {
		return nil, 0
	}
	word := f[0]
	switch {
	case word == "any":
		return &model.AddressSpec{Kind: model.AddressAny, Value: model.AnyPrefix}, 1
	case word == "host":
		if len(f) > 1 && isIP(f[1]) {
			return &model.AddressSpec{Kind: model.AddressHost, Value: f[1]}, 2
		}
		return &model.AddressSpec{Kind: model.AddressHost}, 1
	case strings.Contains(word, "/"):
		return &model.AddressSpec{Kind: model.AddressPrefix, Value: word}, 1
	case dottedRe.MatchString(word):
		if len(f) > 1 && dottedRe.MatchString(f[1]) {
			if cidr, ok := addr.WildcardToCIDR(word, f[1]); ok {
				return &model.AddressSpec{Kind: model.AddressPrefix, Value: cidr}, 2
			}
			return &model.AddressSpec{Kind: model.AddressUnknown, Value: word + " " + f[1]}, 2
		}
		if isIP(word) {
			return &model.AddressSpec{Kind: model.AddressIP, Value: word}, 1
		}
	}
	return &model.AddressSpec{Kind: model.AddressUnknown, Value: word}, 1
}

// portMatch returns how many words at the front of f form a port match
func portMatch(f []string) int {
	if len(f) == 0 {
		return 0
	}
	n, ok := portOperators[f[0]]
	if !ok {
		return 0
	}
	return min(1+n, len(f))
}

func isAddressWord(word string) bool {
	return word == "any" || word == "host" || strings.Contains(word, "/") || dottedRe.MatchString(word)
}

func isIP(s string) bool {
	_, err := addr.ParseIP(s)
	return err == nil
}

func stripComment(f []string) []string {
	for i, word := range f {
		if strings.HasPrefix(word, "!") {
			return f[:i]
		}
	}
	return f
}
