package util

import (
	"regexp"
	"sort"
	"strings"
)

var parseInterfaceRegexp = regexp.MustCompile(`^([a-zA-Z-]+)(\d+(?:/\d+)*)$`)

// ParseInterfaceName extracts interface type and number
// Returns (type, number, subinterface) e.g., ("GigabitEthernet", "0/1", "100") for GigabitEthernet0/1.100
func ParseInterfaceName(name string) (ifType string, num string, subintf string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		subintf = parts[1]
		name = parts[0]
	}

	matches := parseInterfaceRegexp.FindStringSubmatch(name)
	if len(matches) == 3 {
		return matches[1], matches[2], subintf
	}

	return name, "", subintf
}

var (
	// shortToLong maps lowercase IOS abbreviations to full interface type names
	shortToLong = map[string]string{
		"gi":           "GigabitEthernet",
		"gig":          "GigabitEthernet",
		"te":           "TenGigabitEthernet",
		"fa":           "FastEthernet",
		"eth":          "Ethernet",
		"et":           "Ethernet",
		"lo":           "Loopback",
		"po":           "Port-channel",
		"port-channel": "Port-channel",
		"vl":           "Vlan",
		"vlan":         "Vlan",
		"se":           "Serial",
		"tu":           "Tunnel",
	}

	// shortToLongSorted holds abbreviation keys longest-first so "vlan"
	// is matched before "vl".
	shortToLongSorted []string
)

func init() {
	shortToLongSorted = make([]string, 0, len(shortToLong))
	for k := range shortToLong {
		shortToLongSorted = append(shortToLongSorted, k)
	}
	sort.Slice(shortToLongSorted, func(i, j int) bool {
		if len(shortToLongSorted[i]) != len(shortToLongSorted[j]) {
			return len(shortToLongSorted[i]) > len(shortToLongSorted[j])
		}
		return shortToLongSorted[i] < shortToLongSorted[j]
	})
}

// NormalizeInterfaceName expands abbreviated IOS interface names
// Gi0/1 -> GigabitEthernet0/1, po10 -> Port-channel10, Lo0 -> Loopback0
func NormalizeInterfaceName(name string) string {
	name = strings.TrimSpace(name)
	ifType, num, subintf := ParseInterfaceName(name)
	if num == "" {
		return name
	}

	lower := strings.ToLower(ifType)
	for _, abbr := range shortToLongSorted {
		if lower == abbr {
			return joinInterface(shortToLong[abbr], num, subintf)
		}
	}
	// Already a long name in another case, e.g. gigabitethernet0/1
	for _, long := range shortToLong {
		if strings.EqualFold(ifType, long) {
			return joinInterface(long, num, subintf)
		}
	}
	return name
}

func joinInterface(ifType, num, subintf string) string {
	result := ifType + num
	if subintf != "" {
		result += "." + subintf
	}
	return result
}
