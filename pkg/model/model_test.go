package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/newtron-network/netpec/pkg/util"
)

// ===================== AddressSpec Tests =====================

func TestAddressSpec_Prefix(t *testing.T) {
	tests := []struct {
		name   string
		spec   *AddressSpec
		want   string
		wantOK bool
	}{
		{"any", &AddressSpec{Kind: AddressAny, Value: AnyPrefix}, "0.0.0.0/0", true},
		{"prefix", &AddressSpec{Kind: AddressPrefix, Value: "10.1.0.0/16"}, "10.1.0.0/16", true},
		{"ip", &AddressSpec{Kind: AddressIP, Value: "10.1.2.3"}, "10.1.2.3/32", true},
		{"host with address", &AddressSpec{Kind: AddressHost, Value: "10.1.2.4"}, "10.1.2.4/32", true},
		{"host pending", &AddressSpec{Kind: AddressHost}, "", false},
		{"unknown", &AddressSpec{Kind: AddressUnknown, Value: "10.0.0.0 0.0.x.255"}, "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.spec.Prefix()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Prefix() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// ===================== ACL Tests =====================

func TestNewNamedACL(t *testing.T) {
	acl := NewNamedACL("PERMIT_TRUSTED_IN", ACLTypeExtended, "trusted")
	if acl.Name != "PERMIT_TRUSTED_IN" {
		t.Errorf("Name = %q", acl.Name)
	}
	if acl.Rules == nil || len(acl.Rules) != 0 {
		t.Errorf("Rules should be empty and non-nil, got %v", acl.Rules)
	}

	acl.AddRule(&ACLRule{Action: ActionPermit, Protocol: "ip"})
	acl.AddRule(&ACLRule{Action: ActionDeny, Protocol: "ip"})
	if len(acl.Rules) != 2 {
		t.Fatalf("len(Rules) = %d, want 2", len(acl.Rules))
	}
	if acl.Rules[1].Action != ActionDeny {
		t.Errorf("Rules[1].Action = %q, want deny", acl.Rules[1].Action)
	}
}

func TestNewExtendedAccessList(t *testing.T) {
	acl := NewExtendedAccessList("101")
	if acl.Type != ACLTypeExtended {
		t.Errorf("Type = %q, want extended", acl.Type)
	}
	if acl.Number != "101" {
		t.Errorf("Number = %q, want 101", acl.Number)
	}
}

// ===================== Interface Tests =====================

func TestInterface_IsLoopback(t *testing.T) {
	tests := []struct {
		ifName   string
		expected bool
	}{
		{"Loopback0", true},
		{"loopback1", true},
		{"GigabitEthernet0/0", false},
		{"", false},
	}
	for _, tt := range tests {
		i := &Interface{Name: tt.ifName}
		if got := i.IsLoopback(); got != tt.expected {
			t.Errorf("IsLoopback(%q) = %v, want %v", tt.ifName, got, tt.expected)
		}
	}
}

func TestInterface_ApplyACL(t *testing.T) {
	i := &Interface{Name: "GigabitEthernet0/0"}
	i.ApplyACL("A", DirectionIn)
	i.ApplyACL("B", DirectionOut)
	i.ApplyACL("C", DirectionIn)

	if len(i.AppliedACLs) != 2 {
		t.Fatalf("len(AppliedACLs) = %d, want 2", len(i.AppliedACLs))
	}
	if got := i.ACLDirection("C"); got != DirectionIn {
		t.Errorf("ACLDirection(C) = %q, want in", got)
	}
	if got := i.ACLDirection("A"); got != "" {
		t.Errorf("ACLDirection(A) = %q, want empty after replacement", got)
	}
	if got := i.ACLDirection("B"); got != DirectionOut {
		t.Errorf("ACLDirection(B) = %q, want out", got)
	}
}

// ===================== Config Tests =====================

func TestConfig_Lookups(t *testing.T) {
	c := NewConfig("r1")
	c.NamedACLs = append(c.NamedACLs, NewNamedACL("X", ACLTypeStandard, ""))
	c.PrefixLists = append(c.PrefixLists,
		&PrefixList{Name: "PL", Seq: 5, Action: ActionPermit, Prefix: "10.0.0.0/8"},
		&PrefixList{Name: "OTHER", Seq: 5, Action: ActionPermit, Prefix: "172.16.0.0/12"},
		&PrefixList{Name: "PL", Seq: 10, Action: ActionDeny, Prefix: "0.0.0.0/0"},
	)

	if c.FindNamedACL("X") == nil {
		t.Error("FindNamedACL(X) = nil")
	}
	if c.FindNamedACL("Y") != nil {
		t.Error("FindNamedACL(Y) should be nil")
	}
	entries := c.PrefixListEntries("PL")
	if len(entries) != 2 || entries[1].Seq != 10 {
		t.Errorf("PrefixListEntries(PL) = %v", entries)
	}
	if got := c.RecordCount(); got != 4 {
		t.Errorf("RecordCount() = %d, want 4", got)
	}
}

// ===================== SourceRecord Tests =====================

func TestSourceRecord_Equality(t *testing.T) {
	a := SourceRecord{Type: SourceStaticRoute, Router: "r1", NextHop: "10.0.0.1"}
	b := SourceRecord{Type: SourceStaticRoute, Router: "r1", NextHop: "10.0.0.1"}
	c := SourceRecord{Type: SourceStaticRoute, Router: "r2", NextHop: "10.0.0.1"}
	if a != b {
		t.Error("identical records should compare equal")
	}
	if a == c {
		t.Error("records with different routers should differ")
	}
}

func TestSourceRecord_PolicyName(t *testing.T) {
	tests := []struct {
		src  SourceRecord
		want string
	}{
		{SourceRecord{Type: SourceAccessList, ACLNumber: "10"}, "10"},
		{SourceRecord{Type: SourceNamedACL, ACLName: "BLOCK"}, "BLOCK"},
		{SourceRecord{Type: SourcePrefixList, ListName: "PL"}, "PL"},
		{SourceRecord{Type: SourceRouteMap, ListName: "RM"}, "RM"},
		{SourceRecord{Type: SourceBGP, Router: "r1"}, ""},
	}
	for _, tt := range tests {
		if got := tt.src.PolicyName(); got != tt.want {
			t.Errorf("PolicyName(%s) = %q, want %q", tt.src.Type, got, tt.want)
		}
	}
}

func TestSourceRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		src     SourceRecord
		wantErr string
	}{
		{name: "valid static", src: SourceRecord{Type: SourceStaticRoute, Router: "r1", NextHop: "10.0.0.1"}},
		{name: "valid acl", src: SourceRecord{Type: SourceAccessList, ACLNumber: "101", ACLType: "extended", Action: ActionDeny}},
		{name: "missing type", src: SourceRecord{Router: "r1"}, wantErr: "Type: field is required"},
		{name: "bad type", src: SourceRecord{Type: "rip"}, wantErr: "Type"},
		{name: "bad action", src: SourceRecord{Type: SourceNamedACL, Action: "allow"}, wantErr: "Action"},
		{name: "bad direction", src: SourceRecord{Type: SourceNamedACL, Direction: "both"}, wantErr: "Direction"},
		{name: "bad next hop", src: SourceRecord{Type: SourceStaticRoute, NextHop: "Null0"}, wantErr: "NextHop"},
		{name: "negative cost", src: SourceRecord{Type: SourceOSPF, Cost: -1}, wantErr: "Cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.src.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !errors.Is(err, util.ErrValidationFailed) {
				t.Errorf("error %v should wrap ErrValidationFailed", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}
