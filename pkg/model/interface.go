package model

import "strings"

// Interface represents an addressed interface block
type Interface struct {
	Name        string        `json:"name"`      // e.g., "GigabitEthernet0/0", "Loopback0"
	IPAddress   string        `json:"ipAddress"` // a.b.c.d/n, host bits as configured
	Description string        `json:"description,omitempty"`
	Shutdown    bool          `json:"shutdown,omitempty"`
	OSPFCost    int           `json:"ospfCost,omitempty"`
	AppliedACLs []*AppliedACL `json:"appliedAcls"`
}

// IsLoopback returns true if this is a loopback interface
func (i *Interface) IsLoopback() bool {
	return strings.HasPrefix(strings.ToLower(i.Name), "loopback")
}

// HasIPAddress returns true if an address was configured
func (i *Interface) HasIPAddress() bool {
	return i.IPAddress != ""
}

// ApplyACL records an access-group binding. A repeated binding for the same
// direction replaces the earlier one.
func (i *Interface) ApplyACL(name, direction string) {
	for _, a := range i.AppliedACLs {
		if a.Direction == direction {
			a.ACLName = name
			return
		}
	}
	i.AppliedACLs = append(i.AppliedACLs, &AppliedACL{ACLName: name, Direction: direction})
}

// ACLDirection returns the direction the named ACL is applied in, or ""
func (i *Interface) ACLDirection(name string) string {
	for _, a := range i.AppliedACLs {
		if a.ACLName == name {
			return a.Direction
		}
	}
	return ""
}
