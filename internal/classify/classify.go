// Package classify decides, per identifier, whether it is standardized,
// which service it belongs to, and whether it misuses the reserved range.
package classify

import (
	"blemap/internal/identifier"
	"blemap/internal/registry"
)

// Outcome is the registration status of an identifier. Exactly one outcome
// holds for any identifier.
type Outcome int

const (
	// Unregistered identifiers fail the shape check or are in neither table.
	Unregistered Outcome = iota
	// RegisteredStandard identifiers appear in the adopted table.
	RegisteredStandard
	// RegisteredMember identifiers appear only in the member-assigned list.
	RegisteredMember
)

func (o Outcome) String() string {
	switch o {
	case RegisteredStandard:
		return "registered-standard"
	case RegisteredMember:
		return "registered-member"
	default:
		return "unregistered"
	}
}

// DefaultCoreServices are the foundational service categories (attribute
// protocol, access profile, generic service) whose use says nothing about
// what an application does.
var DefaultCoreServices = []string{"GATT", "GAP", "GSS"}

// Classifier is a pure function set over a loaded registry.
type Classifier struct {
	reg  *registry.Registry
	core map[string]struct{}
}

// New creates a classifier. A nil or empty coreServices uses DefaultCoreServices.
func New(reg *registry.Registry, coreServices []string) *Classifier {
	if len(coreServices) == 0 {
		coreServices = DefaultCoreServices
	}
	core := make(map[string]struct{}, len(coreServices))
	for _, s := range coreServices {
		core[s] = struct{}{}
	}
	return &Classifier{reg: reg, core: core}
}

// Registry returns the reference data behind the classifier.
func (c *Classifier) Registry() *registry.Registry {
	return c.reg
}

// Outcome returns the registration status of id. An identifier whose short
// segment is in both tables counts as RegisteredStandard.
func (c *Classifier) Outcome(id identifier.Identifier) Outcome {
	if !id.HasReservedShape() {
		return Unregistered
	}
	short := id.Short()
	if _, ok := c.reg.Service(short); ok {
		return RegisteredStandard
	}
	if c.reg.IsMember(short) {
		return RegisteredMember
	}
	return Unregistered
}

// Service returns the adopted service name of a standardized identifier.
func (c *Classifier) Service(id identifier.Identifier) (string, bool) {
	if !id.HasReservedShape() {
		return "", false
	}
	return c.reg.Service(id.Short())
}

// IsStandardized reports whether id has the reserved shape and its short
// segment is in the adopted table.
func (c *Classifier) IsStandardized(id identifier.Identifier) bool {
	_, ok := c.Service(id)
	return ok
}

// IsCoreService reports whether service is one of the foundational categories.
func (c *Classifier) IsCoreService(service string) bool {
	_, ok := c.core[service]
	return ok
}

// IsStandardizedExcludingCoreServices reports whether id is standardized and
// its service is not a core service, i.e. its use is meaningful for the
// application.
func (c *Classifier) IsStandardizedExcludingCoreServices(id identifier.Identifier) bool {
	service, ok := c.Service(id)
	if !ok {
		return false
	}
	return !c.IsCoreService(service)
}

// IsReservedRangeMisused reports whether id has the reserved shape but its
// short segment is in neither the adopted table nor the member list.
func (c *Classifier) IsReservedRangeMisused(id identifier.Identifier) bool {
	if !id.HasReservedShape() {
		return false
	}
	short := id.Short()
	if _, ok := c.reg.Service(short); ok {
		return false
	}
	return !c.reg.IsMember(short)
}

// IsKnown reports whether id appears anywhere in the known-functionality
// table (KFU). Every other identifier is a UFU.
func (c *Classifier) IsKnown(id identifier.Identifier) bool {
	return c.reg.Known().Contains(id)
}
