// Package registry holds the static identifier reference data of a run:
// the adopted (standardized) table, the member-assigned list and the
// known-functionality table. It is loaded once and read-only afterwards.
package registry

import "blemap/internal/identifier"

// Registry is the immutable reference data consulted by the classifier.
type Registry struct {
	standard     map[string]string   // short → service
	services     map[string][]string // service → shorts, file order
	serviceOrder []string
	members      map[string]struct{}
	known        *KnownTable
}

// StandardEntry is one row of the adopted identifier list.
type StandardEntry struct {
	Short   string
	Service string
}

// New builds a registry from already-decoded reference data.
func New(standard []StandardEntry, members []string, known *KnownTable) *Registry {
	r := &Registry{
		standard: make(map[string]string, len(standard)),
		services: map[string][]string{},
		members:  make(map[string]struct{}, len(members)),
		known:    known,
	}
	for _, e := range standard {
		short := identifier.NormalizeShort(e.Short)
		r.standard[short] = e.Service
		if _, ok := r.services[e.Service]; !ok {
			r.serviceOrder = append(r.serviceOrder, e.Service)
		}
		r.services[e.Service] = append(r.services[e.Service], short)
	}
	for _, m := range members {
		r.members[identifier.NormalizeShort(m)] = struct{}{}
	}
	if r.known == nil {
		r.known = NewKnownTable(nil)
	}
	return r
}

// Service returns the service name registered for a short identifier.
func (r *Registry) Service(short string) (string, bool) {
	s, ok := r.standard[short]
	return s, ok
}

// IsMember reports whether short is in the member-assigned list.
func (r *Registry) IsMember(short string) bool {
	_, ok := r.members[short]
	return ok
}

// Services returns every service name in order of first appearance.
func (r *Registry) Services() []string {
	return append([]string(nil), r.serviceOrder...)
}

// ServiceShorts returns the short identifiers registered under service.
func (r *Registry) ServiceShorts(service string) []string {
	return append([]string(nil), r.services[service]...)
}

// StandardCount is the number of registered short identifiers.
func (r *Registry) StandardCount() int {
	return len(r.standard)
}

// MemberCount is the number of member-assigned short identifiers.
func (r *Registry) MemberCount() int {
	return len(r.members)
}

// Known returns the known-functionality table.
func (r *Registry) Known() *KnownTable {
	return r.known
}
