// Package category maps category groups to the column names that belong to
// them. Membership is an explicit list per group, fixed when the registry is
// built.
package category

import (
	"errors"
	"fmt"
	"sort"

	"go-peopleflow/internal/region"
)

// ErrUnknownGroup is returned when a group name is not registered.
var ErrUnknownGroup = errors.New("unknown category group")

// Default group names
const (
	GroupPerson  = "person"
	GroupMale    = "male"
	GroupFemale  = "female"
	GroupChild   = "child"
	GroupYoung   = "young"
	GroupAdult   = "adult"
	GroupSenior  = "senior"
	GroupVehicle = "vehicle"
	GroupPlate   = "plate"
)

var ageBands = []string{GroupChild, GroupYoung, GroupAdult, GroupSenior}

// Registry is an immutable set of named column groups.
type Registry struct {
	groups map[string]map[string]struct{}
	order  map[string][]string
}

// NewRegistry builds a registry from group name to member columns.
func NewRegistry(groups map[string][]string) *Registry {
	r := &Registry{
		groups: make(map[string]map[string]struct{}, len(groups)),
		order:  make(map[string][]string, len(groups)),
	}
	for name, cols := range groups {
		r.set(name, cols)
	}
	return r
}

func (r *Registry) set(name string, cols []string) {
	members := make(map[string]struct{}, len(cols))
	order := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, dup := members[c]; dup {
			continue
		}
		members[c] = struct{}{}
		order = append(order, c)
	}
	r.groups[name] = members
	r.order[name] = order
}

// DefaultGroups returns the built-in groups: people by gender and age band,
// vehicles by type and license plates by office.
func DefaultGroups() map[string][]string {
	groups := map[string][]string{
		GroupVehicle: {"car", "truck", "bus", "motorcycle", "bicycle"},
		GroupPlate:   region.Offices(),
	}
	for _, gender := range []string{GroupMale, GroupFemale} {
		for _, band := range ageBands {
			col := gender + "_" + band
			groups[gender] = append(groups[gender], col)
			groups[band] = append(groups[band], col)
			groups[GroupPerson] = append(groups[GroupPerson], col)
		}
	}
	return groups
}

// Default returns a registry holding DefaultGroups.
func Default() *Registry {
	return NewRegistry(DefaultGroups())
}

// With returns a copy of r where each of extra adds or replaces a group.
func (r *Registry) With(extra map[string][]string) *Registry {
	out := &Registry{
		groups: make(map[string]map[string]struct{}, len(r.groups)+len(extra)),
		order:  make(map[string][]string, len(r.order)+len(extra)),
	}
	for name, cols := range r.order {
		out.set(name, cols)
	}
	for name, cols := range extra {
		out.set(name, cols)
	}
	return out
}

// Names returns the registered group names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.groups))
	for n := range r.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Group returns the member columns of a group in registration order.
func (r *Registry) Group(name string) ([]string, error) {
	cols, ok := r.order[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return append([]string(nil), cols...), nil
}

// Judge returns a membership predicate for a group.
func (r *Registry) Judge(name string) (func(string) bool, error) {
	members, ok := r.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return func(col string) bool {
		_, in := members[col]
		return in
	}, nil
}
