// Package nav builds role-filtered navigation menus.
package nav

import (
	"strings"

	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/internal/view"
)

// Descriptor is a navigation entry visible to Roles.
type Descriptor struct {
	To    string      `json:"to"`
	Label string      `json:"label"`
	Icon  string      `json:"icon,omitempty"`
	Roles []rbac.Role `json:"-"`
}

// Build returns the descriptors visible to role, preserving their order. An
// entry with no roles is never shown.
func Build(descriptors []Descriptor, role rbac.Role) []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if rbac.ContainsRole(d.Roles, role) {
			out = append(out, d)
		}
	}
	return out
}

// Links converts descriptors to view links, marking the one matching current.
func Links(descriptors []Descriptor, current string) []view.NavLink {
	links := make([]view.NavLink, 0, len(descriptors))
	for _, d := range descriptors {
		links = append(links, view.NavLink{
			To:     d.To,
			Label:  d.Label,
			Icon:   d.Icon,
			Active: current == d.To || strings.HasPrefix(current, d.To+"/"),
		})
	}
	return links
}

// Roles returns every role referenced by descriptors.
func Roles(descriptors ...[]Descriptor) []rbac.Role {
	var out []rbac.Role
	for _, set := range descriptors {
		for _, d := range set {
			for _, role := range d.Roles {
				if !rbac.ContainsRole(out, role) {
					out = append(out, role)
				}
			}
		}
	}
	return out
}
