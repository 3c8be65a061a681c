package authz

import (
	"sort"

	"backoffice/internal/domain/model"
)

type Capability string

const (
	CapOrdersRead      Capability = "orders:read"
	CapOrdersWrite     Capability = "orders:write"
	CapCatalogWrite    Capability = "catalog:write"
	CapInvoicesWrite   Capability = "invoices:write"
	CapReviewsModerate Capability = "reviews:moderate"
	CapUsersRead       Capability = "users:read"
	CapUsersDelete     Capability = "users:delete"
	CapRolesManage     Capability = "roles:manage"
	CapAddressesWrite  Capability = "addresses:write"
	CapDashboardRead   Capability = "dashboard:read"
)

var allCapabilities = []Capability{
	CapOrdersRead,
	CapOrdersWrite,
	CapCatalogWrite,
	CapInvoicesWrite,
	CapReviewsModerate,
	CapUsersRead,
	CapUsersDelete,
	CapRolesManage,
	CapAddressesWrite,
	CapDashboardRead,
}

// superadmin は allCapabilities 全部
var roleCapabilities = map[model.RoleName][]Capability{
	model.RoleAdmin: {
		CapOrdersRead,
		CapOrdersWrite,
		CapCatalogWrite,
		CapInvoicesWrite,
		CapReviewsModerate,
		CapUsersRead,
		CapAddressesWrite,
		CapDashboardRead,
	},
	model.RoleEditor: {
		CapOrdersRead,
		CapCatalogWrite,
		CapReviewsModerate,
		CapDashboardRead,
	},
}

type CapabilitySet map[Capability]struct{}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// 空なら管理画面には入れない
func (s CapabilitySet) Empty() bool {
	return len(s) == 0
}

func (s CapabilitySet) List() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

func CapabilitiesFor(roles model.RoleSet) CapabilitySet {
	set := CapabilitySet{}
	if roles.Has(model.RoleSuperadmin) {
		for _, c := range allCapabilities {
			set[c] = struct{}{}
		}
		return set
	}
	for r := range roles {
		for _, c := range roleCapabilities[r] {
			set[c] = struct{}{}
		}
	}
	return set
}
