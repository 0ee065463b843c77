// Package rbac resolves profile roles into permissions and guards HTTP routes.
package rbac

// Principal describes the authenticated actor.
type Principal struct {
	ID          int64
	Name        string
	Role        string
	Permissions []string
}

// Has reports whether the principal holds the given permission.
func (p Principal) Has(perm string) bool {
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}
