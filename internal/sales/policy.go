package sales

import "pos_sales/internal/auth"

// Filter narrows a sale listing. Empty fields match everything.
type Filter struct {
	OwnerID string
	Status  Status
}

// AuthorizeCreate allows anyone to create a sale for themselves; only
// elevated roles may assign it to another owner.
func AuthorizeCreate(actor auth.Principal, ownerID string) error {
	if ownerID == "" || ownerID == actor.ID || actor.Role.Elevated() {
		return nil
	}
	return &AuthorizationError{Message: "not allowed to create sales for another user"}
}

// ScopeFilter forces a seller's listing onto their own sales, whatever
// owner filter was requested.
func ScopeFilter(actor auth.Principal, f Filter) Filter {
	if !actor.Role.Elevated() {
		f.OwnerID = actor.ID
	}
	return f
}

func AuthorizeRead(actor auth.Principal, sale *Sale) error {
	if actor.Role.Elevated() || sale.OwnerID == actor.ID {
		return nil
	}
	return &AuthorizationError{Message: "not allowed to view this sale"}
}

// AuthorizeUpdate allows only elevated roles, including for a seller's own sale.
func AuthorizeUpdate(actor auth.Principal, _ *Sale) error {
	if actor.Role.Elevated() {
		return nil
	}
	return &AuthorizationError{Message: "not allowed to update sales"}
}
