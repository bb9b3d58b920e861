package uistate

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ServiceCartItem is a selected plan or package that lives only in the drawer
// state until checkout turns it into an order.
type ServiceCartItem struct {
	ID           string                `json:"id"`
	Type         enums.ServiceItemType `json:"type"`
	ServiceID    string                `json:"serviceId"`
	ReferenceID  string                `json:"referenceId"`
	Name         string                `json:"name"`
	Price        int64                 `json:"price"`
	Quantity     int                   `json:"quantity"`
	BillingCycle *enums.BillingCycle   `json:"billingCycle,omitempty"`
}

// LineTotal returns price × quantity.
func (i ServiceCartItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

func (i ServiceCartItem) clone() ServiceCartItem {
	out := i
	if i.BillingCycle != nil {
		cycle := *i.BillingCycle
		out.BillingCycle = &cycle
	}
	return out
}

// Validate rejects malformed items before they reach the store.
func (i ServiceCartItem) Validate() error {
	details := map[string]string{}
	if strings.TrimSpace(i.ID) == "" {
		details["id"] = "is required"
	}
	if strings.TrimSpace(i.ServiceID) == "" {
		details["serviceId"] = "is required"
	}
	if strings.TrimSpace(i.ReferenceID) == "" {
		details["referenceId"] = "is required"
	}
	if strings.TrimSpace(i.Name) == "" {
		details["name"] = "is required"
	}
	if i.Price < 0 {
		details["price"] = "must be at least 0"
	}
	if i.Quantity < 1 {
		details["quantity"] = "must be at least 1"
	}

	switch i.Type {
	case enums.ServiceItemTypePlan:
		if i.BillingCycle == nil || !i.BillingCycle.IsValid() {
			details["billingCycle"] = "is required for plans"
		}
		if i.Quantity > 1 {
			details["quantity"] = "plans are limited to one per cart"
		}
	case enums.ServiceItemTypePackage:
		if i.BillingCycle != nil {
			details["billingCycle"] = "is only allowed for plans"
		}
	default:
		details["type"] = "must be package or plan"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid service item").WithDetails(details)
	}
	return nil
}
