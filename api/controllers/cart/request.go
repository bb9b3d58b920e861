package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/uistate"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Price     int64     `json:"price" validate:"gte=0"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

func (r addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID: r.ProductID,
		Price:     r.Price,
		Quantity:  r.Quantity,
	}
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

type itemCountRequest struct {
	Count int `json:"count" validate:"min=0"`
}

// serviceItemRequest keeps the drawer's camelCase field names.
type serviceItemRequest struct {
	ID           string              `json:"id" validate:"notblank,max=128"`
	Type         string              `json:"type" validate:"required,oneof=package plan"`
	ServiceID    string              `json:"serviceId" validate:"required,max=128"`
	ReferenceID  string              `json:"referenceId" validate:"required,max=128"`
	Name         string              `json:"name" validate:"notblank,max=256"`
	Price        int64               `json:"price" validate:"gte=0"`
	Quantity     int                 `json:"quantity" validate:"min=1"`
	BillingCycle *enums.BillingCycle `json:"billingCycle,omitempty"`
}

func (r serviceItemRequest) toItem() uistate.ServiceCartItem {
	return uistate.ServiceCartItem{
		ID:           r.ID,
		Type:         enums.ServiceItemType(r.Type),
		ServiceID:    r.ServiceID,
		ReferenceID:  r.ReferenceID,
		Name:         r.Name,
		Price:        r.Price,
		Quantity:     r.Quantity,
		BillingCycle: r.BillingCycle,
	}
}
