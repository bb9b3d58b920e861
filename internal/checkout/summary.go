package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/uistate"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// DefaultTaxRate is the flat value-added tax applied to every order.
var DefaultTaxRate = decimal.New(10, -2)

// Summary is what the buyer will be charged, in won.
type Summary struct {
	RegularSubtotal  int64 `json:"regular_subtotal"`
	ServiceSubtotal  int64 `json:"service_subtotal"`
	Subtotal         int64 `json:"subtotal"`
	Tax              int64 `json:"tax"`
	Total            int64 `json:"total"`
	IsEmpty          bool  `json:"is_empty"`
	ItemCount        int   `json:"item_count"`
	ServiceItemCount int   `json:"service_item_count"`
}

// Compute aggregates the server cart and the drawer's service items. A nil
// cart contributes nothing. Tax is rounded half-up to whole won.
func Compute(c *models.Cart, serviceItems []uistate.ServiceCartItem, taxRate decimal.Decimal) Summary {
	regular := cart.Subtotal(c)
	services := uistate.SumServiceItems(serviceItems)
	subtotal := regular + services
	tax := decimal.NewFromInt(subtotal).Mul(taxRate).Round(0).IntPart()

	regularLines := 0
	if c != nil {
		regularLines = len(c.Items)
	}

	return Summary{
		RegularSubtotal:  regular,
		ServiceSubtotal:  services,
		Subtotal:         subtotal,
		Tax:              tax,
		Total:            subtotal + tax,
		IsEmpty:          regularLines == 0 && len(serviceItems) == 0,
		ItemCount:        cart.ItemCount(c),
		ServiceItemCount: len(serviceItems),
	}
}
