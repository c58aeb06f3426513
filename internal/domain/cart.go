package domain

import "time"

// CartItem is one product row in a session's cart. (SessionID, SKU) is unique.
type CartItem struct {
	SessionID string    `json:"session_id" bson:"-"`
	SKU       string    `json:"sku" bson:"sku"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
}

// CartLine is a cart item joined with the product it references.
type CartLine struct {
	Item    CartItem
	Product Product
}

// LineTotal returns price * quantity in minor units.
func (l CartLine) LineTotal() int64 {
	return l.Product.PriceMinorUnits * int64(l.Item.Quantity)
}

// CartTotal sums the line totals in minor units.
func CartTotal(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}
