package domain

// ProductView is the display shape of a product inside a reply.
type ProductView struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
	Category string `json:"category"`
}

// CartLineView is the display shape of a cart line.
type CartLineView struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceTotal string `json:"price_total"`
}

// CartView is the display shape of a whole cart.
type CartView struct {
	Items []CartLineView `json:"items"`
	Total string         `json:"total"`
}

// Reply is the chat response payload. Optional fields are omitted when unset.
type Reply struct {
	Reply       string        `json:"reply"`
	Products    []ProductView `json:"products,omitempty"`
	Cart        *CartView     `json:"cart,omitempty"`
	PaymentLink string        `json:"payment_link,omitempty"`
}
