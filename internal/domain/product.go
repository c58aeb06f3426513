package domain

// Product is a catalog entry. Prices are kept in minor units (cents).
type Product struct {
	SKU             string
	Name            string
	Description     string
	PriceMinorUnits int64
	ImageURL        string
	Category        string
}
