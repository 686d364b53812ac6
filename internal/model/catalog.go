package model

// Product is the sellable good; pricing defaults live here and variants may
// override them.
type Product struct {
	BaseModel
	SoftDelete
	Name           string `db:"name" json:"name"`
	BasePriceCents int64  `db:"base_price_cents" json:"base_price_cents"`
	IsActive       bool   `db:"is_active" json:"is_active"`
}

// ProductVariant is the stocked unit (a concrete color/size). stock_qty is
// the on-hand count kept in lockstep with the movement ledger.
type ProductVariant struct {
	BaseModel
	SoftDelete
	ProductID  int64   `db:"product_id" json:"product_id"`
	SKU        string  `db:"sku" json:"sku"`
	Color      *string `db:"color" json:"color,omitempty"`
	Size       *string `db:"size" json:"size,omitempty"`
	StockQty   int     `db:"stock_qty" json:"stock_qty"`
	PriceCents *int64  `db:"price_cents" json:"price_cents,omitempty"`
}

// UnitPriceCents resolves the effective price: the variant override when set,
// else the product base price.
func (v *ProductVariant) UnitPriceCents(p *Product) int64 {
	if v.PriceCents != nil {
		return *v.PriceCents
	}
	return p.BasePriceCents
}
