// Package pricing computes sale prices from feed money fields and applies
// dealer-supplied per-VIN overrides.
package pricing

import (
	"log/slog"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/alexsab-ru/carfeed/engine/schema"
)

// Calculator derives max_discount and sale_price for extracted records.
type Calculator struct {
	Log       *slog.Logger
	Overrides Overrides
}

// NewCalculator builds a Calculator; overrides may be nil.
func NewCalculator(log *slog.Logger, overrides Overrides) *Calculator {
	return &Calculator{Log: log, Overrides: overrides}
}

// Apply fills MaxDiscount and SalePrice in place.
//
// With desc.SumDiscounts the discount is credit + trade-in; otherwise the
// feed's own max_discount stands. A feed-supplied priceWithDiscount wins
// over the computed sale price. Overrides apply last and only lower the
// price, never raise it. A negative result is kept but logged so a broken
// source is visible without dropping the car.
func (c *Calculator) Apply(rec *domain.Record, desc schema.Descriptor) {
	if desc.SumDiscounts {
		if sum := rec.CreditDiscount + rec.TradeinDiscount; sum > 0 {
			rec.MaxDiscount = sum
		}
	}

	computed := rec.Price - rec.MaxDiscount
	if rec.SalePrice == 0 {
		rec.SalePrice = computed
	}

	if over, ok := c.Overrides.Lookup(rec.VIN); ok {
		c.applyOverride(rec, over)
	}

	if rec.SalePrice < 0 && c.Log != nil {
		c.Log.Warn("negative sale price",
			"vin", rec.VIN,
			"price", rec.Price,
			"max_discount", rec.MaxDiscount,
			"sale_price", rec.SalePrice)
	}
}

func (c *Calculator) applyOverride(rec *domain.Record, over Override) {
	final := over.FinalPrice
	if final == 0 && over.RRP > 0 && over.Discount > 0 {
		final = over.RRP - over.Discount
	}
	if final == 0 || final > rec.SalePrice {
		// Overrides only ever lower the listed price.
		return
	}
	// The sheet's RRP replaces the feed's list price, so the published
	// discount is measured against the recommended price.
	if over.RRP > 0 {
		rec.Price = over.RRP
	}
	rec.SalePrice = final
	if over.Discount > 0 {
		rec.MaxDiscount = over.Discount
	} else if rec.Price > 0 {
		rec.MaxDiscount = rec.Price - final
	}
	if c.Log != nil {
		c.Log.Info("price override applied", "vin", rec.VIN, "sale_price", final)
	}
}
