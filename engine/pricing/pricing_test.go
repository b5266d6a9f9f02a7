package pricing

import (
	"testing"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/alexsab-ru/carfeed/engine/schema"
)

func desc(t *testing.T, k schema.Kind) schema.Descriptor {
	t.Helper()
	d, ok := schema.Lookup(k)
	if !ok {
		t.Fatalf("no descriptor for %v", k)
	}
	return d
}

func TestApplySummedDiscounts(t *testing.T) {
	rec := &domain.Record{
		VIN:             "V1",
		Price:           2000000,
		CreditDiscount:  100000,
		TradeinDiscount: 50000,
	}
	NewCalculator(nil, nil).Apply(rec, desc(t, schema.KindDataCars))
	if rec.MaxDiscount != 150000 {
		t.Errorf("max_discount = %d, want 150000", rec.MaxDiscount)
	}
	if rec.SalePrice != 1850000 {
		t.Errorf("sale_price = %d, want 1850000", rec.SalePrice)
	}
}

func TestApplyDirectDiscount(t *testing.T) {
	rec := &domain.Record{
		VIN:         "V1",
		Price:       2000000,
		MaxDiscount: 120000,
		// Single-discount dialects ignore the sub-discounts entirely.
		CreditDiscount: 500000,
	}
	NewCalculator(nil, nil).Apply(rec, desc(t, schema.KindAdsAd))
	if rec.MaxDiscount != 120000 {
		t.Errorf("max_discount = %d, want 120000", rec.MaxDiscount)
	}
	if rec.SalePrice != 1880000 {
		t.Errorf("sale_price = %d, want 1880000", rec.SalePrice)
	}
}

func TestApplyFeedSalePriceWins(t *testing.T) {
	rec := &domain.Record{
		VIN:         "V1",
		Price:       2000000,
		SalePrice:   1800000,
		MaxDiscount: 100000,
	}
	NewCalculator(nil, nil).Apply(rec, desc(t, schema.KindAdsAd))
	if rec.SalePrice != 1800000 {
		t.Errorf("sale_price = %d, want feed value 1800000", rec.SalePrice)
	}
}

func TestApplyNegativeSalePriceKept(t *testing.T) {
	rec := &domain.Record{VIN: "V1", Price: 100000, MaxDiscount: 150000}
	NewCalculator(nil, nil).Apply(rec, desc(t, schema.KindAdsAd))
	if rec.SalePrice != -50000 {
		t.Errorf("sale_price = %d, want -50000 passthrough", rec.SalePrice)
	}
}

func TestOverrideLowersPrice(t *testing.T) {
	overrides := Overrides{"V1": {FinalPrice: 1700000}}
	rec := &domain.Record{VIN: "v1", Price: 2000000, MaxDiscount: 150000}
	NewCalculator(nil, overrides).Apply(rec, desc(t, schema.KindAdsAd))
	if rec.SalePrice != 1700000 {
		t.Errorf("sale_price = %d, want override 1700000", rec.SalePrice)
	}
	if rec.MaxDiscount != 300000 {
		t.Errorf("max_discount = %d, want recomputed 300000", rec.MaxDiscount)
	}
}

func TestOverrideNeverRaisesPrice(t *testing.T) {
	overrides := Overrides{"V1": {FinalPrice: 1950000}}
	rec := &domain.Record{VIN: "V1", Price: 2000000, MaxDiscount: 150000}
	NewCalculator(nil, overrides).Apply(rec, desc(t, schema.KindAdsAd))
	if rec.SalePrice != 1850000 {
		t.Errorf("sale_price = %d, want computed 1850000 kept", rec.SalePrice)
	}
}

func TestOverrideAdoptsRRPAsPrice(t *testing.T) {
	overrides := Overrides{"V1": {FinalPrice: 1850000, Discount: 150000, RRP: 2000000}}
	rec := &domain.Record{VIN: "V1", Price: 2050000, MaxDiscount: 150000}
	NewCalculator(nil, overrides).Apply(rec, desc(t, schema.KindAdsAd))
	if rec.Price != 2000000 {
		t.Errorf("price = %d, want RRP 2000000", rec.Price)
	}
	if rec.SalePrice != 1850000 || rec.MaxDiscount != 150000 {
		t.Errorf("sale/discount = %d/%d", rec.SalePrice, rec.MaxDiscount)
	}
}

func TestOverrideFromRRP(t *testing.T) {
	overrides := Overrides{"V1": {RRP: 2000000, Discount: 400000}}
	rec := &domain.Record{VIN: "V1", Price: 2000000, MaxDiscount: 100000}
	NewCalculator(nil, overrides).Apply(rec, desc(t, schema.KindAdsAd))
	if rec.SalePrice != 1600000 {
		t.Errorf("sale_price = %d, want 1600000", rec.SalePrice)
	}
	if rec.MaxDiscount != 400000 {
		t.Errorf("max_discount = %d, want 400000", rec.MaxDiscount)
	}
}

func TestParseOverrides(t *testing.T) {
	data := []byte(`{
		"x7lasra1200000001": {"Конечная цена": 1700000, "Скидка": "300 000"},
		"V2": {"РРЦ": "2 500 000"}
	}`)
	overrides, err := ParseOverrides(data)
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}
	over, ok := overrides.Lookup("X7LASRA1200000001")
	if !ok {
		t.Fatal("VIN lookup failed")
	}
	if over.FinalPrice != 1700000 || over.Discount != 300000 {
		t.Errorf("override = %+v", over)
	}
	if over, _ := overrides.Lookup("v2"); over.RRP != 2500000 {
		t.Errorf("RRP = %d", over.RRP)
	}
}

func TestLoadOverridesMissingFile(t *testing.T) {
	overrides, err := LoadOverrides("/nonexistent/prices.json")
	if err != nil || overrides != nil {
		t.Errorf("missing file should yield empty table, got %v, %v", overrides, err)
	}
}
