// Package domain defines the canonical vehicle record every feed dialect is
// normalized into, plus validation, slug building, and enum localization.
// It is the validation gate between raw feed elements and everything
// downstream (pricing, page emission, feed writing).
package domain

import (
	"slices"
	"strings"
)

// Canonical field names. Extractors map source-specific tags onto these;
// the slug, page front matter, and the canonical XML dialect all use them.
const (
	FieldVIN               = "vin"
	FieldMark              = "mark_id"
	FieldFolder            = "folder_id"
	FieldModification      = "modification_id"
	FieldComplectation     = "complectation_name"
	FieldBodyType          = "body_type"
	FieldColor             = "color"
	FieldDriveType         = "drive_type"
	FieldGearboxType       = "gearboxType"
	FieldEngineType        = "engineType"
	FieldWheel             = "wheel"
	FieldYear              = "year"
	FieldAvailability      = "availability"
	FieldDescription       = "description"
	FieldPrice             = "price"
	FieldMaxDiscount       = "max_discount"
	FieldSalePrice         = "sale_price"
	FieldCreditDiscount    = "credit_discount"
	FieldTradeinDiscount   = "tradein_discount"
	FieldInsuranceDiscount = "insurance_discount"
	FieldOptionalDiscount  = "optional_discount"
	FieldPriceWithDiscount = "priceWithDiscount"
	FieldRun               = "run"
	FieldTotal             = "total"
)

// Record is the canonical representation of one vehicle, independent of the
// source feed dialect. It lives only for the duration of one pipeline run;
// durable state is the emitted page file.
type Record struct {
	VIN string

	MarkID            string
	FolderID          string
	ModificationID    string
	ComplectationName string
	BodyType          string
	Color             string
	DriveType         string
	GearboxType       string
	EngineType        string
	Wheel             string

	Price             int
	MaxDiscount       int
	SalePrice         int
	CreditDiscount    int
	TradeinDiscount   int
	InsuranceDiscount int
	OptionalDiscount  int

	Description  string
	Year         string
	Run          int
	Availability string
	Total        int

	// Images is ordered; the first URL is the cover image.
	Images []string

	FriendlyURL string
	URL         string

	// Extra holds source fields outside the canonical set, passed through to
	// page front matter and the canonical feed untouched.
	Extra map[string]string
}

// Field returns the value of a canonical string field by name. Unknown names
// fall back to Extra.
func (r *Record) Field(name string) string {
	switch name {
	case FieldVIN:
		return r.VIN
	case FieldMark:
		return r.MarkID
	case FieldFolder:
		return r.FolderID
	case FieldModification:
		return r.ModificationID
	case FieldComplectation:
		return r.ComplectationName
	case FieldBodyType:
		return r.BodyType
	case FieldColor:
		return r.Color
	case FieldDriveType:
		return r.DriveType
	case FieldGearboxType:
		return r.GearboxType
	case FieldEngineType:
		return r.EngineType
	case FieldWheel:
		return r.Wheel
	case FieldYear:
		return r.Year
	case FieldAvailability:
		return r.Availability
	case FieldDescription:
		return r.Description
	}
	return r.Extra[name]
}

// SetField assigns a canonical string field by name. Unknown names land in
// Extra so quirky per-feed fields survive the round trip.
func (r *Record) SetField(name, value string) {
	switch name {
	case FieldVIN:
		r.VIN = value
	case FieldMark:
		r.MarkID = value
	case FieldFolder:
		r.FolderID = value
	case FieldModification:
		r.ModificationID = value
	case FieldComplectation:
		r.ComplectationName = value
	case FieldBodyType:
		r.BodyType = value
	case FieldColor:
		r.Color = value
	case FieldDriveType:
		r.DriveType = value
	case FieldGearboxType:
		r.GearboxType = value
	case FieldEngineType:
		r.EngineType = value
	case FieldWheel:
		r.Wheel = value
	case FieldYear:
		r.Year = value
	case FieldAvailability:
		r.Availability = value
	case FieldDescription:
		r.Description = value
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[name] = value
	}
}

// Join concatenates the trimmed, non-empty values of the named fields with
// single spaces, in the order given.
func (r *Record) Join(fields ...string) string {
	var parts []string
	for _, f := range fields {
		if v := strings.TrimSpace(r.Field(f)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Merge folds a duplicate sighting of the same VIN into r: totals sum, run
// and sale price take the minimum, images extend without repeats. The first
// sighting keeps all other fields, so source order stays priority order.
func (r *Record) Merge(other *Record) {
	r.Total += other.Total
	if other.Run < r.Run {
		r.Run = other.Run
	}
	if other.SalePrice > 0 && (r.SalePrice == 0 || other.SalePrice < r.SalePrice) {
		r.SalePrice = other.SalePrice
	}
	for _, img := range other.Images {
		if !slices.Contains(r.Images, img) {
			r.Images = append(r.Images, img)
		}
	}
}

// VINHidden returns the redacted form shown on pages: first five and last
// four characters.
func (r *Record) VINHidden() string {
	if len(r.VIN) < 9 {
		return r.VIN
	}
	return r.VIN[:5] + "-" + r.VIN[len(r.VIN)-4:]
}
