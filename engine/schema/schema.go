// Package schema holds the closed set of supported feed dialects. Each Kind
// carries a Descriptor: where the record nodes live, how source tags map
// onto canonical fields, how images are extracted, and which fields need
// localization. Descriptors are immutable; unsupported dialects are a typed
// lookup failure, not a runtime dict miss.
package schema

import "github.com/alexsab-ru/carfeed/engine/domain"

// Kind identifies a supported feed dialect.
type Kind int

const (
	KindUnknown  Kind = iota
	KindAdsAd         // Avito-style Ads/Ad
	KindDataCars      // canonical data/cars/car
	KindVehicles      // vehicles/vehicle, aliased offer, optionally under catalog/
	KindCarcopy       // carcopy/offers/offer with hyphenated field names
	KindYML           // Yandex Market yml_catalog/shop/offers/offer
)

var kindNames = map[Kind]string{
	KindAdsAd:    "Ads-Ad",
	KindDataCars: "data-cars-car",
	KindVehicles: "vehicles-vehicle",
	KindCarcopy:  "carcopy-offers-offer",
	KindYML:      "yml_catalog-shop-offers-offer",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind resolves a CLI source-type name to a Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// Names lists the accepted source-type names, for CLI usage strings.
func Names() []string {
	return []string{
		KindAdsAd.String(), KindDataCars.String(), KindVehicles.String(),
		KindCarcopy.String(), KindYML.String(),
	}
}

// Descriptor describes one dialect's shape. FieldMap values are alias lists;
// the first non-empty source tag wins. An empty ImageContainer means image
// items sit directly under the record node; an empty ImageURLAttr means the
// URL is element text.
type Descriptor struct {
	Kind        Kind
	RecordsPath string // XPath selecting record nodes from the document root

	FieldMap map[string][]string

	ImageContainer string
	ImageItem      string
	ImageURLAttr   string

	Localize []string

	// SumDiscounts selects the discount rule: credit + trade-in summed,
	// versus a single pre-computed max_discount field.
	SumDiscounts bool
}

var descriptors = map[Kind]Descriptor{
	KindAdsAd: {
		Kind: KindAdsAd,
		// Some exporters rename the Ads root but keep <Ad> records, so the
		// selection cannot anchor on the root tag.
		RecordsPath: "//Ad",
		FieldMap: map[string][]string{
			domain.FieldVIN:             {"VIN"},
			domain.FieldMark:            {"Make"},
			domain.FieldFolder:          {"Model"},
			domain.FieldModification:    {"Modification"},
			domain.FieldComplectation:   {"Complectation"},
			domain.FieldBodyType:        {"BodyType"},
			domain.FieldDriveType:       {"DriveType"},
			domain.FieldGearboxType:     {"Transmission"},
			domain.FieldWheel:           {"WheelType"},
			domain.FieldEngineType:      {"FuelType"},
			domain.FieldColor:           {"Color"},
			domain.FieldPrice:           {"Price"},
			domain.FieldMaxDiscount:     {"MaxDiscount"},
			domain.FieldTradeinDiscount: {"TradeinDiscount"},
			domain.FieldYear:            {"Year"},
			domain.FieldAvailability:    {"Availability"},
			domain.FieldDescription:     {"Description"},
		},
		ImageContainer: "Images",
		ImageItem:      "Image",
		ImageURLAttr:   "url",
		Localize: []string{
			domain.FieldEngineType, domain.FieldDriveType, domain.FieldGearboxType,
			domain.FieldColor, domain.FieldBodyType, domain.FieldWheel,
		},
	},
	KindDataCars: {
		Kind:        KindDataCars,
		RecordsPath: "/data/cars/car",
		FieldMap: map[string][]string{
			domain.FieldVIN:               {"vin"},
			domain.FieldMark:              {"mark_id"},
			domain.FieldFolder:            {"folder_id"},
			domain.FieldModification:      {"modification_id"},
			domain.FieldComplectation:     {"complectation_name"},
			domain.FieldYear:              {"year"},
			domain.FieldColor:             {"color"},
			domain.FieldPrice:             {"price"},
			domain.FieldMaxDiscount:       {"max_discount"},
			domain.FieldTradeinDiscount:   {"tradein_discount"},
			domain.FieldCreditDiscount:    {"credit_discount"},
			domain.FieldInsuranceDiscount: {"insurance_discount"},
			domain.FieldOptionalDiscount:  {"optional_discount"},
			domain.FieldPriceWithDiscount: {"priceWithDiscount"},
			domain.FieldDescription:       {"description"},
			domain.FieldBodyType:          {"body_type"},
			domain.FieldDriveType:         {"drive", "drive_type"},
			domain.FieldGearboxType:       {"gearbox", "gearboxType"},
			domain.FieldWheel:             {"wheel"},
			domain.FieldEngineType:        {"engine_type", "engineType"},
			domain.FieldRun:               {"run"},
			domain.FieldTotal:             {"total"},
			domain.FieldAvailability:      {"availability"},
		},
		ImageContainer: "images",
		ImageItem:      "image",
		Localize: []string{
			domain.FieldEngineType, domain.FieldDriveType, domain.FieldGearboxType,
			domain.FieldColor, domain.FieldBodyType, domain.FieldWheel,
		},
		SumDiscounts: true,
	},
	KindVehicles: {
		Kind:        KindVehicles,
		RecordsPath: "/vehicles/vehicle|/vehicles/offer|/catalog/vehicles/vehicle",
		FieldMap: map[string][]string{
			domain.FieldVIN:               {"vin"},
			domain.FieldMark:              {"brand"},
			domain.FieldFolder:            {"model"},
			domain.FieldModification:      {"modification"},
			domain.FieldComplectation:     {"complectation"},
			domain.FieldYear:              {"year"},
			domain.FieldColor:             {"bodyColor"},
			domain.FieldPrice:             {"price"},
			domain.FieldMaxDiscount:       {"maxDiscount"},
			domain.FieldTradeinDiscount:   {"tradeinDiscount"},
			domain.FieldCreditDiscount:    {"creditDiscount"},
			domain.FieldInsuranceDiscount: {"insuranceDiscount"},
			domain.FieldPriceWithDiscount: {"priceWithDiscount"},
			domain.FieldDescription:       {"description"},
			domain.FieldBodyType:          {"bodyType"},
			domain.FieldDriveType:         {"driveType"},
			domain.FieldGearboxType:       {"gearboxType"},
			domain.FieldWheel:             {"steeringWheel"},
			domain.FieldEngineType:        {"engineType"},
			domain.FieldRun:               {"mileage"},
			domain.FieldAvailability:      {"availability"},
		},
		ImageContainer: "photos",
		ImageItem:      "photo",
		Localize: []string{
			domain.FieldEngineType, domain.FieldDriveType, domain.FieldGearboxType,
			domain.FieldColor, domain.FieldBodyType, domain.FieldWheel,
		},
		SumDiscounts: true,
	},
	KindCarcopy: {
		Kind:        KindCarcopy,
		RecordsPath: "/carcopy/offers/offer",
		FieldMap: map[string][]string{
			domain.FieldVIN:           {"vin"},
			domain.FieldMark:          {"make"},
			domain.FieldFolder:        {"model"},
			domain.FieldModification:  {"version"},
			domain.FieldComplectation: {"complectation"},
			domain.FieldYear:          {"year"},
			domain.FieldColor:         {"color"},
			domain.FieldPrice:         {"price"},
			domain.FieldMaxDiscount:   {"max-discount"},
			domain.FieldDescription:   {"description"},
			domain.FieldBodyType:      {"body-type"},
			domain.FieldDriveType:     {"drive-type"},
			domain.FieldGearboxType:   {"gearbox"},
			domain.FieldWheel:         {"steering-wheel"},
			domain.FieldEngineType:    {"engine-type"},
			domain.FieldRun:           {"run"},
			domain.FieldAvailability:  {"availability"},
		},
		ImageContainer: "images",
		ImageItem:      "image",
		Localize: []string{
			domain.FieldEngineType, domain.FieldDriveType, domain.FieldGearboxType,
			domain.FieldColor, domain.FieldBodyType, domain.FieldWheel,
		},
	},
	KindYML: {
		Kind:        KindYML,
		RecordsPath: "/yml_catalog/shop/offers/offer",
		FieldMap: map[string][]string{
			// VIN, year, color, body, drive, gearbox, wheel and the discounts
			// live in <param> elements and sales_notes; see the extractor.
			domain.FieldMark:        {"vendor"},
			domain.FieldFolder:      {"model"},
			domain.FieldPrice:       {"price"},
			domain.FieldDescription: {"description"},
		},
		ImageItem: "picture",
		Localize: []string{
			domain.FieldEngineType, domain.FieldDriveType, domain.FieldGearboxType,
			domain.FieldColor, domain.FieldBodyType, domain.FieldWheel,
		},
	},
}

// Lookup returns the Descriptor for a Kind.
func Lookup(k Kind) (Descriptor, bool) {
	d, ok := descriptors[k]
	return d, ok
}
