package feed

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alexsab-ru/carfeed/engine/domain"
	"github.com/alexsab-ru/carfeed/engine/schema"
	"github.com/antchfx/xmlquery"
	"github.com/google/uuid"
)

// Canonical fields carried as integers on the record.
var intFields = map[string]bool{
	domain.FieldPrice:             true,
	domain.FieldMaxDiscount:       true,
	domain.FieldCreditDiscount:    true,
	domain.FieldTradeinDiscount:   true,
	domain.FieldInsuranceDiscount: true,
	domain.FieldOptionalDiscount:  true,
	domain.FieldPriceWithDiscount: true,
	domain.FieldRun:               true,
	domain.FieldTotal:             true,
}

// YML <param name="..."> labels mapped onto canonical fields.
var ymlParamFields = map[string]string{
	"VIN":         domain.FieldVIN,
	"Год выпуска": domain.FieldYear,
	"Кузов":       domain.FieldBodyType,
	"Руль":        domain.FieldWheel,
	"Цвет":        domain.FieldColor,
	"ПТС":         "pts_type",
	"Двигатель":   "engine_info",
	"Привод":      domain.FieldDriveType,
	"КПП":         domain.FieldGearboxType,
	"Поколение":   "generation",
	"Модель":      "model_name",
}

// Discount amounts regex-extracted from YML free-text sales notes.
var (
	ymlMaxDiscount       = regexp.MustCompile(`Максимальная скидка: (\d+)`)
	ymlTradeinDiscount   = regexp.MustCompile(`trade-in до (\d+)`)
	ymlCreditDiscount    = regexp.MustCompile(`в кредит до (\d+)`)
	ymlInsuranceDiscount = regexp.MustCompile(`страховки до (\d+)`)
)

// Extractor turns raw record elements of one dialect into canonical records.
type Extractor struct {
	Desc schema.Descriptor
}

// NewExtractor creates an Extractor for a schema descriptor.
func NewExtractor(desc schema.Descriptor) *Extractor {
	return &Extractor{Desc: desc}
}

// Extract walks one record element and produces a validated canonical
// record. It returns a *ValidationError (wrapping the missing/placeholder
// sentinel) when the element does not describe a usable vehicle.
func (e *Extractor) Extract(node *xmlquery.Node) (*domain.Record, error) {
	rec := &domain.Record{Total: 1}

	for canonical, aliases := range e.Desc.FieldMap {
		value := ""
		for _, alias := range aliases {
			if v := childText(node, alias); v != "" {
				value = v
				break
			}
		}
		if value == "" {
			continue
		}
		e.setField(rec, canonical, value)
	}

	rec.Images = e.extractImages(node)

	if e.Desc.Kind == schema.KindYML {
		e.enrichYML(rec, node)
	}

	if err := domain.Validate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (e *Extractor) setField(rec *domain.Record, canonical, value string) {
	if !intFields[canonical] {
		rec.SetField(canonical, value)
		return
	}
	n := atoi(value)
	switch canonical {
	case domain.FieldPrice:
		rec.Price = n
	case domain.FieldMaxDiscount:
		rec.MaxDiscount = n
	case domain.FieldCreditDiscount:
		rec.CreditDiscount = n
	case domain.FieldTradeinDiscount:
		rec.TradeinDiscount = n
	case domain.FieldInsuranceDiscount:
		rec.InsuranceDiscount = n
	case domain.FieldOptionalDiscount:
		rec.OptionalDiscount = n
	case domain.FieldPriceWithDiscount:
		rec.SalePrice = n
	case domain.FieldRun:
		rec.Run = n
	case domain.FieldTotal:
		if n > 0 {
			rec.Total = n
		}
	}
}

// extractImages reads the ordered image URL list. An empty ImageContainer
// means items sit directly under the record node; an empty ImageURLAttr
// means the URL is the element text. Text URLs may be space- or
// pipe-delimited lists.
func (e *Extractor) extractImages(node *xmlquery.Node) []string {
	if e.Desc.ImageItem == "" {
		return nil
	}
	container := node
	if e.Desc.ImageContainer != "" {
		container = childElement(node, e.Desc.ImageContainer)
		if container == nil {
			return nil
		}
	}
	var urls []string
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode || c.Data != e.Desc.ImageItem {
			continue
		}
		if e.Desc.ImageURLAttr != "" {
			if u := c.SelectAttr(e.Desc.ImageURLAttr); u != "" {
				urls = append(urls, u)
			}
			continue
		}
		urls = append(urls, SplitURLList(c.InnerText())...)
	}
	return urls
}

// enrichYML fills canonical fields YML catalogs carry as <param> elements
// and sales notes, and synthesizes a VIN when the source has none.
func (e *Extractor) enrichYML(rec *domain.Record, node *xmlquery.Node) {
	modelName := ""
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode || c.Data != "param" {
			continue
		}
		name := c.SelectAttr("name")
		canonical, ok := ymlParamFields[name]
		if !ok {
			continue
		}
		value := strings.TrimSpace(c.InnerText())
		if value == "" {
			continue
		}
		if canonical == "model_name" {
			modelName = value
			continue
		}
		rec.SetField(canonical, value)
	}

	// The model element carries the full modification string; the "Модель"
	// param carries the bare model name.
	if m := childText(node, "model"); m != "" {
		rec.ModificationID = m
	}
	if modelName != "" {
		rec.FolderID = modelName
	}

	if notes := childText(node, "sales_notes"); notes != "" {
		if m := ymlMaxDiscount.FindStringSubmatch(notes); m != nil {
			rec.MaxDiscount = atoi(m[1])
		}
		if m := ymlTradeinDiscount.FindStringSubmatch(notes); m != nil {
			rec.TradeinDiscount = atoi(m[1])
		}
		if m := ymlCreditDiscount.FindStringSubmatch(notes); m != nil {
			rec.CreditDiscount = atoi(m[1])
		}
		if m := ymlInsuranceDiscount.FindStringSubmatch(notes); m != nil {
			rec.InsuranceDiscount = atoi(m[1])
		}
	}

	// New cars; YML catalogs never carry mileage.
	rec.Run = 0

	if rec.VIN == "" {
		rec.VIN = synthesizeVIN(rec.MarkID, rec.FolderID, rec.Year)
	}
	if rec.Availability == "" {
		rec.Availability = childText(node, "available")
	}
}

// synthesizeVIN builds a pseudo-VIN for feeds without one: vendor, model and
// year concatenated plus a random suffix for uniqueness. Returns "" when the
// base fields are missing, which validation then rejects.
func synthesizeVIN(vendor, model, year string) string {
	if vendor == "" || model == "" || year == "" {
		return ""
	}
	base := strings.ToUpper(strings.ReplaceAll(vendor+model+year, " ", ""))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return base + suffix
}

// SplitURLList splits a space- or pipe-delimited URL list.
func SplitURLList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '|'
	})
}

// atoi parses a feed integer: spaces tolerated, anything unparseable is 0.
func atoi(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", ""))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
