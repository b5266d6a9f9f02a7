package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alexsab-ru/carfeed/engine/domain"
)

// Writer emits canonical data/cars/car XML. Money fields are written only
// when positive; run and total always appear so downstream consumers never
// guess at defaults.
type Writer struct {
	Indent string
}

// NewWriter returns a Writer with two-space indentation.
func NewWriter() *Writer {
	return &Writer{Indent: "  "}
}

// Write renders the record set as a complete XML document.
func (w *Writer) Write(out io.Writer, records []*domain.Record) error {
	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", w.Indent)

	if err := start(enc, "data"); err != nil {
		return err
	}
	if err := start(enc, "cars"); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.writeCar(enc, rec); err != nil {
			return fmt.Errorf("feed: write %s: %w", rec.VIN, err)
		}
	}
	if err := end(enc, "cars"); err != nil {
		return err
	}
	if err := end(enc, "data"); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}

// WriteFile renders the record set to a file.
func (w *Writer) WriteFile(path string, records []*domain.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("feed: create %s: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, records)
}

func (w *Writer) writeCar(enc *xml.Encoder, rec *domain.Record) error {
	if err := start(enc, "car"); err != nil {
		return err
	}

	text := []struct{ tag, value string }{
		{"mark_id", rec.MarkID},
		{"folder_id", rec.FolderID},
		{"modification_id", rec.ModificationID},
		{"complectation_name", rec.ComplectationName},
		{"body_type", rec.BodyType},
		{"wheel", rec.Wheel},
		{"color", rec.Color},
		{"year", rec.Year},
		{"engineType", rec.EngineType},
		{"gearboxType", rec.GearboxType},
		{"drive_type", rec.DriveType},
		{"vin", rec.VIN},
		{"availability", rec.Availability},
	}
	for _, t := range text {
		if t.value == "" {
			continue
		}
		if err := elem(enc, t.tag, t.value); err != nil {
			return err
		}
	}

	if err := elem(enc, "run", strconv.Itoa(rec.Run)); err != nil {
		return err
	}
	if err := elem(enc, "total", strconv.Itoa(rec.Total)); err != nil {
		return err
	}

	money := []struct {
		tag   string
		value int
	}{
		{"price", rec.Price},
		{"priceWithDiscount", rec.SalePrice},
		{"sale_price", rec.SalePrice},
		{"max_discount", rec.MaxDiscount},
		{"credit_discount", rec.CreditDiscount},
		{"tradein_discount", rec.TradeinDiscount},
		{"insurance_discount", rec.InsuranceDiscount},
		{"optional_discount", rec.OptionalDiscount},
	}
	for _, m := range money {
		if m.value <= 0 {
			continue
		}
		if err := elem(enc, m.tag, strconv.Itoa(m.value)); err != nil {
			return err
		}
	}

	if rec.Description != "" {
		if err := elem(enc, "description", rec.Description); err != nil {
			return err
		}
	}

	if len(rec.Images) > 0 {
		if err := start(enc, "images"); err != nil {
			return err
		}
		for _, img := range rec.Images {
			if err := elem(enc, "image", img); err != nil {
				return err
			}
		}
		if err := end(enc, "images"); err != nil {
			return err
		}
	}

	return end(enc, "car")
}

func start(enc *xml.Encoder, tag string) error {
	return enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: tag}})
}

func end(enc *xml.Encoder, tag string) error {
	return enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: tag}})
}

func elem(enc *xml.Encoder, tag, value string) error {
	if err := start(enc, tag); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(value)); err != nil {
		return err
	}
	return end(enc, tag)
}
