package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alexsab-ru/carfeed/engine/domain"
)

// Cyrillic spreadsheet headers mapped onto canonical fields.
var csvHeaderFields = map[string]string{
	"VIN":             domain.FieldVIN,
	"Марка":           domain.FieldMark,
	"Модель":          domain.FieldFolder,
	"Модификация":     domain.FieldModification,
	"Комплектация":    domain.FieldComplectation,
	"Кузов":           domain.FieldBodyType,
	"Цвет":            domain.FieldColor,
	"Год":             domain.FieldYear,
	"Руль":            domain.FieldWheel,
	"Привод":          domain.FieldDriveType,
	"КПП":             domain.FieldGearboxType,
	"Топливо":         domain.FieldEngineType,
	"Цена":            domain.FieldPrice,
	"Скидка":          domain.FieldMaxDiscount,
	"Пробег":          domain.FieldRun,
	"Наличие":         domain.FieldAvailability,
	"Описание":        domain.FieldDescription,
	"Картинки":        "images",
	"Металлик":        "metallic",
	"Валюта":          "currency",
	"Количество":      domain.FieldTotal,
	"Скидка кредит":   domain.FieldCreditDiscount,
	"Скидка трейд-ин": domain.FieldTradeinDiscount,
}

// Values spreadsheets leave blank but the canonical feed requires.
var csvDefaults = map[string]string{
	domain.FieldWheel:        "Левый",
	"metallic":               "нет",
	domain.FieldAvailability: "в наличии",
	domain.FieldDriveType:    "Передний",
	domain.FieldEngineType:   "Бензин",
	"currency":               "RUR",
}

// ReadCSV ingests a Cyrillic-header inventory spreadsheet. Rows without a
// VIN are skipped, not an error: dealers keep notes and totals rows in the
// same sheet. Rows failing validation (placeholder or missing mandatory
// values) are likewise skipped and logged so one broken row never loses the
// rest of the batch. The separator is auto-detected between comma and
// semicolon.
func ReadCSV(r io.Reader, log *slog.Logger) ([]*domain.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("feed: read csv: %w", err)
	}
	text := strings.TrimPrefix(string(data), string(utf8BOM))

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = detectComma(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("feed: csv header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = csvHeaderFields[strings.TrimSpace(h)]
	}

	var records []*domain.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: csv row: %w", err)
		}
		rec := csvRecord(cols, row)
		if rec.VIN == "" {
			continue
		}
		if err := domain.Validate(rec); err != nil {
			if log != nil {
				log.Warn("csv row skipped", "vin", rec.VIN, "err", err)
			}
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("feed: csv: %w", domain.ErrEmptyFeed)
	}
	return records, nil
}

func csvRecord(cols, row []string) *domain.Record {
	rec := &domain.Record{Total: 1}
	for i, cell := range row {
		if i >= len(cols) || cols[i] == "" {
			continue
		}
		value := strings.TrimSpace(cell)
		if value == "" {
			continue
		}
		switch cols[i] {
		case domain.FieldPrice:
			rec.Price = atoi(value)
		case domain.FieldMaxDiscount:
			rec.MaxDiscount = atoi(value)
		case domain.FieldCreditDiscount:
			rec.CreditDiscount = atoi(value)
		case domain.FieldTradeinDiscount:
			rec.TradeinDiscount = atoi(value)
		case domain.FieldRun:
			rec.Run = atoi(value)
		case domain.FieldTotal:
			if n := atoi(value); n > 0 {
				rec.Total = n
			}
		case "images":
			rec.Images = SplitURLList(value)
		default:
			rec.SetField(cols[i], value)
		}
	}
	for field, def := range csvDefaults {
		if rec.Field(field) == "" {
			rec.SetField(field, def)
		}
	}
	return rec
}

// detectComma picks the delimiter by counting candidates in the header line.
func detectComma(text string) rune {
	head, _, _ := strings.Cut(text, "\n")
	if strings.Count(head, ";") > strings.Count(head, ",") {
		return ';'
	}
	return ','
}
