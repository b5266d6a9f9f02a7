package domain

import (
	"errors"
	"testing"
)

func TestValidate_OK(t *testing.T) {
	r := &Record{VIN: "X7LASRA1200000001", MarkID: "Geely", FolderID: "Coolray"}
	if err := Validate(r); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cases := []*Record{
		{MarkID: "Geely", FolderID: "Coolray"},
		{VIN: "X7LASRA1200000001", FolderID: "Coolray"},
		{VIN: "X7LASRA1200000001", MarkID: "Geely"},
		{VIN: "   ", MarkID: "Geely", FolderID: "Coolray"},
	}
	for i, r := range cases {
		if !errors.Is(Validate(r), ErrMissingField) {
			t.Errorf("case %d: expected ErrMissingField", i)
		}
	}
}

func TestValidate_Placeholder(t *testing.T) {
	r := &Record{VIN: "Обязательный", MarkID: "Geely", FolderID: "Coolray"}
	err := Validate(r)
	if !errors.Is(err, ErrPlaceholderValue) {
		t.Fatalf("expected ErrPlaceholderValue, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != FieldVIN {
		t.Errorf("expected ValidationError on %s, got %+v", FieldVIN, ve)
	}
}

func TestRecordJoin(t *testing.T) {
	r := &Record{MarkID: " Geely ", FolderID: "Coolray", ModificationID: ""}
	if got := r.Join(FieldMark, FieldFolder, FieldModification); got != "Geely Coolray" {
		t.Errorf("Join = %q", got)
	}
}

func TestRecordSetFieldExtra(t *testing.T) {
	r := &Record{}
	r.SetField("currency", "RUR")
	if r.Field("currency") != "RUR" {
		t.Error("extra field did not round-trip")
	}
	r.SetField(FieldColor, "Белый")
	if r.Color != "Белый" {
		t.Error("canonical field not set")
	}
}

func TestRecordMerge(t *testing.T) {
	first := &Record{
		VIN:       "X7LASRA1200000001",
		MarkID:    "Geely",
		Price:     2000000,
		SalePrice: 1900000,
		Run:       500,
		Total:     1,
		Images:    []string{"https://img/1.jpg"},
	}
	second := &Record{
		VIN:       "X7LASRA1200000001",
		MarkID:    "GEELY MOTORS",
		Price:     1990000,
		SalePrice: 1850000,
		Run:       300,
		Total:     1,
		Images:    []string{"https://img/1.jpg", "https://img/2.jpg"},
	}
	first.Merge(second)

	if first.Total != 2 {
		t.Errorf("total = %d, want summed 2", first.Total)
	}
	if first.Run != 300 {
		t.Errorf("run = %d, want min 300", first.Run)
	}
	if first.SalePrice != 1850000 {
		t.Errorf("sale_price = %d, want min 1850000", first.SalePrice)
	}
	if len(first.Images) != 2 || first.Images[1] != "https://img/2.jpg" {
		t.Errorf("images = %v", first.Images)
	}
	// Everything else stays with the first sighting.
	if first.MarkID != "Geely" || first.Price != 2000000 {
		t.Errorf("first-source fields overwritten: %q/%d", first.MarkID, first.Price)
	}
}

func TestRecordMergeZeroSalePriceIgnored(t *testing.T) {
	first := &Record{VIN: "V1", SalePrice: 1850000, Total: 1}
	first.Merge(&Record{VIN: "V1", SalePrice: 0, Total: 1})
	if first.SalePrice != 1850000 {
		t.Errorf("sale_price = %d, zero duplicate must not win", first.SalePrice)
	}
}

func TestVINHidden(t *testing.T) {
	r := &Record{VIN: "X7LASRA1200000001"}
	if got := r.VINHidden(); got != "X7LAS-0001" {
		t.Errorf("VINHidden = %q", got)
	}
}

func TestLocalize(t *testing.T) {
	cases := map[string]string{
		"hybrid":    "Гибрид",
		"front":     "Передний",
		"automatic": "Автомат",
		"grey":      "Серый",
		"unknown":   "unknown",
	}
	for in, want := range cases {
		if got := Localize(in); got != want {
			t.Errorf("Localize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocalizeRecord(t *testing.T) {
	r := &Record{EngineType: "petrol", DriveType: "front", Color: "white"}
	LocalizeRecord(r, []string{FieldEngineType, FieldDriveType, FieldColor})
	if r.EngineType != "Бензин" || r.DriveType != "Передний" || r.Color != "Белый" {
		t.Errorf("LocalizeRecord left %+v", r)
	}
}
