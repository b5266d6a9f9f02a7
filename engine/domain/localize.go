package domain

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// translations maps enumerated source codes to the display strings pages
// use. Unknown values pass through unchanged; this is a lookup table, not an
// i18n system.
var translations = map[string]string{
	// engineType
	"hybrid":         "Гибрид",
	"petrol":         "Бензин",
	"diesel":         "Дизель",
	"petrol_and_gas": "Бензин и газ",
	"electric":       "Электро",

	// driveType
	"full_4wd":     "Постоянный полный",
	"optional_4wd": "Подключаемый полный",
	"front":        "Передний",
	"rear":         "Задний",

	// gearboxType
	"robotized": "Робот",
	"variator":  "Вариатор",
	"manual":    "Механика",
	"automatic": "Автомат",

	// transmission
	"RT":  "Робот",
	"CVT": "Вариатор",
	"MT":  "Механика",
	"AT":  "Автомат",

	// ptsType
	"duplicate":  "Дубликат",
	"original":   "Оригинал",
	"electronic": "Электронный",

	// bodyColor
	"black":  "Черный",
	"white":  "Белый",
	"blue":   "Синий",
	"gray":   "Серый",
	"grey":   "Серый",
	"silver": "Серебристый",
	"brown":  "Коричневый",
	"red":    "Красный",
	"azure":  "Лазурный",
	"beige":  "Бежевый",

	// steeringWheel
	"left":  "Левый",
	"right": "Правый",
	"L":     "Левый",
	"R":     "Правый",

	// bodyType
	"suv": "SUV",
}

var titleCaser = cases.Title(language.Russian)

// Localize translates an enumerated source value into its display string.
// Unknown values pass through unchanged.
func Localize(v string) string {
	if t, ok := translations[v]; ok {
		return t
	}
	return v
}

// LocalizeRecord applies Localize to the named canonical fields in place.
func LocalizeRecord(r *Record, fields []string) {
	for _, f := range fields {
		if v := r.Field(f); v != "" {
			r.SetField(f, Localize(v))
		}
	}
}

// TitleColor normalizes a color value for display ("красный" -> "Красный").
func TitleColor(color string) string {
	return titleCaser.String(color)
}
