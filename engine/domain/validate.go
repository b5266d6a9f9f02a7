package domain

import "strings"

// Placeholder strings some spreadsheet exports leave in data rows. A record
// whose mandatory field equals one of these is a header artifact, not a car.
var placeholders = map[string]bool{
	"обязательный":      true,
	"обязательное поле": true,
	"required":          true,
	"-":                 true,
	"—":                 true,
}

// mandatory fields: a record without these is never emitted.
var mandatoryFields = []string{FieldVIN, FieldMark, FieldFolder}

// Validate checks that the record carries a usable identity: VIN, mark and
// model present and not placeholder sentinels.
func Validate(r *Record) error {
	for _, f := range mandatoryFields {
		v := strings.TrimSpace(r.Field(f))
		if v == "" {
			return NewValidationError(f, v, ErrMissingField)
		}
		if placeholders[strings.ToLower(v)] {
			return NewValidationError(f, v, ErrPlaceholderValue)
		}
	}
	return nil
}
