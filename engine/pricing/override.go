package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Override is one VIN's dealer price sheet row. The source JSON comes from
// a spreadsheet export, so the field names are the sheet's Russian column
// headers and numbers may arrive as strings with spaces.
type Override struct {
	FinalPrice int // "Конечная цена"
	Discount   int // "Скидка"
	RRP        int // "РРЦ"
}

// Overrides maps an uppercased VIN to its override row.
type Overrides map[string]Override

// Lookup finds the override for a VIN, case-insensitively.
func (o Overrides) Lookup(vin string) (Override, bool) {
	if o == nil {
		return Override{}, false
	}
	over, ok := o[strings.ToUpper(strings.TrimSpace(vin))]
	return over, ok
}

// ParseOverrides decodes the VIN-keyed override JSON.
func ParseOverrides(data []byte) (Overrides, error) {
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pricing: parse overrides: %w", err)
	}
	out := make(Overrides, len(raw))
	for vin, row := range raw {
		out[strings.ToUpper(strings.TrimSpace(vin))] = Override{
			FinalPrice: sheetInt(row["Конечная цена"]),
			Discount:   sheetInt(row["Скидка"]),
			RRP:        sheetInt(row["РРЦ"]),
		}
	}
	return out, nil
}

// LoadOverrides reads the override file; a missing file is an empty table.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pricing: read overrides: %w", err)
	}
	return ParseOverrides(data)
}

// sheetInt parses a spreadsheet cell that may be a JSON number or a string
// with thousands spaces. Anything unparseable is 0.
func sheetInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.ReplaceAll(s, " ", "")
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0
	}
	return v
}
