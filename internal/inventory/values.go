// ABOUTME: Field value sets for inserts and updates, with validation
// ABOUTME: ParseValues normalizes string form input the way the item editor did

package inventory

import (
	"strconv"
	"strings"

	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/store"
)

// Values is a partial set of item fields. Nil fields are absent.
type Values = store.Fields

// Validation messages
const (
	msgNameRequired    = "name required"
	msgInvalidQuantity = "invalid quantity"
	msgInvalidPrice    = "invalid price"
)

// validate checks the present fields. When requireName is set, an absent
// name is an error as well.
func validate(v Values, requireName bool) error {
	if v.Name == nil {
		if requireName {
			return &ValidationError{Field: contract.ColumnName, Message: msgNameRequired}
		}
	} else if strings.TrimSpace(*v.Name) == "" {
		return &ValidationError{Field: contract.ColumnName, Message: msgNameRequired}
	}

	if v.Quantity != nil && *v.Quantity < 0 {
		return &ValidationError{Field: contract.ColumnQuantity, Message: msgInvalidQuantity}
	}

	if v.Price != nil && *v.Price < 0 {
		return &ValidationError{Field: contract.ColumnPrice, Message: msgInvalidPrice}
	}

	return nil
}

// formKeys maps accepted form keys to columns.
var formKeys = map[string]string{
	contract.ColumnName:        contract.ColumnName,
	contract.ColumnDescription: contract.ColumnDescription,
	"description":              contract.ColumnDescription,
	contract.ColumnQuantity:    contract.ColumnQuantity,
	contract.ColumnPrice:       contract.ColumnPrice,
}

// ParseValues builds Values from string input. Text is trimmed. A present
// quantity or price that is empty or not an integer becomes 0. Unknown keys
// are ignored.
func ParseValues(form map[string]string) Values {
	var v Values
	for key, raw := range form {
		column, ok := formKeys[key]
		if !ok {
			continue
		}
		text := strings.TrimSpace(raw)

		switch column {
		case contract.ColumnName:
			v.Name = &text
		case contract.ColumnDescription:
			v.Description = &text
		case contract.ColumnQuantity:
			v.Quantity = store.Int(parseCount(text))
		case contract.ColumnPrice:
			v.Price = store.Int(parseCount(text))
		}
	}
	return v
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
