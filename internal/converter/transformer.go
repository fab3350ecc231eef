// =============================================================================
// pain.001 Converter - Transformation Engine
// =============================================================================
//
// This module cleans raw cell values before they are mapped to transactions.
// Payment sheets exported from accounting systems rarely match what a bank
// expects: IBANs are printed in groups of four, references lack a prefix,
// service levels are spelled in the local language.
//
// TRANSFORMATION TYPES:
//   - String manipulations (trim, case conversion, prepend, append, truncate)
//   - Character removal (spaces, whitespace normalisation, regex replace)
//   - Date conversions
//   - Lookup table replacements
//   - Fallbacks for empty cells
//
// ORDER:
//   Rules run in configuration order; actions of a rule run in order. A rule
//   for a column missing from the sheet is skipped.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ginjaninja78/pain001-converter/internal/config"
	"github.com/ginjaninja78/pain001-converter/internal/types"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer handles column value transformations.
type Transformer struct {
	rules []config.TransformationRule
}

// NewTransformer creates a new Transformer with the given rules.
func NewTransformer(rules []config.TransformationRule) *Transformer {
	return &Transformer{
		rules: rules,
	}
}

// TransformRow applies every rule to the row in place.
//
// RETURNS:
//   - An error naming the column and action that failed.
func (t *Transformer) TransformRow(row *types.Row) error {
	for _, rule := range t.rules {
		value, exists := row.Fields[rule.Field]
		if !exists {
			continue
		}

		for _, action := range rule.Actions {
			var err error
			value, err = ApplyTransformation(value, action, row.Fields)
			if err != nil {
				return fmt.Errorf("column '%s': transformation '%s' failed: %w", rule.Field, action.Type, err)
			}
		}

		row.Fields[rule.Field] = value
	}
	return nil
}

// ApplyTransformation applies a single transformation action.
//
// PARAMETERS:
//   - value: The current value.
//   - action: The transformation action to apply.
//   - allFields: All fields in the current row (for if_empty_use_field).
//
// RETURNS:
//   - The transformed value.
//   - An error if the action is unknown or its parameters are invalid.
func ApplyTransformation(value string, action config.TransformationAction, allFields map[string]string) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "trim":
		return strings.TrimSpace(value), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "remove_spaces":
		// EXAMPLE:
		//   Input:  "DE89 3704 0044 0532 0130 00"
		//   Output: "DE89370400440532013000"
		return strings.Join(strings.Fields(value), ""), nil

	case "normalize_whitespace":
		return strings.Join(strings.Fields(value), " "), nil

	case "prepend_string":
		// EXAMPLE:
		//   Input:  "2026-0042"
		//   Action: prepend_string with value "INV-"
		//   Output: "INV-2026-0042"
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "pad_zeros_to_length":
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return "", fmt.Errorf("invalid length %q", action.Value)
		}
		return PadLeft(value, targetLength, '0'), nil

	case "truncate":
		// Cuts at a rune boundary, e.g. remittance text to 140 characters.
		limit, err := strconv.Atoi(action.Value)
		if err != nil || limit < 0 {
			return "", fmt.Errorf("invalid length %q", action.Value)
		}
		if utf8.RuneCountInString(value) <= limit {
			return value, nil
		}
		return string([]rune(value)[:limit]), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		if action.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	// =========================================================================
	// DATE CONVERSIONS
	// =========================================================================

	case "format_date":
		// VALUE FORMAT: "input_layout|output_layout" (Go layouts).
		//
		// EXAMPLE:
		//   Input:  "20.10.2026"
		//   Action: format_date with value "02.01.2006|2006-01-02"
		//   Output: "2026-10-20"
		parts := strings.Split(action.Value, "|")
		if len(parts) != 2 {
			return "", fmt.Errorf("value %q must be \"input_layout|output_layout\"", action.Value)
		}
		if strings.TrimSpace(value) == "" {
			return value, nil
		}

		t, err := time.Parse(strings.TrimSpace(parts[0]), strings.TrimSpace(value))
		if err != nil {
			return "", fmt.Errorf("cannot parse date %q: %w", value, err)
		}
		return t.Format(strings.TrimSpace(parts[1])), nil

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		// EXAMPLE:
		//   Input:  "Eilzahlung"
		//   Action: lookup with lookup_table {"Eilzahlung": "URGP"}
		//   Output: "URGP"
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	// =========================================================================
	// EMPTY CELL FALLBACKS
	// =========================================================================

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "if_empty_use_field":
		if strings.TrimSpace(value) == "" {
			if otherValue, exists := allFields[action.Value]; exists {
				return otherValue, nil
			}
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target length.
func PadLeft(s string, length int, padChar rune) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
