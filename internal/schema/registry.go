// =============================================================================
// pain.001 Converter - Schema Registry
// =============================================================================
//
// This package holds the closed set of pain.001 schema variants the converter
// can produce, together with a capability table describing how each variant
// differs from the others.
//
// VARIANTS:
//   pain.001.003.03        EU legacy (German DK). Accepts any transaction.
//   pain.001.002.03        EU legacy (EPC). BIC + SEPA service level only.
//   pain.001.001.09        Current EU. BICFI, wrapped execution date.
//   pain.001.001.09.ch.03  Swiss. As 001.09, CHF, no SEPA service level block.
//   pain.001.001.03.ch.02  Swiss legacy. BIC, CHF, no SEPA service level block.
//
// ADDING A VARIANT:
//   Add one constant and one row to the capability table. The assembler and
//   the validator only ever consult the flags, never the variant name.
//
// =============================================================================

package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedVariant is returned for schema names outside the registry.
var ErrUnsupportedVariant = errors.New("unsupported schema variant")

// Variant identifies a pain.001 schema variant.
type Variant string

const (
	Pain00100303     Variant = "pain.001.003.03"
	Pain00100203     Variant = "pain.001.002.03"
	Pain00100109     Variant = "pain.001.001.09"
	Pain00100109CH03 Variant = "pain.001.001.09.ch.03"
	Pain00100103CH02 Variant = "pain.001.001.03.ch.02"
)

// Currency codes used by the variants.
const (
	CurrencyEUR = "EUR"
	CurrencyCHF = "CHF"
)

// Capabilities describes the structural differences of one variant.
type Capabilities struct {
	// Variant is the identifier of the row.
	Variant Variant

	// Namespace is the default xmlns of the Document element.
	Namespace string

	// SchemaLocation, when set, is emitted as xsi:schemaLocation.
	SchemaLocation string

	// UsesBICFI selects "BICFI" instead of "BIC" for agent identifiers.
	UsesBICFI bool

	// WrapsExecutionDate nests the requested execution date in a <Dt> child.
	WrapsExecutionDate bool

	// OmitsServiceLevelForSEPA suppresses the service level block for groups
	// whose service level is SEPA.
	OmitsServiceLevelForSEPA bool

	// AcceptsAnyTransaction disables the BIC / SEPA compatibility rule.
	AcceptsAnyTransaction bool

	// Currency is the ISO 4217 code of every instructed amount.
	Currency string
}

// AgentFieldName returns the element name used for agent BICs.
func (c Capabilities) AgentFieldName() string {
	if c.UsesBICFI {
		return "BICFI"
	}
	return "BIC"
}

// variantOrder is the order used by All.
var variantOrder = []Variant{
	Pain00100303,
	Pain00100203,
	Pain00100109,
	Pain00100109CH03,
	Pain00100103CH02,
}

// capabilityTable is read-only after package initialisation.
var capabilityTable = map[Variant]Capabilities{
	Pain00100303: {
		Variant:               Pain00100303,
		Namespace:             "urn:iso:std:iso:20022:tech:xsd:pain.001.003.03",
		SchemaLocation:        "urn:iso:std:iso:20022:tech:xsd:pain.001.003.03 pain.001.003.03.xsd",
		AcceptsAnyTransaction: true,
		Currency:              CurrencyEUR,
	},
	Pain00100203: {
		Variant:        Pain00100203,
		Namespace:      "urn:iso:std:iso:20022:tech:xsd:pain.001.002.03",
		SchemaLocation: "urn:iso:std:iso:20022:tech:xsd:pain.001.002.03 pain.001.002.03.xsd",
		Currency:       CurrencyEUR,
	},
	Pain00100109: {
		Variant:            Pain00100109,
		Namespace:          "urn:iso:std:iso:20022:tech:xsd:pain.001.001.09",
		SchemaLocation:     "urn:iso:std:iso:20022:tech:xsd:pain.001.001.09 pain.001.001.09.xsd",
		UsesBICFI:          true,
		WrapsExecutionDate: true,
		Currency:           CurrencyEUR,
	},
	Pain00100109CH03: {
		Variant:                  Pain00100109CH03,
		Namespace:                "urn:iso:std:iso:20022:tech:xsd:pain.001.001.09",
		SchemaLocation:           "urn:iso:std:iso:20022:tech:xsd:pain.001.001.09 pain.001.001.09.ch.03.xsd",
		UsesBICFI:                true,
		WrapsExecutionDate:       true,
		OmitsServiceLevelForSEPA: true,
		Currency:                 CurrencyCHF,
	},
	Pain00100103CH02: {
		Variant:                  Pain00100103CH02,
		Namespace:                "http://www.six-interbank-clearing.com/de/pain.001.001.03.ch.02.xsd",
		SchemaLocation:           "http://www.six-interbank-clearing.com/de/pain.001.001.03.ch.02.xsd pain.001.001.03.ch.02.xsd",
		OmitsServiceLevelForSEPA: true,
		Currency:                 CurrencyCHF,
	},
}

// Lookup returns the capability row for a variant.
func Lookup(v Variant) (Capabilities, error) {
	caps, ok := capabilityTable[v]
	if !ok {
		return Capabilities{}, fmt.Errorf("%w: %q", ErrUnsupportedVariant, string(v))
	}
	return caps, nil
}

// Parse resolves a schema name as written in configuration files or flags.
// Matching ignores case and surrounding whitespace.
func Parse(name string) (Variant, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, v := range variantOrder {
		if string(v) == normalized {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedVariant, name)
}

// All returns every supported variant in registry order.
func All() []Variant {
	out := make([]Variant, len(variantOrder))
	copy(out, variantOrder)
	return out
}

// String implements fmt.Stringer.
func (v Variant) String() string {
	return string(v)
}
