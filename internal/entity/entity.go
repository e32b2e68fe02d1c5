// Package entity defines the closed set of catalog entity types the tool can
// migrate, along with the per-type metadata the rest of the engine needs:
// display labels for both platforms, the sync modes the type legally supports,
// and the natural-key fields used to match source records to target records.
package entity

import "fmt"

type Type string

const (
	Articles  Type = "articles"
	Customers Type = "customers"
	Orders    Type = "orders"
)

// Mode selects the write semantics for one sync invocation. It is chosen once
// per invocation and applies uniformly to every id in that invocation.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
	ModeUpsert Mode = "upsert"
)

// Descriptor carries the static metadata for one entity type.
type Descriptor struct {
	SourceLabel string
	TargetLabel string

	// SupportedModes is empty for read-only types. Shopify orders are created
	// via checkout and can never be written through the Admin API.
	SupportedModes []Mode

	// NaturalKeyPath addresses the natural key on the source record,
	// e.g. mainDetail.number for articles.
	NaturalKeyPath string

	// NaturalKeyName is the target-side name of the key, used in lookups and
	// error messages (sku, email).
	NaturalKeyName string
}

var descriptors = map[Type]Descriptor{
	Articles: {
		SourceLabel:    "Shopware 5 Articles",
		TargetLabel:    "Shopify Products",
		SupportedModes: []Mode{ModeCreate, ModeUpdate, ModeUpsert},
		NaturalKeyPath: "mainDetail.number",
		NaturalKeyName: "sku",
	},
	Customers: {
		SourceLabel:    "Shopware 5 Customers",
		TargetLabel:    "Shopify Customers",
		SupportedModes: []Mode{ModeCreate, ModeUpdate, ModeUpsert},
		NaturalKeyPath: "email",
		NaturalKeyName: "email",
	},
	Orders: {
		SourceLabel:    "Shopware 5 Orders",
		TargetLabel:    "Shopify Orders (read-only)",
		SupportedModes: nil,
		NaturalKeyPath: "number",
		NaturalKeyName: "order number",
	},
}

func Parse(s string) (Type, error) {
	t := Type(s)
	if _, ok := descriptors[t]; !ok {
		return "", fmt.Errorf("unknown entity type: %s", s)
	}
	return t, nil
}

func All() []Type {
	return []Type{Articles, Customers, Orders}
}

func (t Type) Describe() Descriptor {
	return descriptors[t]
}

func (t Type) String() string {
	return string(t)
}

// SupportsMode reports whether writes in the given mode are legal for this
// entity type.
func (t Type) SupportsMode(mode Mode) bool {
	for _, m := range descriptors[t].SupportedModes {
		if m == mode {
			return true
		}
	}
	return false
}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCreate, ModeUpdate, ModeUpsert:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown sync mode: %s (expected create, update or upsert)", s)
}
