// Package item models inventory items and provides the keyword
// classifier that turns AI-supplied item names into typed items.
package item

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/questweaver/questweaver/pkg/stats"
)

// Type determines which equip slot an item may occupy.
type Type string

const (
	TypeWeapon    Type = "weapon"
	TypeArmor     Type = "armor"
	TypeAccessory Type = "accessory"
	TypeMisc      Type = "misc"
)

// ParseType resolves a wire-format item type, defaulting to misc.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weapon":
		return TypeWeapon
	case "armor", "armour":
		return TypeArmor
	case "accessory":
		return TypeAccessory
	default:
		return TypeMisc
	}
}

// Item is a single inventory item. The ID is stable for the item's
// lifetime within a game session.
type Item struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Type        Type        `json:"type"`
	Bonuses     stats.Block `json:"bonuses,omitempty"`
	Description string      `json:"description,omitempty"`
}

// NameEquals compares item names case-insensitively.
func (it Item) NameEquals(name string) bool {
	return strings.EqualFold(it.Name, name)
}

var titleCaser = cases.Title(language.English)

// CanonicalName normalizes an AI-supplied item name for display.
func CanonicalName(name string) string {
	return titleCaser.String(strings.TrimSpace(name))
}
