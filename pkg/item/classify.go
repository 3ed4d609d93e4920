package item

import (
	"strings"

	"github.com/questweaver/questweaver/pkg/stats"
)

// Classification is the item classifier's verdict for a name.
type Classification struct {
	Type    Type
	Bonuses stats.Block
}

var weaponWords = []string{
	"sword", "blade", "dagger", "knife", "axe", "mace", "hammer",
	"spear", "bow", "crossbow", "staff", "wand", "pistol", "rifle",
	"club", "whip", "scythe", "halberd", "katana", "saber", "sabre",
}

var armorWords = []string{
	"armor", "armour", "mail", "plate", "shield", "helm", "helmet",
	"cuirass", "breastplate", "gauntlet", "greaves", "cloak", "robe",
	"vest", "jacket", "leather",
}

var accessoryWords = []string{
	"ring", "amulet", "necklace", "pendant", "charm", "talisman",
	"bracelet", "brooch", "circlet", "band", "earring", "medallion",
	"trinket",
}

// bonusWords maps flavor keywords to the stat axis they enhance.
var bonusWords = map[string]stats.Type{
	"strength": stats.Strength, "mighty": stats.Strength, "giant": stats.Strength,
	"swift": stats.Dexterity, "agile": stats.Dexterity, "nimble": stats.Dexterity,
	"sturdy": stats.Constitution, "vitality": stats.Constitution, "health": stats.Constitution,
	"wise": stats.Intelligence, "arcane": stats.Intelligence, "scholar": stats.Intelligence,
	"charming": stats.Charisma, "silver": stats.Charisma, "noble": stats.Charisma,
	"keen": stats.Perception, "eagle": stats.Perception, "seeing": stats.Perception,
	"lucky": stats.Luck, "fortune": stats.Luck, "gambler": stats.Luck,
}

// Classify is the pure keyword classifier consumed by the reconciler's
// item intake step. Unknown names fall through to misc with no bonuses.
func Classify(name string) Classification {
	lower := strings.ToLower(name)

	c := Classification{Type: TypeMisc}
	switch {
	case containsAny(lower, weaponWords):
		c.Type = TypeWeapon
	case containsAny(lower, armorWords):
		c.Type = TypeArmor
	case containsAny(lower, accessoryWords):
		c.Type = TypeAccessory
	}

	for word, stat := range bonusWords {
		if strings.Contains(lower, word) {
			if c.Bonuses == nil {
				c.Bonuses = stats.Block{}
			}
			c.Bonuses[stat] += 1
		}
	}

	// Equippable gear always carries at least a minimal bonus keyed to
	// its slot, so equipping is never a pure no-op.
	if c.Bonuses == nil && c.Type != TypeMisc {
		switch c.Type {
		case TypeWeapon:
			c.Bonuses = stats.Block{stats.Strength: 1}
		case TypeArmor:
			c.Bonuses = stats.Block{stats.Constitution: 1}
		case TypeAccessory:
			c.Bonuses = stats.Block{stats.Luck: 1}
		}
	}

	return c
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
