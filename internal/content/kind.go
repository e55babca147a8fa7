package content

// Kind identifies one category of authored game content. The set is
// closed; adding a kind means adding a registry descriptor and a table
// name here, nothing else.
type Kind int

const (
	KindAnimation Kind = iota
	KindClass
	KindItem
	KindNpc
	KindProjectile
	KindResource
	KindShop
	KindSpell
	KindCraftTable
	KindCraft
	KindMap
	KindEvent
	KindPlayerVariable
	KindServerVariable
	KindGuildVariable
	KindTileset
	KindTime

	kindCount
)

var kindNames = [kindCount]string{
	KindAnimation:      "animation",
	KindClass:          "class",
	KindItem:           "item",
	KindNpc:            "npc",
	KindProjectile:     "projectile",
	KindResource:       "resource",
	KindShop:           "shop",
	KindSpell:          "spell",
	KindCraftTable:     "craft_table",
	KindCraft:          "craft",
	KindMap:            "map",
	KindEvent:          "event",
	KindPlayerVariable: "player_variable",
	KindServerVariable: "server_variable",
	KindGuildVariable:  "guild_variable",
	KindTileset:        "tileset",
	KindTime:           "time",
}

var kindTables = [kindCount]string{
	KindAnimation:      "animations",
	KindClass:          "classes",
	KindItem:           "items",
	KindNpc:            "npcs",
	KindProjectile:     "projectiles",
	KindResource:       "resources",
	KindShop:           "shops",
	KindSpell:          "spells",
	KindCraftTable:     "craft_tables",
	KindCraft:          "crafts",
	KindMap:            "maps",
	KindEvent:          "events",
	KindPlayerVariable: "player_variables",
	KindServerVariable: "server_variables",
	KindGuildVariable:  "guild_variables",
	KindTileset:        "tilesets",
	KindTime:           "time_of_day",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Table returns the backing store table holding records of this kind.
func (k Kind) Table() string {
	if k < 0 || k >= kindCount {
		return ""
	}
	return kindTables[k]
}

func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Kinds returns every content kind in its fixed declared order. The
// bulk loader and the cross-backend migrator both iterate this order.
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}
