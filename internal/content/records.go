package content

import "github.com/google/uuid"

// Thin content kinds. These carry just enough shape for the loader,
// editor CRUD and migrator to exercise; the game systems that consume
// them live outside this server core.

type AnimationRecord struct {
	Base

	Sound       string `json:"sound,omitempty"`
	LowerSprite string `json:"lower_sprite,omitempty"`
	UpperSprite string `json:"upper_sprite,omitempty"`
	LowerFrames int    `json:"lower_frames,omitempty"`
	UpperFrames int    `json:"upper_frames,omitempty"`
}

func (a *AnimationRecord) RecordKind() Kind { return KindAnimation }

type ItemRecord struct {
	Base

	ItemType    string    `json:"item_type,omitempty"`
	Picture     string    `json:"picture,omitempty"`
	Price       int       `json:"price,omitempty"`
	Stackable   bool      `json:"stackable,omitempty"`
	AnimationId uuid.UUID `json:"animation_id,omitempty"`
}

func (i *ItemRecord) RecordKind() Kind { return KindItem }

type NpcRecord struct {
	Base

	Sprite     string    `json:"sprite,omitempty"`
	Level      int       `json:"level,omitempty"`
	Aggressive bool      `json:"aggressive,omitempty"`
	SpawnTime  int       `json:"spawn_time,omitempty"`
	DropTable  uuid.UUID `json:"drop_table,omitempty"`
}

func (n *NpcRecord) RecordKind() Kind { return KindNpc }

type ProjectileRecord struct {
	Base

	Speed       int       `json:"speed,omitempty"`
	Range       int       `json:"range,omitempty"`
	AmmoItemId  uuid.UUID `json:"ammo_item_id,omitempty"`
	AnimationId uuid.UUID `json:"animation_id,omitempty"`
}

func (p *ProjectileRecord) RecordKind() Kind { return KindProjectile }

type ResourceRecord struct {
	Base

	InitialGraphic   string `json:"initial_graphic,omitempty"`
	ExhaustedGraphic string `json:"exhausted_graphic,omitempty"`
	MinHealth        int    `json:"min_health,omitempty"`
	MaxHealth        int    `json:"max_health,omitempty"`
}

func (r *ResourceRecord) RecordKind() Kind { return KindResource }

type ShopItem struct {
	ItemId     uuid.UUID `json:"item_id"`
	CostItemId uuid.UUID `json:"cost_item_id,omitempty"`
	CostAmount int       `json:"cost_amount,omitempty"`
}

type ShopRecord struct {
	Base

	BuysItems    bool       `json:"buys_items,omitempty"`
	SellingItems []ShopItem `json:"selling_items,omitempty"`
}

func (s *ShopRecord) RecordKind() Kind { return KindShop }

type SpellRecord struct {
	Base

	SpellType   string    `json:"spell_type,omitempty"`
	CastTime    int       `json:"cast_time,omitempty"`
	Cooldown    int       `json:"cooldown,omitempty"`
	AnimationId uuid.UUID `json:"animation_id,omitempty"`
}

func (s *SpellRecord) RecordKind() Kind { return KindSpell }

type CraftTableRecord struct {
	Base

	Crafts []uuid.UUID `json:"crafts,omitempty"`
}

func (c *CraftTableRecord) RecordKind() Kind { return KindCraftTable }

type CraftIngredient struct {
	ItemId   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type CraftRecord struct {
	Base

	ItemId      uuid.UUID         `json:"item_id,omitempty"`
	Time        int               `json:"time,omitempty"`
	Ingredients []CraftIngredient `json:"ingredients,omitempty"`
}

func (c *CraftRecord) RecordKind() Kind { return KindCraft }

type EventRecord struct {
	Base

	CommonEvent bool   `json:"common_event,omitempty"`
	Trigger     string `json:"trigger,omitempty"`
	Pages       int    `json:"pages,omitempty"`
}

func (e *EventRecord) RecordKind() Kind { return KindEvent }

type TilesetRecord struct {
	Base
}

func (t *TilesetRecord) RecordKind() Kind { return KindTileset }
