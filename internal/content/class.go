package content

// Stat and vital indexes into a class's baseline arrays.
const (
	StatAttack = iota
	StatAbilityPower
	StatDefense
	StatMagicResist
	StatSpeed

	StatCount
)

const (
	VitalHealth = iota
	VitalMana

	VitalCount
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ClassSprite struct {
	Sprite string `json:"sprite"`
	Face   string `json:"face,omitempty"`
	Gender Gender `json:"gender"`
}

type ClassRecord struct {
	Base

	Sprites    []ClassSprite   `json:"sprites,omitempty"`
	BaseStats  [StatCount]int  `json:"base_stats"`
	BaseVitals [VitalCount]int `json:"base_vitals"`
	BaseExp    int             `json:"base_exp,omitempty"`
	Locked     bool            `json:"locked,omitempty"`
}

func (c *ClassRecord) RecordKind() Kind { return KindClass }
