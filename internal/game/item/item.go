// Package item implements the item catalog, the two-slot inventory, and the
// tracked stat-effect engine.
package item

// ID identifies a catalog item.
type ID string

const (
	PowerFruit  ID = "power-fruit"
	Shield      ID = "shield"
	SpaceSword  ID = "space-sword"
	Boots       ID = "boots"
	Flag        ID = "flag"
	MasterKey   ID = "master-key"
	SpeedSkates ID = "speed-skates"
)

// Def describes one catalog entry. The stat deltas apply when the gate (if
// any) passes; Revert undoes exactly what Apply did.
type Def struct {
	ID ID
	// Stat deltas applied on pickup.
	Health, Speed, Attack, Defense int
	// Gate, when non-nil, must return true against the holder's stats for
	// the deltas to apply at all.
	Gate func(health, speed int) bool
}

// catalog holds every item definition. Flag, master-key, and speed-skates
// carry no stat deltas; they gate behavior in the bot and movement engines.
var catalog = map[ID]Def{
	PowerFruit: {
		ID:     PowerFruit,
		Attack: 4,
		Gate:   func(health, _ int) bool { return health < 4 },
	},
	Shield: {
		ID:     Shield,
		Health: 4,
		Gate:   func(_, speed int) bool { return speed < 4 },
	},
	SpaceSword: {
		ID:     SpaceSword,
		Attack: 2,
		Speed:  -1,
	},
	Boots: {
		ID:     Boots,
		Speed:  2,
		Health: -1,
	},
	Flag:        {ID: Flag},
	MasterKey:   {ID: MasterKey},
	SpeedSkates: {ID: SpeedSkates},
}

// Lookup returns the catalog entry for id.
//
// Postcondition: Returns (def, true) for every catalog ID, (Def{}, false) otherwise.
func Lookup(id ID) (Def, bool) {
	def, ok := catalog[id]
	return def, ok
}

// All returns every catalog ID in a stable order.
func All() []ID {
	return []ID{PowerFruit, Shield, SpaceSword, Boots, Flag, MasterKey, SpeedSkates}
}

// Placeable returns the catalog IDs eligible for random board placement:
// everything except the flag, which capture-the-flag boards pin explicitly.
func Placeable() []ID {
	return []ID{PowerFruit, Shield, SpaceSword, Boots, MasterKey, SpeedSkates}
}
