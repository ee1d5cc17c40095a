package item

// SlotCount is the fixed inventory capacity.
const SlotCount = 2

// Inventory is the fixed two-slot item container. The zero value is an
// empty inventory. Not synchronized; the owning room serializes access.
type Inventory struct {
	slots [SlotCount]ID
}

// Add places id into the first empty slot.
//
// Postcondition: Returns false (and mutates nothing) when both slots are
// occupied; there is no implicit eviction.
func (inv *Inventory) Add(id ID) bool {
	for i := range inv.slots {
		if inv.slots[i] == "" {
			inv.slots[i] = id
			return true
		}
	}
	return false
}

// Remove clears the first slot holding id.
//
// Postcondition: Returns false when id is not present.
func (inv *Inventory) Remove(id ID) bool {
	for i := range inv.slots {
		if inv.slots[i] == id {
			inv.slots[i] = ""
			return true
		}
	}
	return false
}

// Holds reports whether any slot contains id.
func (inv *Inventory) Holds(id ID) bool {
	for _, s := range inv.slots {
		if s == id {
			return true
		}
	}
	return false
}

// Full reports whether both slots are occupied.
func (inv *Inventory) Full() bool {
	for _, s := range inv.slots {
		if s == "" {
			return false
		}
	}
	return true
}

// First returns the item in the first occupied slot, used by the bot's
// throw-before-moving behavior.
//
// Postcondition: Returns ("", false) when the inventory is empty.
func (inv *Inventory) First() (ID, bool) {
	for _, s := range inv.slots {
		if s != "" {
			return s, true
		}
	}
	return "", false
}

// Items returns the occupied slots in order.
func (inv *Inventory) Items() []ID {
	var out []ID
	for _, s := range inv.slots {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Slots returns the raw slot array, empty slots as "".
func (inv *Inventory) Slots() [SlotCount]ID { return inv.slots }
