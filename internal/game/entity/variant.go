package entity

import "fmt"

// PlayerMesh is the mesh players are drawn with.
const PlayerMesh = "player_00"

// Mob is the variant for living entities. It has no persistent state of its
// own yet.
type Mob struct{}

// Initialize implements Variant. Mobs take no arguments.
func (m *Mob) Initialize(args any) error {
	if args != nil {
		return fmt.Errorf("%w: mob takes none, got %T", ErrBadArgs, args)
	}
	return nil
}

// Encode implements Variant.
func (m *Mob) Encode(*Blob) {}

// Mesh implements Variant.
func (m *Mob) Mesh() string { return PlayerMesh }

// Item identifies a stack of blocks.
type Item struct {
	ID    uint32
	Count uint32
}

// Item IDs, each drawn with the block mesh it names.
const (
	ItemDirt uint32 = iota
	ItemGrass
	ItemSand
	ItemTree
	ItemWater
)

var itemMeshes = [...]string{
	ItemDirt:  "dirt_00",
	ItemGrass: "grass_00",
	ItemSand:  "sand_00",
	ItemTree:  "tree_00",
	ItemWater: "water_00",
}

// ItemDrop is the variant for an item lying in the world.
type ItemDrop struct {
	Item Item
}

// Initialize implements Variant. args may be an Item or *Item; nil gives one
// dirt block.
func (d *ItemDrop) Initialize(args any) error {
	switch a := args.(type) {
	case nil:
		d.Item = Item{ID: ItemDirt, Count: 1}
	case Item:
		d.Item = a
	case *Item:
		if a == nil {
			return fmt.Errorf("%w: nil *Item", ErrBadArgs)
		}
		d.Item = *a
	default:
		return fmt.Errorf("%w: item takes Item, got %T", ErrBadArgs, args)
	}
	return nil
}

// Encode implements Variant.
func (d *ItemDrop) Encode(b *Blob) {
	b.Uint32(&d.Item.ID)
	b.Uint32(&d.Item.Count)
}

// Mesh implements Variant. Unknown IDs draw as dirt.
func (d *ItemDrop) Mesh() string {
	if int(d.Item.ID) < len(itemMeshes) {
		return itemMeshes[d.Item.ID]
	}
	return itemMeshes[ItemDirt]
}
