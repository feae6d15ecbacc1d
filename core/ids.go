package core

// Slot is a dense, internal identifier naming one logical record's
// position across all per-column bitmap structures.
// It is strictly 32-bit, allowing for max 4 Billion records per index.
// Used for all hot-path structures (position bitmaps, length bitmaps,
// tombstones, free-list).
type Slot uint32

// MaxSlot is the maximum possible value for a Slot.
const MaxSlot = ^Slot(0)
