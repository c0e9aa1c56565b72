package spindexer

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"go.viam.com/spindexer/components/colorsensor"
	"go.viam.com/spindexer/utils"
)

// NumSlots is the number of storage slots on the carrier.
const NumSlots = 3

// SlotSpacingDeg is the angle between adjacent slot centers.
const SlotSpacingDeg = 360.0 / NumSlots

// SlotContent is what the indexer believes a slot holds.
type SlotContent int

// The slot contents.
const (
	Empty SlotContent = iota
	Unknown
	Green
	Purple
)

func (c SlotContent) String() string {
	switch c {
	case Empty:
		return "empty"
	case Unknown:
		return "unknown"
	case Green:
		return "green"
	case Purple:
		return "purple"
	default:
		return fmt.Sprintf("SlotContent(%d)", int(c))
	}
}

// IsFree reports whether an intake may put a piece into a slot with these contents.
func (c SlotContent) IsFree() bool {
	return c == Empty || c == Unknown
}

// IsColor reports whether the slot holds a classified piece.
func (c SlotContent) IsColor() bool {
	return c == Green || c == Purple
}

// ContentFromReading classifies a color sensor reading. A reading that is not confidently one
// color is Unknown.
func ContentFromReading(r colorsensor.Reading) SlotContent {
	switch {
	case r.Green && !r.Purple:
		return Green
	case r.Purple && !r.Green:
		return Purple
	default:
		return Unknown
	}
}

// SlotIndex returns the slot in front of the intake at the given carrier angle. It is periodic
// in 360 degrees and always in [0, NumSlots).
func SlotIndex(positionDeg float64) int {
	m := math.Mod(positionDeg/SlotSpacingDeg, NumSlots)
	if m < 0 {
		m += NumSlots
	}
	idx := int(math.Floor(m))
	if idx >= NumSlots {
		idx = 0
	}
	return idx
}

// validSlot reports whether i names a slot.
func validSlot(i int) bool {
	return i >= 0 && i < NumSlots
}

// slotGeometry is the angular layout of the carrier.
type slotGeometry struct {
	centerOffsetDeg     float64
	shootOffsetDeg      float64
	alignedToleranceDeg float64
}

func (g slotGeometry) intakeAngle(slot int) float64 {
	return utils.ModAngDeg(float64(slot)*SlotSpacingDeg + g.centerOffsetDeg)
}

func (g slotGeometry) shootAngle(slot int) float64 {
	return utils.ModAngDeg(g.intakeAngle(slot) + g.shootOffsetDeg)
}

// nearest picks the candidate whose angle is closest to positionDeg. A candidate already within
// the aligned tolerance wins over one that is nominally closer. It returns -1 with no candidates.
func (g slotGeometry) nearest(positionDeg float64, candidates []int, angle func(int) float64) int {
	best, bestDiff := -1, math.Inf(1)
	for _, c := range candidates {
		if utils.WithinAngleTolerance(positionDeg, angle(c), g.alignedToleranceDeg) {
			return c
		}
		if d := utils.AngleDiffDeg(positionDeg, angle(c)); d < bestDiff {
			best, bestDiff = c, d
		}
	}
	return best
}

// nextForward picks the candidate reached first when rotating forward from positionDeg, unless
// one is already aligned. It returns -1 with no candidates.
func (g slotGeometry) nextForward(positionDeg float64, candidates []int, angle func(int) float64) int {
	best, bestDist := -1, math.Inf(1)
	for _, c := range candidates {
		if utils.WithinAngleTolerance(positionDeg, angle(c), g.alignedToleranceDeg) {
			return c
		}
		if d := utils.ModAngDeg(angle(c) - positionDeg); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Inventory is the believed contents of every slot.
type Inventory [NumSlots]SlotContent

func (inv Inventory) String() string {
	parts := make([]string, NumSlots)
	for i, c := range inv {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// matching returns the slots whose contents satisfy keep, in slot order.
func (inv Inventory) matching(keep func(SlotContent) bool) []int {
	var out []int
	for i, c := range inv {
		if keep(c) {
			out = append(out, i)
		}
	}
	return out
}

// Slot returns the contents of slot i. Any index outside the carrier is Unknown.
func (s *Spindexer) Slot(i int) SlotContent {
	if !validSlot(i) {
		return Unknown
	}
	return s.slots[i]
}

// Slots returns a copy of the contents of every slot.
func (s *Spindexer) Slots() Inventory {
	return s.slots
}

// SetSlot records the contents of slot i. It reports false and changes nothing for an index
// outside the carrier.
func (s *Spindexer) SetSlot(i int, c SlotContent) bool {
	if !validSlot(i) {
		return false
	}
	if s.slots[i] != c {
		s.logger.Debugw("slot changed", "slot", i, "from", s.slots[i], "to", c)
	}
	s.slots[i] = c
	return true
}

// ClearSlot marks slot i empty.
func (s *Spindexer) ClearSlot(i int) bool {
	return s.SetSlot(i, Empty)
}

// ResetSlots forgets every slot's contents.
func (s *Spindexer) ResetSlots() {
	for i := range s.slots {
		s.slots[i] = Unknown
	}
}

// Count returns how many slots hold c.
func (s *Spindexer) Count(c SlotContent) int {
	return lo.Count(s.slots[:], c)
}

// IsFull reports whether no slot can take another piece.
func (s *Spindexer) IsFull() bool {
	return len(s.slots.matching(SlotContent.IsFree)) == 0
}

// FirstFree returns the lowest numbered free slot.
func (s *Spindexer) FirstFree() (int, bool) {
	free := s.slots.matching(SlotContent.IsFree)
	if len(free) == 0 {
		return -1, false
	}
	return free[0], true
}

// IntakeAngle returns the carrier angle that puts slot i in front of the intake.
func (s *Spindexer) IntakeAngle(i int) float64 {
	return s.geometry().intakeAngle(i)
}

// ShootAngle returns the carrier angle that puts slot i in front of the ejection port.
func (s *Spindexer) ShootAngle(i int) float64 {
	return s.geometry().shootAngle(i)
}

// IntakeSlotAt picks the slot an intake at carrier angle positionDeg should fill: the free slot
// already aligned with the intake, else the next free slot rotating forward.
func (s *Spindexer) IntakeSlotAt(positionDeg float64) (int, bool) {
	g := s.geometry()
	slot := g.nextForward(positionDeg, s.slots.matching(SlotContent.IsFree), g.intakeAngle)
	return slot, slot >= 0
}

// ShootSlotAt picks the slot to bring to the ejection port from carrier angle positionDeg. When
// want is Green or Purple only slots holding that color are considered first. Otherwise, or when
// none holds it, the nearest slot that may hold a piece is chosen, and failing that the nearest
// slot of all.
func (s *Spindexer) ShootSlotAt(positionDeg float64, want SlotContent) int {
	g := s.geometry()
	if want.IsColor() {
		if slot := g.nearest(positionDeg, s.slots.matching(func(c SlotContent) bool { return c == want }), g.shootAngle); slot >= 0 {
			return slot
		}
	}
	if slot := g.nearest(positionDeg, s.slots.matching(func(c SlotContent) bool { return c != Empty }), g.shootAngle); slot >= 0 {
		return slot
	}
	return g.nearest(positionDeg, lo.Range(NumSlots), g.shootAngle)
}

func (s *Spindexer) geometry() slotGeometry {
	return slotGeometry{
		centerOffsetDeg:     s.cfg.SlotCenterOffsetDeg,
		shootOffsetDeg:      s.cfg.ShootOffsetDeg,
		alignedToleranceDeg: s.cfg.AlignedToleranceDeg,
	}
}
