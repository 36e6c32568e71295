package compiler

import (
	"math"

	"github.com/sapphire-lang/sapphire/errors"
)

// Locals assigns stack-frame slots to local variable names. Slots are
// allocated in order of first appearance and never reused.
type Locals struct {
	byName map[string]uint16
	names  []string
}

// NewLocals returns an empty slot table.
func NewLocals() *Locals {
	return &Locals{byName: map[string]uint16{}}
}

// Slot returns the slot for name, allocating the next free one if the name
// has not been seen.
func (l *Locals) Slot(name string) (uint16, error) {
	if idx, ok := l.byName[name]; ok {
		return idx, nil
	}
	if len(l.names) >= math.MaxUint16 {
		return 0, errors.OperandOverflow("too many local variables")
	}
	idx := uint16(len(l.names))
	l.byName[name] = idx
	l.names = append(l.names, name)
	return idx, nil
}

// Lookup returns the slot for an already allocated name.
func (l *Locals) Lookup(name string) (uint16, bool) {
	idx, ok := l.byName[name]
	return idx, ok
}

// Count returns the number of allocated slots.
func (l *Locals) Count() int {
	return len(l.names)
}

// Names returns the local names in slot order.
func (l *Locals) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}
