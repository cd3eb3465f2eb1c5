package hashindex

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotTombstone
	slotOccupied
)

type entry struct {
	key        string // as first inserted
	folded     string
	offsets    []int64
	duplicates int
}

type slot struct {
	state slotState
	entry *entry
}

// Table is a quadratic-probing hash table from keys to offset lists.
// It is not safe for concurrent use.
type Table struct {
	cfg        Config
	level      int
	slots      []slot
	occupied   int
	tombstones int
	offsets    int
}

// New returns an empty table sized to the first capacity of cfg.Primes.
func New(cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Primes = append([]int(nil), cfg.Primes...)
	return &Table{
		cfg:   cfg,
		slots: make([]slot, cfg.Primes[0]),
	}, nil
}

// Capacity returns the current number of slots.
func (t *Table) Capacity() int { return len(t.slots) }

// Len returns the number of distinct keys stored.
func (t *Table) Len() int { return t.occupied }

// Offsets returns the total number of offsets across all keys.
func (t *Table) Offsets() int { return t.offsets }

// Tombstones returns the number of deleted slots not yet reclaimed.
func (t *Table) Tombstones() int { return t.tombstones }

func fold(key string) string { return strings.ToLower(key) }

func (t *Table) home(folded string) int {
	return int(ElfHash(folded) % uint32(len(t.slots)))
}

// probe returns the slot visited on attempt i.
func (t *Table) probe(home, i int) int {
	step := (int64(i)*int64(i) + int64(i)) / 2
	return int((int64(home) + step%int64(len(t.slots))) % int64(len(t.slots)))
}

// Insert records offset under key. If key (compared case-insensitively) is
// already present the offset is appended to its list without consuming a new
// slot. The returned probe count is the attempt at which the key was placed.
//
// Insert returns *ErrCapacityExhausted, leaving the table unchanged, when
// storing a new key would require growing past the end of the prime ladder.
func (t *Table) Insert(key string, offset int64) (int, error) {
	folded := fold(key)
	for {
		match, free, probes := t.locate(folded)
		if match >= 0 {
			e := t.slots[match].entry
			e.offsets = append(e.offsets, offset)
			e.duplicates++
			t.offsets++
			return probes, nil
		}
		if free < 0 {
			// Probe sequence found no usable slot; grow and retry.
			if err := t.grow(); err != nil {
				return 0, err
			}
			continue
		}
		prev := t.slots[free]
		t.slots[free] = slot{state: slotOccupied, entry: &entry{
			key:     key,
			folded:  folded,
			offsets: []int64{offset},
		}}
		t.occupied++
		t.offsets++
		if prev.state == slotTombstone {
			t.tombstones--
		}
		if t.needsGrow(t.occupied, t.tombstones) {
			if err := t.grow(); err != nil {
				t.slots[free] = prev
				t.occupied--
				t.offsets--
				if prev.state == slotTombstone {
					t.tombstones++
				}
				return 0, err
			}
		}
		return probes, nil
	}
}

// locate probes for folded. match is the slot holding the key, or -1. free is
// the first tombstone or empty slot on the path, or -1. probes is the attempt
// number of whichever of the two the caller will use.
func (t *Table) locate(folded string) (match, free, probes int) {
	match, free = -1, -1
	home := t.home(folded)
	for i := 0; i < len(t.slots); i++ {
		idx := t.probe(home, i)
		s := &t.slots[idx]
		switch s.state {
		case slotOccupied:
			if s.entry.folded == folded {
				return idx, free, i
			}
		case slotTombstone:
			if free < 0 {
				free, probes = idx, i
			}
		case slotEmpty:
			if free < 0 {
				free, probes = idx, i
			}
			return match, free, probes
		}
	}
	return match, free, probes
}

func (t *Table) needsGrow(used, tombstones int) bool {
	return float64(used+tombstones) >= t.cfg.LoadFactor*float64(len(t.slots))
}

func (t *Table) exhausted() error {
	return &ErrCapacityExhausted{Capacity: len(t.slots), Len: t.occupied}
}

// grow moves every entry into a table of the next ladder capacity, dropping
// tombstones. The table is unchanged on error.
func (t *Table) grow() error {
	return t.growTo(t.level + 1)
}

// growTo rebuilds the table at ladder index level. If the probe sequence of
// some entry finds no empty slot at that size, the next size is tried.
func (t *Table) growTo(level int) error {
	for ; level < len(t.cfg.Primes); level++ {
		next := &Table{cfg: t.cfg, level: level, slots: make([]slot, t.cfg.Primes[level])}
		ok := true
		for _, s := range t.slots {
			if s.state == slotOccupied && !next.place(s.entry) {
				ok = false
				break
			}
		}
		if ok {
			t.level, t.slots = next.level, next.slots
			t.occupied, t.tombstones = next.occupied, 0
			return nil
		}
	}
	return t.exhausted()
}

// place seats e in the first empty slot of its probe sequence.
func (t *Table) place(e *entry) bool {
	home := t.home(e.folded)
	for i := 0; i < len(t.slots); i++ {
		idx := t.probe(home, i)
		if t.slots[idx].state == slotEmpty {
			t.slots[idx] = slot{state: slotOccupied, entry: e}
			t.occupied++
			return true
		}
	}
	return false
}

// FindAll returns a copy of the offsets stored under key, in insertion order.
func (t *Table) FindAll(key string) []int64 {
	e := t.lookup(fold(key))
	if e == nil {
		return nil
	}
	return append([]int64(nil), e.offsets...)
}

// Count returns the number of offsets stored under key. It follows the same
// probe sequence as FindAll.
func (t *Table) Count(key string) int {
	e := t.lookup(fold(key))
	if e == nil {
		return 0
	}
	return len(e.offsets)
}

// Duplicates returns how many offsets were merged into key after the first.
func (t *Table) Duplicates(key string) int {
	e := t.lookup(fold(key))
	if e == nil {
		return 0
	}
	return e.duplicates
}

// Contains reports whether key is present.
func (t *Table) Contains(key string) bool {
	return t.lookup(fold(key)) != nil
}

func (t *Table) lookup(folded string) *entry {
	match, _, _ := t.locate(folded)
	if match < 0 {
		return nil
	}
	return t.slots[match].entry
}

// Delete removes key and all of its offsets, leaving a tombstone.
func (t *Table) Delete(key string) bool {
	match, _, _ := t.locate(fold(key))
	if match < 0 {
		return false
	}
	t.offsets -= len(t.slots[match].entry.offsets)
	t.slots[match] = slot{state: slotTombstone}
	t.occupied--
	t.tombstones++
	return true
}

// Dump writes the occupied slots of the table to w:
//
//	Format of display is
//	Slot number: data record
//	Current table size is 1019
//	Number of elements in table is 2
//
//	17:	[ Abbey:VA, [ 1024 ]]
func (t *Table) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Format of display is\nSlot number: data record\nCurrent table size is %d\nNumber of elements in table is %d\n\n",
		len(t.slots), t.occupied)
	for i, s := range t.slots {
		if s.state != slotOccupied {
			continue
		}
		bw.WriteString(strconv.Itoa(i))
		bw.WriteString(":\t[ ")
		bw.WriteString(s.entry.key)
		bw.WriteString(", [ ")
		for _, off := range s.entry.offsets {
			bw.WriteString(strconv.FormatInt(off, 10))
			bw.WriteByte(' ')
		}
		bw.WriteString("]]\n")
	}
	return bw.Flush()
}
