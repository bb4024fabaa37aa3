package builtins

import (
	"errors"
	"sort"
)

const (
	// DefaultCapacity is the number of slots in a registry created with
	// NewRegistry. It is prime so every probe sequence visits every slot.
	DefaultCapacity = 211

	// Multipliers for the two polynomial hashes.
	primaryMultiplier   = 151
	secondaryMultiplier = 163
)

// ErrRegistryFull is returned when no free slot remains for a new name.
var ErrRegistryFull = errors.New("builtin registry full")

type entry struct {
	name string
	fn   Builtin
}

// tombstone marks a removed slot. Probing continues past it.
var tombstone = &entry{}

// Registry maps command names to builtins using open addressing with double
// hashing. The capacity is fixed at creation.
type Registry struct {
	slots []*entry
	count int
}

// NewRegistry creates an empty registry with DefaultCapacity slots.
func NewRegistry() *Registry {
	return NewRegistryWithCapacity(DefaultCapacity)
}

// NewRegistryWithCapacity creates an empty registry with at least capacity
// slots, rounded up to the next prime.
func NewRegistryWithCapacity(capacity int) *Registry {
	return &Registry{
		slots: make([]*entry, nextPrime(capacity)),
	}
}

// Cap returns the number of slots.
func (r *Registry) Cap() int {
	return len(r.slots)
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return r.count
}

// Insert registers fn under name, replacing any existing entry with the same
// name. An empty name or nil function is ignored.
func (r *Registry) Insert(name string, fn Builtin) error {
	if name == "" || isNil(fn) {
		return nil
	}

	free := -1
probe:
	for attempt := 0; attempt < len(r.slots); attempt++ {
		idx := r.index(name, attempt)
		slot := r.slots[idx]

		switch {
		case slot == nil:
			if free < 0 {
				free = idx
			}
			// The key can't appear later in the sequence.
			break probe
		case slot == tombstone:
			if free < 0 {
				free = idx
			}
		case slot.name == name:
			r.slots[idx] = &entry{name: name, fn: fn}
			return nil
		}
	}

	if free < 0 {
		return ErrRegistryFull
	}

	r.slots[free] = &entry{name: name, fn: fn}
	r.count++
	return nil
}

// Lookup finds the builtin registered under name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	idx, ok := r.find(name)
	if !ok {
		return nil, false
	}
	return r.slots[idx].fn, true
}

// Remove deletes name from the registry, reporting whether it was present.
func (r *Registry) Remove(name string) bool {
	idx, ok := r.find(name)
	if !ok {
		return false
	}
	r.slots[idx] = tombstone
	r.count--
	return true
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	var out []string
	for _, slot := range r.slots {
		if slot != nil && slot != tombstone {
			out = append(out, slot.name)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) find(name string) (int, bool) {
	for attempt := 0; attempt < len(r.slots); attempt++ {
		idx := r.index(name, attempt)
		slot := r.slots[idx]

		switch {
		case slot == nil:
			return -1, false
		case slot == tombstone:
			continue
		case slot.name == name:
			return idx, true
		}
	}
	return -1, false
}

// index returns the slot for the given probe attempt:
// (h1 + attempt*(h2+1)) mod capacity. h2 is reduced modulo capacity-1 so the
// step is never a multiple of the capacity.
func (r *Registry) index(key string, attempt int) int {
	size := uint64(len(r.slots))
	h1 := polyHash(key, primaryMultiplier, size)
	h2 := polyHash(key, secondaryMultiplier, size-1)
	return int((h1 + uint64(attempt)*(h2+1)) % size)
}

func polyHash(key string, multiplier, mod uint64) uint64 {
	var h uint64
	for i := 0; i < len(key); i++ {
		h = (h*multiplier + uint64(key[i])) % mod
	}
	return h
}

func nextPrime(n int) int {
	if n < 3 {
		return 3
	}
	for ; ; n++ {
		if isPrime(n) {
			return n
		}
	}
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}
