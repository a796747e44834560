package collections

import (
	"iter"
	"math/bits"
)

// Bitset is a set of non-negative integers that iterates in ascending order.
// The zero value is an empty set ready to use.
type Bitset struct {
	words []uint64
	count int
}

// NewBitset returns an empty set with room for values below capacity.
func NewBitset(capacity int) *Bitset {
	return &Bitset{words: make([]uint64, (capacity+63)/64)}
}

// BitsetOf returns a set holding the given values.
func BitsetOf(values ...int) *Bitset {
	b := &Bitset{}
	for _, v := range values {
		b.Add(v)
	}
	return b
}

// Add inserts v and reports whether it was absent. Negative values are
// never members and are ignored.
func (b *Bitset) Add(v int) bool {
	if v < 0 {
		return false
	}
	w := v >> 6
	for w >= len(b.words) {
		b.words = append(b.words, 0)
	}
	mask := uint64(1) << (uint(v) & 63)
	if b.words[w]&mask != 0 {
		return false
	}
	b.words[w] |= mask
	b.count++
	return true
}

// Remove deletes v and reports whether it was present.
func (b *Bitset) Remove(v int) bool {
	w := v >> 6
	if v < 0 || w >= len(b.words) {
		return false
	}
	mask := uint64(1) << (uint(v) & 63)
	if b.words[w]&mask == 0 {
		return false
	}
	b.words[w] &^= mask
	b.count--
	return true
}

func (b *Bitset) Contains(v int) bool {
	w := v >> 6
	if v < 0 || w >= len(b.words) {
		return false
	}
	return b.words[w]&(uint64(1)<<(uint(v)&63)) != 0
}

func (b *Bitset) Len() int {
	return b.count
}

func (b *Bitset) IsEmpty() bool {
	return b.count == 0
}

func (b *Bitset) Clear() {
	clear(b.words)
	b.count = 0
}

// All yields members in ascending order.
func (b *Bitset) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for wi, word := range b.words {
			for word != 0 {
				tz := bits.TrailingZeros64(word)
				if !yield(wi<<6 + tz) {
					return
				}
				word &= word - 1
			}
		}
	}
}

// Slice returns the members in ascending order.
func (b *Bitset) Slice() []int {
	out := make([]int, 0, b.count)
	for v := range b.All() {
		out = append(out, v)
	}
	return out
}

// First returns the smallest member, or -1 when empty.
func (b *Bitset) First() int {
	for v := range b.All() {
		return v
	}
	return -1
}

func (b *Bitset) Clone() *Bitset {
	return &Bitset{words: append([]uint64(nil), b.words...), count: b.count}
}

// AddAll inserts every member of other.
func (b *Bitset) AddAll(other *Bitset) {
	for v := range other.All() {
		b.Add(v)
	}
}

// RemoveAll deletes every member of other.
func (b *Bitset) RemoveAll(other *Bitset) {
	for v := range other.All() {
		b.Remove(v)
	}
}
