package readgraph

// bitSet marks oriented reads by packed value. Sized once from the read count,
// it replaces a map for the visited test in the BFS inner loop.
type bitSet struct {
	buckets []uint64
}

func newBitSet(capacity uint32) *bitSet {
	return &bitSet{buckets: make([]uint64, (uint64(capacity)>>6)+1)}
}

func (bs *bitSet) add(n uint32) {
	bucket := n >> 6 // n / 64
	if bucket >= uint32(len(bs.buckets)) {
		grown := make([]uint64, bucket+1)
		copy(grown, bs.buckets)
		bs.buckets = grown
	}
	bs.buckets[bucket] |= 1 << (n & 63) // n % 64
}

func (bs *bitSet) has(n uint32) bool {
	bucket := n >> 6
	if bucket >= uint32(len(bs.buckets)) {
		return false
	}
	return bs.buckets[bucket]&(1<<(n&63)) != 0
}
