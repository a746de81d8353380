package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheMissThenHit(t *testing.T) {
	c := NewCache()
	_, ok := c.Lookup(0x1000)
	require.False(t, ok)

	c.Insert(0x1000, FunctionInfo{FunctionName: "foo", FileName: "a.py", FirstLineNumber: 10})

	info, ok := c.Lookup(0x1000)
	require.True(t, ok)
	require.Equal(t, "foo", info.FunctionName)

	hits, misses := c.Stats()
	require.EqualValues(t, 1, hits)
	require.EqualValues(t, 1, misses)
}

func TestCacheUpdatesInPlaceOnMatchingKey(t *testing.T) {
	c := NewCache()
	c.Insert(0x1000, FunctionInfo{FunctionName: "v1"})
	c.Insert(0x1000, FunctionInfo{FunctionName: "v2"})

	info, ok := c.Lookup(0x1000)
	require.True(t, ok)
	require.Equal(t, "v2", info.FunctionName)
}

func TestCacheEvictsLeastRecentlyUsedWithinSet(t *testing.T) {
	c := NewCache()
	// find four addresses that hash into the same set by scanning.
	idx0 := setIndex(hashAddr(cacheKey(0x1000)))
	var addrs []uintptr
	for a := uintptr(0x1000); len(addrs) < 4; a += 0x1000 {
		if setIndex(hashAddr(cacheKey(a))) == idx0 {
			addrs = append(addrs, a)
		}
	}

	for i, a := range addrs {
		c.Insert(a, FunctionInfo{FunctionName: string(rune('a' + i))})
	}
	// touch way 0 and way 1 (addrs[0], addrs[1]) to make them MRU,
	// leaving addrs[2] or addrs[3] as the PLRU victim.
	c.Lookup(addrs[0])
	c.Lookup(addrs[1])

	fifth := addrs[3] + 0x100000 // an address that also should collide if we search further
	for setIndex(hashAddr(cacheKey(fifth))) != idx0 {
		fifth += 0x1000
	}
	c.Insert(fifth, FunctionInfo{FunctionName: "evictor"})

	// one of addrs[2]/addrs[3] must have been evicted.
	_, ok2 := c.Lookup(addrs[2])
	_, ok3 := c.Lookup(addrs[3])
	require.False(t, ok2 && ok3)

	// the two touched entries must survive.
	_, ok0 := c.Lookup(addrs[0])
	_, ok1 := c.Lookup(addrs[1])
	require.True(t, ok0)
	require.True(t, ok1)
}

func TestSetIndexDistributesAcrossSets(t *testing.T) {
	seen := make(map[int]bool)
	for a := uintptr(0x1000); a < 0x1000+uintptr(numSets)*0x40; a += 0x40 {
		seen[setIndex(hashAddr(cacheKey(a)))] = true
	}
	require.Greater(t, len(seen), numSets/2)
}
