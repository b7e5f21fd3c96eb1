package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	tbl := New[string, int]()
	_, ok := tbl.Get("a")
	require.False(t, ok)

	tbl.Put("a", 1)
	v, ok := tbl.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	tbl.Delete("a")
	_, ok = tbl.Get("a")
	require.False(t, ok)
}

func TestLenAndRange(t *testing.T) {
	tbl := New[int, string]()
	tbl.Put(1, "one")
	tbl.Put(2, "two")
	tbl.Put(3, "three")
	require.Equal(t, 3, tbl.Len())

	seen := map[int]string{}
	tbl.Range(func(k int, v string) bool {
		seen[k] = v
		return true
	})
	require.Len(t, seen, 3)

	var count int
	tbl.Range(func(k int, v string) bool {
		count++
		return false
	})
	require.Equal(t, 1, count)
}

func TestGetOrInsertIsAtomicUnderConcurrency(t *testing.T) {
	tbl := New[string, int]()
	var wg sync.WaitGroup
	results := make([]int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = tbl.GetOrInsert("shared", idx)
		}(i)
	}
	wg.Wait()

	first := results[0]
	for _, r := range results {
		require.Equal(t, first, r)
	}
}
