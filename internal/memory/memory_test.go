package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loda-lang/loda-go/internal/bigint"
)

func TestUnsetReadsAsZero(t *testing.T) {
	m := New()
	assert.Equal(t, "0", m.Get(42).String())
}

func TestSetAndGet(t *testing.T) {
	m := New()
	m.Set(3, bigint.FromInt64(17))
	assert.Equal(t, "17", m.Get(3).String())
	assert.Equal(t, "0", m.Get(4).String())
}

func TestWritingZeroRemovesEntry(t *testing.T) {
	m := New()
	m.Set(3, bigint.FromInt64(17))
	assert.Equal(t, 1, m.Len())
	m.Set(3, bigint.FromInt64(0))
	assert.Equal(t, 0, m.Len(), "writing the default value should be indistinguishable from never writing it")
}

func TestGetRangeOrder(t *testing.T) {
	m := New()
	m.Set(5, bigint.FromInt64(1))
	m.Set(6, bigint.FromInt64(2))
	m.Set(7, bigint.FromInt64(3))
	got := m.GetRange(5, 3)
	want := []string{"1", "2", "3"}
	for i, v := range got {
		assert.Equal(t, want[i], v.String())
	}
}

func TestSetRangeOverlapSafeCopy(t *testing.T) {
	m := New()
	m.Set(0, bigint.FromInt64(1))
	m.Set(1, bigint.FromInt64(2))
	m.Set(2, bigint.FromInt64(3))
	// Shift region [0,2] right by one: dest overlaps source.
	src := m.GetRange(0, 3)
	m.SetRange(1, src)
	got := m.GetRange(0, 4)
	want := []string{"1", "1", "2", "3"}
	for i, v := range got {
		assert.Equal(t, want[i], v.String())
	}
}

func TestClear(t *testing.T) {
	m := New()
	m.Set(0, bigint.FromInt64(1))
	m.Set(1, bigint.FromInt64(2))
	m.Clear(0, 2)
	assert.Equal(t, 0, m.Len())
}

func TestClone(t *testing.T) {
	m := New()
	m.Set(0, bigint.FromInt64(9))
	clone := m.Clone()
	clone.Set(0, bigint.FromInt64(1))
	assert.Equal(t, "9", m.Get(0).String(), "original must be unaffected by mutations to the clone")
	assert.Equal(t, "1", clone.Get(0).String())
}
