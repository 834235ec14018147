package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecord_TowerNameDefaultsToPON(t *testing.T) {
	rec := NewRecord("PON1")
	assert.Equal(t, "PON1", rec.PON)
	assert.Equal(t, "PON1", rec.TowerName)
}

func TestRecord_Clone(t *testing.T) {
	rec := NewRecord("PON1")
	rec.Address = map[string]string{"Street": "1 Main St"}

	clone := rec.Clone()
	clone.Address["Street"] = "changed"
	clone.CVLAN = "10"

	assert.Equal(t, "1 Main St", rec.Address["Street"])
	assert.Empty(t, rec.CVLAN)
}

func TestRecord_Field(t *testing.T) {
	rec := NewRecord("PON1")
	rec.EVC1 = "CKT-A"
	rec.CVLAN = "10"
	rec.Address = map[string]string{"Street": "1 Main St", "City": ""}

	tests := []struct {
		key   string
		value string
		ok    bool
	}{
		{"pon", "PON1", true},
		{"tower_name", "PON1", true},
		{"evc1", "CKT-A", true},
		{"evc2", "", false},
		{"cvlan", "10", true},
		{"Street", "1 Main St", true},
		{"City", "", false},
		{"Unknown Column", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, ok := rec.Field(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestClassifiedSet_LeafAndSize(t *testing.T) {
	set := NewClassifiedSet()
	set.Leaf(BucketUniEvc)["PON1"] = NewRecord("PON1")
	set.Leaf(BucketNoType)["PON2"] = NewRecord("PON2")

	assert.Equal(t, 2, set.Size())
	assert.Len(t, set.PDiscUniEvc, 1)
	assert.Len(t, set.NoType, 1)
	assert.Empty(t, set.PDiscVlan)
	assert.Empty(t, set.FDisc)
}

func TestNewGroupedSet_AllBucketsPresent(t *testing.T) {
	g := NewGroupedSet()
	for _, b := range LeafBuckets() {
		_, ok := g[b]
		assert.True(t, ok, "bucket %s missing", b)
	}
}
