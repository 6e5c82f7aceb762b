package contracts

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNewSectorSet(t *testing.T) {
	set, err := NewSectorSet([]string{"Tech", "Energy", " Tech ", "Banks"})
	if err != nil {
		t.Fatalf("NewSectorSet() error = %v", err)
	}

	want := []string{"Banks", "Energy", "Tech"}
	if !reflect.DeepEqual(set.Labels(), want) {
		t.Errorf("Labels() = %v, want %v", set.Labels(), want)
	}
	if i, ok := set.Index("Tech"); !ok || i != 2 {
		t.Errorf("Index(Tech) = %d, %v; want 2, true", i, ok)
	}
	if _, ok := set.Index("Retail"); ok {
		t.Error("Index(Retail) should not be found")
	}

	// Labels() returns a copy
	labels := set.Labels()
	labels[0] = "mutated"
	if set.Labels()[0] != "Banks" {
		t.Error("Labels() must not expose internal slice")
	}

	if _, err := NewSectorSet([]string{"Tech", "  "}); err == nil {
		t.Error("NewSectorSet() with blank label should fail")
	}
}

func TestSectorSet_EqualOrderInsensitive(t *testing.T) {
	a, _ := NewSectorSet([]string{"Tech", "Energy"})
	b, _ := NewSectorSet([]string{"Energy", "Tech", "Energy"})
	c, _ := NewSectorSet([]string{"Energy"})

	if !a.Equal(b) {
		t.Error("sets with same labels should be equal")
	}
	if a.Equal(c) {
		t.Error("sets with different labels should not be equal")
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `["Energy","Tech"]` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestSectorDummies_Lookup(t *testing.T) {
	set, _ := NewSectorSet([]string{"Energy", "Tech"})
	dummies := SectorDummies{
		Set: set,
		Rows: []SectorDummy{
			{Symbol: "AAA", Vector: []int{0, 1}},
			{Symbol: "BBB", Vector: []int{1, 0}},
			{Symbol: "CCC", Vector: []int{0, 0}},
		},
	}

	row, ok := dummies.Lookup("BBB")
	if !ok {
		t.Fatal("Lookup(BBB) not found")
	}
	if label, ok := row.Label(set); !ok || label != "Energy" {
		t.Errorf("Label() = %q, %v; want Energy, true", label, ok)
	}

	row, _ = dummies.Lookup("CCC")
	if _, ok := row.Label(set); ok {
		t.Error("all-zero row should have no label")
	}

	if _, ok := dummies.Lookup("ZZZ"); ok {
		t.Error("Lookup(ZZZ) should not be found")
	}
}
