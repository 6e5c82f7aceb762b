package contracts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SectorSet is the validated set of sector labels observed in one run
// ⭐ SSOT: 섹터 컬럼 집합은 실행당 한 번만 계산 (접근 시점마다 추론 금지)
type SectorSet struct {
	labels []string
	index  map[string]int
}

// NewSectorSet builds a sorted, de-duplicated label set. Blank labels are rejected.
func NewSectorSet(labels []string) (SectorSet, error) {
	uniq := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return SectorSet{}, fmt.Errorf("blank sector label")
		}
		uniq[l] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for l := range uniq {
		sorted = append(sorted, l)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, l := range sorted {
		index[l] = i
	}
	return SectorSet{labels: sorted, index: index}, nil
}

// Labels returns a copy of the labels in column order
func (s SectorSet) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len returns the number of sector columns
func (s SectorSet) Len() int {
	return len(s.labels)
}

// Index returns the column of label
func (s SectorSet) Index(label string) (int, bool) {
	i, ok := s.index[strings.TrimSpace(label)]
	return i, ok
}

// Equal reports whether both sets contain the same labels
func (s SectorSet) Equal(other SectorSet) bool {
	if len(s.labels) != len(other.labels) {
		return false
	}
	for i := range s.labels {
		if s.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as its ordered label list
func (s SectorSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Labels())
}

// SectorDummy is the one-hot row of a symbol; Vector is aligned to SectorSet.Labels()
type SectorDummy struct {
	Symbol Symbol `json:"symbol"`
	Vector []int  `json:"vector"`
}

// Label returns the label encoded by the row, or false for an all-zero row
func (d SectorDummy) Label(set SectorSet) (string, bool) {
	for i, v := range d.Vector {
		if v == 1 {
			return set.labels[i], true
		}
	}
	return "", false
}

// SectorDummies is the one-hot matrix of a universe
type SectorDummies struct {
	Set  SectorSet
	Rows []SectorDummy // sorted by symbol
}

// Lookup returns the dummy row of a symbol
func (d *SectorDummies) Lookup(sym Symbol) (SectorDummy, bool) {
	i := sort.Search(len(d.Rows), func(i int) bool { return d.Rows[i].Symbol >= sym })
	if i < len(d.Rows) && d.Rows[i].Symbol == sym {
		return d.Rows[i], true
	}
	return SectorDummy{}, false
}
