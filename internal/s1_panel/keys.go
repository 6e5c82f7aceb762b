package s1_panel

import (
	"sort"
	"time"

	"github.com/wonny/factorpanel/internal/contracts"
)

// joinKey is the comparable form of contracts.Key.
// time.Time 는 location 포인터 때문에 map key 로 안전하지 않음
type joinKey struct {
	day    int64
	symbol contracts.Symbol
}

func keyOf(date time.Time, sym contracts.Symbol) joinKey {
	return joinKey{day: date.Unix(), symbol: sym}
}

func sortKeys[T any](rows []T, key func(T) contracts.Key) {
	sort.SliceStable(rows, func(i, j int) bool {
		return key(rows[i]).Less(key(rows[j]))
	})
}
