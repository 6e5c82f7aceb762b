package s1_panel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/factorpanel/internal/contracts"
)

// NullLabelPolicy decides what happens to a symbol without a sector label
type NullLabelPolicy string

const (
	// NullLabelZero keeps the symbol with an all-zero dummy row
	NullLabelZero NullLabelPolicy = "zero"
	// NullLabelDrop omits the symbol from the dummy matrix
	NullLabelDrop NullLabelPolicy = "drop"
	// NullLabelError fails the run with a ValidationError
	NullLabelError NullLabelPolicy = "error"
)

// ParseNullLabelPolicy validates a configured policy; empty means zero
func ParseNullLabelPolicy(s string) (NullLabelPolicy, error) {
	switch p := NullLabelPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return NullLabelZero, nil
	case NullLabelZero, NullLabelDrop, NullLabelError:
		return p, nil
	default:
		return "", contracts.NewConfigurationError(contracts.StageSectors, "null_label_policy",
			fmt.Sprintf("unknown policy %q", s))
	}
}

// EncodeSectors one-hot encodes sector labels of a universe.
//
// Columns are the distinct non-blank labels of this batch in sorted order; labels
// absent from the batch get no column. Blank labels are null and are handled per
// policy. Rows are sorted by symbol.
// ⭐ SSOT: S3 섹터 인코딩은 여기서만
func EncodeSectors(labels map[contracts.Symbol]string, policy NullLabelPolicy) (*contracts.SectorDummies, error) {
	if len(labels) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageSectors, "sectors", "no sector labels", nil)
	}
	switch policy {
	case NullLabelZero, NullLabelDrop, NullLabelError:
	default:
		return nil, contracts.NewConfigurationError(contracts.StageSectors, "null_label_policy",
			fmt.Sprintf("unknown policy %q", policy))
	}

	symbols := make([]contracts.Symbol, 0, len(labels))
	present := make([]string, 0, len(labels))
	for sym, label := range labels {
		symbols = append(symbols, sym)
		if l := strings.TrimSpace(label); l != "" {
			present = append(present, l)
		}
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	if len(present) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageSectors, "sectors", "every sector label is null", nil)
	}

	set, err := contracts.NewSectorSet(present)
	if err != nil {
		return nil, contracts.NewValidationError(contracts.StageSectors, "sectors", err.Error())
	}

	dummies := &contracts.SectorDummies{
		Set:  set,
		Rows: make([]contracts.SectorDummy, 0, len(symbols)),
	}
	for _, sym := range symbols {
		vector := make([]int, set.Len())
		idx, ok := set.Index(labels[sym])
		if !ok {
			switch policy {
			case NullLabelDrop:
				continue
			case NullLabelError:
				return nil, contracts.NewValidationError(contracts.StageSectors, sym.String(), "null sector label")
			}
		} else {
			vector[idx] = 1
		}
		dummies.Rows = append(dummies.Rows, contracts.SectorDummy{Symbol: sym, Vector: vector})
	}

	if len(dummies.Rows) == 0 {
		return nil, contracts.NewDataUnavailableError(contracts.StageSectors, "sectors", "no usable sector rows", nil)
	}
	return dummies, nil
}
