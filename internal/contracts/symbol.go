package contracts

import (
	"fmt"
	"strings"
)

// Symbol is the canonical asset identifier used as a join key
// ⭐ SSOT: 심볼 정규화는 수집 경계에서 한 번만 수행 (join 시점에 재정리 금지)
type Symbol string

// quoteCutset covers quoting artifacts seen in scraped sources
const quoteCutset = "'\"`"

// NormalizeSymbol converts a raw source string into a canonical Symbol
func NormalizeSymbol(raw string) (Symbol, error) {
	s := strings.TrimSpace(raw)
	// 따옴표와 공백이 섞여 있는 경우 (예: ` "AAA" `) 반복 제거
	for {
		trimmed := strings.TrimSpace(strings.Trim(s, quoteCutset))
		if trimmed == s {
			break
		}
		s = trimmed
	}
	if s == "" {
		return "", fmt.Errorf("empty symbol after normalization: %q", raw)
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", fmt.Errorf("symbol contains whitespace: %q", raw)
	}
	return Symbol(strings.ToUpper(s)), nil
}

// NormalizeSymbols normalizes and de-duplicates a universe, keeping first occurrence order
func NormalizeSymbols(raw []string) ([]Symbol, error) {
	seen := make(map[Symbol]struct{}, len(raw))
	out := make([]Symbol, 0, len(raw))
	for _, r := range raw {
		sym, err := NormalizeSymbol(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out, nil
}

// String returns the symbol as string
func (s Symbol) String() string {
	return string(s)
}
