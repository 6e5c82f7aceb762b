package contracts

import (
	"reflect"
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Symbol
		wantErr bool
	}{
		{"plain", "AAA", "AAA", false},
		{"lower case", "aapl", "AAPL", false},
		{"surrounding spaces", "  MSFT \t", "MSFT", false},
		{"double quotes", `"BBB"`, "BBB", false},
		{"mixed quotes and spaces", ` ' "ccc" ' `, "CCC", false},
		{"backticks", "`DDD`", "DDD", false},
		{"dotted", "brk.b", "BRK.B", false},
		{"empty", "", "", true},
		{"only quotes", `" "`, "", true},
		{"inner whitespace", "AA A", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSymbol(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeSymbol(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got, err := NormalizeSymbols([]string{"bbb", `"AAA"`, " BBB ", "ccc"})
	if err != nil {
		t.Fatalf("NormalizeSymbols() error = %v", err)
	}
	want := []Symbol{"BBB", "AAA", "CCC"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeSymbols() = %v, want %v", got, want)
	}

	if _, err := NormalizeSymbols([]string{"AAA", "  "}); err == nil {
		t.Error("NormalizeSymbols() with blank entry should fail")
	}
}
