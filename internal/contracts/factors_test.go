package contracts

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseFactorIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    []FactorID
		wantErr bool
	}{
		{"all factors", []string{"momentum", "value", "size"}, []FactorID{FactorMomentum, FactorValue, FactorSize}, false},
		{"case and spaces", []string{" Size ", "VALUE"}, []FactorID{FactorSize, FactorValue}, false},
		{"empty", nil, nil, true},
		{"unknown", []string{"momentum", "quality"}, nil, true},
		{"duplicate", []string{"size", "SIZE"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFactorIDs(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("ParseFactorIDs() error = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFactorIDs() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFactorIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFactorID_Columns(t *testing.T) {
	if got := FactorValue.Columns(); !reflect.DeepEqual(got, []string{ColBookPrice, ColSalesPrice, ColCFPrice}) {
		t.Errorf("value columns = %v", got)
	}
	if FactorID("quality").IsValid() {
		t.Error("unknown factor should be invalid")
	}
}

func TestProjection_Column(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p := Projection{
		Factor:  FactorValue,
		Keys:    []Key{{Date: d, Symbol: "AAA"}, {Date: d, Symbol: "BBB"}},
		Columns: []string{ColBookPrice, ColSalesPrice},
		Values:  [][]NullFloat{{Float(0.5), Null()}, {Float(0.2), Float(1.5)}},
	}

	got, err := p.Column(ColSalesPrice)
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if got[0].Valid || got[1].Float64 != 1.5 {
		t.Errorf("Column() = %+v", got)
	}
	if _, err := p.Column(ColMarketCap); err == nil {
		t.Error("Column() on missing column should fail")
	}
}

func TestNullFloat_JSON(t *testing.T) {
	data, err := json.Marshal([]NullFloat{Float(1.5), Null()})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "[1.5,null]" {
		t.Errorf("Marshal() = %s", data)
	}

	var decoded []NullFloat
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !decoded[0].Valid || decoded[0].Float64 != 1.5 || decoded[1].Valid {
		t.Errorf("Unmarshal() = %+v", decoded)
	}
}
