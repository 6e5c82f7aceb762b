package contracts

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDataQualitySnapshot_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		snapshot DataQualitySnapshot
		want     bool
	}{
		{
			name: "valid snapshot",
			snapshot: DataQualitySnapshot{
				TotalSymbols: 100,
				ValidSymbols: 90,
				QualityScore: 0.9,
				Coverage:     map[string]float64{ColMarketCap: 0.95, ColBookPrice: 0.90},
			},
			want: true,
		},
		{
			name: "low quality score",
			snapshot: DataQualitySnapshot{
				TotalSymbols: 100,
				ValidSymbols: 50,
				QualityScore: 0.5,
			},
			want: false,
		},
		{
			name: "no valid symbols",
			snapshot: DataQualitySnapshot{
				TotalSymbols: 100,
				ValidSymbols: 0,
				QualityScore: 0.8,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snapshot.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDataQualitySnapshot_CoverageRate(t *testing.T) {
	snapshot := DataQualitySnapshot{
		Coverage: map[string]float64{
			ColMarketCap:  1.0,
			ColBookPrice:  0.5,
			ColSalesPrice: 0.75,
			ColCFPrice:    0.75,
		},
	}

	if rate := snapshot.CoverageRate(); rate != 0.75 {
		t.Errorf("CoverageRate() = %v, want 0.75", rate)
	}

	empty := DataQualitySnapshot{}
	if rate := empty.CoverageRate(); rate != 0 {
		t.Errorf("CoverageRate() on empty = %v, want 0", rate)
	}
}

func TestDataQualitySnapshot_SymbolRetention(t *testing.T) {
	snapshot := DataQualitySnapshot{TotalSymbols: 4, ValidSymbols: 3}
	if got := snapshot.SymbolRetention(); got != 0.75 {
		t.Errorf("SymbolRetention() = %v, want 0.75", got)
	}
	if got := (&DataQualitySnapshot{}).SymbolRetention(); got != 0 {
		t.Errorf("SymbolRetention() on empty = %v, want 0", got)
	}
}

func TestDataQualitySnapshot_JSON(t *testing.T) {
	original := DataQualitySnapshot{
		RunID:        "run-1",
		From:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		To:           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalSymbols: 100,
		ValidSymbols: 90,
		QualityScore: 0.9,
		Coverage:     map[string]float64{ColMarketCap: 0.95},
		Narrowing:    MergeDiagnostics{ReturnRows: 10, LostAtSectorJoin: 2},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded DataQualitySnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded.ValidSymbols != original.ValidSymbols {
		t.Errorf("ValidSymbols mismatch: got %d, want %d", decoded.ValidSymbols, original.ValidSymbols)
	}
	if decoded.Narrowing != original.Narrowing {
		t.Errorf("Narrowing mismatch: got %+v, want %+v", decoded.Narrowing, original.Narrowing)
	}
	if !decoded.From.Equal(original.From) {
		t.Errorf("From mismatch: got %v, want %v", decoded.From, original.From)
	}
}
