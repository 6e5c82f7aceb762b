package contracts

import (
	"errors"
	"testing"
	"time"
)

func TestPivotPrices(t *testing.T) {
	d0 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2021, 1, 4, 15, 30, 0, 0, time.UTC) // 장중 타임스탬프도 일 단위로 정규화
	points := []PricePoint{
		{Date: d1, Symbol: "BBB", Close: Float(55)},
		{Date: d0, Symbol: "AAA", Close: Float(100)},
		{Date: d0, Symbol: "BBB", Close: Float(50)},
		{Date: d1, Symbol: "AAA", Close: Null()},
		{Date: d0, Symbol: "ZZZ", Close: Float(1)}, // 요청하지 않은 심볼은 무시
	}

	table, err := PivotPrices([]Symbol{"AAA", "BBB"}, points)
	if err != nil {
		t.Fatalf("PivotPrices() error = %v", err)
	}
	if len(table.Dates) != 2 || !table.Dates[1].Equal(TruncateDay(d1)) {
		t.Fatalf("Dates = %v", table.Dates)
	}
	if got := table.Close[0][0]; !got.Valid || got.Float64 != 100 {
		t.Errorf("AAA@d0 = %+v, want 100", got)
	}
	if got := table.Close[1][0]; got.Valid {
		t.Errorf("AAA@d1 = %+v, want null", got)
	}
	if got := table.Close[1][1]; got.Float64 != 55 {
		t.Errorf("BBB@d1 = %+v, want 55", got)
	}
}

func TestPivotPrices_MissingSymbol(t *testing.T) {
	points := []PricePoint{{Date: time.Now(), Symbol: "AAA", Close: Float(1)}}

	_, err := PivotPrices([]Symbol{"AAA", "BBB"}, points)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("error = %v, want ErrDataUnavailable", err)
	}
	var pe *PipelineError
	if !errors.As(err, &pe) || pe.Entity != "BBB" {
		t.Errorf("entity = %v, want BBB", err)
	}
}

func TestPivotPrices_NullOnlySymbol(t *testing.T) {
	d0 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 1)
	points := []PricePoint{
		{Date: d0, Symbol: "AAA", Close: Float(10)},
		{Date: d1, Symbol: "AAA", Close: Float(11)},
		{Date: d0, Symbol: "BBB", Close: Null()},
		{Date: d1, Symbol: "BBB", Close: Null()},
	}

	_, err := PivotPrices([]Symbol{"AAA", "BBB"}, points)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("error = %v, want ErrDataUnavailable", err)
	}
	var pe *PipelineError
	if !errors.As(err, &pe) || pe.Entity != "BBB" {
		t.Errorf("entity = %v, want BBB", err)
	}
}

func TestNewPriceTable_RejectsUnorderedDates(t *testing.T) {
	d0 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewPriceTable([]time.Time{d0, d0}, []Symbol{"AAA"}, [][]NullFloat{{Float(1)}, {Float(2)}})
	if err == nil {
		t.Error("expected error for duplicate dates")
	}
}
