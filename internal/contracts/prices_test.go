package contracts

import (
	"encoding/json"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDataset_ColumnsWhenEmpty(t *testing.T) {
	ds := NewDataset(nil)

	if !ds.IsEmpty() {
		t.Fatal("expected empty dataset")
	}
	if ds.Points == nil {
		t.Error("Points should be an empty slice, not nil")
	}

	want := []string{"company", "date", "price", "return_pct"}
	got := ds.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Columns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDataset_IsSorted(t *testing.T) {
	tests := []struct {
		name   string
		points []PricePoint
		want   bool
	}{
		{"empty", nil, true},
		{
			name: "sorted by company then date",
			points: []PricePoint{
				{Company: "Boeing", Date: day(2024, 1, 1)},
				{Company: "Boeing", Date: day(2024, 1, 8)},
				{Company: "RTX Corp", Date: day(2023, 12, 25)},
			},
			want: true,
		},
		{
			name: "dates out of order",
			points: []PricePoint{
				{Company: "Boeing", Date: day(2024, 1, 8)},
				{Company: "Boeing", Date: day(2024, 1, 1)},
			},
			want: false,
		},
		{
			name: "companies out of order",
			points: []PricePoint{
				{Company: "RTX Corp", Date: day(2024, 1, 1)},
				{Company: "Boeing", Date: day(2024, 1, 8)},
			},
			want: false,
		},
		{
			name: "duplicates pass",
			points: []PricePoint{
				{Company: "Boeing", Date: day(2024, 1, 1), Price: 1},
				{Company: "Boeing", Date: day(2024, 1, 1), Price: 2},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewDataset(tt.points).IsSorted(); got != tt.want {
				t.Errorf("IsSorted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDataset_CompaniesAndRange(t *testing.T) {
	ds := NewDataset([]PricePoint{
		{Company: "Lockheed Martin", Date: day(2024, 2, 5)},
		{Company: "Boeing", Date: day(2024, 1, 1)},
		{Company: "Lockheed Martin", Date: day(2023, 6, 1)},
	})

	companies := ds.Companies()
	if len(companies) != 2 || companies[0] != "Boeing" || companies[1] != "Lockheed Martin" {
		t.Errorf("Companies() = %v", companies)
	}

	from, to, ok := ds.DateRange()
	if !ok {
		t.Fatal("DateRange() ok = false")
	}
	if !from.Equal(day(2023, 6, 1)) || !to.Equal(day(2024, 2, 5)) {
		t.Errorf("DateRange() = %v..%v", from, to)
	}

	if _, _, ok := NewDataset(nil).DateRange(); ok {
		t.Error("DateRange() on empty dataset should report ok = false")
	}
}

func TestDataset_CloneIsDeep(t *testing.T) {
	ds := NewDataset([]PricePoint{{Company: "Boeing", Date: day(2024, 1, 1), Price: 10, ReturnPct: Float(5)}})
	clone := ds.Clone()

	*clone.Points[0].ReturnPct = 99
	clone.Points[0].Price = 1

	if *ds.Points[0].ReturnPct != 5 || ds.Points[0].Price != 10 {
		t.Error("Clone() shares state with the original")
	}
}

func TestPricePoint_JSON(t *testing.T) {
	original := PricePoint{Company: "Boeing", Date: day(2024, 1, 15), Price: 210.5, ReturnPct: Float(-1.25)}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	want := `{"company":"Boeing","date":"2024-01-15","price":210.5,"return_pct":-1.25}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var decoded PricePoint
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if !decoded.Date.Equal(original.Date) || *decoded.ReturnPct != -1.25 {
		t.Errorf("decoded = %+v", decoded)
	}

	first, _ := json.Marshal(PricePoint{Company: "Boeing", Date: day(2024, 1, 1), Price: 1})
	if string(first) != `{"company":"Boeing","date":"2024-01-01","price":1,"return_pct":null}` {
		t.Errorf("nil return should encode as null, got %s", first)
	}
}

func TestFileReport_RowsDropped(t *testing.T) {
	r := FileReport{RowsRead: 10, RowsKept: 7}
	if r.RowsDropped() != 3 {
		t.Errorf("RowsDropped() = %d, want 3", r.RowsDropped())
	}
}
