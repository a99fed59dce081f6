package indicator

import (
	"math"
	"testing"
)

func TestEMA(t *testing.T) {
	got := EMA([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{1.0, 1.5, 2.25, 3.125, 4.0625}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestEMALengthOneTracksInput(t *testing.T) {
	in := []float64{3, 7, 2}
	got := EMA(in, 1)
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("index %d: expected %v, got %v", i, in[i], got[i])
		}
	}
}

func TestEMAConstantSeries(t *testing.T) {
	got := EMA([]float64{42, 42, 42, 42}, 20)
	for i, v := range got {
		if math.Abs(v-42) > 1e-12 {
			t.Fatalf("index %d: expected 42, got %v", i, v)
		}
	}
}

func TestEMAEmpty(t *testing.T) {
	if got := EMA(nil, 3); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
