package render

import (
	"math"
	"testing"
)

func TestTempColor_ClampsAtRampEnds(t *testing.T) {
	if TempColor(-100) != TempColor(TempRampMin) {
		t.Fatalf("below-domain value must take the boundary color")
	}
	if TempColor(80) != TempColor(TempRampMax) {
		t.Fatalf("above-domain value must take the boundary color")
	}
}

func TestTempColor_AnchorsAreExact(t *testing.T) {
	cases := map[float64]string{
		-40: "#800080",
		-20: "#0000ff",
		0:   "#008000",
		15:  "#ffff00",
		30:  "#ff0000",
		50:  "#8b0000",
	}
	for v, want := range cases {
		if got := TempColor(v); got != want {
			t.Fatalf("TempColor(%v) = %s, want %s", v, got, want)
		}
	}
}

func TestTempColor_AbsentIsNeutralNotExtremum(t *testing.T) {
	got := TempColor(math.NaN())
	if got != NeutralColor {
		t.Fatalf("absent = %s, want %s", got, NeutralColor)
	}
	if got == TempColor(TempRampMin) || got == TempColor(TempRampMax) {
		t.Fatalf("absent must never map to a ramp extremum")
	}
}

func TestTempColor_Interpolates(t *testing.T) {
	mid := TempColor(-30)
	if mid == TempColor(-40) || mid == TempColor(-20) {
		t.Fatalf("midpoint must blend, got %s", mid)
	}
}

func TestTempColor_SameValueSameColorAcrossCalls(t *testing.T) {
	if TempColor(17.3) != TempColor(17.3) {
		t.Fatalf("color mapping must be deterministic")
	}
}

func TestPrecipColor_ClampsAndNeutral(t *testing.T) {
	if PrecipColor(-1) != PrecipColor(0) {
		t.Fatalf("negative precipitation clamps to ramp floor")
	}
	if PrecipColor(math.NaN()) != NeutralColor {
		t.Fatalf("absent precipitation is neutral")
	}
}
