package timing

import (
	"math"
	"math/big"
	"testing"
)

// gen3-style resolution: 5 ns cycles, 560 fine steps, ±280 aliasing window
var fineRes = Resolution{
	CyclePeriod:   Nanoseconds(5),
	StepsPerCycle: 560,
	MaxFineSteps:  280,
	Round:         Truncate,
}

// gen2-style resolution: coarse-only, round to nearest, minimum one cycle
var coarseRes = Resolution{
	CyclePeriod:   Nanoseconds(5),
	StepsPerCycle: 1,
	Round:         Nearest,
	MinCoarse:     1,
}

// gen1-style resolution: 10 000 ps cycles with direct picosecond steps
var psRes = Resolution{
	CyclePeriod:   Picoseconds(10000),
	StepsPerCycle: 10000,
	Round:         Truncate,
}

func stepsOf(r Resolution, n int64) *big.Rat {
	return new(big.Rat).Mul(big.NewRat(n, 1), r.FineStep())
}

func TestSplit_ExactSteps(t *testing.T) {
	// 1848 steps = 3 cycles + 168 steps
	tv, clamped := fineRes.Split(stepsOf(fineRes, 1848))
	if clamped {
		t.Fatal("unexpected clamp")
	}
	if tv.Coarse != 3 || tv.Fine != 168 {
		t.Fatalf("got (%d, %d), want (3, 168)", tv.Coarse, tv.Fine)
	}
}

func TestSplit_Picoseconds(t *testing.T) {
	tv, clamped := psRes.Split(Picoseconds(12345))
	if clamped {
		t.Fatal("unexpected clamp")
	}
	if tv.Coarse != 1 || tv.Fine != 2345 {
		t.Fatalf("got (%d, %d), want (1, 2345)", tv.Coarse, tv.Fine)
	}
}

func TestSplit_AliasingBoundary(t *testing.T) {
	// 841 steps: raw split (1, 281) exceeds the ±280 window, so a cycle
	// is borrowed and the fine correction goes negative
	tv, _ := fineRes.Split(stepsOf(fineRes, 841))
	if tv.Coarse != 2 || tv.Fine != -279 {
		t.Fatalf("got (%d, %d), want (2, -279)", tv.Coarse, tv.Fine)
	}

	// 840 steps: fine lands exactly on the window edge, no borrow
	tv, _ = fineRes.Split(stepsOf(fineRes, 840))
	if tv.Coarse != 1 || tv.Fine != 280 {
		t.Fatalf("got (%d, %d), want (1, 280)", tv.Coarse, tv.Fine)
	}
}

func TestSplit_RoundNearest(t *testing.T) {
	cases := []struct {
		ns     int64
		coarse uint32
	}{
		{17, 3}, // 3.4 cycles rounds down
		{18, 4}, // 3.6 cycles rounds up
		{20, 4}, // exact
	}
	for _, c := range cases {
		tv, clamped := coarseRes.Split(Nanoseconds(c.ns))
		if clamped {
			t.Fatalf("%dns: unexpected clamp", c.ns)
		}
		if tv.Coarse != c.coarse || tv.Fine != 0 {
			t.Fatalf("%dns: got (%d, %d), want (%d, 0)", c.ns, tv.Coarse, tv.Fine, c.coarse)
		}
	}
}

func TestSplit_RoundTruncate(t *testing.T) {
	// 18 ns = 3.6 cycles of 5 ns; truncation on a coarse-only grid floors
	res := coarseRes
	res.Round = Truncate
	res.MinCoarse = 0
	tv, _ := res.Split(Nanoseconds(18))
	if tv.Coarse != 3 {
		t.Fatalf("got coarse %d, want 3", tv.Coarse)
	}
}

func TestSplit_MinCoarseClamp(t *testing.T) {
	// 1 ns is 0.2 cycles: rounds to zero, then clamps to the minimum
	tv, clamped := coarseRes.Split(Nanoseconds(1))
	if !clamped {
		t.Fatal("expected clamp to be reported")
	}
	if tv.Coarse != 1 {
		t.Fatalf("got coarse %d, want 1", tv.Coarse)
	}

	// 2.5 ns rounds half up to one full cycle: no clamp involved
	half := new(big.Rat).Mul(big.NewRat(5, 2), Nanoseconds(1))
	tv, clamped = coarseRes.Split(half)
	if clamped {
		t.Fatal("unexpected clamp")
	}
	if tv.Coarse != 1 {
		t.Fatalf("got coarse %d, want 1", tv.Coarse)
	}
}

func TestSplit_ZeroAndNegative(t *testing.T) {
	for _, seconds := range []*big.Rat{nil, big.NewRat(0, 1), Nanoseconds(-100)} {
		tv, clamped := fineRes.Split(seconds)
		if clamped {
			t.Fatal("unexpected clamp")
		}
		if tv.Coarse != 0 || tv.Fine != 0 {
			t.Fatalf("got (%d, %d), want (0, 0)", tv.Coarse, tv.Fine)
		}
	}
}

func TestSplit_Saturation(t *testing.T) {
	// 30 s on a 5 ns clock needs 6e9 cycles, beyond uint32
	tv, clamped := fineRes.Split(big.NewRat(30, 1))
	if !clamped {
		t.Fatal("expected clamp to be reported")
	}
	if tv.Coarse != math.MaxUint32 {
		t.Fatalf("got coarse %d, want MaxUint32", tv.Coarse)
	}
}

func TestCombine_RoundTrip(t *testing.T) {
	// Any non-negative exact multiple of the fine step survives a
	// Split/Combine round trip unchanged
	for _, steps := range []int64{0, 1, 168, 560, 841, 100000} {
		want := stepsOf(fineRes, steps)
		tv, _ := fineRes.Split(want)
		got := fineRes.Combine(tv)
		if got.Cmp(want) != 0 {
			t.Fatalf("%d steps: got %s, want %s", steps, got.RatString(), want.RatString())
		}
	}
}

func TestCombine_NegativeFine(t *testing.T) {
	// (2, -279) is 841 steps
	got := fineRes.Combine(TimeValue{Coarse: 2, Fine: -279})
	want := stepsOf(fineRes, 841)
	if got.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", got.RatString(), want.RatString())
	}
}

func TestSplitCoarse(t *testing.T) {
	// Whole-cycle quantization ignores the fine stage entirely
	coarse, clamped := fineRes.SplitCoarse(Nanoseconds(17))
	if clamped {
		t.Fatal("unexpected clamp")
	}
	if coarse != 3 {
		t.Fatalf("got coarse %d, want 3", coarse)
	}

	got := fineRes.CombineCoarse(3)
	if got.Cmp(Nanoseconds(15)) != 0 {
		t.Fatalf("got %s, want 15ns", got.RatString())
	}
}
