// Package timing converts between real-valued times and the device's
// native (coarse cycle, fine step) pairs. All arithmetic is exact
// rational math so that round-trips through the device units never
// drift, even for fine steps with non-terminating decimal periods such
// as 5 ns / 560.
package timing

import (
	"math"
	"math/big"
)

// RoundPolicy selects how a requested time is mapped onto the step grid
type RoundPolicy int

const (
	// Truncate floors toward zero (the coarse/fine splitting rule)
	Truncate RoundPolicy = iota
	// Nearest rounds to the closest step, half away from zero
	Nearest
)

// Resolution holds the timing constants of one device generation.
// A generation without a fine stage sets StepsPerCycle to 1; a
// generation without aliasing protection sets MaxFineSteps to 0.
type Resolution struct {
	// CyclePeriod is the base clock period in seconds
	CyclePeriod *big.Rat
	// StepsPerCycle is the number of fine phase steps per cycle
	StepsPerCycle int64
	// MaxFineSteps is the aliasing window: fine results are kept within
	// ±MaxFineSteps by borrowing from the coarse count. 0 disables the
	// correction (fine stays in [0, StepsPerCycle)).
	MaxFineSteps int64
	// Round is the step rounding policy for requested times
	Round RoundPolicy
	// MinCoarse is the smallest coarse count the hardware accepts;
	// smaller results are clamped and reported
	MinCoarse uint32
}

// TimeValue is an immutable device-native time: whole clock cycles plus
// fine phase steps
type TimeValue struct {
	Coarse uint32
	Fine   int32
}

// FineStep returns the exact fine step period, CyclePeriod/StepsPerCycle
func (r Resolution) FineStep() *big.Rat {
	return new(big.Rat).Quo(r.CyclePeriod, big.NewRat(r.StepsPerCycle, 1))
}

// Split quantizes a requested time in seconds onto the device grid.
// Negative times floor to zero. clamped reports that the coarse count
// was adjusted to stay within hardware limits (MinCoarse floor or u32
// saturation); callers surface that as a warning, not an error.
func (r Resolution) Split(seconds *big.Rat) (tv TimeValue, clamped bool) {
	steps := big.NewInt(r.StepsPerCycle)

	var total big.Int
	if seconds != nil && seconds.Sign() > 0 {
		q := new(big.Rat).Quo(seconds, r.FineStep())
		switch r.Round {
		case Nearest:
			// floor((2*num + den) / (2*den)): round half up
			num := new(big.Int).Lsh(q.Num(), 1)
			num.Add(num, q.Denom())
			den := new(big.Int).Lsh(q.Denom(), 1)
			total.Quo(num, den)
		default:
			total.Quo(q.Num(), q.Denom())
		}
	}

	var coarseI, fineI big.Int
	coarseI.QuoRem(&total, steps, &fineI)

	fine := fineI.Int64()
	if !coarseI.IsUint64() || coarseI.Uint64() > math.MaxUint32 {
		// Beyond the device range (~21.5 s on a 5 ns clock)
		return TimeValue{Coarse: math.MaxUint32, Fine: 0}, true
	}
	coarse := coarseI.Uint64()

	// Aliasing protection: keep the fine correction centered near zero
	// so the device-side phase-shift search converges instead of
	// wrapping a full cycle.
	if r.MaxFineSteps > 0 && fine > r.MaxFineSteps {
		coarse++
		fine -= r.StepsPerCycle
	}

	if coarse < uint64(r.MinCoarse) {
		coarse = uint64(r.MinCoarse)
		clamped = true
	}
	if coarse > math.MaxUint32 {
		coarse = math.MaxUint32
		clamped = true
	}

	return TimeValue{Coarse: uint32(coarse), Fine: int32(fine)}, clamped
}

// Combine is the exact inverse affine map: coarse*CyclePeriod +
// fine*FineStep, in seconds. Round-trip Combine(Split(x)) == x holds for
// any non-negative x that is an exact multiple of the fine step and
// within the coarse range, regardless of rounding policy.
func (r Resolution) Combine(tv TimeValue) *big.Rat {
	out := new(big.Rat).Mul(big.NewRat(int64(tv.Coarse), 1), r.CyclePeriod)
	fine := new(big.Rat).Mul(big.NewRat(int64(tv.Fine), 1), r.FineStep())
	return out.Add(out, fine)
}

// SplitCoarse quantizes a time onto whole cycles only, ignoring the fine
// stage. Used for fields that are coarse-valued in every generation,
// such as the soft trigger pulse width.
func (r Resolution) SplitCoarse(seconds *big.Rat) (uint32, bool) {
	coarseOnly := Resolution{
		CyclePeriod:   r.CyclePeriod,
		StepsPerCycle: 1,
		Round:         r.Round,
		MinCoarse:     r.MinCoarse,
	}
	tv, clamped := coarseOnly.Split(seconds)
	return tv.Coarse, clamped
}

// CombineCoarse returns the exact duration of a whole-cycle count
func (r Resolution) CombineCoarse(coarse uint32) *big.Rat {
	return new(big.Rat).Mul(big.NewRat(int64(coarse), 1), r.CyclePeriod)
}
