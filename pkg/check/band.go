package check

import (
	"math"
	"sync"

	"github.com/trueup/trueup/pkg/types"
)

func abs(v float64) float64 {
	return math.Abs(v)
}

// round2 rounds to two decimals. All amounts are Rs Crore and the
// order publishes them at paise-in-crore precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// variancePct computes the variance percentage relative to the
// allowable amount. A claim against a zero allowable is a full
// overclaim, reported as 100.
func variancePct(varAbs, allowable, claimed float64) float64 {
	if allowable != 0 {
		return varAbs / allowable * 100
	}
	if claimed > 0 {
		return 100
	}
	return 0
}

// The standard variance bands, used by checks that do not carry their
// own thresholds. Adjustable through settings.
var (
	bandMu           sync.Mutex
	defaultGreenPct  = 2.0
	defaultYellowPct = 5.0
)

// SetDefaultBands overrides the standard green/yellow variance bands.
// Zero values keep the current bands.
func SetDefaultBands(green, yellow float64) {
	bandMu.Lock()
	defer bandMu.Unlock()
	if green > 0 {
		defaultGreenPct = green
	}
	if yellow > 0 {
		defaultYellowPct = yellow
	}
}

// defaultBandFlag maps an absolute variance percentage onto the
// standard bands.
func defaultBandFlag(absPct float64) types.Flag {
	bandMu.Lock()
	green, yellow := defaultGreenPct, defaultYellowPct
	bandMu.Unlock()
	return bandFlag(absPct, green, yellow)
}

// bandFlag maps an absolute variance percentage onto the standard
// three-band flag: within green is GREEN, within yellow is YELLOW,
// beyond is RED.
func bandFlag(absPct, green, yellow float64) types.Flag {
	switch {
	case absPct <= green:
		return types.FlagGreen
	case absPct <= yellow:
		return types.FlagYellow
	default:
		return types.FlagRed
	}
}

// step builds one row of a calculation trail.
func step(desc string, v float64, unit string) types.Step {
	return types.Step{Description: desc, Value: round2(v), Unit: unit}
}

// note builds a value-less row of a calculation trail.
func note(desc string) types.Step {
	return types.Step{Description: desc}
}
