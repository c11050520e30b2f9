package engine

import "github.com/zappabad/marketsim/internal/randsrc"

// SampleBias draws one market-wide bias from regimes by cumulative
// probability. The last regime absorbs any leftover mass.
func SampleBias(src randsrc.Source, regimes []Regime) (Regime, float64) {
	if len(regimes) == 0 {
		return Regime{Name: "none"}, 0
	}
	u := src.Float64()
	picked := regimes[len(regimes)-1]
	cum := 0.0
	for _, r := range regimes {
		cum += r.Probability
		if u < cum {
			picked = r
			break
		}
	}
	return picked, randsrc.Uniform(src, picked.Min, picked.Max)
}
