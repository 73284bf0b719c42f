package journal

import "vantage/state"

// KellyCeiling is the hard cap on the Kelly fraction for one trade; a trade
// at the cap risks the full FixedRiskBudget (dollar risk is FixedRiskBudget
// scaled by fraction/KellyCeiling, no account equity enters sizing). It is
// applied after halving the raw Kelly fraction (spec.md §4.6
// "half-Kelly ceiling"): full Kelly is already aggressive, and paper-trading
// a signal engine with an evolving confidence estimate warrants an extra
// margin of safety on top of the standard half-Kelly discipline.
const KellyCeiling = 0.05

// FixedRiskBudget is the fixed notional risk budget every paper trade is
// sized against (spec.md §3 PaperTrade, §4.6 "risk is capped at a fixed
// notional (e.g. $2,000) per trade"), replacing an account-equity-percentage
// model: the simulated account's total size never enters sizing, so growing
// or shrinking paper-trading "equity" can't inflate or deflate position size.
const FixedRiskBudget = 2000.0

// calculateKellySize derives a position size from the setup's confidence
// (used as the win-probability estimate) and risk:reward ratio via the
// standard Kelly formula f* = p - (1-p)/R, halved, then capped at
// KellyCeiling and floored at zero (a negative edge sizes to zero, never a
// short position implied by the formula itself). The capped fraction scales
// FixedRiskBudget rather than a simulated account equity, so the dollar risk
// on any single trade never exceeds FixedRiskBudget.
func calculateKellySize(setup state.TradeSetup) state.KellySizing {
	p := float64(setup.Confidence.Blended) / 100
	r := setup.RiskReward
	if r <= 0 {
		r = 1
	}

	f := p - (1-p)/r
	f = f / 2 // half-Kelly
	if f < 0 {
		f = 0
	}
	if f > KellyCeiling {
		f = KellyCeiling
	}

	dollarRisk := FixedRiskBudget * (f / KellyCeiling)
	shares := 0
	riskPerShare := entryStopDistance(setup)
	if riskPerShare > 0 {
		shares = int(dollarRisk / riskPerShare)
	}

	return state.KellySizing{
		Pct:    f,
		Size:   dollarRisk,
		Shares: shares,
	}
}

func entryStopDistance(setup state.TradeSetup) float64 {
	d := setup.Entry - setup.Stop
	if d < 0 {
		d = -d
	}
	return d
}
