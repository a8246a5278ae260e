package material

// CostByUser is the derived mapping of username to aggregated approved,
// in-window material spend. It is a pure function of its inputs and is
// recomputed on every call, never cached.
type CostByUser map[string]int64

// AggregateCost reduces the request ledger and pricing index into
// per-username totals for the reporting window. Requests missing a
// username or material id are skipped, unknown materials price at zero;
// the reduction has no failure modes. Accumulation is commutative
// addition, so request ordering never affects the result.
func AggregateCost(requests []MaterialRequest, index PricingIndex, window ReportingWindow, usernameFilter string) CostByUser {
	totals := make(CostByUser)

	for _, r := range FilterLedger(requests, window, usernameFilter) {
		if r.Username == "" || r.MaterialID == "" {
			continue
		}
		totals[r.Username] += r.Quantity * index.UnitPrice(r.MaterialID)
	}

	return totals
}
