package activation

import "sort"

// Summary aggregates a built activation table for reporting
type Summary struct {
	Accounts       int
	Activated      int
	CoreOnly       int
	DealsOnly      int
	Neither        int
	ActivationRate float64 // 0..1, 0 when there are no accounts

	// Accounts whose upstream CreatedDate is NULL; they can never activate.
	MissingCreatedDate int

	// Over activated accounts only; zero when none are activated.
	MedianTimeToValue float64
	MaxTimeToValue    int64
}

// Summarize computes the summary of facts
func Summarize(facts []Fact) Summary {
	var s Summary
	var ttv []int64

	for _, f := range facts {
		s.Accounts++
		if !f.CreatedDate.Valid {
			s.MissingCreatedDate++
		}
		switch {
		case f.IsActivated:
			s.Activated++
			if f.TimeToValueDays.Valid {
				ttv = append(ttv, f.TimeToValueDays.Int64)
			}
		case f.HasCoreSignal():
			s.CoreOnly++
		case f.HasDealSignal():
			s.DealsOnly++
		default:
			s.Neither++
		}
	}

	if s.Accounts > 0 {
		s.ActivationRate = float64(s.Activated) / float64(s.Accounts)
	}

	if len(ttv) > 0 {
		sort.Slice(ttv, func(i, j int) bool { return ttv[i] < ttv[j] })
		mid := len(ttv) / 2
		if len(ttv)%2 == 1 {
			s.MedianTimeToValue = float64(ttv[mid])
		} else {
			s.MedianTimeToValue = float64(ttv[mid-1]+ttv[mid]) / 2
		}
		s.MaxTimeToValue = ttv[len(ttv)-1]
	}

	return s
}
