package stock

import (
	"math"
	"time"
)

// Summary is the dashboard projection over a request collection. It is
// recomputed from the full in-memory slice on every call; nothing is cached
// or incrementally maintained.
type Summary struct {
	Total         int            `json:"total"`
	ByStatus      map[Status]int `json:"by_status"`
	ApprovalRate  int            `json:"approval_rate"`
	ThisMonth     int            `json:"this_month"`
	TotalQuantity int            `json:"total_quantity"`
}

// Summarize computes status counts, the approval rate (rounded percent,
// zero on an empty collection), the count of requests created in the same
// calendar month as now, and the total requested quantity.
func Summarize(reqs []RequestView, now time.Time) Summary {
	s := Summary{
		ByStatus: map[Status]int{
			StatusPending:    0,
			StatusDispatched: 0,
			StatusConfirmed:  0,
			StatusRejected:   0,
		},
	}
	for _, r := range reqs {
		s.Total++
		s.ByStatus[r.Status]++
		s.TotalQuantity += r.TotalQuantity
		if r.CreatedAt.Year() == now.Year() && r.CreatedAt.Month() == now.Month() {
			s.ThisMonth++
		}
	}
	if s.Total > 0 {
		s.ApprovalRate = int(math.Round(float64(s.ByStatus[StatusConfirmed]) / float64(s.Total) * 100))
	}
	return s
}
