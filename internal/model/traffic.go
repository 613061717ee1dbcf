package model

import "time"

// TrafficSample is a snapshot of live occupancy taken by the poller.
// Counts is ordered by facility ordinal: pools first, then gyms, in the
// order the portal lists them.
type TrafficSample struct {
	SampledAt time.Time `json:"date"`
	Counts    []int     `json:"traffic"`
}

// TrafficKey is the local time of day a historical average belongs to.
// Hour and Minute are zero padded, as they are rendered by the portal.
type TrafficKey struct {
	Hour   string `json:"hour"`
	Minute string `json:"minute"`
}

// TrafficAverage is one point of the historical traffic curve.
type TrafficAverage struct {
	Key   TrafficKey `json:"_id"`
	Date  time.Time  `json:"date"`
	Count float64    `json:"count"`
}
