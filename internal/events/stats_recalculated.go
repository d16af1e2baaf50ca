package events

import "time"

const StatsRecalculatedTopic = "tracker.stats.v1"

type StatsRecalculatedEvent struct {
	EventType  string    `json:"event_type"`
	StatsDate  string    `json:"stats_date"`
	Employees  int       `json:"employees"`
	Failed     int       `json:"failed"`
	OccurredAt time.Time `json:"occurred_at"`
}
