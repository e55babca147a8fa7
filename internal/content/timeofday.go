package content

// TimeRecord is the singleton day/night configuration. The bulk
// loader handles it outside the per-kind loop because exactly one row
// exists.
type TimeRecord struct {
	Base

	RangeInterval int     `json:"range_interval,omitempty"`
	Rate          float64 `json:"rate,omitempty"`
	SyncTime      bool    `json:"sync_time,omitempty"`
}

func (t *TimeRecord) RecordKind() Kind { return KindTime }

// DefaultTime is the record seeded when the time table is empty.
func DefaultTime() *TimeRecord {
	return &TimeRecord{
		Base:          Base{Name: "Time"},
		RangeInterval: 6,
		Rate:          1.0,
		SyncTime:      true,
	}
}
