package models

// ScheduleRange is one sub-range of a weekday's working hours. Bounds are
// hour strings ("9", "17"); malformed bounds are skipped during slot
// enumeration rather than failing the whole day.
type ScheduleRange struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// DaySchedule is the working-hours configuration for one weekday.
type DaySchedule struct {
	Enabled bool            `bson:"enabled" json:"enabled"`
	Ranges  []ScheduleRange `bson:"ranges" json:"ranges"`
}

// WeekSchedule maps lowercase weekday names ("monday"...) to day schedules.
type WeekSchedule map[string]DaySchedule

// PriceTier assigns a price and label to hours in [StartHour, EndHour).
// Tier resolution is first-match over the configured tiers.
type PriceTier struct {
	StartHour int     `bson:"start_hour" json:"startHour"`
	EndHour   int     `bson:"end_hour" json:"endHour"`
	Price     float64 `bson:"price" json:"price"`
	Label     string  `bson:"label" json:"label"`
}

// AvailabilitySlot is one computed hourly slot for a resource and date. It is
// ephemeral and never persisted.
type AvailabilitySlot struct {
	Hour      int     `json:"hour"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
	Tier      string  `json:"tier"`
}
