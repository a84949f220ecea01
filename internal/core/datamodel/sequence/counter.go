package sequence

// Counter backs the identifier sequencer. One row per (kind, year); Seq only
// ever moves forward via a single atomic upsert, never read-modify-write.
type Counter struct {
	Kind string `gorm:"column:kind;primaryKey"`
	Year int    `gorm:"column:year;primaryKey"`
	Seq  int64  `gorm:"column:seq;not null"`
}

func (Counter) TableName() string {
	return "counters"
}
