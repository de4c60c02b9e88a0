package postgres

import "time"

// BarRecord is one streamed OHLCV bar persisted by the recorder. Updated
// bars upsert onto the original minute bar via the unique index.
type BarRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index: one row per symbol and bar interval start
	Symbol   string    `gorm:"type:text;not null;index:idx_bar_symbol;index:idx_symbol_kind_start,unique"`
	Kind     string    `gorm:"type:varchar(16);not null;index:idx_symbol_kind_start,unique"`
	BarStart time.Time `gorm:"not null;index:idx_symbol_kind_start,unique"`

	Open  float64 `gorm:"type:numeric;not null"`
	High  float64 `gorm:"type:numeric;not null"`
	Low   float64 `gorm:"type:numeric;not null"`
	Close float64 `gorm:"type:numeric;not null"`

	Volume     int64   `gorm:"not null"`
	TradeCount int64   `gorm:"not null"`
	VWAP       float64 `gorm:"type:numeric"`

	Received time.Time `gorm:"not null;index:idx_bar_received"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (BarRecord) TableName() string {
	return "bar_record"
}
