package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"tradestream/internal/stream"
)

// InsertBar upserts a bar row. Bar corrections ("updated bars") arrive with
// the same (symbol, kind, start) key and must overwrite the original, so
// conflicts update the price columns in place.
func (p *PostgresClient) InsertBar(ctx context.Context, record *BarRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "kind"},
			{Name: "bar_start"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"open", "high", "low", "close", "volume", "trade_count", "vwap", "received",
		}),
	}).Create(record)

	if tx.Error != nil {
		return fmt.Errorf("insert bar: %w", tx.Error)
	}
	return nil
}

// RecordBar implements the stream's bar sink over the bar table. Non-bar
// records are ignored.
func (p *PostgresClient) RecordBar(ctx context.Context, rec stream.Record) error {
	if rec.Bar == nil {
		return nil
	}
	return p.InsertBar(ctx, ToBarRecord(rec))
}

// GetBar fetches one stored bar by its unique key.
func (p *PostgresClient) GetBar(ctx context.Context, symbol, kind string, start time.Time) (*BarRecord, error) {
	var bar BarRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND kind = ? AND bar_start = ?", symbol, kind, start).
		First(&bar).Error

	if err != nil {
		return nil, err
	}
	return &bar, nil
}

// DeleteOldBars removes bars whose interval started before the cutoff.
func (p *PostgresClient) DeleteOldBars(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("bar_start < ?", before).
		Delete(&BarRecord{}).Error
}

// ToBarRecord converts a buffered bar record into its DB row.
func ToBarRecord(rec stream.Record) *BarRecord {
	b := rec.Bar
	return &BarRecord{
		Symbol:     rec.Symbol,
		Kind:       string(rec.Kind),
		BarStart:   b.Timestamp,
		Open:       b.Open,
		High:       b.High,
		Low:        b.Low,
		Close:      b.Close,
		Volume:     b.Volume,
		TradeCount: b.TradeCount,
		VWAP:       b.VWAP,
		Received:   rec.Received,
	}
}
