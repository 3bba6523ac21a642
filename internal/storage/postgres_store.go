package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/yingtu35/site-deadlink-crawler/internal/config"
	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// DeadlinkRow is one row of the deadlink_records table.
type DeadlinkRow struct {
	ID           uint      `gorm:"primaryKey"`
	Site         string    `gorm:"index;not null"`
	Source       string    `gorm:"not null"`
	Deadlink     string    `gorm:"not null"`
	DiscoveredAt time.Time `gorm:"not null"`
}

func (DeadlinkRow) TableName() string {
	return "deadlink_records"
}

// HistoryRow is one row of the scan_history table, unique per (site, url).
type HistoryRow struct {
	Site        string    `gorm:"primaryKey"`
	URL         string    `gorm:"primaryKey;column:url"`
	LastScanned time.Time `gorm:"not null"`
}

func (HistoryRow) TableName() string {
	return "scan_history"
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// PostgresStore persists records through gorm.
type PostgresStore struct {
	DB   *gorm.DB
	site string
}

func NewPostgresStore(db *gorm.DB, site string) *PostgresStore {
	return &PostgresStore{DB: db, site: site}
}

// Migrate creates or updates both tables.
func (p *PostgresStore) Migrate() error {
	return p.DB.AutoMigrate(&DeadlinkRow{}, &HistoryRow{})
}

func (p *PostgresStore) AppendDeadlink(ctx context.Context, record domain.DeadlinkRecord) error {
	row := DeadlinkRow{
		Site:         p.site,
		Source:       record.Source,
		Deadlink:     record.Deadlink,
		DiscoveredAt: record.DiscoveredAt,
	}
	if err := p.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert dead link: %w", err)
	}
	return nil
}

func (p *PostgresStore) UpsertHistory(ctx context.Context, record domain.HistoryRecord) error {
	row := HistoryRow{Site: p.site, URL: record.URL, LastScanned: record.LastScanned}
	err := p.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "site"}, {Name: "url"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_scanned"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert scan history: %w", err)
	}
	return nil
}

func (p *PostgresStore) LoadHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	var rows []HistoryRow
	if err := p.DB.WithContext(ctx).Where("site = ?", p.site).Find(&rows).Error; err != nil {
		return nil, &StorageUnavailableError{Backend: config.StoragePostgres, Err: err}
	}

	records := make([]domain.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.HistoryRecord{URL: row.URL, LastScanned: row.LastScanned})
	}
	return records, nil
}

func (p *PostgresStore) LoadExistingResults(ctx context.Context) ([]domain.DeadlinkRecord, error) {
	var rows []DeadlinkRow
	if err := p.DB.WithContext(ctx).Where("site = ?", p.site).Order("id").Find(&rows).Error; err != nil {
		return nil, &StorageUnavailableError{Backend: config.StoragePostgres, Err: err}
	}

	records := make([]domain.DeadlinkRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.DeadlinkRecord{
			Source:       row.Source,
			Deadlink:     row.Deadlink,
			DiscoveredAt: row.DiscoveredAt,
		})
	}
	return records, nil
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
