package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/startracker/internal/log"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// searchRecord is the gorm model behind PostgresStore.
type searchRecord struct {
	Query      string `gorm:"primaryKey"`
	Identifier string `gorm:"not null"`
	RA         float64
	Dec        float64
	ResolvedAt time.Time
}

func (searchRecord) TableName() string { return "catalog_searches" }

// PostgresStore keeps the search cache in PostgreSQL so several servers can
// share it.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to connectionString and migrates the cache
// table.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to PostgreSQL search cache...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&searchRecord{}); err != nil {
		return nil, fmt.Errorf("unable to migrate search cache: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Get(ctx context.Context, query string) (Entry, error) {
	var r searchRecord
	err := p.db.WithContext(ctx).Where("query = ?", query).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("error querying search %q: %w", query, err)
	}
	return Entry{
		Query:          r.Query,
		Identifier:     r.Identifier,
		RightAscension: r.RA,
		Declination:    r.Dec,
		ResolvedAt:     r.ResolvedAt,
	}, nil
}

func (p *PostgresStore) Put(ctx context.Context, e Entry) error {
	r := searchRecord{
		Query:      e.Query,
		Identifier: e.Identifier,
		RA:         e.RightAscension,
		Dec:        e.Declination,
		ResolvedAt: e.ResolvedAt,
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("error storing search %q: %w", e.Query, err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	if err := p.db.WithContext(ctx).Model(&searchRecord{}).Order("query").Pluck("query", &keys).Error; err != nil {
		return nil, fmt.Errorf("error listing searches: %w", err)
	}
	return keys, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
