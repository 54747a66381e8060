package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/pkg/metrics"
)

// batchRow is the assessment_batches table.
type batchRow struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	SubmissionID string    `gorm:"index"`
	AirTempC     float64   `gorm:"not null"`
	GlobeTempC   float64   `gorm:"not null"`
	HumidityPct  float64   `gorm:"not null"`
	AirSpeedMS   float64   `gorm:"column:air_speed_ms;not null"`
	Gender       string    `gorm:"size:32"`
	RecordType   string    `gorm:"size:64"`
	Club         string    `gorm:"size:128"`
	Venue        string    `gorm:"size:128"`
	ComputedAt   time.Time `gorm:"not null"`
	StoredAt     time.Time `gorm:"index;not null"`

	Results []resultRow `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

func (batchRow) TableName() string { return "assessment_batches" }

// resultRow is the assessment_results table. HSI and sweat rate are NULL for
// degenerate rows.
type resultRow struct {
	ID           uint      `gorm:"primaryKey"`
	BatchID      string    `gorm:"type:varchar(36);index;not null"`
	Position     int       `gorm:"not null"`
	RecordType   string    `gorm:"size:64"`
	Club         string    `gorm:"size:128;index"`
	Venue        string    `gorm:"size:128;index"`
	Gender       string    `gorm:"size:32"`
	Player       string    `gorm:"size:64;index"`
	HSI          *float64  `gorm:"column:hsi"`
	Assessment   string    `gorm:"size:64"`
	SweatRateLHr *float64  `gorm:"column:sweat_rate_l_hr"`
	CreatedAtLoc string    `gorm:"column:created_at_local;size:19"`
	Degenerate   bool      `gorm:"not null;default:false"`
	StoredAt     time.Time `gorm:"index;not null"`
}

func (resultRow) TableName() string { return "assessment_results" }

// GormStore persists batches through GORM on SQLite or PostgreSQL.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore opens dsn with driver ("sqlite" or "postgres") and migrates
// the schema.
func NewGormStore(ctx context.Context, driver, dsn string, opts ...Option) (*GormStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = "file::memory:"
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("%w: postgres requires a dsn", ErrPersistence)
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrPersistence, driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: sql handle: %w", ErrPersistence, err)
	}
	sqlDB.SetMaxOpenConns(o.maxOpenConns)
	sqlDB.SetMaxIdleConns(o.maxIdleConns)
	sqlDB.SetConnMaxLifetime(o.connMaxLifetime)
	if driver == DriverSQLite {
		// An in-memory database lives and dies with its only connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrPersistence, driver, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&batchRow{}, &resultRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrPersistence, err)
	}

	s := &GormStore{db: db, now: o.now}
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateStoredRecords(n)
	}
	return s, nil
}

func (s *GormStore) Save(ctx context.Context, b model.Batch) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&batchRow{}).Where("id = ?", b.ID).Count(&existing).Error; err != nil {
		return fmt.Errorf("%w: save batch %s: %w", ErrPersistence, b.ID, err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: %w: %s", ErrPersistence, ErrDuplicateBatch, b.ID)
	}

	row := toBatchRow(b, s.now().UTC())
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: save batch %s: %w", ErrPersistence, b.ID, err)
	}
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateStoredRecords(n)
	}
	return nil
}

func (s *GormStore) Batch(ctx context.Context, id string) (model.Batch, error) {
	var row batchRow
	err := s.db.WithContext(ctx).
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Batch{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Batch{}, fmt.Errorf("%w: load batch %s: %w", ErrPersistence, id, err)
	}
	return fromBatchRow(row), nil
}

func (s *GormStore) List(ctx context.Context, q Query) ([]Record, error) {
	tx := s.db.WithContext(ctx).Model(&resultRow{})
	if q.Club != "" {
		tx = tx.Where("LOWER(club) = LOWER(?)", q.Club)
	}
	if q.Venue != "" {
		tx = tx.Where("LOWER(venue) = LOWER(?)", q.Venue)
	}
	if q.Player != "" {
		tx = tx.Where("LOWER(player) = LOWER(?)", q.Player)
	}
	tx = tx.Order("stored_at DESC").Order("batch_id ASC").Order("position ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []resultRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrPersistence, err)
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Record{BatchID: r.BatchID, AssessmentResult: fromResultRow(r)}
	}
	return out, nil
}

func (s *GormStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&batchRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count: %w", ErrPersistence, err)
	}
	return int(n), nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toBatchRow(b model.Batch, storedAt time.Time) batchRow {
	row := batchRow{
		ID:           b.ID,
		SubmissionID: b.SubmissionID,
		AirTempC:     b.Input.AirTempC,
		GlobeTempC:   b.Input.GlobeTempC,
		HumidityPct:  b.Input.HumidityPct,
		AirSpeedMS:   b.Input.AirSpeedMS,
		Gender:       b.Input.Gender,
		RecordType:   b.Input.RecordType,
		Club:         b.Input.Club,
		Venue:        b.Input.Venue,
		ComputedAt:   b.ComputedAt.UTC(),
		StoredAt:     storedAt,
		Results:      make([]resultRow, len(b.Results)),
	}
	for i, r := range b.Results {
		rr := resultRow{
			BatchID:      b.ID,
			Position:     i,
			RecordType:   r.RecordType,
			Club:         r.Club,
			Venue:        r.Venue,
			Gender:       r.Gender,
			Player:       r.Player,
			Assessment:   string(r.Assessment),
			CreatedAtLoc: r.CreatedAt,
			Degenerate:   r.Degenerate,
			StoredAt:     storedAt,
		}
		if !r.Degenerate && r.Finite() {
			hsi, sweat := r.HSI, r.SweatRateLHr
			rr.HSI, rr.SweatRateLHr = &hsi, &sweat
		}
		row.Results[i] = rr
	}
	return row
}

func fromBatchRow(row batchRow) model.Batch {
	b := model.Batch{
		ID:           row.ID,
		SubmissionID: row.SubmissionID,
		Input: model.EnvironmentInput{
			AirTempC:    row.AirTempC,
			GlobeTempC:  row.GlobeTempC,
			HumidityPct: row.HumidityPct,
			AirSpeedMS:  row.AirSpeedMS,
			Gender:      row.Gender,
			RecordType:  row.RecordType,
			Club:        row.Club,
			Venue:       row.Venue,
		},
		ComputedAt: row.ComputedAt,
		Results:    make([]model.AssessmentResult, len(row.Results)),
	}
	for i, r := range row.Results {
		b.Results[i] = fromResultRow(r)
	}
	return b
}

func fromResultRow(r resultRow) model.AssessmentResult {
	out := model.AssessmentResult{
		RecordType:   r.RecordType,
		Club:         r.Club,
		Venue:        r.Venue,
		Gender:       r.Gender,
		Player:       r.Player,
		Assessment:   model.Label(r.Assessment),
		CreatedAt:    r.CreatedAtLoc,
		Degenerate:   r.Degenerate,
		HSI:          math.NaN(),
		SweatRateLHr: math.NaN(),
	}
	if r.HSI != nil {
		out.HSI = *r.HSI
	}
	if r.SweatRateLHr != nil {
		out.SweatRateLHr = *r.SweatRateLHr
	}
	return out
}
