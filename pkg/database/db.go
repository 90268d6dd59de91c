package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appLog "github.com/arnavshah/festival-planner-go/internal/log"
)

const dateLayout = "2006-01-02"

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
	// RevokedAt marks a tombstone row; the HMAC signature alone stays valid.
	RevokedAt  *time.Time `json:"revoked_at"`
}

// APIUsage represents the api_usage table, one row per key and day
type APIUsage struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	KeyID           uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date            string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount    int    `gorm:"default:0" json:"request_count"`
	TotalEvents     int    `gorm:"default:0" json:"total_events"`
	TotalSelections int    `gorm:"default:0" json:"total_selections"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open connects to Postgres when dsn is set and to a SQLite file at dataPath
// otherwise, then migrates the schema.
func Open(dsn, dataPath string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		if dataPath == "" {
			dataPath = "festival.db"
		}
		db, err = gorm.Open(sqlite.Open(dataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

// RecordUsage bumps today's counters for a key using a single upsert
// (supported by both Postgres and SQLite).
func RecordUsage(db *gorm.DB, keyID uint, events, selections int, now time.Time) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":    gorm.Expr("request_count + ?", 1),
			"total_events":     gorm.Expr("total_events + ?", events),
			"total_selections": gorm.Expr("total_selections + ?", selections),
		}),
	}).Create(&APIUsage{
		KeyID:           keyID,
		Date:            now.Format(dateLayout),
		RequestCount:    1,
		TotalEvents:     events,
		TotalSelections: selections,
	}).Error
}

// UsageForKey returns the most recent usage rows of a key, newest first.
func UsageForKey(db *gorm.DB, keyID uint, limit int) ([]APIUsage, error) {
	var usage []APIUsage
	err := db.Where("key_id = ?", keyID).Order("date desc").Limit(limit).Find(&usage).Error
	return usage, err
}

// PruneUsage deletes usage rows dated before cutoff and reports how many
// were removed.
func PruneUsage(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("date < ?", cutoff.Format(dateLayout)).Delete(&APIUsage{})
	if res.Error != nil {
		return 0, res.Error
	}
	appLog.Info("usage rows pruned", "before", cutoff.Format(dateLayout), "count", res.RowsAffected)
	return res.RowsAffected, nil
}
