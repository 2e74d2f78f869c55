package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/scribra-labs/scribra/internal/blog"
	"github.com/scribra-labs/scribra/internal/metrics"
)

const migrationBackfillReadTime = "2026-07-18_backfill_read_time_labels"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillReadTime, apply: backfillReadTimeLabels},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Posts written before read-time labels existed carry an empty label;
// derive one from their content.
func backfillReadTimeLabels(db *gorm.DB) error {
	var posts []blog.Post
	if err := db.Where("read_time = '' OR read_time IS NULL").Find(&posts).Error; err != nil {
		return err
	}
	for _, post := range posts {
		label := metrics.EstimateReadTime(metrics.CountWords(metrics.StripMarkdown(post.Content)))
		if err := db.Model(&blog.Post{}).
			Where("post_id = ?", post.ID).
			Update("read_time", label).Error; err != nil {
			return err
		}
	}
	return nil
}
