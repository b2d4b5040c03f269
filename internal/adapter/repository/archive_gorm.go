package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/repository"
)

// submissionRow is the archive table shape: indexed columns for listing plus
// the full submission payload as JSON.
type submissionRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	SubmitterID  string `gorm:"index;size:128"`
	Status       string `gorm:"index;size:32"`
	ReviewType   string `gorm:"size:16"`
	ReviewCycle  int
	QualityScore *int
	Payload      []byte    `gorm:"type:blob"`
	CreatedAt    time.Time `gorm:"index"`
	ArchivedAt   time.Time `gorm:"index"`
}

func (submissionRow) TableName() string { return "submission_archive" }

// GormArchiveStore persists terminal submissions in sqlite via gorm.
type GormArchiveStore struct {
	db *gorm.DB
}

// NewGormArchiveStore migrates the archive schema and wraps the connection.
func NewGormArchiveStore(db *gorm.DB) (*GormArchiveStore, error) {
	if err := db.AutoMigrate(&submissionRow{}); err != nil {
		return nil, fmt.Errorf("migrate submission archive: %w", err)
	}
	return &GormArchiveStore{db: db}, nil
}

func (s *GormArchiveStore) Save(ctx context.Context, sub *entity.Submission) error {
	row, err := toRow(sub)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("save submission %s: %w", sub.ID, err)
	}
	return nil
}

func (s *GormArchiveStore) Get(ctx context.Context, id string) (*entity.Submission, error) {
	var row submissionRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entity.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load submission %s: %w", id, err)
	}
	return fromRow(&row)
}

func (s *GormArchiveStore) List(ctx context.Context, query repository.ListSubmissionQuery) ([]*entity.Submission, error) {
	tx := s.db.WithContext(ctx).Model(&submissionRow{}).Order("created_at, id")
	if query.Status != "" {
		tx = tx.Where("status = ?", string(query.Status))
	}
	if query.SubmitterID != "" {
		tx = tx.Where("submitter_id = ?", query.SubmitterID)
	}
	if query.Offset > 0 {
		tx = tx.Offset(query.Offset)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	var rows []submissionRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]*entity.Submission, 0, len(rows))
	for i := range rows {
		sub, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *GormArchiveStore) Count(ctx context.Context, query repository.ListSubmissionQuery) (int64, error) {
	tx := s.db.WithContext(ctx).Model(&submissionRow{})
	if query.Status != "" {
		tx = tx.Where("status = ?", string(query.Status))
	}
	if query.SubmitterID != "" {
		tx = tx.Where("submitter_id = ?", query.SubmitterID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}

func toRow(sub *entity.Submission) (*submissionRow, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode submission %s: %w", sub.ID, err)
	}
	return &submissionRow{
		ID:           sub.ID,
		SubmitterID:  sub.SubmitterID,
		Status:       string(sub.Status),
		ReviewType:   string(sub.ReviewType),
		ReviewCycle:  sub.ReviewCycle,
		QualityScore: sub.QualityScore,
		Payload:      payload,
		CreatedAt:    sub.CreatedAt,
		ArchivedAt:   time.Now().UTC(),
	}, nil
}

func fromRow(row *submissionRow) (*entity.Submission, error) {
	var sub entity.Submission
	if err := json.Unmarshal(row.Payload, &sub); err != nil {
		return nil, fmt.Errorf("decode submission %s: %w", row.ID, err)
	}
	return &sub, nil
}
