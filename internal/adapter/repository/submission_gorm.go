package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/repository"
)

// activeRow is the active submission table: the workflow state lives in the
// JSON payload, indexed columns exist for listing only.
type activeRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	SubmitterID string `gorm:"index;size:128"`
	Status      string `gorm:"index;size:32"`
	Payload     []byte `gorm:"type:blob"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (activeRow) TableName() string { return "submissions" }

// GormSubmissionStore persists active submissions in sqlite so the workflow
// survives across CLI invocations.
type GormSubmissionStore struct {
	db *gorm.DB
}

// NewGormSubmissionStore migrates the submissions schema and wraps the
// connection.
func NewGormSubmissionStore(db *gorm.DB) (*GormSubmissionStore, error) {
	if err := db.AutoMigrate(&activeRow{}); err != nil {
		return nil, fmt.Errorf("migrate submissions: %w", err)
	}
	return &GormSubmissionStore{db: db}, nil
}

func (s *GormSubmissionStore) Create(ctx context.Context, sub *entity.Submission) error {
	row, err := toActiveRow(sub)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Create(row).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return entity.ErrSubmissionExists
	}
	if err != nil {
		return fmt.Errorf("create submission %s: %w", sub.ID, err)
	}
	return nil
}

func (s *GormSubmissionStore) Get(ctx context.Context, id string) (*entity.Submission, error) {
	return getActive(s.db.WithContext(ctx), id)
}

// Update applies fn inside a transaction with the row locked, so concurrent
// reviewer feedback serializes instead of clobbering each other's slots.
func (s *GormSubmissionStore) Update(ctx context.Context, id string, fn func(*entity.Submission) error) (*entity.Submission, error) {
	var out *entity.Submission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := getActive(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if err := fn(sub); err != nil {
			return err
		}
		row, err := toActiveRow(sub)
		if err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("save submission %s: %w", id, err)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormSubmissionStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&activeRow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete submission %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return entity.ErrSubmissionNotFound
	}
	return nil
}

func (s *GormSubmissionStore) List(ctx context.Context, query repository.ListSubmissionQuery) ([]*entity.Submission, error) {
	tx := s.db.WithContext(ctx).Model(&activeRow{}).Order("created_at, id")
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
	var rows []activeRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]*entity.Submission, 0, len(rows))
	for i := range rows {
		sub, err := fromActiveRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func getActive(tx *gorm.DB, id string) (*entity.Submission, error) {
	var row activeRow
	err := tx.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entity.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load submission %s: %w", id, err)
	}
	return fromActiveRow(&row)
}

func toActiveRow(sub *entity.Submission) (*activeRow, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode submission %s: %w", sub.ID, err)
	}
	return &activeRow{
		ID:          sub.ID,
		SubmitterID: sub.SubmitterID,
		Status:      string(sub.Status),
		Payload:     payload,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
	}, nil
}

func fromActiveRow(row *activeRow) (*entity.Submission, error) {
	var sub entity.Submission
	if err := json.Unmarshal(row.Payload, &sub); err != nil {
		return nil, fmt.Errorf("decode submission %s: %w", row.ID, err)
	}
	return &sub, nil
}
