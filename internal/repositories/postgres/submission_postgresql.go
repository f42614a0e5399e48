package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxshorts1-beep/ExamZen123/internal/cache"
	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSubmissionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Create(submission).Error
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := s.getDB(tx)
	var submission models.Submission
	if err := db.WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := s.getDB(tx)
	var submission models.Submission
	if err := db.WithContext(ctx).
		Preload("Answers").
		First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// Update saves grading mutations. Cache entries for the submission and its
// test stats are invalidated so graders see fresh values on the next read.
func (s *SubmissionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Save(submission).Error; err != nil {
		return err
	}
	cache.InvalidateSubmissionCache(ctx, s.cacheManager, submission.ID, submission.TestID, submission.StudentID)
	return nil
}

func (s *SubmissionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Submission{}, id).Error
}

func (s *SubmissionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	db := s.getDB(tx)
	var submissions []*models.Submission
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Submission{})
	query = s.helpers.ApplySubmissionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	filters.TestID = &testID
	return s.List(ctx, tx, filters)
}

func (s *SubmissionPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	filters.StudentID = &studentID
	return s.List(ctx, tx, filters)
}

func (s *SubmissionPostgreSQL) DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Where("test_id = ?", testID).Delete(&models.Submission{}).Error; err != nil {
		return fmt.Errorf("failed to delete submissions for test %d: %w", testID, err)
	}
	return nil
}

func (s *SubmissionPostgreSQL) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	db := s.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Submission{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}
