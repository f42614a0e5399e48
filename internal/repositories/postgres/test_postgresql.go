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

type TestPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	db := t.getDB(tx)
	return db.WithContext(ctx).Create(test).Error
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var test models.Test

	err := t.cacheManager.Test.CacheOrExecute(ctx, cacheKey, &test, cache.TestCacheConfig.TTL, func() (interface{}, error) {
		var dbTest models.Test
		if err := db.WithContext(ctx).First(&dbTest, id).Error; err != nil {
			return nil, err
		}
		return &dbTest, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}

	return &test, nil
}

func (t *TestPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	var test models.Test
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.\"order\" ASC, questions.id ASC")
		}).
		First(&test, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	test.QuestionCount = len(test.Questions)
	return &test, nil
}

// Delete removes the test row and drops every cache entry derived from it,
// so readers cannot resurrect a deleted test from cache.
func (t *TestPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := t.getDB(tx)

	var test models.Test
	teacherID := ""
	if err := db.WithContext(ctx).Select("teacher_id").First(&test, id).Error; err == nil {
		teacherID = test.TeacherID
	}

	if err := db.WithContext(ctx).Delete(&models.Test{}, id).Error; err != nil {
		return err
	}

	cache.InvalidateTestCache(ctx, t.cacheManager, id, teacherID)
	cache.SafeDelete(ctx, t.cacheManager.Exists, fmt.Sprintf("test:id:%d", id))
	return nil
}

func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	db := t.getDB(tx)
	var tests []*models.Test
	var total int64

	query := db.WithContext(ctx).Model(&models.Test{})
	query = t.helpers.ApplyTestFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = t.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&tests).Error; err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

func (t *TestPostgreSQL) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	filters.TeacherID = &teacherID
	return t.List(ctx, tx, filters)
}

func (t *TestPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := t.getDB(tx)

	cacheKey := fmt.Sprintf("test:id:%d", id)
	if exists, err := t.cacheManager.Exists.Exists(ctx, cacheKey); err == nil && exists {
		return true, nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Test{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}

	if count > 0 {
		_ = t.cacheManager.Exists.Set(ctx, cacheKey, true, cache.ExistsCacheConfig.TTL)
	}

	return count > 0, nil
}

func (t *TestPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.TestStats, error) {
	db := t.getDB(tx)
	cacheKey := fmt.Sprintf("test:%d:summary", id)
	var stats repositories.TestStats

	err := t.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var result repositories.TestStats

		var total, graded int64
		if err := db.WithContext(ctx).Model(&models.Submission{}).Where("test_id = ?", id).Count(&total).Error; err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Model(&models.Submission{}).
			Where("test_id = ? AND status = ?", id, models.SubmissionGraded).
			Count(&graded).Error; err != nil {
			return nil, err
		}

		var avg *float64
		if err := db.WithContext(ctx).Model(&models.Submission{}).
			Where("test_id = ? AND final_score IS NOT NULL", id).
			Select("AVG(final_score)").Scan(&avg).Error; err != nil {
			return nil, err
		}

		var questionCount int64
		if err := db.WithContext(ctx).Model(&models.Question{}).Where("test_id = ?", id).Count(&questionCount).Error; err != nil {
			return nil, err
		}

		result.TotalSubmissions = int(total)
		result.GradedSubmissions = int(graded)
		if avg != nil {
			result.AverageScore = *avg
		}
		result.QuestionCount = int(questionCount)
		return &result, nil
	})

	return &stats, err
}
