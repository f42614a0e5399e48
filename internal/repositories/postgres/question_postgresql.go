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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(&questions).Error
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByTest returns the catalog in authoring order. Catalogs are immutable in
// the grading flow so this is a safe cache target.
func (q *QuestionPostgreSQL) GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("test:%d:catalog", testID)
	var questions []*models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &questions, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestions []*models.Question
		if err := db.WithContext(ctx).
			Where("test_id = ?", testID).
			Order("\"order\" ASC, id ASC").
			Find(&dbQuestions).Error; err != nil {
			return nil, err
		}
		return dbQuestions, nil
	})

	return questions, err
}

func (q *QuestionPostgreSQL) DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Where("test_id = ?", testID).Delete(&models.Question{}).Error
}

func (q *QuestionPostgreSQL) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Question{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}
