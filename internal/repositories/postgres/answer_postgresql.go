package postgres

import (
	"context"
	"fmt"

	"github.com/fxshorts1-beep/ExamZen123/internal/cache"
	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AnswerPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(&answers).Error
}

func (a *AnswerPostgreSQL) GetBySubmission(ctx context.Context, tx *gorm.DB, submissionID uint) ([]*models.Answer, error) {
	db := a.getDB(tx)
	var answers []*models.Answer
	if err := db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

// GetByTest joins through submissions so cohort statistics need one query
// instead of one per submission.
func (a *AnswerPostgreSQL) GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Answer, error) {
	db := a.getDB(tx)
	var answers []*models.Answer
	if err := db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = answers.submission_id").
		Where("submissions.test_id = ?", testID).
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get answers for test %d: %w", testID, err)
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uint) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&models.Answer{}).Error
}

// DeleteByTest removes every answer belonging to any submission of the test.
// Used by the deletion cascade before submissions themselves go.
func (a *AnswerPostgreSQL) DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).
		Where("submission_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&models.Submission{}).
				Select("id").
				Where("test_id = ?", testID)).
		Delete(&models.Answer{}).Error
}
