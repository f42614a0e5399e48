package postgres

import (
	"context"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountSubmissions counts submissions for a test
func (h *SharedHelpers) CountSubmissions(ctx context.Context, testID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("test_id = ?", testID).
		Count(&count).Error
	return count, err
}

// CountSubmissionsByStatus counts submissions by status
func (h *SharedHelpers) CountSubmissionsByStatus(ctx context.Context, testID uint, status models.SubmissionStatus) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("test_id = ? AND status = ?", testID, status).
		Count(&count).Error
	return count, err
}

// ApplyTestFilters applies common filters to test queries
func (h *SharedHelpers) ApplyTestFilters(query *gorm.DB, filters repositories.TestFilters) *gorm.DB {
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplySubmissionFilters applies common filters to submission queries
func (h *SharedHelpers) ApplySubmissionFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"id":           true,
		"title":        true,
		"status":       true,
		"submitted_at": true,
		"final_score":  true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
