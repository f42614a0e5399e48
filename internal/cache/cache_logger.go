package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateSubmissionCache invalidates all caches touched by a submission
// write (create, grade, delete).
func InvalidateSubmissionCache(ctx context.Context, cm *CacheManager, submissionID, testID uint, studentID string) {
	SafeDelete(ctx, cm.Submission,
		fmt.Sprintf("id:%d", submissionID),
		fmt.Sprintf("details:%d", submissionID))

	SafeInvalidatePattern(ctx, cm.Submission, fmt.Sprintf("test:%d:*", testID))
	SafeInvalidatePattern(ctx, cm.Submission, fmt.Sprintf("student:%s:*", studentID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("test:%d:*", testID))
	SafeInvalidatePattern(ctx, cm.Fast, fmt.Sprintf("submission:%d*", submissionID))
}

// InvalidateTestCache invalidates all caches touched by a test write. Runs
// at the end of the deletion cascade.
func InvalidateTestCache(ctx context.Context, cm *CacheManager, testID uint, teacherID string) {
	SafeDelete(ctx, cm.Test,
		fmt.Sprintf("id:%d", testID),
		fmt.Sprintf("details:%d", testID))

	SafeInvalidatePattern(ctx, cm.Test, fmt.Sprintf("teacher:%s:*", teacherID))
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("test:%d:*", testID))
	SafeInvalidatePattern(ctx, cm.Submission, fmt.Sprintf("test:%d:*", testID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("test:%d:*", testID))
}
