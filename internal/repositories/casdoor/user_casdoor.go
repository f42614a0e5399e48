package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// UserCasdoor resolves users against Casdoor with a Redis read-through cache.
type UserCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client
	config CasdoorConfig

	cachePrefix string
	cacheTTL    time.Duration
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &UserCasdoor{
		client:      client,
		redis:       redisClient,
		config:      config,
		cachePrefix: "user:",
		cacheTTL:    15 * time.Minute,
	}
}

func (u *UserCasdoor) getCacheKey(key string) string {
	return fmt.Sprintf("%s%s", u.cachePrefix, key)
}

func (u *UserCasdoor) getUserFromCache(ctx context.Context, key string) (*models.User, error) {
	if u.redis == nil {
		return nil, nil
	}

	data, err := u.redis.Get(ctx, u.getCacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}

	return &user, nil
}

func (u *UserCasdoor) setUserCache(ctx context.Context, key string, user *models.User) {
	if u.redis == nil {
		return
	}

	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	u.redis.Set(ctx, u.getCacheKey(key), data, u.cacheTTL)
}

// convertCasdoorUserToModel converts a Casdoor user to the internal model
func (u *UserCasdoor) convertCasdoorUserToModel(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	return &models.User{
		ID:            casdoorUser.Id,
		FullName:      casdoorUser.DisplayName,
		Email:         casdoorUser.Email,
		Role:          u.resolveRole(casdoorUser),
		AvatarURL:     &casdoorUser.Avatar,
		EmailVerified: casdoorUser.EmailVerified,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// resolveRole maps Casdoor roles to a single primary role. Admin wins when
// present; the first mappable role wins otherwise.
func (u *UserCasdoor) resolveRole(casdoorUser *casdoorsdk.User) models.UserRole {
	if casdoorUser.IsAdmin {
		return models.RoleAdmin
	}

	for _, casdoorRole := range casdoorUser.Roles {
		mapped := mapCasdoorRole(casdoorRole.Name)
		if mapped == models.RoleAdmin {
			return models.RoleAdmin
		}
		if mapped != "" {
			return mapped
		}
	}

	return models.RoleStudent
}

func mapCasdoorRole(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "student", "learner":
		return models.RoleStudent
	case "teacher", "instructor":
		return models.RoleTeacher
	case "proctor":
		return models.RoleProctor
	case "admin", "administrator":
		return models.RoleAdmin
	default:
		return ""
	}
}

// GetByID retrieves a user by ID
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	if cachedUser, err := u.getUserFromCache(ctx, cacheKey); err == nil && cachedUser != nil {
		return cachedUser, nil
	}

	casdoorUser, err := u.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}

	if casdoorUser == nil {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}

	user := u.convertCasdoorUserToModel(casdoorUser)
	u.setUserCache(ctx, cacheKey, user)
	u.setUserCache(ctx, fmt.Sprintf("email:%s", user.Email), user)

	return user, nil
}

// GetByEmail retrieves a user by email
func (u *UserCasdoor) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	cacheKey := fmt.Sprintf("email:%s", email)
	if cachedUser, err := u.getUserFromCache(ctx, cacheKey); err == nil && cachedUser != nil {
		return cachedUser, nil
	}

	casdoorUser, err := u.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}

	if casdoorUser == nil {
		return nil, fmt.Errorf("user with email %s: %w", email, repositories.ErrNotFound)
	}

	user := u.convertCasdoorUserToModel(casdoorUser)
	u.setUserCache(ctx, cacheKey, user)
	u.setUserCache(ctx, fmt.Sprintf("id:%s", user.ID), user)

	return user, nil
}

// GetByIDs retrieves multiple users by their IDs. Individual misses are
// skipped rather than failing the whole batch.
func (u *UserCasdoor) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := u.GetByID(ctx, id)
		if err == nil && user != nil {
			users = append(users, user)
		}
	}

	return users, nil
}

// ExistsByID checks if a user exists by ID
func (u *UserCasdoor) ExistsByID(ctx context.Context, id string) (bool, error) {
	cacheKey := u.getCacheKey(fmt.Sprintf("exists:id:%s", id))
	if u.redis != nil {
		exists, err := u.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			return exists == "true", nil
		}
	}

	user, err := u.client.GetUser(id)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	exists := user != nil

	if u.redis != nil {
		u.redis.Set(ctx, cacheKey, fmt.Sprintf("%t", exists), 1*time.Minute)
	}

	return exists, nil
}
