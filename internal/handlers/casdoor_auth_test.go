package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
)

type stubUserRepo struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s not found", id)
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s not found", email)
}

func (s *stubUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var users []*models.User
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *stubUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := s.byID[id]
	return ok, nil
}

func teacherClaims(id, email string) *casdoorsdk.Claims {
	return &casdoorsdk.Claims{
		User: casdoorsdk.User{
			Id:          id,
			Email:       email,
			DisplayName: "Ada Lovelace",
			Type:        "teacher",
		},
	}
}

func TestResolveUserPrefersRepositoryByID(t *testing.T) {
	stored := &models.User{ID: "u-1", Email: "ada@example.com", Role: models.RoleTeacher}
	cam := &CasdoorAuthMiddleware{userRepo: &stubUserRepo{
		byID: map[string]*models.User{"u-1": stored},
	}}

	user, err := cam.resolveUser(context.Background(), teacherClaims("u-1", "ada@example.com"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if user != stored {
		t.Error("expected the repository user for a known ID")
	}
}

func TestResolveUserFallsBackToEmailLookup(t *testing.T) {
	stored := &models.User{ID: "u-migrated", Email: "ada@example.com", Role: models.RoleTeacher}
	cam := &CasdoorAuthMiddleware{userRepo: &stubUserRepo{
		byEmail: map[string]*models.User{"ada@example.com": stored},
	}}

	user, err := cam.resolveUser(context.Background(), teacherClaims("u-old", "ada@example.com"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if user != stored {
		t.Error("expected the email-matched user when the ID lookup fails")
	}
}

func TestResolveUserBuildsFromClaimsWhenLookupsFail(t *testing.T) {
	cam := &CasdoorAuthMiddleware{userRepo: &stubUserRepo{}}

	user, err := cam.resolveUser(context.Background(), teacherClaims("u-42", "ada@example.com"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if user.ID != "u-42" {
		t.Errorf("expected claims-built user u-42, got %q", user.ID)
	}
	if user.Role != models.RoleTeacher {
		t.Errorf("expected teacher role from claims type, got %q", user.Role)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("expected claims email, got %q", user.Email)
	}
}

func TestResolveUserRejectsEmptyID(t *testing.T) {
	cam := &CasdoorAuthMiddleware{userRepo: &stubUserRepo{}}

	if _, err := cam.resolveUser(context.Background(), teacherClaims("", "ada@example.com")); err == nil {
		t.Error("expected an error for a token without a user ID")
	}
}

func TestMapCasdoorRole(t *testing.T) {
	cam := &CasdoorAuthMiddleware{}

	cases := []struct {
		in   string
		want models.UserRole
	}{
		{"admin", models.RoleAdmin},
		{"Teacher", models.RoleTeacher},
		{"proctor", models.RoleProctor},
		{"student", models.RoleStudent},
		{"unknown-type", models.RoleStudent},
	}
	for _, tc := range cases {
		if got := cam.mapCasdoorRole(tc.in); got != tc.want {
			t.Errorf("mapCasdoorRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
