package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/donhangtem/orderboard-backend/pkg/auth"
	"github.com/donhangtem/orderboard-backend/pkg/auth/session"
	"github.com/donhangtem/orderboard-backend/pkg/config"
	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/security"
)

type stubUserRepo struct {
	user       *models.User
	lastLogins int
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.user
	return &copied, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, _ time.Time) error {
	s.lastLogins++
	return nil
}

type stubSessionManager struct {
	refreshToken string
	revoked      []string
	rotateErr    error
}

func (s *stubSessionManager) Generate(_ context.Context, _ string) (string, error) {
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, _, _ string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return session.NewAccessID(), "rotated-refresh", nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "orderboard",
		ExpirationMinutes: 30,
	}
}

func buildTestService(t *testing.T, user *models.User, listener StateListener) (Service, *stubSessionManager) {
	t.Helper()
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: sessionMgr,
		JWTConfig:      testJWTConfig(),
		StateListener:  listener,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessionMgr
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Email:        "owner@example.com",
		PasswordHash: mustHashPassword(t, password),
		DisplayName:  "Chủ xưởng",
		Role:         enums.UserRoleOwner,
		IsActive:     true,
	}
}

func TestServiceLoginIssuesTokenPair(t *testing.T) {
	password := "owner-secret"
	user := activeUser(t, password)

	reloads := 0
	svc, _ := buildTestService(t, user, func(context.Context) { reloads++ })

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s, got %s", user.ID, claims.UserID)
	}
	if claims.Role != enums.UserRoleOwner {
		t.Fatalf("expected owner role claim, got %s", claims.Role)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("expected user dto in response")
	}
	if reloads != 1 {
		t.Fatalf("expected board reload on login, got %d", reloads)
	}
}

func TestServiceLoginRejectsWrongPassword(t *testing.T) {
	user := activeUser(t, "correct-password")
	svc, _ := buildTestService(t, user, nil)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "still-knows-it"
	user := activeUser(t, password)
	user.IsActive = false
	svc, _ := buildTestService(t, user, nil)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLogoutRevokesSessionAndNotifies(t *testing.T) {
	reloads := 0
	svc, sessionMgr := buildTestService(t, activeUser(t, "pw"), func(context.Context) { reloads++ })

	if err := svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessionMgr.revoked) != 1 || sessionMgr.revoked[0] != "access-id" {
		t.Fatalf("expected session revoked, got %v", sessionMgr.revoked)
	}
	if reloads != 1 {
		t.Fatalf("expected board reload on logout, got %d", reloads)
	}
}

func TestServiceRefreshRotatesTokens(t *testing.T) {
	password := "pw"
	user := activeUser(t, password)
	svc, _ := buildTestService(t, user, nil)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.RefreshToken != "rotated-refresh" {
		t.Fatalf("expected rotated refresh token, got %q", resp.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("refresh changed the user id claim")
	}
}

func TestServiceRefreshRejectsInvalidRefreshToken(t *testing.T) {
	password := "pw"
	user := activeUser(t, password)
	svc, sessionMgr := buildTestService(t, user, nil)
	sessionMgr.rotateErr = session.ErrInvalidRefreshToken

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: "stolen",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
