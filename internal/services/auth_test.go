package services

import (
	"strings"
	"testing"

	"github.com/bountydesk/bountydesk/internal/config"
	"github.com/bountydesk/bountydesk/internal/models"
	"github.com/bountydesk/bountydesk/internal/utils"
	"gorm.io/gorm"
)

func newTestAuthService(db *gorm.DB) *AuthService {
	utils.SetJWTSecret("test-secret-for-auth-testing")
	return NewAuthService(db, &config.Config{
		JWT: config.JWTConfig{
			Secret:     "test-secret-for-auth-testing",
			ExpireHour: 168,
		},
		OAuth: config.OAuthConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			FrontendURL:  "https://portal.example.com",
			BackendURL:   "https://api.portal.example.com",
		},
	})
}

func TestLogin_Success(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(db)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists failed: %v", err)
	}

	resp, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("token should not be empty")
	}
	if resp.User.Role != models.RoleAdmin {
		t.Errorf("role = %q, expected %q", resp.User.Role, models.RoleAdmin)
	}

	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Username != "admin" || claims.Role != models.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(db)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists failed: %v", err)
	}

	if _, err := svc.Login(&LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Error("wrong password should fail")
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))

	if _, err := svc.Login(&LoginRequest{Username: "ghost", Password: "x"}); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestLogin_OAuthUserCannotUsePassword(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(db)

	seedUser(t, db, &models.User{Username: "alice", AuthType: "github"})

	if _, err := svc.Login(&LoginRequest{Username: "alice", Password: ""}); err == nil {
		t.Error("github-auth users must not pass local login")
	}
}

func TestCreateAdminIfNotExists_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(db)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count != 1 {
		t.Errorf("admin count = %d, expected 1", count)
	}
}

func TestUpsertGitHubUser_CreatesReporter(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(db)

	user, err := svc.upsertGitHubUser("newcomer")
	if err != nil {
		t.Fatalf("upsertGitHubUser failed: %v", err)
	}
	if user.Role != models.RoleReporter {
		t.Errorf("role = %q, expected %q", user.Role, models.RoleReporter)
	}
	if user.AuthType != "github" {
		t.Errorf("auth type = %q, expected %q", user.AuthType, "github")
	}
	if user.LastLogin == nil {
		t.Error("LastLogin should be set")
	}
}

func TestUpsertGitHubUser_PreservesRoleAndPoints(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(db)

	seedUser(t, db, &models.User{Username: "rev", Role: models.RoleReviewer, TotalPoints: 42, AuthType: "github"})

	user, err := svc.upsertGitHubUser("rev")
	if err != nil {
		t.Fatalf("upsertGitHubUser failed: %v", err)
	}
	if user.Role != models.RoleReviewer {
		t.Errorf("login demoted role to %q", user.Role)
	}
	if user.TotalPoints != 42 {
		t.Errorf("login changed points to %d", user.TotalPoints)
	}
}

func TestAuthCodeURL(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))

	url := svc.AuthCodeURL()
	if !strings.Contains(url, "client_id=client-id") {
		t.Errorf("authorize URL missing client id: %q", url)
	}
	if !strings.Contains(url, "github.com") {
		t.Errorf("authorize URL should point at GitHub: %q", url)
	}
}

func TestHandleOAuthCallback_MissingCode(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))

	if _, err := svc.HandleOAuthCallback(t.Context(), ""); err == nil {
		t.Error("empty code should fail")
	}
}
