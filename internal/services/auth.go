package services

import (
	"context"
	"errors"
	"time"

	"github.com/bountydesk/bountydesk/internal/config"
	"github.com/bountydesk/bountydesk/internal/models"
	"github.com/bountydesk/bountydesk/internal/utils"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
	oauthConf *oauth2.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	redirectURL := cfg.OAuth.BackendURL
	if redirectURL != "" {
		redirectURL += "/api/auth/github/callback"
	}
	return &AuthService{
		db:        db,
		jwtConfig: &cfg.JWT,
		oauthConf: &oauth2.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			Scopes:       []string{"read:user"},
			Endpoint:     oauthgithub.Endpoint,
			RedirectURL:  redirectURL,
		},
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

// Login authenticates a local account (the seeded admin) and returns a JWT.
// Regular reporters and reviewers sign in through GitHub OAuth instead.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.User
	if err := s.db.Where("username = ? AND auth_type = ?", req.Username, "local").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid username or password")
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, errors.New("invalid username or password")
	}

	return s.issueToken(&user)
}

// AuthCodeURL returns the GitHub authorization URL the browser is redirected to.
func (s *AuthService) AuthCodeURL() string {
	return s.oauthConf.AuthCodeURL("")
}

// HandleOAuthCallback exchanges the authorization code, resolves the GitHub
// account behind it, upserts the matching user with the default reporter role
// and returns a signed JWT.
func (s *AuthService) HandleOAuthCallback(ctx context.Context, code string) (*LoginResponse, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	token, err := s.oauthConf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.New("github token exchange failed")
	}

	client := github.NewClient(s.oauthConf.Client(ctx, token))
	ghUser, _, err := client.Users.Get(ctx, "")
	if err != nil || ghUser.GetLogin() == "" {
		return nil, errors.New("failed to fetch github user")
	}

	user, err := s.upsertGitHubUser(ghUser.GetLogin())
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// upsertGitHubUser finds or creates the account for a GitHub login. Existing
// roles and point totals are never touched by a login.
func (s *AuthService) upsertGitHubUser(login string) (*models.User, error) {
	user := models.User{
		Username: login,
		Role:     models.RoleReporter,
		AuthType: "github",
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(&user).Error
	if err != nil {
		return nil, err
	}

	var existing models.User
	if err := s.db.Where("username = ?", login).First(&existing).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	existing.LastLogin = &now
	s.db.Model(&existing).Update("last_login", now)

	return &existing, nil
}

func (s *AuthService) issueToken(user *models.User) (*LoginResponse, error) {
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, s.jwtConfig.ExpireHour)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:    token,
		User:     user,
		ExpireAt: time.Now().Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
	}, nil
}

// GetUserByID retrieves a user by primary key.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the default local admin account.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword("admin")
	if err != nil {
		return err
	}

	admin := models.User{
		Username: "admin",
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		AuthType: "local",
	}
	return s.db.Create(&admin).Error
}
