package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/auth"
	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/internal/repository"
	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type SignUpInput struct {
	Email         string `json:"email"           validate:"required,email,max=254"`
	Password      string `json:"password"        validate:"required,min=8,max=72"`
	PendingUserID string `json:"pending_user_id" validate:"required,uuid"`
}

type ProfileInput struct {
	FirstName    string `json:"first_name"    validate:"required,max=100"`
	LastName     string `json:"last_name"     validate:"required,max=100"`
	Nickname     string `json:"nickname"      validate:"max=100"`
	DateOfBirth  string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	PhoneNumber  string `json:"phone_number"  validate:"required,max=40"`
	AboutMe      string `json:"about_me"      validate:"required,max=2000"`
	ProfilePhoto string `json:"profile_photo" validate:"required,url"`
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	Token           string    `json:"token"`
	ExpiresAt       time.Time `json:"expires_at"`
	UserID          string    `json:"user_id"`
	ProfileComplete bool      `json:"profile_complete"`
}

// AccountService covers activation, sign-up, sign-in and profile completion.
type AccountService struct {
	users      UserStore
	tokens     TokenIssuer
	cache      DirectoryCache
	bcryptCost int
}

func NewAccountService(users UserStore, tokens TokenIssuer, cache DirectoryCache, bcryptCost int) *AccountService {
	return &AccountService{users: users, tokens: tokens, cache: cache, bcryptCost: bcryptCost}
}

// VerifyPendingUser returns the id of the pending user holding code in department.
func (s *AccountService) VerifyPendingUser(ctx context.Context, department, code string) (string, error) {
	department = strings.TrimSpace(department)
	code = strings.TrimSpace(code)
	if department == "" || code == "" {
		return "", fmt.Errorf("%w: department and activation code are required", ErrValidation)
	}

	p, err := s.users.PendingByActivation(ctx, department, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Log.Info("activation code mismatch", logger.String("department", department))
			return "", ErrActivationMismatch
		}
		return "", fmt.Errorf("verify pending user: %w", err)
	}
	return p.ID, nil
}

// SignUp creates the account of a verified pending user and signs it in.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	pending, err := s.users.PendingByID(ctx, in.PendingUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActivationMismatch
		}
		return nil, fmt.Errorf("load pending user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	pendingID := pending.ID
	acc := &model.Account{
		ID:               uuid.New().String(),
		Email:            in.Email,
		PasswordHash:     hash,
		Department:       pending.Department,
		Gender:           pending.Gender,
		OriginalFullName: pending.FullName,
		PendingID:        &pendingID,
	}
	if err := s.users.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			logger.Log.Warn("email already registered", logger.String("email", in.Email))
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	logger.Log.Info("account created", logger.String("user_id", acc.ID), logger.String("department", acc.Department))
	return s.issue(acc.ID, false)
}

// SignIn checks credentials and reports whether the profile still has to be completed.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	acc, err := s.users.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Log.Warn("incorrect login", logger.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !auth.VerifyPassword(acc.PasswordHash, password) {
		logger.Log.Warn("incorrect password", logger.String("email", email))
		return nil, ErrInvalidCredentials
	}

	done, err := s.users.HasProfile(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("check profile: %w", err)
	}
	return s.issue(acc.ID, done)
}

func (s *AccountService) issue(userID string, profileComplete bool) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, UserID: userID, ProfileComplete: profileComplete}, nil
}

// CompleteProfile turns the caller's account into an active user.
func (s *AccountService) CompleteProfile(ctx context.Context, who model.Identity, in ProfileInput) (*model.ActiveUser, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.AboutMe = strings.TrimSpace(in.AboutMe)
	in.ProfilePhoto = strings.TrimSpace(in.ProfilePhoto)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	dob, err := time.Parse(dateLayout, in.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", ErrValidation)
	}

	acc, err := s.users.AccountByID(ctx, who.UserID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	u := &model.ActiveUser{
		ID:           acc.ID,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		FullName:     FullName(in.FirstName, in.Nickname, in.LastName),
		Department:   acc.Department,
		Gender:       acc.Gender,
		DateOfBirth:  dob,
		PhoneNumber:  in.PhoneNumber,
		AboutMe:      in.AboutMe,
		ProfilePhoto: in.ProfilePhoto,
	}
	if in.Nickname != "" {
		nick := in.Nickname
		u.Nickname = &nick
	}
	if err := s.users.CreateActiveUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrProfileExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if acc.PendingID != nil {
		if err := s.users.DeletePending(ctx, *acc.PendingID); err != nil {
			logger.Log.Warn("pending user cleanup failed", logger.String("pending_id", *acc.PendingID), logger.Error(err))
		}
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Log.Warn("directory cache invalidation failed", logger.Error(err))
	}

	logger.Log.Info("profile completed", logger.String("user_id", u.ID))
	return u, nil
}

// FullName renders First "Nick" Last, or First Last without a nickname.
func FullName(first, nickname, last string) string {
	if nickname == "" {
		return first + " " + last
	}
	return first + ` "` + nickname + `" ` + last
}

// Directory lists every completed profile, served from the cache when possible.
func (s *AccountService) Directory(ctx context.Context) ([]model.DirectoryEntry, error) {
	if entries, ok := s.cache.Get(ctx); ok {
		return entries, nil
	}
	entries, err := s.users.Directory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	if err := s.cache.Set(ctx, entries); err != nil {
		logger.Log.Warn("directory cache write failed", logger.Error(err))
	}
	return entries, nil
}

// Profile returns one completed profile.
func (s *AccountService) Profile(ctx context.Context, id string) (*model.ActiveUser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid profile id", ErrValidation)
	}
	u, err := s.users.ActiveUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}
