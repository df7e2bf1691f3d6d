// Package brawler manages board members: registration, sessions, profiles
// and the points leaderboard.
package brawler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/cache"
	"github.com/kasuganosora/missionboard/config"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/kasuganosora/missionboard/model"
	"github.com/kasuganosora/missionboard/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)

const sessionTimeout = 2 * time.Second

// Service implements the brawler account operations.
type Service struct {
	store           *store.BrawlerStore
	cache           cache.Cache
	sec             config.SecurityConfig
	leaderboardSize int
	logger          *zap.Logger
}

// NewService creates a Service.
func NewService(st *store.BrawlerStore, c cache.Cache, sec config.SecurityConfig, leaderboardSize int, logger *zap.Logger) *Service {
	if leaderboardSize <= 0 {
		leaderboardSize = 10
	}
	if sec.BcryptCost == 0 {
		sec.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: st, cache: c, sec: sec, leaderboardSize: leaderboardSize, logger: logger}
}

// UserProfile is the public part of a brawler embedded in a Passport.
type UserProfile struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// Passport is returned by register, login and refresh.
type Passport struct {
	TokenType   string      `json:"token_type"`
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"` // unix seconds
	DisplayName string      `json:"display_name"`
	AvatarURL   *string     `json:"avatar_url"`
	User        UserProfile `json:"user"`
}

// Register is the input of Service.Register.
type Register struct {
	Username    string
	Password    string
	DisplayName string
}

// Register creates a brawler and opens a session for it.
// A blank display name defaults to the username.
func (s *Service) Register(ctx context.Context, in Register) (*Passport, error) {
	username := strings.TrimSpace(in.Username)
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.sec.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("brawler: hash password: %w", err)
	}
	b := &model.Brawler{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := s.store.Create(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.logger.Info("brawler registered", zap.Int64("brawler_id", b.ID), zap.String("username", username))
	return s.issue(ctx, b)
}

// Login verifies the password and opens a new session.
func (s *Service) Login(ctx context.Context, username, password string) (*Passport, error) {
	b, err := s.store.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, board.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(b.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, b)
}

// Logout ends the session bound to token.
func (s *Service) Logout(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()
	return s.cache.Del(ctx, mw.SessionPrefix+token)
}

// Refresh replaces oldToken with a fresh session for the same brawler.
func (s *Service) Refresh(ctx context.Context, brawlerID int64, oldToken string) (*Passport, error) {
	b, err := s.store.FindByID(ctx, brawlerID)
	if err != nil {
		return nil, err
	}
	if err := s.Logout(ctx, oldToken); err != nil {
		s.logger.Warn("drop old session failed", zap.Int64("brawler_id", brawlerID), zap.Error(err))
	}
	return s.issue(ctx, b)
}

func (s *Service) issue(ctx context.Context, b *model.Brawler) (*Passport, error) {
	token, err := mw.GenerateToken(b.ID, s.sec.JWTSecret, s.sec.JWTTTLH)
	if err != nil {
		return nil, fmt.Errorf("brawler: sign token: %w", err)
	}
	cctx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()
	if err := s.cache.Set(cctx, mw.SessionPrefix+token, strconv.FormatInt(b.ID, 10), s.sec.JWTTTLH); err != nil {
		return nil, fmt.Errorf("brawler: store session: %w", err)
	}
	return &Passport{
		TokenType:   "Bearer",
		AccessToken: token,
		ExpiresIn:   time.Now().Add(s.sec.JWTTTLH).Unix(),
		DisplayName: b.DisplayName,
		AvatarURL:   b.AvatarURL,
		User:        UserProfile{ID: b.ID, DisplayName: b.DisplayName, AvatarURL: b.AvatarURL},
	}, nil
}

// Profile is a brawler with its mission counters.
type Profile struct {
	model.Brawler
	store.BrawlerStats
}

// Me returns the profile of brawlerID.
func (s *Service) Me(ctx context.Context, brawlerID int64) (*Profile, error) {
	b, err := s.store.FindByID(ctx, brawlerID)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.Stats(ctx, brawlerID)
	if err != nil {
		return nil, err
	}
	return &Profile{Brawler: *b, BrawlerStats: stats}, nil
}

// UpdateProfile changes the display name and returns a passport view of
// the updated brawler without issuing a new token.
func (s *Service) UpdateProfile(ctx context.Context, brawlerID int64, displayName string) (*UserProfile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, board.Invalid("Display name must not be empty.")
	}
	if err := s.store.UpdateDisplayName(ctx, brawlerID, displayName); err != nil {
		return nil, err
	}
	b, err := s.store.FindByID(ctx, brawlerID)
	if err != nil {
		return nil, err
	}
	if err := s.InvalidateLeaderboard(ctx); err != nil {
		s.logger.Warn("leaderboard invalidate failed", zap.Error(err))
	}
	return &UserProfile{ID: b.ID, DisplayName: b.DisplayName, AvatarURL: b.AvatarURL}, nil
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
