package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"quiz-cricket-service/internal/domain"
)

// stageRank orders tournament stages by how much they unlock. A token for
// a later stage also grants access to every earlier one.
var stageRank = map[domain.TournamentStage]int{
	domain.StageGroup:      0,
	domain.StagePlayoffs:   1,
	domain.StageSemifinals: 2,
	domain.StageFinals:     3,
}

// Claims is the token payload: who authenticated and up to which stage
// they may start matches.
type Claims struct {
	Subject string                 `json:"sub_name"`
	Stage   domain.TournamentStage `json:"stage"`
	jwt.RegisteredClaims
}

// Organizer is a fully privileged account.
type Organizer struct {
	Username     string
	PasswordHash string
}

// Service issues and verifies stage-scoped access tokens. Organizers log
// in with credentials and unlock everything; everyone else either enters
// a stage access code or plays as a guest at the group stage.
type Service struct {
	secret     []byte
	ttl        time.Duration
	organizers map[string]Organizer
	stageCodes map[string]domain.TournamentStage
	now        func() time.Time
}

type Config struct {
	Secret     string
	TokenTTL   time.Duration
	Organizers []Organizer
	// StageCodes maps an access code to the highest stage it unlocks.
	StageCodes map[string]domain.TournamentStage
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth secret must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	organizers := make(map[string]Organizer, len(cfg.Organizers))
	for _, o := range cfg.Organizers {
		organizers[o.Username] = o
	}
	codes := make(map[string]domain.TournamentStage, len(cfg.StageCodes))
	for code, stage := range cfg.StageCodes {
		if !domain.ValidStage(stage) {
			return nil, fmt.Errorf("unknown stage %q for access code", stage)
		}
		codes[code] = stage
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TokenTTL,
		organizers: organizers,
		stageCodes: codes,
		now:        time.Now,
	}, nil
}

// SetClock is a test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Login authenticates an organizer and returns a token unlocking all
// stages.
func (s *Service) Login(username, password string) (string, error) {
	org, ok := s.organizers[username]
	if !ok {
		return "", domain.ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(org.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrBadCredentials
	}
	return s.issue(username, domain.StageFinals)
}

// Redeem exchanges a stage access code for a token unlocking that stage.
func (s *Service) Redeem(code string) (string, domain.TournamentStage, error) {
	stage, ok := s.stageCodes[code]
	if !ok {
		return "", "", domain.ErrBadCredentials
	}
	token, err := s.issue("code", stage)
	return token, stage, err
}

// Guest returns a token limited to group-stage matches.
func (s *Service) Guest() (string, error) {
	return s.issue("guest", domain.StageGroup)
}

// Verify parses a token and returns its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if !domain.ValidStage(claims.Stage) {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// Allows reports whether the claims grant access to the given stage.
func (c *Claims) Allows(stage domain.TournamentStage) bool {
	granted, ok := stageRank[c.Stage]
	if !ok {
		return false
	}
	requested, ok := stageRank[stage]
	if !ok {
		return false
	}
	return granted >= requested
}

func (s *Service) issue(subject string, stage domain.TournamentStage) (string, error) {
	now := s.now()
	claims := &Claims{
		Subject: subject,
		Stage:   stage,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// HashPassword derives a bcrypt hash for organizer configuration.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
