package service

import (
	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrTrainerAlreadyExists = errors.New("trainer with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Trainer, error)
	Login(ctx context.Context, email, password string) (token string, trainer *domain.Trainer, err error)
}

// authService implements the AuthService interface.
type authService struct {
	trainerRepo   repository.TrainerRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(trainerRepo repository.TrainerRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		trainerRepo:   trainerRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register creates a trainer account.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.Trainer, error) {
	verrs := ValidationErrors{}
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		verrs.Add("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		verrs.Add("email", "is not a valid address")
	}
	if len(password) < minPasswordLength {
		verrs.Add("password", fmt.Sprintf("must have at least %d characters", minPasswordLength))
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	_, err := s.trainerRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrTrainerAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	trainer := &domain.Trainer{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	// the unique index catches a registration racing this one
	if _, err := s.trainerRepo.Create(ctx, trainer); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrTrainerAlreadyExists
		}
		return nil, err
	}

	trainer.PasswordHash = ""
	return trainer, nil
}

// Login handles trainer authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, trainer *domain.Trainer, err error) {
	if email == "" || password == "" {
		err = ValidationErrors{"credentials": "email and password cannot be empty"}
		return
	}

	trainer, err = s.trainerRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
		}
		trainer = nil
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(trainer.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.generateJWT(trainer)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	trainer.PasswordHash = ""
	return token, trainer, nil
}

// --- JWT Helper ---

// Claims is the JWT payload issued to trainers.
type Claims struct {
	TrainerID string `json:"tid"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(trainer *domain.Trainer) (string, error) {
	now := time.Now()
	claims := &Claims{
		TrainerID: trainer.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   trainer.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "gym-admin",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
