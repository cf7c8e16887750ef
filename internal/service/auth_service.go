package service

import (
	"context"
	"errors"
	"fmt"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("email hoặc mật khẩu không đúng")
var ErrUserAlreadyExists = errors.New("email đã được đăng ký")
var ErrTokenInvalid = errors.New("token không hợp lệ hoặc đã hết hạn")

type AuthService struct {
	userRepo           repository.UserRepository
	jwtSecret          string
	jwtExpirationHours time.Duration
	logger             *zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpHours time.Duration, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:           userRepo,
		jwtSecret:          jwtSecret,
		jwtExpirationHours: jwtExpHours,
		logger:             logger,
	}
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.AuthResponseDTO, error) {
	// Kiểm tra email đã tồn tại chưa
	existingUser, err := s.userRepo.FindByEmail(ctx, dto.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi khi kiểm tra người dùng: %w", err)
	}
	if existingUser != nil {
		s.logger.Warn().Str("email", dto.Email).Msg("đăng ký thất bại: email đã tồn tại")
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("lỗi hash mật khẩu: %w", err)
	}

	user := &domain.User{
		Name:     dto.Name,
		Email:    dto.Email,
		Password: string(hashedPassword),
		Role:     domain.RoleUser,
	}

	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("lỗi khi tạo người dùng: %w", err)
	}

	token, err := s.generateToken(createdUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("email", createdUser.Email).Msg("người dùng mới đã đăng ký")
	return &domain.AuthResponseDTO{
		Token:  token,
		UserID: createdUser.ID,
		Name:   createdUser.Name,
		Email:  createdUser.Email,
		Role:   createdUser.Role,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn().Str("email", dto.Email).Msg("đăng nhập thất bại")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lỗi khi tìm người dùng: %w", err)
	}

	// So sánh mật khẩu đã hash
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password))
	if err != nil {
		s.logger.Warn().Str("email", dto.Email).Msg("đăng nhập thất bại")
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("email", user.Email).Msg("người dùng đã đăng nhập")
	return &domain.AuthResponseDTO{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpirationHours)
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"exp":   expirationTime.Unix(),
		"iat":   time.Now().Unix(),
		"role":  user.Role,
		"email": user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("lỗi tạo token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken dùng cho middleware
func (s *AuthService) ValidateToken(tokenString string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("phương thức ký không mong muốn: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, nil, fmt.Errorf("%w: token có định dạng sai", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, fmt.Errorf("%w: token đã hết hạn", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, nil, fmt.Errorf("%w: token chưa hợp lệ", ErrTokenInvalid)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, nil, ErrTokenInvalid
	}
	return token, claims, nil
}

// EnsureDefaultAdmin seed tài khoản admin mặc định lúc khởi động nếu chưa có.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	_, err := s.userRepo.FindAdminByEmail(ctx, email)
	if err == nil {
		s.logger.Info().Str("email", email).Msg("admin mặc định đã tồn tại")
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lỗi khi kiểm tra admin mặc định: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("lỗi hash mật khẩu admin: %w", err)
	}
	admin := &domain.User{
		Name:     "System Admin",
		Email:    email,
		Password: string(hashedPassword),
		Role:     domain.RoleAdmin,
	}
	if _, err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("lỗi khi tạo admin mặc định: %w", err)
	}
	s.logger.Info().Str("email", email).Msg("đã tạo admin mặc định")
	return nil
}
