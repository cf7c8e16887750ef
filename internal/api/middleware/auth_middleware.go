package middleware

import (
	"net/http"
	"parking_reservation/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	UserIDKey               = "userID"
	UserRoleKey             = "userRole"
	UserEmailKey            = "userEmail"
)

type AuthMiddleware struct {
	authService *service.AuthService
	logger      *zerolog.Logger
}

func NewAuthMiddleware(authService *service.AuthService, logger *zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, logger: logger}
}

// Authenticate là middleware để xác thực JWT
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Thiếu authorization header"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Định dạng authorization header không hợp lệ"})
			return
		}

		accessToken := fields[1]
		_, claims, err := m.authService.ValidateToken(accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc đã hết hạn"})
			return
		}

		userID, okUserID := claims["sub"].(string)
		userRole, okUserRole := claims["role"].(string)
		userEmail, okUserEmail := claims["email"].(string)
		if !okUserID || !okUserRole || !okUserEmail || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Thông tin người dùng trong token không hợp lệ"})
			return
		}

		// Lưu identity vào context của Gin để các handler sau sử dụng
		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, userRole)
		c.Set(UserEmailKey, userEmail)

		c.Next()
	}
}

// AuthorizeRole là middleware để kiểm tra vai trò
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoleVal, exists := c.Get(UserRoleKey)
		if !exists {
			m.logger.Warn().Msg("AuthorizeRole: không tìm thấy vai trò trong context (cần Authenticate() trước)")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Không có quyền truy cập"})
			return
		}

		userRole, ok := userRoleVal.(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Không có quyền truy cập"})
			return
		}

		authorized := false
		for _, reqRole := range requiredRoles {
			if userRole == reqRole {
				authorized = true
				break
			}
		}

		if !authorized {
			m.logger.Warn().
				Str("role", userRole).
				Strs("required", requiredRoles).
				Msg("AuthorizeRole: vai trò không đủ quyền")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Không có quyền truy cập"})
			return
		}

		c.Next()
	}
}

// CurrentUserID lấy userID đã được Authenticate() đặt vào context.
func CurrentUserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
