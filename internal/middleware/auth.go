package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blues/mfs/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// callerKey 当前调用者地址在 gin.Context 中的键
const callerKey = "caller"

// Claims 令牌负载，Subject 为调用者地址
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken 为地址签发令牌
func GenerateToken(secret, address string, ttl time.Duration) (string, error) {
	addr, err := model.NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 解析并验证令牌，返回规范化的调用者地址
func ParseToken(secret, tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	addr, err := model.NormalizeAddress(claims.Subject)
	if err != nil {
		return "", errors.Join(jwt.ErrTokenInvalidSubject, err)
	}
	return addr, nil
}

// Auth 校验 Bearer 令牌，并在 context 里放入调用者地址
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = strings.TrimSpace(parts[1])
			}
		}

		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing bearer token",
				"data":    nil,
			})
			return
		}

		addr, err := ParseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid token: " + err.Error(),
				"data":    nil,
			})
			return
		}

		c.Set(callerKey, addr)
		c.Next()
	}
}

// Caller 当前调用者地址，未认证时为空
func Caller(c *gin.Context) string {
	return c.GetString(callerKey)
}
