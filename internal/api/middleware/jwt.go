package middleware

import (
	"net/http"
	"strconv"

	"github.com/taufiqulumam/task-management/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type customClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthMiddleware 从会话 Cookie 中取出 JWT 并校验，将 userID 写入上下文。
//
// 任何校验失败（缺失、格式错误、过期、签名不符）都以 401 拒绝，
// 不触碰任何数据；受保护的处理器在此之后才会执行。
func AuthMiddleware(jwtSecret string, cookieName string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(cookieName)
		if err != nil || tokenStr == "" {
			metrics.AuthFailuresTotal.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims := &customClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			metrics.AuthFailuresTotal.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if claims.Subject == "" {
			metrics.AuthFailuresTotal.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		uid, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			metrics.AuthFailuresTotal.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("userID", int(uid))
		c.Set("userEmail", claims.Email)
		c.Set("userName", claims.Name)
		c.Next()
	}
}
