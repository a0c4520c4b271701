package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims 身份令牌声明
// 用户与角色管理由外部身份系统负责,本服务只解析令牌取出用户身份
type IdentityClaims struct {
	Sub               string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	jwt.RegisteredClaims
}

// UserID 返回令牌中的用户 ID
func (c *IdentityClaims) UserID() string {
	return c.Sub
}

// DisplayName 返回用户显示名,优先用户名声明,缺失时退回 Sub
func (c *IdentityClaims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	return c.Sub
}

// TokenParser 身份令牌解析器
type TokenParser struct {
	secret []byte
	issuer string
}

// NewTokenParser 创建令牌解析器
// secret 为空时解析器处于直通模式,ParseToken 返回错误,
// 调用方退回到请求体中的显式用户 ID
func NewTokenParser(secret string, issuer string) *TokenParser {
	return &TokenParser{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Enabled 是否配置了令牌校验
func (p *TokenParser) Enabled() bool {
	return len(p.secret) > 0
}

// ParseToken 解析并校验 HMAC 签名的身份令牌
func (p *TokenParser) ParseToken(tokenString string) (*IdentityClaims, error) {
	if !p.Enabled() {
		return nil, errors.New("token validation is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if p.issuer != "" && claims.Issuer != p.issuer {
		return nil, errors.New("invalid issuer")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	if claims.Sub == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}

// ExtractBearerToken 从 Authorization 头取出 bearer token
func ExtractBearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
