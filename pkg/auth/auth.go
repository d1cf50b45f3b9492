// Copyright (c) 2025, the kubechat authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package auth issues and verifies the bearer tokens that gate the chat
// endpoints.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kubechat/kubechat/pkg/defaults"
	"github.com/kubechat/kubechat/pkg/errors"
)

// Claims is the token payload: the user identity plus standard expiry.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a token manager. Tokens expire after
// defaults.TokenTTL.
func NewManager(secret string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "token signing secret is required")
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    defaults.TokenTTL,
		now:    time.Now,
	}, nil
}

// GenerateToken issues a signed token for userID.
func (m *Manager) GenerateToken(userID string) (string, error) {
	if userID == "" {
		return "", errors.New(errors.ErrCodeInvalidRequest, "user id is required")
	}

	now := m.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to sign token", err)
	}
	return signed, nil
}

// VerifyToken validates a token and returns the user ID it carries. Expired,
// malformed, and forged tokens all fail with Unauthorized; callers need not
// distinguish them.
func (m *Manager) VerifyToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, errors.New(errors.ErrCodeUnauthorized, "unexpected signing method")
			}
			return m.secret, nil
		},
		jwt.WithTimeFunc(m.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", errors.Wrap(errors.ErrCodeUnauthorized, "invalid or expired token", err)
	}
	return claims.UserID, nil
}

// FromHeader extracts the bare token from an Authorization header value,
// with or without the Bearer prefix.
func FromHeader(header string) string {
	header = strings.TrimSpace(header)
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return header
}
