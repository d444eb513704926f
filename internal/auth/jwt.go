// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package auth issues and validates the two credential kinds Tabula
// uses: short-lived user tokens for admin console sessions and
// long-lived device tokens that displays embed at provisioning time.
// Both are HS256 JWTs signed with the configured secret.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/metrics"
)

// Token kinds carried in the claims.
const (
	TokenKindUser   = "user"
	TokenKindDevice = "device"
)

// Claims represents JWT claims for both token kinds. User tokens carry
// Username and Role; device tokens carry DisplayID.
type Claims struct {
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	Kind      string `json:"kind"`
	DisplayID string `json:"displayId,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret    []byte
	timeout   time.Duration
	deviceTTL time.Duration
}

// NewJWTManager creates a token manager from security configuration.
// The secret must be at least 32 characters; shorter secrets make
// HS256 brute-forceable.
func NewJWTManager(cfg config.SecurityConfig) (*JWTManager, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}
	return &JWTManager{
		secret:    []byte(cfg.JWTSecret),
		timeout:   cfg.SessionTimeout,
		deviceTTL: cfg.DeviceTokenTTL,
	}, nil
}

// GenerateToken creates a user session token valid for the configured
// session timeout.
func (m *JWTManager) GenerateToken(username, role string) (string, error) {
	return m.sign(&Claims{
		Username: username,
		Role:     role,
		Kind:     TokenKindUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	})
}

// GenerateDeviceToken creates a long-lived token bound to one display.
// Displays store it at provisioning time and present it on their event
// stream and content fetches; the TTL is long because signage devices
// have no interactive re-login path.
func (m *JWTManager) GenerateDeviceToken(displayID string) (string, error) {
	return m.sign(&Claims{
		Kind:      TokenKindDevice,
		DisplayID: displayID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.deviceTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	})
}

func (m *JWTManager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// ValidateToken validates a token of the expected kind and extracts its
// claims. Tokens signed with a different algorithm are rejected before
// signature verification.
func (m *JWTManager) ValidateToken(tokenString, wantKind string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		metrics.RecordTokenValidation(wantKind, "invalid")
		return nil, err
	}
	if claims.Kind != wantKind {
		metrics.RecordTokenValidation(wantKind, "wrong_kind")
		return nil, fmt.Errorf("token kind %q, want %q", claims.Kind, wantKind)
	}
	metrics.RecordTokenValidation(wantKind, "valid")
	return claims, nil
}

func (m *JWTManager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
