// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/models"
)

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		AuthMode:       config.AuthModeJWT,
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		SessionTimeout: time.Hour,
		DeviceTokenTTL: 24 * time.Hour,
	}
}

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestNewJWTManagerRejectsShortSecret(t *testing.T) {
	t.Parallel()

	cfg := testSecurityConfig()
	cfg.JWTSecret = "too-short"
	if _, err := NewJWTManager(cfg); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, err := m.GenerateToken("alice", models.RoleEditor)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := m.ValidateToken(token, TokenKindUser)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "alice" || claims.Role != models.RoleEditor {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Kind != TokenKindUser {
		t.Fatalf("kind = %q", claims.Kind)
	}
}

func TestDeviceTokenRoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, err := m.GenerateDeviceToken("d-1")
	if err != nil {
		t.Fatalf("GenerateDeviceToken: %v", err)
	}

	claims, err := m.ValidateToken(token, TokenKindDevice)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.DisplayID != "d-1" {
		t.Fatalf("display id = %q", claims.DisplayID)
	}
}

func TestValidateTokenRejectsWrongKind(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	userToken, _ := m.GenerateToken("alice", models.RoleAdmin)
	if _, err := m.ValidateToken(userToken, TokenKindDevice); err == nil {
		t.Fatal("user token accepted as device token")
	}

	deviceToken, _ := m.GenerateDeviceToken("d-1")
	if _, err := m.ValidateToken(deviceToken, TokenKindUser); err == nil {
		t.Fatal("device token accepted as user token")
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, _ := m.GenerateToken("alice", models.RoleViewer)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := m.ValidateToken(tampered, TokenKindUser); err == nil {
		t.Fatal("tampered token accepted")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	token, _ := m.GenerateToken("alice", models.RoleViewer)

	cfg := testSecurityConfig()
	cfg.JWTSecret = "ffffffffffffffffffffffffffffffff"
	other, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	if _, err := other.ValidateToken(token, TokenKindUser); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	cfg := testSecurityConfig()
	cfg.SessionTimeout = -time.Minute
	m, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, _ := m.GenerateToken("alice", models.RoleAdmin)
	if _, err := m.ValidateToken(token, TokenKindUser); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}
	if err := VerifyPassword(hash, "hunter22"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("wrong password error = %v", err)
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword(""); err == nil {
		t.Fatal("empty password accepted")
	}
}
