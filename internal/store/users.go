// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/tabula/internal/models"
)

// userDoc is the persisted form of a user. models.User redacts the
// password hash from JSON so it never leaks into API responses; the
// store marshals this struct instead so the hash survives the write.
type userDoc struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (d userDoc) user() models.User {
	return models.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func docFromUser(u *models.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// CreateUser stores a new user. The username must be unique; a
// secondary username index key enforces this inside one transaction.
func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	return timed("create", "users", func() error {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		u.CreatedAt = now
		u.UpdatedAt = now

		data, err := json.Marshal(docFromUser(u))
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		return s.db.Update(func(txn *badger.Txn) error {
			indexKey := []byte(usernameKeyPrefix + u.Username)
			if _, err := txn.Get(indexKey); err == nil {
				return fmt.Errorf("username %q: %w", u.Username, ErrConflict)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set([]byte(userKeyPrefix+u.ID), data); err != nil {
				return err
			}
			return txn.Set(indexKey, []byte(u.ID))
		})
	})
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	var doc userDoc
	err := timed("get", "users", func() error {
		return s.get(userKeyPrefix+id, &doc)
	})
	if err != nil {
		return nil, err
	}
	u := doc.user()
	return &u, nil
}

// ListUsers returns all user accounts sorted by username.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	var users []models.User
	err := timed("list", "users", func() error {
		docs, err := listDocs[userDoc](s, userKeyPrefix)
		if err != nil {
			return err
		}
		users = make([]models.User, 0, len(docs))
		for _, doc := range docs {
			users = append(users, doc.user())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// DeleteUser removes a user and its username index entry.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	return timed("delete", "users", func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete([]byte(userKeyPrefix + id)); err != nil {
				return err
			}
			return txn.Delete([]byte(usernameKeyPrefix + u.Username))
		})
	})
}

// GetUserByUsername resolves a username through the index and returns
// the user.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var id string
	err := timed("get_by_username", "users", func() error {
		return s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(usernameKeyPrefix + username))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				id = string(val)
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}
