package filestore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"sentinel/internal/store"
	"sentinel/pkg/models"
)

// UsersFile is the on-disk whitelist file layout.
type UsersFile struct {
	Users []models.User `yaml:"users"`
}

// Users serves user records from a YAML file. The file is re-read when its
// modification time changes, so operators can edit whitelists in place.
type Users struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	byID    map[string]models.User
}

// LoadUsersFile parses a YAML users file.
func LoadUsersFile(path string) (*UsersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var f UsersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	for i := range f.Users {
		u := &f.Users[i]
		u.ID = strings.TrimSpace(u.ID)
		if u.ID == "" {
			return nil, fmt.Errorf("users file: entry %d has no id", i+1)
		}
	}
	return &f, nil
}

// NewUsers loads path once to validate it.
func NewUsers(path string) (*Users, error) {
	u := &Users{path: path}
	if err := u.reload(); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns the user with the given id.
func (u *Users) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if err := u.reload(); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	user.Whitelist = append([]string(nil), user.Whitelist...)
	return &user, nil
}

func (u *Users) reload() error {
	info, err := os.Stat(u.path)
	if err != nil {
		return fmt.Errorf("stat users file: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.byID != nil && info.ModTime().Equal(u.modTime) {
		return nil
	}

	f, err := LoadUsersFile(u.path)
	if err != nil {
		return err
	}
	byID := make(map[string]models.User, len(f.Users))
	for _, user := range f.Users {
		byID[user.ID] = user
	}
	u.byID = byID
	u.modTime = info.ModTime()
	return nil
}
