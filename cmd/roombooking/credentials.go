package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// savedLogin is the client session persisted between invocations.
type savedLogin struct {
	Server    string `json:"server"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	Email     string `json:"email"`
}

// Expired reports whether the saved token is past its expiry. Unparseable
// timestamps are treated as live and left for the server to reject.
func (s *savedLogin) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == "" {
		return false
	}
	expires, err := time.Parse(time.RFC3339, s.ExpiresAt)
	if err != nil {
		return false
	}
	return !now.Before(expires)
}

func credentialsPath() (string, error) {
	if path := os.Getenv("ROOMBOOKING_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "roombooking", "config.json"), nil
}

func loadLogin() (*savedLogin, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("credentials path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var login savedLogin
	if err := json.NewDecoder(file).Decode(&login); err != nil {
		return nil, err
	}
	return &login, nil
}

func saveLogin(login *savedLogin) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(login)
}

func clearLogin() error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
