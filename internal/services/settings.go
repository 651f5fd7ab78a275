package services

import (
	"context"
	"encoding/json"

	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/repository"
)

// SettingsService handles runtime-tunable configuration stored alongside
// the ledger
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// GetSetting retrieves an arbitrary setting; missing keys return ""
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	value, err := s.repo.GetSetting(ctx, key)
	if err == repository.ErrNotFound {
		return "", nil
	}
	return value, err
}

// SetSetting saves an arbitrary setting
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

// AllSettings returns every stored setting
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]string, error) {
	return s.repo.AllSettings(ctx)
}

// HouseName returns the configured house name used in chat replies
func (s *SettingsService) HouseName(ctx context.Context) (string, error) {
	return s.GetSetting(ctx, "house_name")
}

// Operators returns the chat account ids allowed to issue round commands
func (s *SettingsService) Operators(ctx context.Context) ([]string, error) {
	value, err := s.GetSetting(ctx, "operators")
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	var ops []string
	if err := json.Unmarshal([]byte(value), &ops); err != nil {
		s.log.Warn("Malformed operators setting, treating as empty", "error", err)
		return nil, nil
	}
	return ops, nil
}

// SetOperators stores the operator id list
func (s *SettingsService) SetOperators(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	value, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.repo.SetSetting(ctx, "operators", string(value))
}

// IsOperator reports whether a chat account may issue round commands
func (s *SettingsService) IsOperator(ctx context.Context, id string) (bool, error) {
	ops, err := s.Operators(ctx)
	if err != nil {
		return false, err
	}
	for _, op := range ops {
		if op == id {
			return true, nil
		}
	}
	return false, nil
}
