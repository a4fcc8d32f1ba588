package kv

import (
	"context"
	"fmt"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Service provides business logic for key/value operations, used to
// persist scheduler settings across restarts.
type Service struct {
	storage interfaces.KeyValueStorage
	logger  arbor.ILogger
}

// NewService creates a new key/value service.
func NewService(storage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{storage: storage, logger: logger}
}

func (s *Service) Get(ctx context.Context, key string) (string, error) {
	value, err := s.storage.Get(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to get key/value pair")
		return "", err
	}
	return value, nil
}

func (s *Service) Set(ctx context.Context, key string, value string, description string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if err := s.storage.Set(ctx, key, value, description); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to store key/value pair")
		return err
	}
	s.logger.Debug().Str("key", key).Msg("Stored key/value pair")
	return nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to delete key/value pair")
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	return s.storage.List(ctx)
}

func (s *Service) GetAll(ctx context.Context) (map[string]string, error) {
	return s.storage.GetAll(ctx)
}
