package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
	"github.com/maheshrc27/slotcast/pkg/utils"
)

const maxApiKeys = 5

var (
	ErrApiKeyLimit   = errors.New("only 5 API keys can be created")
	ErrUnknownApiKey = errors.New("API key doesn't exist")
)

type ApiKeyService interface {
	Create(ctx context.Context, userID int64) (*models.ApiKey, error)
	List(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	GetUserID(ctx context.Context, apiKey string) (int64, error)
	RemoveAPIKey(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

func (s *apiKeyService) Create(ctx context.Context, userID int64) (*models.ApiKey, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}

	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errorf(CodeInternal, "listing API keys: %w", err)
	}
	if len(keys) >= maxApiKeys {
		slog.Info(ErrApiKeyLimit.Error(), "user_id", userID)
		return nil, newError(CodeResourceExhausted, ErrApiKeyLimit)
	}

	key, err := utils.GenerateRandomKey(16)
	if err != nil {
		return nil, errorf(CodeInternal, "generating API key: %w", err)
	}

	apiKey := &models.ApiKey{
		UserID: userID,
		ApiKey: key,
	}
	id, err := s.k.Create(ctx, apiKey)
	if err != nil {
		return nil, errorf(CodeInternal, "saving API key: %w", err)
	}
	apiKey.ID = id
	return apiKey, nil
}

func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (int64, error) {
	userID, isExist, err := s.k.GetUserIDByKey(ctx, apiKey)
	if err != nil {
		return 0, err
	}
	if !isExist {
		return 0, ErrUnknownApiKey
	}
	return userID, nil
}

func (s *apiKeyService) List(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	apiKeys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errorf(CodeInternal, "listing API keys: %w", err)
	}
	return apiKeys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, userID, keyID int64) error {
	if userID == 0 {
		return newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	if keyID == 0 {
		return errorf(CodeInvalidArgument, "key id is not valid")
	}

	isValid, err := s.k.CheckByUserID(ctx, keyID, userID)
	if err != nil {
		return errorf(CodeInternal, "checking API key: %w", err)
	}
	if !isValid {
		return newError(CodeNotFound, ErrUnknownApiKey)
	}

	if err := s.k.Remove(ctx, keyID); err != nil {
		return errorf(CodeInternal, "removing API key: %w", err)
	}
	return nil
}
