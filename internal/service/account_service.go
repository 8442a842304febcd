package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
	"github.com/maheshrc27/slotcast/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type AccountInput struct {
	GroupID      string `json:"group_id"`
	DisplayName  string `json:"display_name"`
	AppKey       string `json:"app_key"`
	AppSecret    string `json:"app_secret"`
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`
}

type ImportResult struct {
	GroupID   string `json:"group_id"`
	AccountID string `json:"account_id"`
}

// AppKeyPair is the application-level key pair given to imported accounts.
type AppKeyPair struct {
	Key    string
	Secret string
}

type AccountService interface {
	CreateGroup(ctx context.Context, userID int64, name string) (*models.Group, error)
	ListGroups(ctx context.Context, userID int64) ([]*models.Group, error)
	CreateAccount(ctx context.Context, userID int64, in AccountInput) (*models.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]*models.Account, error)
	ImportLegacy(ctx context.Context, userID int64, groupName, displayName string) (*ImportResult, error)
	ResolveCredential(ctx context.Context, groupID, accountID string) (*models.Credential, error)
}

type accountService struct {
	groups   repository.GroupRepository
	accounts repository.AccountRepository
	legacy   repository.LegacyCredentialRepository
	appKeys  AppKeyPair
	key      []byte
}

func NewAccountService(
	groups repository.GroupRepository,
	accounts repository.AccountRepository,
	legacy repository.LegacyCredentialRepository,
	appKeys AppKeyPair,
	secretKey string) AccountService {
	return &accountService{
		groups:   groups,
		accounts: accounts,
		legacy:   legacy,
		appKeys:  appKeys,
		key:      []byte(secretKey),
	}
}

func (s *accountService) CreateGroup(ctx context.Context, userID int64, name string) (*models.Group, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(CodeInvalidArgument, ErrEmptyGroupName)
	}

	g := &models.Group{ID: gonanoid.Must(), UserID: userID, Name: name}
	if err := s.groups.Create(ctx, nil, g); err != nil {
		return nil, errorf(CodeInternal, "creating group: %w", err)
	}
	return g, nil
}

func (s *accountService) ListGroups(ctx context.Context, userID int64) ([]*models.Group, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	groups, err := s.groups.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errorf(CodeInternal, "listing groups: %w", err)
	}
	return groups, nil
}

func (s *accountService) CreateAccount(ctx context.Context, userID int64, in AccountInput) (*models.Account, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	cred := &models.Credential{
		UserID:       userID,
		AppKey:       strings.TrimSpace(in.AppKey),
		AppSecret:    strings.TrimSpace(in.AppSecret),
		AccessToken:  strings.TrimSpace(in.AccessToken),
		AccessSecret: strings.TrimSpace(in.AccessSecret),
	}
	if !cred.Complete() {
		return nil, newError(CodeInvalidArgument, ErrIncompleteCredentials)
	}

	g, err := s.groups.GetByID(ctx, in.GroupID)
	if err != nil {
		return nil, errorf(CodeInternal, "loading group: %w", err)
	}
	if g == nil || g.UserID != userID {
		return nil, errorf(CodeNotFound, "group %q not found", in.GroupID)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = g.Name
	}

	a, err := s.newAccount(userID, g.ID, displayName, cred)
	if err != nil {
		return nil, newError(CodeInternal, err)
	}
	if err := s.accounts.Create(ctx, nil, a); err != nil {
		return nil, errorf(CodeInternal, "creating account: %w", err)
	}
	return a, nil
}

func (s *accountService) ListAccounts(ctx context.Context, userID int64) ([]*models.Account, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errorf(CodeInternal, "listing accounts: %w", err)
	}
	return accounts, nil
}

// ImportLegacy turns the caller's flat legacy credential record into a new
// group holding one account. If the account cannot be written the group is
// removed again.
func (s *accountService) ImportLegacy(ctx context.Context, userID int64, groupName, displayName string) (*ImportResult, error) {
	if userID == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	groupName = strings.TrimSpace(groupName)
	if groupName == "" {
		return nil, newError(CodeInvalidArgument, ErrEmptyGroupName)
	}

	record, err := s.legacy.GetByUserID(ctx, userID)
	if err != nil {
		return nil, errorf(CodeInternal, "loading legacy credentials: %w", err)
	}
	if record == nil {
		return nil, newError(CodeNotFound, ErrNoLegacyRecord)
	}
	if s.appKeys.Key == "" || s.appKeys.Secret == "" {
		return nil, newError(CodeFailedPrecondition, ErrAppKeyMissing)
	}

	accessToken, err := utils.Decrypt(record.AccessToken, s.key)
	if err != nil {
		return nil, errorf(CodeFailedPrecondition, "legacy access token unreadable: %w", err)
	}
	accessSecret, err := utils.Decrypt(record.AccessSecret, s.key)
	if err != nil {
		return nil, errorf(CodeFailedPrecondition, "legacy access secret unreadable: %w", err)
	}
	cred := &models.Credential{
		UserID:       userID,
		AppKey:       s.appKeys.Key,
		AppSecret:    s.appKeys.Secret,
		AccessToken:  accessToken,
		AccessSecret: accessSecret,
	}
	if !cred.Complete() {
		return nil, newError(CodeFailedPrecondition, ErrIncompleteCredentials)
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = record.ScreenName
	}
	if displayName == "" {
		displayName = groupName
	}

	g := &models.Group{ID: gonanoid.Must(), UserID: userID, Name: groupName}
	if err := s.groups.Create(ctx, nil, g); err != nil {
		return nil, errorf(CodeInternal, "creating group: %w", err)
	}

	a, err := s.newAccount(userID, g.ID, displayName, cred)
	if err == nil {
		err = s.accounts.Create(ctx, nil, a)
	}
	if err != nil {
		if rbErr := s.groups.Remove(ctx, g.ID); rbErr != nil {
			slog.Error("rolling back imported group", "group_id", g.ID, "error", rbErr)
		}
		return nil, errorf(CodeInternal, "creating account: %w", err)
	}

	slog.Info("legacy account imported", "user_id", userID, "group_id", g.ID, "account_id", a.ID)
	return &ImportResult{GroupID: g.ID, AccountID: a.ID}, nil
}

func (s *accountService) ResolveCredential(ctx context.Context, groupID, accountID string) (*models.Credential, error) {
	a, err := s.accounts.GetByID(ctx, groupID, accountID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNoCredentials
	}

	cred := &models.Credential{UserID: a.UserID}
	fields := []struct {
		name string
		src  string
		dst  *string
	}{
		{"app key", a.AppKey, &cred.AppKey},
		{"app secret", a.AppSecret, &cred.AppSecret},
		{"access token", a.AccessToken, &cred.AccessToken},
		{"access secret", a.AccessSecret, &cred.AccessSecret},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		plain, err := utils.Decrypt(f.src, s.key)
		if err != nil {
			return nil, fmt.Errorf("decrypting %s: %w", f.name, err)
		}
		*f.dst = plain
	}
	return cred, nil
}

func (s *accountService) newAccount(userID int64, groupID, displayName string, cred *models.Credential) (*models.Account, error) {
	a := &models.Account{
		ID:          gonanoid.Must(),
		GroupID:     groupID,
		UserID:      userID,
		DisplayName: displayName,
	}

	plain := []string{cred.AppKey, cred.AppSecret, cred.AccessToken, cred.AccessSecret}
	sealed := []*string{&a.AppKey, &a.AppSecret, &a.AccessToken, &a.AccessSecret}
	for i, p := range plain {
		enc, err := utils.Encrypt([]byte(p), s.key)
		if err != nil {
			return nil, errors.New("encrypting account credentials")
		}
		*sealed[i] = enc
	}
	return a, nil
}
