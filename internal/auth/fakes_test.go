// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taibuivan/modgate/internal/auth"
	"github.com/taibuivan/modgate/internal/platform/apperr"
	"github.com/taibuivan/modgate/internal/platform/dberr"
	"github.com/taibuivan/modgate/internal/platform/sec"
)

// # In-memory repositories

type fakeAdmins struct {
	mu      sync.Mutex
	byID    map[string]*auth.Admin
	lookErr error
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{byID: make(map[string]*auth.Admin)}
}

func (repo *fakeAdmins) FindByID(ctx context.Context, id string) (*auth.Admin, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.lookErr != nil {
		return nil, repo.lookErr
	}
	admin, ok := repo.byID[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *admin
	return &clone, nil
}

func (repo *fakeAdmins) FindByEmail(ctx context.Context, email string) (*auth.Admin, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, admin := range repo.byID {
		if admin.Email == email {
			clone := *admin
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeAdmins) Create(ctx context.Context, admin *auth.Admin) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	admin.ID = primitive.NewObjectID().Hex()
	clone := *admin
	repo.byID[admin.ID] = &clone
	return nil
}

func (repo *fakeAdmins) delete(id string) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.byID, id)
}

// fakeModerators also stores the ledger, like the Mongo repository does.
type fakeModerators struct {
	mu      sync.Mutex
	byID    map[string]*auth.Moderator
	tokens  map[string][]string
	lookErr error

	// lookupBounded records whether the last FindByID carried a deadline.
	lookupBounded bool
}

func newFakeModerators() *fakeModerators {
	return &fakeModerators{
		byID:   make(map[string]*auth.Moderator),
		tokens: make(map[string][]string),
	}
}

func (repo *fakeModerators) FindByID(ctx context.Context, id string) (*auth.Moderator, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	_, repo.lookupBounded = ctx.Deadline()
	if repo.lookErr != nil {
		return nil, repo.lookErr
	}
	moderator, ok := repo.byID[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *moderator
	return &clone, nil
}

func (repo *fakeModerators) FindByEmail(ctx context.Context, email string) (*auth.Moderator, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, moderator := range repo.byID {
		if moderator.Email == email {
			clone := *moderator
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeModerators) Create(ctx context.Context, moderator *auth.Moderator) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.byID {
		if existing.Email == moderator.Email {
			return dberr.ErrDuplicate
		}
	}
	moderator.ID = primitive.NewObjectID().Hex()
	clone := *moderator
	repo.byID[moderator.ID] = &clone
	return nil
}

func (repo *fakeModerators) List(ctx context.Context, offset, limit int) ([]*auth.Moderator, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	all := make([]*auth.Moderator, 0, len(repo.byID))
	for _, moderator := range repo.byID {
		clone := *moderator
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []*auth.Moderator{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (repo *fakeModerators) SetBanned(ctx context.Context, id string, bannedAt time.Time, reason string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	moderator, ok := repo.byID[id]
	if !ok {
		return dberr.ErrNotFound
	}
	moderator.Status = sec.StatusBanned
	moderator.BannedAt = &bannedAt
	moderator.BannedReason = reason
	return nil
}

func (repo *fakeModerators) ClearBanned(ctx context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	moderator, ok := repo.byID[id]
	if !ok {
		return dberr.ErrNotFound
	}
	moderator.Status = sec.StatusActive
	moderator.BannedAt = nil
	moderator.BannedReason = ""
	return nil
}

func (repo *fakeModerators) AddRefreshToken(ctx context.Context, moderatorID, token string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.byID[moderatorID]; !ok {
		return dberr.ErrNotFound
	}
	repo.tokens[moderatorID] = append(repo.tokens[moderatorID], token)
	return nil
}

func (repo *fakeModerators) RemoveRefreshToken(ctx context.Context, moderatorID, token string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.byID[moderatorID]; !ok {
		return dberr.ErrNotFound
	}
	tokens := repo.tokens[moderatorID]
	if i := slices.Index(tokens, token); i >= 0 {
		repo.tokens[moderatorID] = slices.Delete(tokens, i, i+1)
	}
	return nil
}

func (repo *fakeModerators) ClearRefreshTokens(ctx context.Context, moderatorID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.byID[moderatorID]; !ok {
		return dberr.ErrNotFound
	}
	repo.tokens[moderatorID] = nil
	return nil
}

func (repo *fakeModerators) HasRefreshToken(ctx context.Context, moderatorID, token string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return slices.Contains(repo.tokens[moderatorID], token), nil
}

func (repo *fakeModerators) ledgerSize(moderatorID string) int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return len(repo.tokens[moderatorID])
}

func (repo *fakeModerators) lastLookupBounded() bool {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.lookupBounded
}

// # Fixture

const testPassword = "correct-horse"

type fixture struct {
	admins     *fakeAdmins
	moderators *fakeModerators
	issuer     *sec.TokenIssuer
	ledger     *auth.Ledger
	service    *auth.Service
	resolver   *auth.Resolver
}

func newTestIssuer(t *testing.T) *sec.TokenIssuer {
	t.Helper()
	issuer, err := sec.NewTokenIssuer(sec.SigningKeys{
		Admin:            "admin-secret",
		ModeratorAccess:  "access-secret",
		ModeratorRefresh: "refresh-secret",
	}, "modgate.test")
	require.NoError(t, err)
	return issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	admins := newFakeAdmins()
	moderators := newFakeModerators()
	issuer := newTestIssuer(t)
	ledger := auth.NewLedger(moderators)

	return &fixture{
		admins:     admins,
		moderators: moderators,
		issuer:     issuer,
		ledger:     ledger,
		service:    auth.NewService(admins, moderators, ledger, issuer, nil),
		resolver:   auth.NewResolver(issuer, admins, moderators, nil),
	}
}

func (f *fixture) addAdmin(t *testing.T, email string, role sec.Role) *auth.Admin {
	t.Helper()
	hash, err := sec.HashPassword(testPassword)
	require.NoError(t, err)

	admin := &auth.Admin{Name: "Ada", Email: email, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	require.NoError(t, f.admins.Create(context.Background(), admin))
	return admin
}

func (f *fixture) addModerator(t *testing.T, email string) *auth.Moderator {
	t.Helper()
	moderator, err := f.service.CreateModerator(context.Background(), auth.CreateModeratorInput{
		Name:     "Mia",
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return moderator
}

// requireCode asserts err is an AppError with the given code.
func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError, "expected AppError, got %v", err)
	require.Equal(t, code, appError.Code)
}
