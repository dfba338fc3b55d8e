package httpapi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/store"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func newManagerStub() *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"manager": {
				Username:  "manager",
				Password:  "manager123",
				Role:      domain.RoleManager,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestNewAuthManagerRequiresSecret(t *testing.T) {
	if _, err := NewAuthManager(context.Background(), "  ", time.Hour, nil); err == nil {
		t.Fatalf("expected empty secret to be rejected")
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	users := newManagerStub()
	manager, err := NewAuthManager(context.Background(), "test-secret", time.Hour, users)
	if err != nil {
		t.Fatalf("new auth manager: %v", err)
	}

	resp, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "Manager",
		Password: "manager123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != domain.RoleManager {
		t.Fatalf("expected manager role, got %s", resp.Role)
	}

	stored, _ := users.ListUsers(context.Background())
	if len(stored) != 1 {
		t.Fatalf("expected 1 user, got %d", len(stored))
	}
	if !strings.HasPrefix(stored[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", stored[0].Password)
	}
	if users.updates == 0 {
		t.Fatalf("expected the upgraded hash to be written back")
	}
}

func TestLoginRejectsWrongPasswordAndInactiveAccounts(t *testing.T) {
	users := newManagerStub()
	hash, err := hashPassword("vendor123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users.users["idle"] = domain.UserAccount{Username: "idle", Password: hash, Role: domain.RoleVendor}

	manager, _ := NewAuthManager(context.Background(), "test-secret", time.Hour, users)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "manager", Password: "nope"}); !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "manager123"}); !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "idle", Password: "vendor123"}); !errors.Is(err, errInactiveAccount) {
		t.Fatalf("expected inactive account, got %v", err)
	}
}

func TestParseTokenRoundTripAndExpiry(t *testing.T) {
	manager, _ := NewAuthManager(context.Background(), "test-secret", time.Hour, newManagerStub())
	issued := time.Date(2024, 1, 18, 9, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return issued }

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "manager", Password: "manager123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "manager" || actor.Role != domain.RoleManager {
		t.Fatalf("unexpected actor %+v", actor)
	}

	manager.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := manager.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseTokenRejectsForeignTokens(t *testing.T) {
	manager, _ := NewAuthManager(context.Background(), "test-secret", time.Hour, nil)

	other, _ := NewAuthManager(context.Background(), "another-secret", time.Hour, nil)
	foreign, err := other.sign("manager", domain.RoleManager, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(foreign); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	wrongIssuer := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, invoicedeskClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "manager",
			Issuer:    "someone-else",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: domain.RoleManager,
	})
	signed, _ := wrongIssuer.SignedString([]byte("test-secret"))
	if _, err := manager.ParseToken(signed); err == nil {
		t.Fatalf("expected foreign issuer to be rejected")
	}

	badRole, err := manager.sign("manager", "admin", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(badRole); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestCreateStaffStoresPasswordHash(t *testing.T) {
	users := newManagerStub()
	manager, _ := NewAuthManager(context.Background(), "test-secret", time.Hour, users)

	staff, err := manager.CreateStaff(context.Background(), domain.StaffCreateRequest{
		Username: "Counter2",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	if staff.Username != "counter2" || staff.Role != domain.RoleVendor {
		t.Fatalf("unexpected staff %+v", staff)
	}

	saved, ok := users.users["counter2"]
	if !ok {
		t.Fatalf("expected staff to be saved")
	}
	if !strings.HasPrefix(saved.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", saved.Password)
	}

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "counter2", Password: "pass1234"}); err != nil {
		t.Fatalf("login with new staff failed: %v", err)
	}

	listed := manager.ListStaff(context.Background())
	if len(listed) != 1 || listed[0].Username != "counter2" {
		t.Fatalf("expected only vendor accounts in staff list, got %+v", listed)
	}
}

func TestCreateStaffValidation(t *testing.T) {
	manager, _ := NewAuthManager(context.Background(), "test-secret", time.Hour, newManagerStub())

	cases := map[string]domain.StaffCreateRequest{
		"short username":  {Username: "abc", Password: "pass1234"},
		"spaced username": {Username: "front desk", Password: "pass1234"},
		"short password":  {Username: "counter3", Password: "short"},
		"existing user":   {Username: "manager", Password: "pass1234"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := manager.CreateStaff(context.Background(), req)
			if !errors.Is(err, store.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}
