package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"posadmin/internal/domain"
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

func legacyAdminStore() *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      RoleAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := legacyAdminStore()

	manager := NewAuthManager("test-secret", time.Hour, "123456", "", store)
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
	if store.updates != 1 {
		t.Fatalf("expected a single password upgrade, got %d", store.updates)
	}
}

func TestLoginRejectsInactiveAndUnknownUsers(t *testing.T) {
	store := legacyAdminStore()
	store.users["retired"] = domain.UserAccount{
		Username: "retired",
		Password: mustHashPassword(t, "retired123"),
		Role:     RoleCashier,
		Active:   false,
	}
	manager := NewAuthManager("test-secret", time.Hour, "", "", store)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "retired", Password: "retired123"}); err != errInactiveAccount {
		t.Fatalf("expected inactive account error, got %v", err)
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "whatever"}); err != errInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestTokenRoundTripAndExpiry(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Minute, "", "", legacyAdminStore())

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "ADMIN", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}

	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := manager.ParseToken(expired.AccessToken); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other := NewAuthManager("other-secret", time.Minute, "", "", legacyAdminStore())
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestCreateCashierStoresPasswordHash(t *testing.T) {
	store := legacyAdminStore()

	manager := NewAuthManager("test-secret", time.Hour, "123456", "", store)
	cashier, err := manager.CreateCashier(context.Background(), domain.CashierCreateRequest{
		Username: "Till02",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("create cashier failed: %v", err)
	}
	if cashier.Username != "till02" || cashier.Role != RoleCashier {
		t.Fatalf("unexpected cashier %+v", cashier)
	}

	found, ok := store.users["till02"]
	if !ok {
		t.Fatalf("expected cashier to be saved")
	}
	if !strings.HasPrefix(found.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", found.Password)
	}

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "till02", Password: "pass1234"}); err != nil {
		t.Fatalf("login with hashed cashier failed: %v", err)
	}
	if _, err := manager.CreateCashier(context.Background(), domain.CashierCreateRequest{Username: "till02", Password: "pass1234"}); err == nil {
		t.Fatalf("expected duplicate username to be rejected")
	}

	cashiers := manager.ListCashiers(context.Background())
	if len(cashiers) != 1 || cashiers[0].Username != "till02" {
		t.Fatalf("expected only the new cashier to be listed, got %+v", cashiers)
	}
}

func TestCreateCashierValidation(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, "", "", &userStoreStub{})

	cases := map[string]domain.CashierCreateRequest{
		"short username": {Username: "ab", Password: "pass1234"},
		"spaces":         {Username: "till one", Password: "pass1234"},
		"short password": {Username: "till01", Password: "123"},
	}
	for name, req := range cases {
		if _, err := manager.CreateCashier(context.Background(), req); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestManagerPINIsHashedAndStillValidates(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, "654321", "", &userStoreStub{})

	if manager.managerPIN == "654321" {
		t.Fatalf("expected manager pin to be stored as hash, got plain-text")
	}
	if !manager.ValidateManagerPIN("654321") {
		t.Fatalf("expected manager pin validation to succeed")
	}
	if manager.ValidateManagerPIN("111111") {
		t.Fatalf("expected wrong manager pin to fail")
	}
}

func TestManagerCodeApprovesRefunds(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, "", testTOTPSecret, &userStoreStub{})

	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if !manager.ApprovalConfigured() {
		t.Fatalf("expected totp secret to enable approvals")
	}
	if !manager.ApproveRefund("", code) {
		t.Fatalf("expected current totp code to approve")
	}
	if manager.ApproveRefund("654321", "000000") && code != "000000" {
		t.Fatalf("expected unknown pin and wrong code to be refused")
	}

	none := NewAuthManager("test-secret", time.Hour, "", "", &userStoreStub{})
	if none.ApprovalConfigured() || none.ApproveRefund("123456", code) {
		t.Fatalf("expected approvals to be unavailable without a pin or totp secret")
	}
}
