package httpapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/store"
)

const tokenIssuer = "invoicedesk"

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errInactiveAccount    = errors.New("account is inactive")
)

type AuthManager struct {
	mu        sync.RWMutex
	secret    []byte
	tokenTTL  time.Duration
	userStore store.UserStore
	users     map[string]credential
	now       func() time.Time
}

type credential struct {
	password string
	role     string
	active   bool
	created  time.Time
}

type invoicedeskClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

// NewAuthManager refuses an empty secret; callers decide what counts as
// strong enough.
func NewAuthManager(ctx context.Context, secret string, tokenTTL time.Duration, userStore store.UserStore) (*AuthManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth secret is required")
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	manager := &AuthManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		userStore: userStore,
		users:     make(map[string]credential),
		now:       time.Now,
	}
	manager.bootstrapUsers(ctx)
	return manager, nil
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	a.bootstrapUsers(ctx)
	username := strings.ToLower(strings.TrimSpace(req.Username))
	a.mu.RLock()
	cred, ok := a.users[username]
	a.mu.RUnlock()
	if !ok {
		return domain.LoginResponse{}, errInvalidCredentials
	}

	if !verifyPassword(cred.password, req.Password) {
		return domain.LoginResponse{}, errInvalidCredentials
	}
	if !cred.active {
		return domain.LoginResponse{}, errInactiveAccount
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(username, cred.role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        cred.role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &invoicedeskClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	if claims.Role != domain.RoleManager && claims.Role != domain.RoleVendor {
		return domain.Actor{}, errors.New("invalid token role")
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(username, role string, expiresAt time.Time) (string, error) {
	claims := invoicedeskClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// CreateStaff registers a vendor account. Only managers reach this through
// the API.
func (a *AuthManager) CreateStaff(ctx context.Context, req domain.StaffCreateRequest) (domain.StaffUser, error) {
	a.bootstrapUsers(ctx)
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 4 {
		return domain.StaffUser{}, fmt.Errorf("%w: username must be at least 4 characters", store.ErrInvalidInput)
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return domain.StaffUser{}, fmt.Errorf("%w: username must not contain spaces", store.ErrInvalidInput)
	}
	if len(strings.TrimSpace(req.Password)) < 8 {
		return domain.StaffUser{}, fmt.Errorf("%w: password must be at least 8 characters", store.ErrInvalidInput)
	}

	a.mu.RLock()
	_, exists := a.users[username]
	a.mu.RUnlock()
	if exists {
		return domain.StaffUser{}, fmt.Errorf("%w: username already exists", store.ErrInvalidInput)
	}

	now := a.now().UTC()
	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.StaffUser{}, fmt.Errorf("hash password: %w", err)
	}

	if a.userStore != nil {
		err := a.userStore.CreateUser(ctx, domain.UserAccount{
			Username:  username,
			Password:  passwordHash,
			Role:      domain.RoleVendor,
			Active:    true,
			CreatedAt: now,
		})
		if err != nil {
			return domain.StaffUser{}, err
		}
	}

	a.mu.Lock()
	a.users[username] = credential{
		password: passwordHash,
		role:     domain.RoleVendor,
		active:   true,
		created:  now,
	}
	a.mu.Unlock()

	return domain.StaffUser{
		Username:  username,
		Role:      domain.RoleVendor,
		Active:    true,
		CreatedAt: now,
	}, nil
}

func (a *AuthManager) ListStaff(ctx context.Context) []domain.StaffUser {
	a.bootstrapUsers(ctx)
	a.mu.RLock()
	result := make([]domain.StaffUser, 0, len(a.users))
	for username, user := range a.users {
		if user.role != domain.RoleVendor {
			continue
		}
		result = append(result, domain.StaffUser{
			Username:  username,
			Role:      user.role,
			Active:    user.active,
			CreatedAt: user.created,
		})
	}
	a.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result
}

// bootstrapUsers refreshes the credential cache from the user store and
// upgrades any plain-text password it finds to a bcrypt hash.
func (a *AuthManager) bootstrapUsers(ctx context.Context) {
	if a.userStore == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	users, err := a.userStore.ListUsers(ctx)
	if err != nil || len(users) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, user := range users {
		username := strings.ToLower(strings.TrimSpace(user.Username))
		if username == "" {
			continue
		}
		password := user.Password
		if !isPasswordHash(password) {
			hashed, err := hashPassword(password)
			if err == nil {
				password = hashed
				_ = a.userStore.UpdateUserPassword(ctx, username, hashed)
			}
		}
		a.users[username] = credential{
			password: password,
			role:     user.Role,
			active:   user.Active,
			created:  user.CreatedAt,
		}
	}
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
