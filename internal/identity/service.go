package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okovalenko/uniconnect/internal/domain/user"
	"github.com/okovalenko/uniconnect/internal/security"
	"github.com/okovalenko/uniconnect/internal/store"
)

const usersCollection = "users"

// CollectionStore is the slice of the store adapter the identity service
// needs.
type CollectionStore interface {
	Load(ctx context.Context, key string, v any) error
	Save(ctx context.Context, key string, v any) (store.SaveResult, error)
}

type Service struct {
	store    CollectionStore
	sessions SessionStore
	logger   *slog.Logger

	// serializes load-mutate-save cycles on the users collection
	mu sync.Mutex
}

func NewService(st CollectionStore, sessions SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}

	return &Service{
		store:    st,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *Service) loadUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User

	err := s.store.Load(ctx, usersCollection, &users)

	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return []user.User{}, nil
		}
		return nil, err
	}

	return users, nil
}

func (s *Service) saveUsers(ctx context.Context, users []user.User) error {
	res, err := s.store.Save(ctx, usersCollection, users)

	if err != nil {
		return err
	}

	if !res.Replicated {
		s.logger.Warn("users collection saved locally only", "count", len(users))
	}

	return nil
}

// Register creates a new organization account. All validation problems
// are reported together; the email must be unused.
func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	err := validateRegistration(req)

	if err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)

	if err != nil {
		return user.User{}, err
	}

	for _, u := range users {
		if u.Email == req.Email {
			return user.User{}, ErrDuplicateEmail
		}
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		return user.User{}, err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Type:         user.OrgType(req.Type),

		UniversityName: req.UniversityName,
		CompanyName:    req.CompanyName,
		ContactPerson:  req.ContactPerson,
		Industry:       req.Industry,

		Phone:       req.Phone,
		Address:     req.Address,
		Website:     req.Website,
		Description: req.Description,

		CreatedAt:     time.Now(),
		IsActive:      true,
		EmailVerified: false,
		LastLogin:     nil,
	}

	users = append(users, u)

	err = s.saveUsers(ctx, users)

	if err != nil {
		return user.User{}, err
	}

	return u.Sanitize(), nil
}

// Login checks credentials and records the login time. The error order
// is fixed: unknown email, then deactivated account, then bad password.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)

	if err != nil {
		return user.User{}, err
	}

	idx := -1

	for i, u := range users {
		if u.Email == email {
			idx = i
			break
		}
	}

	if idx == -1 {
		return user.User{}, user.ErrNotFound
	}

	if !users[idx].IsActive {
		return user.User{}, ErrDeactivated
	}

	err = security.CheckPassword(users[idx].PasswordHash, password)

	if err != nil {
		return user.User{}, ErrBadCredentials
	}

	now := time.Now()
	users[idx].LastLogin = &now

	err = s.saveUsers(ctx, users)

	if err != nil {
		return user.User{}, err
	}

	return users[idx].Sanitize(), nil
}

// StartSession records a server-side session for an issued refresh token.
func (s *Service) StartSession(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	return s.sessions.Put(ctx, sess)
}

func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return s.sessions.Get(ctx, id)
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.DeleteByUser(ctx, userID)
}

// UpdateProfile applies a merge-patch to the account. Changing email
// re-checks uniqueness against everyone else.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p user.ProfilePatch) (user.User, error) {
	err := validateProfilePatch(p)

	if err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)

	if err != nil {
		return user.User{}, err
	}

	idx := -1

	for i, u := range users {
		if u.ID == userID {
			idx = i
			break
		}
	}

	if idx == -1 {
		return user.User{}, user.ErrNotFound
	}

	if p.Email != nil && *p.Email != users[idx].Email {
		for _, u := range users {
			if u.Email == *p.Email && u.ID != userID {
				return user.User{}, ErrDuplicateEmail
			}
		}
		users[idx].Email = *p.Email
	}

	if p.UniversityName != nil {
		users[idx].UniversityName = *p.UniversityName
	}
	if p.CompanyName != nil {
		users[idx].CompanyName = *p.CompanyName
	}
	if p.ContactPerson != nil {
		users[idx].ContactPerson = *p.ContactPerson
	}
	if p.Industry != nil {
		users[idx].Industry = *p.Industry
	}
	if p.Phone != nil {
		users[idx].Phone = *p.Phone
	}
	if p.Address != nil {
		users[idx].Address = *p.Address
	}
	if p.Website != nil {
		users[idx].Website = *p.Website
	}
	if p.Description != nil {
		users[idx].Description = *p.Description
	}

	now := time.Now()
	users[idx].UpdatedAt = &now

	err = s.saveUsers(ctx, users)

	if err != nil {
		return user.User{}, err
	}

	return users[idx].Sanitize(), nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return &ValidationError{Errors: []string{"new password must be at least 6 characters"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)

	if err != nil {
		return err
	}

	idx := -1

	for i, u := range users {
		if u.ID == userID {
			idx = i
			break
		}
	}

	if idx == -1 {
		return user.ErrNotFound
	}

	err = security.CheckPassword(users[idx].PasswordHash, currentPassword)

	if err != nil {
		return ErrBadCredentials
	}

	hash, err := security.HashPassword(newPassword)

	if err != nil {
		return err
	}

	users[idx].PasswordHash = hash

	now := time.Now()
	users[idx].UpdatedAt = &now

	return s.saveUsers(ctx, users)
}

func (s *Service) GetByID(ctx context.Context, userID string) (user.User, error) {
	users, err := s.loadUsers(ctx)

	if err != nil {
		return user.User{}, err
	}

	for _, u := range users {
		if u.ID == userID {
			return u.Sanitize(), nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (s *Service) GetByEmail(ctx context.Context, email string) (user.User, error) {
	users, err := s.loadUsers(ctx)

	if err != nil {
		return user.User{}, err
	}

	for _, u := range users {
		if u.Email == email {
			return u.Sanitize(), nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (s *Service) GetAll(ctx context.Context) ([]user.User, error) {
	users, err := s.loadUsers(ctx)

	if err != nil {
		return nil, err
	}

	out := make([]user.User, 0, len(users))

	for _, u := range users {
		out = append(out, u.Sanitize())
	}

	return out, nil
}

func (s *Service) GetByType(ctx context.Context, t user.OrgType) ([]user.User, error) {
	users, err := s.loadUsers(ctx)

	if err != nil {
		return nil, err
	}

	out := make([]user.User, 0)

	for _, u := range users {
		if u.Type == t {
			out = append(out, u.Sanitize())
		}
	}

	return out, nil
}

// CountByType feeds the statistics widget without handing out accounts.
func (s *Service) CountByType(ctx context.Context) (universities, companies int, err error) {
	users, err := s.loadUsers(ctx)

	if err != nil {
		return 0, 0, err
	}

	for _, u := range users {
		switch u.Type {
		case user.TypeUniversity:
			universities++
		case user.TypeCompany:
			companies++
		}
	}

	return universities, companies, nil
}
