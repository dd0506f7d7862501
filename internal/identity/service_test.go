package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okovalenko/uniconnect/internal/domain/user"
	"github.com/okovalenko/uniconnect/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	fs, err := store.NewFileStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	adapter := store.NewAdapter(fs, time.Minute, store.Options{})

	return NewService(adapter, NewMemorySessionStore(), nil)
}

func universityRequest() user.RegisterRequest {
	return user.RegisterRequest{
		Email:           "uni@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Type:            "university",
		UniversityName:  "КНУ",
		ContactPerson:   "Олена",
	}
}

func companyRequest() user.RegisterRequest {
	return user.RegisterRequest{
		Email:           "co@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Type:            "company",
		CompanyName:     "TechCo",
		Industry:        "it",
		ContactPerson:   "Іван",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, universityRequest())

	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if created.PasswordHash != "" {
		t.Fatal("registered user must come back sanitized")
	}

	if created.ID == "" || !created.IsActive {
		t.Fatalf("bad defaults: %+v", created)
	}

	if created.LastLogin != nil {
		t.Fatal("lastLogin must start empty")
	}

	got, err := svc.Login(ctx, "uni@example.com", "secret1")

	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if got.LastLogin == nil {
		t.Fatal("login must record lastLogin")
	}

	if got.PasswordHash != "" {
		t.Fatal("logged-in user must come back sanitized")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, universityRequest())

	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	req := companyRequest()
	req.Email = "uni@example.com"

	_, err = svc.Register(ctx, req)

	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterAggregatesValidationErrors(t *testing.T) {
	svc := newTestService(t)

	req := user.RegisterRequest{
		Email:           "not-an-email",
		Password:        "abc",
		ConfirmPassword: "abcd",
		Type:            "company",
	}

	_, err := svc.Register(context.Background(), req)

	var vErr *ValidationError

	if !errors.As(err, &vErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	// company without name/industry/contact plus bad email, short
	// password and mismatch must all be reported at once
	if len(vErr.Errors) < 5 {
		t.Fatalf("want all problems aggregated, got %v", vErr.Errors)
	}
}

func TestLoginErrorOrdering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, universityRequest())

	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = svc.Login(ctx, "nobody@example.com", "whatever")

	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("unknown email: want ErrNotFound, got %v", err)
	}

	_, err = svc.Login(ctx, "uni@example.com", "wrongpass")

	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("wrong password: want ErrBadCredentials, got %v", err)
	}
}

func TestUpdateProfileMergePatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, universityRequest())

	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	phone := "+380501234567"
	site := "https://knu.ua"

	updated, err := svc.UpdateProfile(ctx, created.ID, user.ProfilePatch{
		Phone:   &phone,
		Website: &site,
	})

	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if updated.Phone != phone || updated.Website != site {
		t.Fatalf("patch not applied: %+v", updated)
	}

	// untouched fields survive
	if updated.UniversityName != "КНУ" || updated.Email != "uni@example.com" {
		t.Fatalf("patch clobbered fields: %+v", updated)
	}

	if updated.UpdatedAt == nil {
		t.Fatal("update must stamp updatedAt")
	}
}

func TestUpdateProfileEmailUniqueness(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	uni, err := svc.Register(ctx, universityRequest())

	if err != nil {
		t.Fatalf("register university: %v", err)
	}

	_, err = svc.Register(ctx, companyRequest())

	if err != nil {
		t.Fatalf("register company: %v", err)
	}

	taken := "co@example.com"

	_, err = svc.UpdateProfile(ctx, uni.ID, user.ProfilePatch{Email: &taken})

	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}

	// setting your own email again is not a conflict
	same := "uni@example.com"

	_, err = svc.UpdateProfile(ctx, uni.ID, user.ProfilePatch{Email: &same})

	if err != nil {
		t.Fatalf("same email: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, universityRequest())

	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	err = svc.ChangePassword(ctx, created.ID, "secret1", "short")

	var vErr *ValidationError

	if !errors.As(err, &vErr) {
		t.Fatalf("short password: want ValidationError, got %v", err)
	}

	err = svc.ChangePassword(ctx, created.ID, "wrong", "newsecret")

	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("wrong current: want ErrBadCredentials, got %v", err)
	}

	err = svc.ChangePassword(ctx, created.ID, "secret1", "newsecret")

	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	_, err = svc.Login(ctx, "uni@example.com", "secret1")

	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}

	_, err = svc.Login(ctx, "uni@example.com", "newsecret")

	if err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestGetByTypeAndCounts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, universityRequest())

	if err != nil {
		t.Fatalf("register university: %v", err)
	}

	_, err = svc.Register(ctx, companyRequest())

	if err != nil {
		t.Fatalf("register company: %v", err)
	}

	unis, err := svc.GetByType(ctx, user.TypeUniversity)

	if err != nil || len(unis) != 1 {
		t.Fatalf("GetByType university: %v %v", unis, err)
	}

	for _, u := range unis {
		if u.PasswordHash != "" {
			t.Fatal("listing must be sanitized")
		}
	}

	u, c, err := svc.CountByType(ctx)

	if err != nil || u != 1 || c != 1 {
		t.Fatalf("CountByType: %d %d %v", u, c, err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess := Session{
		ID:        "jti-1",
		UserID:    "u-1",
		Email:     "uni@example.com",
		OrgType:   "university",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	err := svc.StartSession(ctx, sess)

	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	got, err := svc.GetSession(ctx, "jti-1")

	if err != nil || got.UserID != "u-1" {
		t.Fatalf("GetSession: %+v %v", got, err)
	}

	err = svc.Logout(ctx, "jti-1")

	if err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err = svc.GetSession(ctx, "jti-1")

	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	st := NewMemorySessionStore()
	ctx := context.Background()

	err := st.Put(ctx, Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)})

	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, err = st.Get(ctx, "old")

	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired session: want ErrSessionNotFound, got %v", err)
	}
}
