package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	memclock "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/clock"
	memuserrepo "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/userrepo"
	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/auth/tokenissuer"
)

func newService(t *testing.T) *Service {
	t.Helper()
	clk := memclock.NewManualClock(time.Unix(1700000000, 0).UTC())
	iss, err := tokenissuer.New([]byte("0123456789abcdef0123456789abcdef"), time.Hour, clk)
	if err != nil {
		t.Fatalf("tokenissuer.New: %v", err)
	}
	svc := NewService(memuserrepo.NewRepo(), iss, clk)
	svc.BcryptCost = bcrypt.MinCost
	return svc
}

func TestService_SignupThenLogin(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	res, err := svc.Signup(context.Background(), SignupInput{Name: "  Alice   Smith ", Email: " Alice@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup err=%v", err)
	}
	if res.User.Name != "Alice Smith" || res.User.Email != "alice@example.com" || res.Token == "" {
		t.Fatalf("unexpected signup result: %+v", res)
	}

	got, err := svc.Login(context.Background(), LoginInput{Email: "ALICE@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login err=%v", err)
	}
	if got.User.ID != res.User.ID {
		t.Fatalf("login user=%+v, want %+v", got.User, res.User)
	}
}

func TestService_SignupValidation(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	cases := []struct {
		in    SignupInput
		field string
	}{
		{SignupInput{Name: " ", Email: "a@b.co", Password: "secret1"}, "name"},
		{SignupInput{Name: "A", Email: "", Password: "secret1"}, "email"},
		{SignupInput{Name: "A", Email: "not an email", Password: "secret1"}, "email"},
		{SignupInput{Name: "A", Email: "a@b.co", Password: "12345"}, "password"},
	}
	for _, tc := range cases {
		_, err := svc.Signup(context.Background(), tc.in)
		ae := (*Error)(nil)
		if !errors.As(err, &ae) || ae.Status != 400 || ae.Code != "VALIDATION_ERROR" {
			t.Fatalf("Signup(%+v) err=%v, want VALIDATION_ERROR", tc.in, err)
		}
		if _, ok := ae.Details[tc.field]; !ok {
			t.Fatalf("Signup(%+v) details=%v, want field %q", tc.in, ae.Details, tc.field)
		}
	}
}

func TestService_SignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	if _, err := svc.Signup(context.Background(), SignupInput{Name: "A", Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("Signup err=%v", err)
	}
	_, err := svc.Signup(context.Background(), SignupInput{Name: "B", Email: "A@B.CO", Password: "secret2"})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Code != "EMAIL_TAKEN" || ae.Message != "Email already in use" {
		t.Fatalf("err=%v, want EMAIL_TAKEN", err)
	}
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	svc.newUserID = func() domain.UserID { return "u-1" }
	if _, err := svc.Signup(context.Background(), SignupInput{Name: "A", Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("Signup err=%v", err)
	}

	for _, in := range []LoginInput{
		{Email: "a@b.co", Password: "wrong!"},
		{Email: "nobody@b.co", Password: "secret1"},
		{Email: "", Password: ""},
	} {
		_, err := svc.Login(context.Background(), in)
		ae := (*Error)(nil)
		if !errors.As(err, &ae) || ae.Status != 401 {
			t.Fatalf("Login(%+v) err=%v, want 401", in, err)
		}
	}
}
