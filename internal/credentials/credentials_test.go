package credentials_test

import (
	"net/http"
	"testing"

	"github.com/derickschaefer/eqviz/internal/credentials"
)

func TestDeriveRequiresBothFields(t *testing.T) {
	cases := []credentials.Credentials{
		{},
		{Username: "ops"},
		{Password: "secret"},
		{Username: "", Password: "secret"},
	}
	for _, c := range cases {
		if a := credentials.Derive(c); a != nil {
			t.Errorf("Derive(%+v) = %v, want nil", c, a)
		}
	}
	if a := credentials.Derive(credentials.Credentials{Username: "ops", Password: "secret"}); a == nil {
		t.Fatal("Derive with both fields should return a context")
	}
}

func TestStoreSetOneFieldAtATime(t *testing.T) {
	s := credentials.NewStore()
	if err := s.Set(credentials.FieldUsername, "ops"); err != nil {
		t.Fatalf("Set username: %v", err)
	}
	if s.Auth() != nil {
		t.Fatal("auth should be absent with only a username")
	}
	if err := s.Set(credentials.FieldPassword, "secret"); err != nil {
		t.Fatalf("Set password: %v", err)
	}
	got := s.Credentials()
	if got.Username != "ops" || got.Password != "secret" {
		t.Fatalf("unexpected credentials %+v", got)
	}
	a := s.Auth()
	if a == nil || a.Username() != "ops" {
		t.Fatalf("expected auth for ops, got %v", a)
	}

	if err := s.Set(credentials.FieldPassword, ""); err != nil {
		t.Fatalf("clear password: %v", err)
	}
	if s.Auth() != nil {
		t.Fatal("clearing the password should drop the auth context")
	}
}

func TestStoreRejectsUnknownField(t *testing.T) {
	if err := credentials.NewStore().Set("token", "x"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestStoreAuthReusesUnchangedContext(t *testing.T) {
	s := credentials.NewStore()
	_ = s.Set(credentials.FieldUsername, "ops")
	_ = s.Set(credentials.FieldPassword, "secret")

	first := s.Auth()
	if second := s.Auth(); second != first {
		t.Error("unchanged credentials should return the same context")
	}

	_ = s.Set(credentials.FieldUsername, "ops2")
	third := s.Auth()
	if third == first {
		t.Error("edited credentials must produce a fresh context")
	}
	if third.Equal(first) {
		t.Error("contexts for different users must not be equal")
	}
}

func TestStoreAuthNoAllocWhenUnchanged(t *testing.T) {
	s := credentials.NewStore()
	_ = s.Set(credentials.FieldUsername, "ops")
	_ = s.Set(credentials.FieldPassword, "secret")
	first := s.Auth()
	if allocs := testing.AllocsPerRun(100, func() { _ = s.Auth() }); allocs != 0 {
		t.Errorf("Auth allocated %.0f times for unchanged credentials", allocs)
	}
	if s.Auth() != first {
		t.Error("context should be reused")
	}

	_ = s.Set(credentials.FieldPassword, "")
	if s.Auth() != nil {
		t.Fatal("cleared password should drop the context")
	}
	_ = s.Set(credentials.FieldPassword, "secret")
	if again := s.Auth(); again == nil || !again.Equal(first) {
		t.Errorf("restored credentials: %v", again)
	}
}

func TestApplySetsBasicAuth(t *testing.T) {
	a := credentials.Derive(credentials.Credentials{Username: "ops", Password: "secret"})
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	a.Apply(req)
	u, p, ok := req.BasicAuth()
	if !ok || u != "ops" || p != "secret" {
		t.Fatalf("basic auth = %q %q %v", u, p, ok)
	}
}

func TestEqualNil(t *testing.T) {
	var a, b *credentials.AuthContext
	if !a.Equal(b) {
		t.Error("nil contexts should be equal")
	}
	c := credentials.Derive(credentials.Credentials{Username: "u", Password: "p"})
	if c.Equal(nil) || a.Equal(c) {
		t.Error("nil and non-nil contexts should differ")
	}
}
