package bypass

import (
	"errors"
	"os/user"
	"strings"
	"testing"
)

func stubLookup(t *testing.T, users map[string]string) {
	t.Helper()
	orig := lookupUser
	lookupUser = func(name string) (*user.User, error) {
		uid, ok := users[name]
		if !ok {
			return nil, user.UnknownUserError(name)
		}
		return &user.User{Username: name, Uid: uid}, nil
	}
	t.Cleanup(func() { lookupUser = orig })
}

func TestResolveUID(t *testing.T) {
	stubLookup(t, map[string]string{"backup": "34", "weird": "S-1-5-21"})

	tests := []struct {
		app     string
		want    uint32
		wantErr bool
	}{
		{"backup", 34, false},
		{" backup ", 34, false},
		{"1001", 1001, false},
		{"0", 0, false},
		{"nobody-here", 0, true},
		{"weird", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ResolveUID(tt.app)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveUID(%q) error = %v, wantErr %v", tt.app, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveUID(%q) = %d, want %d", tt.app, got, tt.want)
		}
	}
}

func TestResolveUID_WrapsLookupError(t *testing.T) {
	stubLookup(t, nil)

	_, err := ResolveUID("ghost")
	var unknown user.UnknownUserError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownUserError", err)
	}
}

func TestResolveUIDs(t *testing.T) {
	stubLookup(t, map[string]string{"backup": "34", "sync": "1001"})

	got, err := ResolveUIDs([]string{"sync", "backup", "1001", "34"})
	if err != nil {
		t.Fatalf("ResolveUIDs: %v", err)
	}
	want := []uint32{34, 1001}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ResolveUIDs = %v, want %v", got, want)
	}
}

func TestResolveUIDs_ReportsAllFailures(t *testing.T) {
	stubLookup(t, nil)

	_, err := ResolveUIDs([]string{"ghost", "1001", "phantom"})
	if err == nil {
		t.Fatal("ResolveUIDs expected error, got nil")
	}
	for _, name := range []string{"ghost", "phantom"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %q", err.Error(), name)
		}
	}
}
