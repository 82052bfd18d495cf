package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestUser_Public_OmitsPasswordHash は公開ビューにハッシュが含まれないことを検証する。
func TestUser_Public_OmitsPasswordHash(t *testing.T) {
	u := &User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	b, err := json.Marshal(u.Public())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(b)

	if strings.Contains(body, u.PasswordHash) {
		t.Errorf("public view leaked password hash: %s", body)
	}
	if strings.Contains(body, "createdAt") {
		t.Errorf("public view should omit createdAt: %s", body)
	}
	want := `{"id":"user-1","username":"alice","email":"a@x.com"}`
	if body != want {
		t.Errorf("json = %s, want %s", body, want)
	}
}

func TestUser_Profile_IncludesCreatedAt(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u := &User{ID: "user-1", Username: "alice", Email: "a@x.com", CreatedAt: created}

	p := u.Profile()
	if p.CreatedAt == nil {
		t.Fatal("expected createdAt to be set")
	}
	if !p.CreatedAt.Equal(created) {
		t.Errorf("createdAt = %v, want %v", p.CreatedAt, created)
	}
}
