package wiki

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeCategoryKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"cooking", "Cooking"},
		{"Cooking", "Cooking"},
		{"home cooking", "Home_cooking"},
		{"  trimmed  name ", "Trimmed__name"},
		{"", ""},
		{"   ", ""},
		{"łódź trips", "Łódź_trips"},
	}
	for _, tc := range cases {
		if got := NormalizeCategoryKey(tc.in); got != tc.want {
			t.Errorf("NormalizeCategoryKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDirectory_BlogPage(t *testing.T) {
	d := NewDirectory()
	d.AddBlogPage(100, "User_blog:Alice/First_post")

	p, err := d.BlogPage(context.Background(), 100)
	if err != nil {
		t.Fatalf("BlogPage: %v", err)
	}
	if p.Title != "User_blog:Alice/First_post" {
		t.Fatalf("unexpected title %q", p.Title)
	}

	if _, err := d.BlogPage(context.Background(), 999); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestDirectory_Capabilities(t *testing.T) {
	d := NewDirectory()
	d.AddUser(1, "Alice")
	d.Grant(1, CapModerate)

	has, err := d.HasCapability(context.Background(), 1, CapModerate)
	if err != nil || !has {
		t.Fatalf("expected capability, got %v %v", has, err)
	}
	has, _ = d.HasCapability(context.Background(), 2, CapModerate)
	if has {
		t.Fatal("expected no capability for unknown user")
	}
}

func TestDirectory_Members(t *testing.T) {
	d := NewDirectory()
	d.AddCategoryMember("home cooking", 100)
	d.AddCategoryMember("home cooking", 101)
	d.AddCategoryMember("home cooking", 102)

	ids, err := d.Members(context.Background(), NormalizeCategoryKey("home cooking"))
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected all 3 members, got %v", ids)
	}
	seen := map[int64]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[100] || !seen[101] || !seen[102] {
		t.Fatalf("missing members in %v", ids)
	}

	empty, _ := d.Members(context.Background(), "Missing")
	if len(empty) != 0 {
		t.Fatalf("expected empty result, got %v", empty)
	}
}
