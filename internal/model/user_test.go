package model

import (
	"testing"
)

func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{
			name: "admin role",
			role: RoleAdmin,
			want: true,
		},
		{
			name: "author role",
			role: RoleAuthor,
			want: false,
		},
		{
			name: "user role",
			role: RoleUser,
			want: false,
		},
		{
			name: "empty role",
			role: "",
			want: false,
		},
		{
			name: "Admin uppercase",
			role: "Admin",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserRoleDerivation(t *testing.T) {
	tests := []struct {
		name             string
		role             string
		approved         bool
		wantAuthor       bool
		wantApprovedAuth bool
	}{
		{
			name:             "admin is author and approved regardless of flag",
			role:             RoleAdmin,
			approved:         false,
			wantAuthor:       true,
			wantApprovedAuth: true,
		},
		{
			name:             "approved author",
			role:             RoleAuthor,
			approved:         true,
			wantAuthor:       true,
			wantApprovedAuth: true,
		},
		{
			name:             "unapproved author",
			role:             RoleAuthor,
			approved:         false,
			wantAuthor:       true,
			wantApprovedAuth: false,
		},
		{
			name:             "plain user",
			role:             RoleUser,
			approved:         true, // flag without role grants nothing
			wantAuthor:       false,
			wantApprovedAuth: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role, AuthorApproved: tt.approved}
			if got := u.IsAuthor(); got != tt.wantAuthor {
				t.Errorf("IsAuthor() = %v, want %v", got, tt.wantAuthor)
			}
			if got := u.IsApprovedAuthor(); got != tt.wantApprovedAuth {
				t.Errorf("IsApprovedAuthor() = %v, want %v", got, tt.wantApprovedAuth)
			}
		})
	}
}

func TestIsValidContributionKind(t *testing.T) {
	for _, kind := range ContributionKinds {
		if !IsValidContributionKind(kind) {
			t.Errorf("IsValidContributionKind(%q) = false, want true", kind)
		}
	}
	if IsValidContributionKind("sculpture") {
		t.Error("IsValidContributionKind(\"sculpture\") = true, want false")
	}
	if IsValidContributionKind("") {
		t.Error("IsValidContributionKind(\"\") = true, want false")
	}
}
