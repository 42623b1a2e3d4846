// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/traceofthetides/tides-go/internal/model"
	"github.com/traceofthetides/tides-go/internal/store"
)

type contributionEnvelope struct {
	Data model.Contribution `json:"data"`
}

type contributionListEnvelope struct {
	Data []model.Contribution `json:"data"`
	Meta *Meta                `json:"meta"`
}

// approveAsAdmin flips a user into an approved author using the seeded
// admin account, then restores the original session by leaving the env
// logged out.
func approveAsAdmin(t *testing.T, env *testEnv, uid string) {
	t.Helper()
	env.login(t, store.DefaultAdminEmail, store.DefaultAdminPassword)
	if status := env.post(t, "/admin/authors/"+uid+"/approve", map[string]string{}, nil); status != http.StatusOK {
		t.Fatalf("approve status = %d, want 200", status)
	}
	env.logout(t)
}

func TestContributionRequiresApprovedAuthor(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "writer@example.com", "correct-horse-battery", "Writer")

	req := SubmitContributionRequest{
		Kind:  model.ContributionKindTestimony,
		Title: "The Harbor at Dawn",
		Body:  "What I remember of the harbor.",
	}

	// A plain reader cannot contribute.
	if status := env.post(t, "/contributions", req, nil); status != http.StatusForbidden {
		t.Fatalf("reader submit = %d, want 403", status)
	}

	// Requesting the author role is not enough without approval.
	var prof profileEnvelope
	if status := env.post(t, "/profile/request-author", map[string]string{}, &prof); status != http.StatusOK {
		t.Fatalf("request-author = %d, want 200", status)
	}
	if prof.Data.Role != model.RoleAuthor || prof.Data.AuthorApproved {
		t.Fatalf("after request: role=%q approved=%v", prof.Data.Role, prof.Data.AuthorApproved)
	}
	if status := env.post(t, "/contributions", req, nil); status != http.StatusForbidden {
		t.Fatalf("unapproved author submit = %d, want 403", status)
	}
}

func TestContributionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "writer@example.com", "correct-horse-battery", "Writer")

	var prof profileEnvelope
	env.post(t, "/profile/request-author", map[string]string{}, &prof)
	uid := prof.Data.UID
	env.logout(t)

	approveAsAdmin(t, env, uid)
	env.login(t, "writer@example.com", "correct-horse-battery")

	// Submission now succeeds and lands in the pending queue.
	var created contributionEnvelope
	status := env.post(t, "/contributions", SubmitContributionRequest{
		Kind:    model.ContributionKindTestimony,
		Title:   "The Harbor at Dawn",
		Body:    "What I remember of the **harbor**.",
		Section: "salt",
		Tags:    []string{"memory", "Jaffa"},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("submit = %d, want 201", status)
	}
	if created.Data.Status != model.ContributionStatusPending {
		t.Errorf("status = %q, want pending", created.Data.Status)
	}
	if created.Data.Slug != "the-harbor-at-dawn" {
		t.Errorf("slug = %q", created.Data.Slug)
	}

	var mine contributionListEnvelope
	if status := env.get(t, "/contributions/mine", &mine); status != http.StatusOK {
		t.Fatalf("mine = %d", status)
	}
	if len(mine.Data) != 1 {
		t.Fatalf("got %d own contributions, want 1", len(mine.Data))
	}

	// The author cannot reach the review queue.
	if status := env.get(t, "/admin/contributions", nil); status != http.StatusForbidden {
		t.Errorf("author admin access = %d, want 403", status)
	}
	env.logout(t)

	// The admin reviews and publishes.
	env.login(t, store.DefaultAdminEmail, store.DefaultAdminPassword)

	var pending contributionListEnvelope
	if status := env.get(t, "/admin/contributions", &pending); status != http.StatusOK {
		t.Fatalf("pending list = %d", status)
	}
	if len(pending.Data) != 1 || pending.Meta == nil || pending.Meta.Total != 1 {
		t.Fatalf("pending = %d items, meta %+v", len(pending.Data), pending.Meta)
	}

	id := strconv.FormatInt(created.Data.ID, 10)
	var published contributionEnvelope
	if status := env.post(t, "/admin/contributions/"+id+"/publish", map[string]string{}, &published); status != http.StatusOK {
		t.Fatalf("publish = %d", status)
	}
	if !published.Data.IsPublished() {
		t.Errorf("status after publish = %q", published.Data.Status)
	}

	// Publishing a second time fails, the record is no longer pending.
	if status := env.post(t, "/admin/contributions/"+id+"/publish", map[string]string{}, nil); status != http.StatusNotFound {
		t.Errorf("double publish = %d, want 404", status)
	}
}

func TestContributionReject(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "writer@example.com", "correct-horse-battery", "Writer")

	var prof profileEnvelope
	env.post(t, "/profile/request-author", map[string]string{}, &prof)
	env.logout(t)
	approveAsAdmin(t, env, prof.Data.UID)

	env.login(t, "writer@example.com", "correct-horse-battery")
	var created contributionEnvelope
	env.post(t, "/contributions", SubmitContributionRequest{
		Kind:  model.ContributionKindTestimony,
		Title: "Unverifiable Account",
		Body:  "Body text.",
	}, &created)
	env.logout(t)

	env.login(t, store.DefaultAdminEmail, store.DefaultAdminPassword)
	id := strconv.FormatInt(created.Data.ID, 10)

	var rejected contributionEnvelope
	if status := env.post(t, "/admin/contributions/"+id+"/reject", map[string]string{}, &rejected); status != http.StatusOK {
		t.Fatalf("reject = %d", status)
	}
	if rejected.Data.Status != model.ContributionStatusRejected {
		t.Errorf("status = %q, want rejected", rejected.Data.Status)
	}
}

func TestContributionValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "writer@example.com", "correct-horse-battery", "Writer")

	var prof profileEnvelope
	env.post(t, "/profile/request-author", map[string]string{}, &prof)
	env.logout(t)
	approveAsAdmin(t, env, prof.Data.UID)
	env.login(t, "writer@example.com", "correct-horse-battery")

	var resp ErrorResponse
	status := env.post(t, "/contributions", SubmitContributionRequest{
		Kind:  "unknown-kind",
		Title: "Valid Title",
		Body:  "Body.",
	}, &resp)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("bad kind = %d, want 422", status)
	}
	if resp.Error.Message == "" {
		t.Error("validation error has no message")
	}
}

func TestApproveAuthorRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "writer@example.com", "correct-horse-battery", "Writer")

	var prof profileEnvelope
	env.get(t, "/profile", &prof)

	status := env.post(t, "/admin/authors/"+prof.Data.UID+"/approve", map[string]string{}, nil)
	if status != http.StatusForbidden {
		t.Errorf("self-approve = %d, want 403", status)
	}
}
