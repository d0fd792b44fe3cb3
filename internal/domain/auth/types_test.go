package auth

import "testing"

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleApplicant, RoleHR, RoleAdmin} {
		if !r.Valid() {
			t.Fatalf("expected %q to be valid", r)
		}
	}
	if Role("moderator").Valid() {
		t.Fatalf("did not expect unknown role to be valid")
	}
	if Role("HR").Valid() {
		t.Fatalf("role comparison must be case-sensitive")
	}
}

func TestRole_CanPostJobs(t *testing.T) {
	if !RoleHR.CanPostJobs() || !RoleAdmin.CanPostJobs() {
		t.Fatalf("expected hr and admin to post jobs")
	}
	if RoleApplicant.CanPostJobs() {
		t.Fatalf("did not expect applicant to post jobs")
	}
}
