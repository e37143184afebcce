package access_test

import (
	"testing"

	"github.com/gautamcse27/tuition-app/core/access"
	inmemdb "github.com/gautamcse27/tuition-app/storage/database/inmem"
)

func setup(t *testing.T) access.Service {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return access.NewService(inmemdb.NewAccessRepository(db))
}

func TestService_GrantRevoke(t *testing.T) {
	svc := setup(t)

	granted, err := svc.IsGranted(1, 2)
	if err != nil || granted {
		t.Errorf("IsGranted() before grant = %v, err = %v", granted, err)
	}

	if err = svc.Grant(1, 2); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	if granted, err = svc.IsGranted(1, 2); err != nil || !granted {
		t.Errorf("IsGranted() after grant = %v, err = %v", granted, err)
	}

	// granting again is a no-op
	if err = svc.Grant(1, 2); err != nil {
		t.Fatalf("Grant() twice failed: %v", err)
	}
	grants, err := svc.QueryAll()
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	if len(grants) != 1 {
		t.Errorf("QueryAll() len = %d, want 1", len(grants))
	}

	// the pair is directional: the reverse pair is a distinct grant
	if granted, _ = svc.IsGranted(2, 1); granted {
		t.Error("IsGranted() reverse pair must not be granted")
	}

	if err = svc.Revoke(1, 2); err != nil {
		t.Fatalf("Revoke() failed: %v", err)
	}
	if granted, _ = svc.IsGranted(1, 2); granted {
		t.Error("IsGranted() after revoke must be false")
	}

	// revoking an absent pair is a no-op
	if err = svc.Revoke(1, 2); err != nil {
		t.Fatalf("Revoke() twice failed: %v", err)
	}
}

func TestService_QueryAll_ordering(t *testing.T) {
	svc := setup(t)

	pairs := [][2]int{{3, 1}, {1, 2}, {1, 1}, {2, 5}}
	for _, p := range pairs {
		if err := svc.Grant(p[0], p[1]); err != nil {
			t.Fatalf("Grant() failed: %v", err)
		}
	}

	grants, err := svc.QueryAll()
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	want := []access.Grant{
		{TutorID: 1, StudentID: 1},
		{TutorID: 1, StudentID: 2},
		{TutorID: 2, StudentID: 5},
		{TutorID: 3, StudentID: 1},
	}
	if len(grants) != len(want) {
		t.Fatalf("QueryAll() len = %d, want %d", len(grants), len(want))
	}
	for i, g := range grants {
		if g != want[i] {
			t.Errorf("QueryAll()[%d] = %+v, want %+v", i, g, want[i])
		}
	}
}
