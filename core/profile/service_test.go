package profile_test

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/profile"
	"github.com/gautamcse27/tuition-app/core/user"
	inmemdb "github.com/gautamcse27/tuition-app/storage/database/inmem"
)

func setup(t *testing.T) profile.Service {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return profile.NewService(inmemdb.NewProfileRepository(db))
}

func TestService_Upsert(t *testing.T) {
	svc := setup(t)
	tutor := user.Actor{ID: 7, Role: user.RoleTutor}

	up := profile.UpdateProfile{
		Subjects:    []string{"Mathematics", "Physics"},
		Mode:        profile.ModeBoth,
		Skill:       profile.SkillExpert,
		Methodology: "practice first, theory after",
	}

	if _, err := svc.Upsert(user.Actor{ID: 1, Role: user.RoleStudent}, up); err != core.ErrPermissionDenied {
		t.Errorf("Upsert() by student: error = %v, want ErrPermissionDenied", err)
	}

	prof, err := svc.Upsert(tutor, up)
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if prof.TutorID != tutor.ID || !reflect.DeepEqual(prof.Subjects, up.Subjects) {
		t.Errorf("Upsert() prof = %+v", prof)
	}

	// updating keeps the same row
	up.Skill = profile.SkillIntermediate
	updated, err := svc.Upsert(tutor, up)
	if err != nil {
		t.Fatalf("Upsert() update failed: %v", err)
	}
	if updated.ID != prof.ID {
		t.Errorf("Upsert() created a new row: id = %d, want %d", updated.ID, prof.ID)
	}
	if updated.Skill != profile.SkillIntermediate {
		t.Errorf("Upsert() skill = %s", updated.Skill)
	}

	got, err := svc.GetByTutor(tutor.ID)
	if err != nil {
		t.Fatalf("GetByTutor() failed: %v", err)
	}
	if got.Skill != profile.SkillIntermediate {
		t.Errorf("GetByTutor() skill = %s", got.Skill)
	}
}

func TestService_GetByTutor_missing(t *testing.T) {
	svc := setup(t)
	if _, err := svc.GetByTutor(42); errors.Cause(err) != profile.ErrNotFound {
		t.Errorf("GetByTutor() error = %v, want ErrNotFound", err)
	}
}
