package profile

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/user"
)

var ErrNotFound = errors.New("tutor profile not found")

// Modes of teaching
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
	ModeBoth    = "both"
)

// Skill levels
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillExpert       = "expert"
)

type (
	// Profile is the one-to-one tutor profile shown to students and admins.
	Profile struct {
		ID          int      `json:"id"`
		TutorID     int      `json:"tutor_id"`
		Subjects    []string `json:"subjects"`
		Mode        string   `json:"mode"`
		Skill       string   `json:"skill"`
		Methodology string   `json:"methodology"`
	}

	// UpdateProfile carries the tutor dashboard form.
	UpdateProfile struct {
		Subjects    []string `json:"subjects" validate:"required,min=1,dive,required"`
		Mode        string   `json:"mode" validate:"required,oneof=online offline both"`
		Skill       string   `json:"skill" validate:"required,oneof=beginner intermediate expert"`
		Methodology string   `json:"methodology" validate:"required,max=1000"`
	}

	Repository interface {
		GetProfileByTutorID(tutorID int) (Profile, error)
		// UpsertProfile creates or replaces the tutor's profile.
		UpsertProfile(p Profile) (Profile, error)
	}

	Service interface {
		GetByTutor(tutorID int) (Profile, error)
		Upsert(actor user.Actor, up UpdateProfile) (Profile, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	for i, s := range up.Subjects {
		up.Subjects[i] = core.CleanString(s)
	}
	up.Mode = core.CleanString(up.Mode, true /* lower */)
	up.Skill = core.CleanString(up.Skill, true /* lower */)
	up.Methodology = core.CleanString(up.Methodology)
	return validate.Struct(up)
}

func (svc *service) GetByTutor(tutorID int) (Profile, error) {
	return svc.repo.GetProfileByTutorID(tutorID)
}

// Upsert saves the acting tutor's own profile.
func (svc *service) Upsert(actor user.Actor, up UpdateProfile) (Profile, error) {
	if !actor.IsTutor() {
		return Profile{}, core.ErrPermissionDenied
	}
	return svc.repo.UpsertProfile(Profile{
		TutorID:     actor.ID,
		Subjects:    up.Subjects,
		Mode:        up.Mode,
		Skill:       up.Skill,
		Methodology: up.Methodology,
	})
}
