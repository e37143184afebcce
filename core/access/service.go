package access

// Package access keeps the ledger of which tutor may see which student's
// unmasked contact identity. Grants are administered solely by admin
// actions; the route layer enforces that via the authorization gate.

type (
	// Grant represents admin-approved permission for one tutor to view one
	// student's unmasked contact identity. The (tutor, student) pair is
	// unique.
	Grant struct {
		TutorID   int `json:"tutor_id"`
		StudentID int `json:"student_id"`
	}

	Repository interface {
		// CreateGrant is a no-op if the pair already exists.
		CreateGrant(tutorID, studentID int) error
		// DeleteGrant is a no-op if the pair is absent.
		DeleteGrant(tutorID, studentID int) error
		GrantExists(tutorID, studentID int) (bool, error)
		QueryAllGrants() ([]Grant, error)
		// DeleteGrantsForUser removes every grant referencing the user as
		// either party; used when an account is removed.
		DeleteGrantsForUser(userID int) error
	}

	Service interface {
		Grant(tutorID, studentID int) error
		Revoke(tutorID, studentID int) error
		IsGranted(tutorID, studentID int) (bool, error)
		QueryAll() ([]Grant, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Grant records the pair; idempotent.
func (svc *service) Grant(tutorID, studentID int) error {
	return svc.repo.CreateGrant(tutorID, studentID)
}

// Revoke removes the pair; idempotent.
func (svc *service) Revoke(tutorID, studentID int) error {
	return svc.repo.DeleteGrant(tutorID, studentID)
}

func (svc *service) IsGranted(tutorID, studentID int) (bool, error) {
	return svc.repo.GrantExists(tutorID, studentID)
}

func (svc *service) QueryAll() ([]Grant, error) {
	return svc.repo.QueryAllGrants()
}
