package inmemdb

import (
	"sort"

	"github.com/gautamcse27/tuition-app/core/access"
)

type accessRepository struct {
	db *DB
}

var _ access.Repository = (*accessRepository)(nil) // interface compliance check

func NewAccessRepository(db *DB) access.Repository {
	return &accessRepository{db: db}
}

func (repo *accessRepository) CreateGrant(tutorID, studentID int) error {
	repo.db.access.Lock()
	defer repo.db.access.Unlock()
	repo.db.access.table[[2]int{tutorID, studentID}] = access.Grant{TutorID: tutorID, StudentID: studentID}
	return nil
}

func (repo *accessRepository) DeleteGrant(tutorID, studentID int) error {
	repo.db.access.Lock()
	defer repo.db.access.Unlock()
	delete(repo.db.access.table, [2]int{tutorID, studentID})
	return nil
}

func (repo *accessRepository) GrantExists(tutorID, studentID int) (bool, error) {
	repo.db.access.RLock()
	defer repo.db.access.RUnlock()
	_, ok := repo.db.access.table[[2]int{tutorID, studentID}]
	return ok, nil
}

func (repo *accessRepository) QueryAllGrants() ([]access.Grant, error) {
	repo.db.access.RLock()
	defer repo.db.access.RUnlock()

	grants := make([]access.Grant, 0, len(repo.db.access.table))
	for _, g := range repo.db.access.table {
		grants = append(grants, g)
	}
	sort.Slice(grants, func(i, j int) bool {
		if grants[i].TutorID == grants[j].TutorID {
			return grants[i].StudentID < grants[j].StudentID
		}
		return grants[i].TutorID < grants[j].TutorID
	})
	return grants, nil
}

func (repo *accessRepository) DeleteGrantsForUser(userID int) error {
	repo.db.access.Lock()
	defer repo.db.access.Unlock()
	for key := range repo.db.access.table {
		if key[0] == userID || key[1] == userID {
			delete(repo.db.access.table, key)
		}
	}
	return nil
}
