package inmemdb

import (
	"github.com/gautamcse27/tuition-app/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfileByTutorID(tutorID int) (profile.Profile, error) {
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	if p, ok := repo.db.profile.table[tutorID]; ok {
		return *p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) UpsertProfile(p profile.Profile) (profile.Profile, error) {
	repo.db.profile.Lock()
	defer repo.db.profile.Unlock()

	if orig, ok := repo.db.profile.table[p.TutorID]; ok {
		p.ID = orig.ID
	} else {
		repo.db.profile.pkCount++
		p.ID = repo.db.profile.pkCount
	}
	repo.db.profile.table[p.TutorID] = &p
	return p, nil
}
