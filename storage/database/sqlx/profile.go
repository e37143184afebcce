package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core/profile"
)

type profileRow struct {
	ID          int            `db:"id"`
	TutorID     int            `db:"tutor_id"`
	Subjects    pq.StringArray `db:"subjects"`
	Mode        string         `db:"mode"`
	Skill       string         `db:"skill"`
	Methodology string         `db:"methodology"`
}

func (row profileRow) profile() profile.Profile {
	return profile.Profile{
		ID:          row.ID,
		TutorID:     row.TutorID,
		Subjects:    row.Subjects,
		Mode:        row.Mode,
		Skill:       row.Skill,
		Methodology: row.Methodology,
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfileByTutorID(tutorID int) (profile.Profile, error) {
	var row profileRow
	if err := repo.db.Get(&row, `SELECT * FROM tutor_profile WHERE tutor_id = $1`, tutorID); err != nil {
		if err == sql.ErrNoRows {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, errors.Wrap(err, "getting profile")
	}
	return row.profile(), nil
}

func (repo *profileRepository) UpsertProfile(p profile.Profile) (profile.Profile, error) {
	query := `
		INSERT INTO tutor_profile (tutor_id, subjects, mode, skill, methodology)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tutor_id) DO UPDATE
		SET subjects = EXCLUDED.subjects, mode = EXCLUDED.mode,
			skill = EXCLUDED.skill, methodology = EXCLUDED.methodology
		RETURNING id`
	err := repo.db.Get(&p.ID, query, p.TutorID, pq.Array(p.Subjects), p.Mode, p.Skill, p.Methodology)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "upserting profile")
	}
	return p, nil
}
