package sqlxrepos

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core/access"
)

type grantRow struct {
	TutorID   int `db:"tutor_id"`
	StudentID int `db:"student_id"`
}

type accessRepository struct {
	db *sqlx.DB
}

var _ access.Repository = (*accessRepository)(nil) // interface compliance check

func NewAccessRepository(db *sqlx.DB) access.Repository {
	return &accessRepository{db: db}
}

func (repo *accessRepository) CreateGrant(tutorID, studentID int) error {
	query := `
		INSERT INTO access_grant (tutor_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (tutor_id, student_id) DO NOTHING`
	if _, err := repo.db.Exec(query, tutorID, studentID); err != nil {
		return errors.Wrap(err, "creating grant")
	}
	return nil
}

func (repo *accessRepository) DeleteGrant(tutorID, studentID int) error {
	query := `DELETE FROM access_grant WHERE tutor_id = $1 AND student_id = $2`
	if _, err := repo.db.Exec(query, tutorID, studentID); err != nil {
		return errors.Wrap(err, "deleting grant")
	}
	return nil
}

func (repo *accessRepository) GrantExists(tutorID, studentID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM access_grant WHERE tutor_id = $1 AND student_id = $2)`
	if err := repo.db.Get(&exists, query, tutorID, studentID); err != nil {
		return false, errors.Wrap(err, "checking grant")
	}
	return exists, nil
}

func (repo *accessRepository) QueryAllGrants() ([]access.Grant, error) {
	var rows []grantRow
	query := `SELECT tutor_id, student_id FROM access_grant ORDER BY tutor_id, student_id`
	if err := repo.db.Select(&rows, query); err != nil {
		return nil, errors.Wrap(err, "querying grants")
	}
	grants := make([]access.Grant, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, access.Grant(row))
	}
	return grants, nil
}

func (repo *accessRepository) DeleteGrantsForUser(userID int) error {
	query := `DELETE FROM access_grant WHERE tutor_id = $1 OR student_id = $1`
	if _, err := repo.db.Exec(query, userID); err != nil {
		return errors.Wrap(err, "deleting grants")
	}
	return nil
}
