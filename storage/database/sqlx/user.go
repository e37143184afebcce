package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gautamcse27/tuition-app/core/user"
)

type userRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	Role         string    `db:"role"`
	IsAdmin      bool      `db:"is_admin"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    null.Time `db:"created_at"`
	UpdatedAt    null.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (row userRow) user() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		Phone:        row.Phone,
		Role:         row.Role,
		IsAdmin:      row.IsAdmin,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		LastLogin:    row.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(role, email, phone, username string, excludedUsers ...user.User) error {
	excludedIDs := make([]int64, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, int64(usr.ID))
	}

	checks := []struct {
		column string
		value  string
		err    error
	}{
		{"email", email, user.ErrEmailExists},
		{"phone", phone, user.ErrPhoneExists},
		{"username", username, user.ErrUsernameExists},
	}
	for _, check := range checks {
		if check.value == "" {
			continue
		}
		var exists bool
		query := fmt.Sprintf(
			`SELECT EXISTS(SELECT 1 FROM app_user WHERE role = $1 AND %s = $2 AND id <> ALL($3))`,
			check.column,
		)
		if err := repo.db.Get(&exists, query, role, check.value, pq.Array(excludedIDs)); err != nil {
			return errors.Wrap(err, "checking uniqueness")
		}
		if exists {
			return check.err
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	query := `
		INSERT INTO app_user (name, username, email, phone, role, is_admin, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := repo.db.Get(
		&usr.ID, query,
		usr.Name, usr.Username, usr.Email, usr.Phone, usr.Role,
		usr.IsAdmin, usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) getUser(query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByID(id int) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(role, email string) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE role = $1 AND email = $2`, role, email)
}

func (repo *userRepository) GetUserByPhone(role, phone string) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE role = $1 AND phone = $2`, role, phone)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE role = $1 AND username = $2`, user.RoleAdmin, username)
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		pattern := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR email ILIKE %[1]s OR phone LIKE %[1]s)", pattern))
	}
	if filter.Role != "" {
		conds = append(conds, "role = "+arg(filter.Role))
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*filter.IsActive))
	}

	query := `SELECT * FROM app_user`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	var rows []userRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	// only save set fields
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Phone != "" {
		set("phone", usr.Phone)
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin)
	}
	if len(sets) == 0 {
		return repo.GetUserByID(usr.ID)
	}

	args = append(args, usr.ID)
	query := fmt.Sprintf(
		`UPDATE app_user SET %s WHERE id = $%d RETURNING *`,
		strings.Join(sets, ", "), len(args),
	)

	var row userRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.user(), nil
}

// DeleteUser removes the account in one transaction together with the
// requests it posted and the access grants naming it. Requests the user
// tutors are kept with the tutor link cleared.
func (repo *userRepository) DeleteUser(id int) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	steps := []struct {
		desc  string
		query string
	}{
		{"deleting access grants", `DELETE FROM access_grant WHERE tutor_id = $1 OR student_id = $1`},
		{"deleting tutor profile", `DELETE FROM tutor_profile WHERE tutor_id = $1`},
		{"deleting posted requests", `DELETE FROM tuition_request WHERE student_id = $1`},
		{"unassigning tutored requests", `UPDATE tuition_request SET tutor_id = NULL WHERE tutor_id = $1`},
		{"deleting user", `DELETE FROM app_user WHERE id = $1`},
	}
	for _, step := range steps {
		if _, err = tx.Exec(step.query, id); err != nil {
			return errors.Wrap(err, step.desc)
		}
	}
	return errors.Wrap(tx.Commit(), "committing tx")
}
