package inmemdb

import (
	"sort"
	"strings"

	"github.com/gautamcse27/tuition-app/core/user"
)

type userRepository struct {
	db       *DB
	requests *requestTable
	grants   *accessTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db, requests: db.request, grants: db.access}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.user.table))
	for _, u := range repo.db.user.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) CheckUniqueness(role, email, phone, username string, excludedUsers ...user.User) error {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	excluded := func(usr user.User) bool {
		for _, ex := range excludedUsers {
			if ex.ID == usr.ID {
				return true
			}
		}
		return false
	}

	for _, usr := range repo.query() {
		if usr.Role != role || excluded(usr) {
			continue
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
		if phone != "" && usr.Phone == phone {
			return user.ErrPhoneExists
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	repo.db.user.pkCount++
	usr.ID = repo.db.user.pkCount
	repo.db.user.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(id int) (user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	if usr, ok := repo.db.user.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(role, email string) (user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	for _, usr := range repo.query() {
		if usr.Role == role && usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByPhone(role, phone string) (user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	for _, usr := range repo.query() {
		if usr.Role == role && usr.Phone == phone {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	for _, usr := range repo.query() {
		if usr.Role == user.RoleAdmin && usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	users := repo.query()

	if filter.Search != "" {
		var filtered []user.User
		search := strings.ToLower(filter.Search)
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Name), search) ||
				strings.Contains(strings.ToLower(u.Email), search) ||
				strings.Contains(u.Phone, filter.Search) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && filter.Role != "" {
		var filtered []user.User
		for _, u := range users {
			if u.Role == filter.Role {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && filter.IsActive != nil {
		var filtered []user.User
		for _, u := range users {
			if u.IsActive == *filter.IsActive {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	origUsr, ok := repo.db.user.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	// only save set fields
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if usr.Phone != "" {
		origUsr.Phone = usr.Phone
	}
	if !usr.UpdatedAt.IsZero() {
		origUsr.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		origUsr.LastLogin = usr.LastLogin
	}

	repo.db.user.table[usr.ID] = origUsr
	return *origUsr, nil
}

// DeleteUser removes the account, its requests and its access grants, the
// way the SQL schema's ON DELETE CASCADE does.
func (repo *userRepository) DeleteUser(id int) error {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	delete(repo.db.user.table, id)

	repo.requests.Lock()
	for reqID, req := range repo.requests.table {
		if req.StudentID == id {
			delete(repo.requests.table, reqID)
		} else if req.IsAssignedTo(id) {
			// requests only weakly reference their tutor
			req.TutorID.Valid = false
			req.TutorID.Int = 0
		}
	}
	repo.requests.Unlock()

	repo.grants.Lock()
	for key := range repo.grants.table {
		if key[0] == id || key[1] == id {
			delete(repo.grants.table, key)
		}
	}
	repo.grants.Unlock()
	return nil
}
