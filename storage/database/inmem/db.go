// Package inmemdb provides in-memory repositories backing the domain
// services in tests and local development.
package inmemdb

import (
	"sync"

	"github.com/gautamcse27/tuition-app/core/access"
	"github.com/gautamcse27/tuition-app/core/profile"
	"github.com/gautamcse27/tuition-app/core/request"
	"github.com/gautamcse27/tuition-app/core/user"
)

type (
	DB struct {
		user    *userTable
		request *requestTable
		access  *accessTable
		profile *profileTable
	}

	userTable struct {
		sync.RWMutex
		table   map[int]*user.User
		pkCount int
	}

	requestTable struct {
		sync.RWMutex
		table   map[int]*request.Request
		pkCount int
	}

	accessTable struct {
		sync.RWMutex
		table map[[2]int]access.Grant // key: {tutorID, studentID}
	}

	profileTable struct {
		sync.RWMutex
		table   map[int]*profile.Profile // key: tutorID
		pkCount int
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[int]*user.User)},
		request: &requestTable{table: make(map[int]*request.Request)},
		access:  &accessTable{table: make(map[[2]int]access.Grant)},
		profile: &profileTable{table: make(map[int]*profile.Profile)},
	}
	return db, nil
}
