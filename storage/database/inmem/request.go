package inmemdb

import (
	"sort"

	"github.com/gautamcse27/tuition-app/core/request"
)

type requestRepository struct {
	db     *DB
	grants *accessTable
}

var _ request.Repository = (*requestRepository)(nil) // interface compliance check

func NewRequestRepository(db *DB) request.Repository {
	return &requestRepository{db: db, grants: db.access}
}

func (repo *requestRepository) query() []request.Request {
	reqs := make([]request.Request, 0, len(repo.db.request.table))
	for _, r := range repo.db.request.table {
		reqs = append(reqs, *r)
	}
	// newest first, matching the SQL ordering
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].ID > reqs[j].ID
		}
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
	return reqs
}

func (repo *requestRepository) match(filter request.QueryFilter) []request.Request {
	var matched []request.Request
	for _, r := range repo.query() {
		if filter.StudentID != 0 && r.StudentID != filter.StudentID {
			continue
		}
		if filter.TutorID != 0 && !r.IsAssignedTo(filter.TutorID) {
			continue
		}
		if filter.PendingVerification && !(r.HasReceipt() && !r.PaymentVerified) {
			continue
		}
		if filter.Approved != nil && r.Approved != *filter.Approved {
			continue
		}
		matched = append(matched, r)
	}
	return matched
}

func (repo *requestRepository) CreateRequest(req request.Request) (request.Request, error) {
	repo.db.request.Lock()
	defer repo.db.request.Unlock()

	repo.db.request.pkCount++
	req.ID = repo.db.request.pkCount
	repo.db.request.table[req.ID] = &req
	return req, nil
}

func (repo *requestRepository) GetRequestByID(id int) (request.Request, error) {
	repo.db.request.RLock()
	defer repo.db.request.RUnlock()

	if req, ok := repo.db.request.table[id]; ok {
		return *req, nil
	}
	return request.Request{}, request.ErrNotFound
}

func (repo *requestRepository) FilterRequests(filter request.QueryFilter) ([]request.Request, error) {
	repo.db.request.RLock()
	defer repo.db.request.RUnlock()

	matched := repo.match(filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start >= len(matched) {
			return nil, nil
		}
		end := start + filter.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, nil
}

func (repo *requestRepository) CountRequests(filter request.QueryFilter) (int, error) {
	repo.db.request.RLock()
	defer repo.db.request.RUnlock()
	return len(repo.match(filter)), nil
}

func (repo *requestRepository) UpdateRequest(req request.Request) (request.Request, error) {
	repo.db.request.Lock()
	defer repo.db.request.Unlock()

	if _, ok := repo.db.request.table[req.ID]; !ok {
		return request.Request{}, request.ErrNotFound
	}
	repo.db.request.table[req.ID] = &req
	return req, nil
}

func (repo *requestRepository) DeleteRequest(id int) error {
	repo.db.request.Lock()
	defer repo.db.request.Unlock()
	delete(repo.db.request.table, id)
	return nil
}
