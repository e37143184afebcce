package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gautamcse27/tuition-app/core/request"
)

type requestRow struct {
	ID              int         `db:"id"`
	StudentID       int         `db:"student_id"`
	TutorID         null.Int    `db:"tutor_id"`
	Subject         string      `db:"subject"`
	StudentClass    string      `db:"student_class"`
	Mode            string      `db:"mode"`
	Address         null.String `db:"address"`
	Description     string      `db:"description"`
	Document        []byte      `db:"document"`
	DocumentName    string      `db:"document_name"`
	Receipt         []byte      `db:"receipt"`
	ReceiptName     string      `db:"receipt_name"`
	Status          string      `db:"status"`
	Approved        bool        `db:"approved"`
	PaymentVerified bool        `db:"payment_verified"`
	CreatedAt       time.Time   `db:"created_at"`
}

func (row requestRow) request() request.Request {
	return request.Request(row)
}

type requestRepository struct {
	db *sqlx.DB
}

var _ request.Repository = (*requestRepository)(nil) // interface compliance check

func NewRequestRepository(db *sqlx.DB) request.Repository {
	return &requestRepository{db: db}
}

func filterConds(filter request.QueryFilter) (conds []string, args []interface{}) {
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.StudentID != 0 {
		conds = append(conds, "student_id = "+arg(filter.StudentID))
	}
	if filter.TutorID != 0 {
		conds = append(conds, "tutor_id = "+arg(filter.TutorID))
	}
	if filter.PendingVerification {
		conds = append(conds, "octet_length(receipt) > 0 AND NOT payment_verified")
	}
	if filter.Approved != nil {
		conds = append(conds, "approved = "+arg(*filter.Approved))
	}
	return conds, args
}

func (repo *requestRepository) CreateRequest(req request.Request) (request.Request, error) {
	query := `
		INSERT INTO tuition_request
			(student_id, tutor_id, subject, student_class, mode, address, description,
			 document, document_name, receipt, receipt_name, status, approved, payment_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`
	err := repo.db.Get(
		&req.ID, query,
		req.StudentID, req.TutorID, req.Subject, req.StudentClass, req.Mode, req.Address, req.Description,
		req.Document, req.DocumentName, req.Receipt, req.ReceiptName, req.Status, req.Approved,
		req.PaymentVerified, req.CreatedAt,
	)
	if err != nil {
		return request.Request{}, errors.Wrap(err, "creating request")
	}
	return req, nil
}

func (repo *requestRepository) GetRequestByID(id int) (request.Request, error) {
	var row requestRow
	if err := repo.db.Get(&row, `SELECT * FROM tuition_request WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return request.Request{}, request.ErrNotFound
		}
		return request.Request{}, errors.Wrap(err, "getting request")
	}
	return row.request(), nil
}

func (repo *requestRepository) FilterRequests(filter request.QueryFilter) ([]request.Request, error) {
	conds, args := filterConds(filter)

	query := `SELECT * FROM tuition_request`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Page > 0 && filter.PageSize > 0 {
		args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	var rows []requestRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering requests")
	}
	reqs := make([]request.Request, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.request())
	}
	return reqs, nil
}

func (repo *requestRepository) CountRequests(filter request.QueryFilter) (int, error) {
	conds, args := filterConds(filter)

	query := `SELECT COUNT(*) FROM tuition_request`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting requests")
	}
	return count, nil
}

func (repo *requestRepository) UpdateRequest(req request.Request) (request.Request, error) {
	query := `
		UPDATE tuition_request
		SET tutor_id = $1, subject = $2, student_class = $3, mode = $4, address = $5,
			description = $6, document = $7, document_name = $8, receipt = $9, receipt_name = $10,
			status = $11, approved = $12, payment_verified = $13
		WHERE id = $14
		RETURNING *`
	var row requestRow
	err := repo.db.Get(
		&row, query,
		req.TutorID, req.Subject, req.StudentClass, req.Mode, req.Address,
		req.Description, req.Document, req.DocumentName, req.Receipt, req.ReceiptName,
		req.Status, req.Approved, req.PaymentVerified, req.ID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return request.Request{}, request.ErrNotFound
		}
		return request.Request{}, errors.Wrap(err, "updating request")
	}
	return row.request(), nil
}

func (repo *requestRepository) DeleteRequest(id int) error {
	if _, err := repo.db.Exec(`DELETE FROM tuition_request WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting request")
	}
	return nil
}
