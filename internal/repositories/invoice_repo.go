package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus, limit, offset int) ([]*models.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus, paidDate *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type invoiceRepo struct {
	db DB
}

func NewInvoiceRepo(db DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, seller_id, invoice_number, invoice_number_seq, invoice_date, due_date,
		place_of_supply, country_of_supply, client, items, totals, terms_and_conditions,
		additional_notes, status, paid_date, created_at, updated_at`

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	client, err := json.Marshal(invoice.Client)
	if err != nil {
		return fmt.Errorf("encode invoice client: %w", err)
	}
	items, err := json.Marshal(invoice.Items)
	if err != nil {
		return fmt.Errorf("encode invoice items: %w", err)
	}
	totals, err := json.Marshal(invoice.Totals)
	if err != nil {
		return fmt.Errorf("encode invoice totals: %w", err)
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query,
		invoice.ID, invoice.SellerID, invoice.InvoiceNumber, invoice.InvoiceNumberSeq,
		invoice.InvoiceDate, invoice.DueDate, invoice.PlaceOfSupply, invoice.CountryOfSupply,
		client, items, totals, invoice.TermsAndConditions, invoice.AdditionalNotes,
		string(invoice.Status), invoice.PaidDate)
	if err != nil {
		if isUniqueViolation(err) {
			return common.Errorf(common.ErrConflict, "create invoice", "invoice number %s already exists", invoice.InvoiceNumber)
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// GetByID does not filter by seller; callers check ownership so another
// seller's invoice can be reported as forbidden rather than missing.
func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.Errorf(common.ErrNotFound, "get invoice", "invoice %s", id)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return invoice, nil
}

// ListBySeller returns newest first. An empty status lists every status.
func (r *invoiceRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, status models.InvoiceStatus, limit, offset int) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE seller_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY invoice_date DESC, invoice_number_seq DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, sellerID, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*models.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("list invoices: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus, paidDate *time.Time) error {
	query := `UPDATE invoices SET status = $1, paid_date = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, string(status), paidDate, id)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.Errorf(common.ErrNotFound, "update invoice status", "invoice %s", id)
	}
	return nil
}

// Delete removes the invoice row only. The seller's sequence counter is
// left alone so the number is never handed out again.
func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM invoices WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.Errorf(common.ErrNotFound, "delete invoice", "invoice %s", id)
	}
	return nil
}

// MarkOverdue flips Pending invoices whose due date (or invoice date when
// no due date was set) is before the UTC calendar day of asOf. An invoice
// stays Pending for the whole of its due day.
func (r *invoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND COALESCE(due_date, invoice_date) < $3::date
	`
	tag, err := r.db.Exec(ctx, query, string(models.InvoiceStatusOverdue), string(models.InvoiceStatusPending), calendarDay(asOf))
	if err != nil {
		return 0, fmt.Errorf("mark overdue invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	var (
		client, items, totals []byte
		status                string
	)
	err := row.Scan(&invoice.ID, &invoice.SellerID, &invoice.InvoiceNumber, &invoice.InvoiceNumberSeq,
		&invoice.InvoiceDate, &invoice.DueDate, &invoice.PlaceOfSupply, &invoice.CountryOfSupply,
		&client, &items, &totals, &invoice.TermsAndConditions, &invoice.AdditionalNotes,
		&status, &invoice.PaidDate, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	invoice.Status = models.InvoiceStatus(status)

	if err := json.Unmarshal(client, &invoice.Client); err != nil {
		return nil, fmt.Errorf("decode invoice client: %w", err)
	}
	if err := json.Unmarshal(items, &invoice.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	if err := json.Unmarshal(totals, &invoice.Totals); err != nil {
		return nil, fmt.Errorf("decode invoice totals: %w", err)
	}
	return invoice, nil
}
