package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
)

type SellerRepository interface {
	Create(ctx context.Context, seller *models.Seller) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	GetByEmail(ctx context.Context, email string) (*models.Seller, error)
	Update(ctx context.Context, seller *models.Seller) error
}

type sellerRepo struct {
	db DB
}

func NewSellerRepo(db DB) SellerRepository {
	return &sellerRepo{db: db}
}

const sellerColumns = `id, name, email, password_hash, business_name, gstin, pan, upi_id, logo_url,
		authorized_signature_url, address, bank_details, terms_and_conditions, additional_notes,
		created_at, updated_at`

func (r *sellerRepo) Create(ctx context.Context, seller *models.Seller) error {
	address, bank, err := marshalSellerJSON(seller)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sellers (` + sellerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query,
		seller.ID, seller.Name, seller.Email, seller.PasswordHash, seller.BusinessName,
		seller.GSTIN, seller.PAN, seller.UPIID, seller.LogoURL, seller.AuthorizedSignatureURL,
		address, bank, seller.TermsAndConditions, seller.AdditionalNotes)
	if err != nil {
		if isUniqueViolation(err) {
			return common.Errorf(common.ErrConflict, "create seller", "email %s is already registered", seller.Email)
		}
		return fmt.Errorf("create seller: %w", err)
	}
	return nil
}

func (r *sellerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1`
	return scanSeller(r.db.QueryRow(ctx, query, id))
}

func (r *sellerRepo) GetByEmail(ctx context.Context, email string) (*models.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE lower(email) = lower($1)`
	return scanSeller(r.db.QueryRow(ctx, query, email))
}

// Update writes the profile fields. Email and password are not touched.
// Update writes the profile fields and the password hash in one statement.
func (r *sellerRepo) Update(ctx context.Context, seller *models.Seller) error {
	address, bank, err := marshalSellerJSON(seller)
	if err != nil {
		return err
	}

	query := `
		UPDATE sellers
		SET name = $1, business_name = $2, gstin = $3, pan = $4, upi_id = $5, logo_url = $6,
			authorized_signature_url = $7, address = $8, bank_details = $9,
			terms_and_conditions = $10, additional_notes = $11, password_hash = $12, updated_at = NOW()
		WHERE id = $13
	`
	tag, err := r.db.Exec(ctx, query,
		seller.Name, seller.BusinessName, seller.GSTIN, seller.PAN, seller.UPIID, seller.LogoURL,
		seller.AuthorizedSignatureURL, address, bank,
		seller.TermsAndConditions, seller.AdditionalNotes, seller.PasswordHash, seller.ID)
	if err != nil {
		return fmt.Errorf("update seller: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.Errorf(common.ErrNotFound, "update seller", "seller %s", seller.ID)
	}
	return nil
}

func marshalSellerJSON(seller *models.Seller) ([]byte, []byte, error) {
	address, err := json.Marshal(seller.Address)
	if err != nil {
		return nil, nil, fmt.Errorf("encode seller address: %w", err)
	}
	bank, err := json.Marshal(seller.BankDetails)
	if err != nil {
		return nil, nil, fmt.Errorf("encode seller bank details: %w", err)
	}
	return address, bank, nil
}

func scanSeller(row pgx.Row) (*models.Seller, error) {
	seller := &models.Seller{}
	var address, bank []byte
	err := row.Scan(&seller.ID, &seller.Name, &seller.Email, &seller.PasswordHash, &seller.BusinessName,
		&seller.GSTIN, &seller.PAN, &seller.UPIID, &seller.LogoURL, &seller.AuthorizedSignatureURL,
		&address, &bank, &seller.TermsAndConditions, &seller.AdditionalNotes,
		&seller.CreatedAt, &seller.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewError(common.ErrNotFound, "get seller", err)
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &seller.Address); err != nil {
			return nil, fmt.Errorf("decode seller address: %w", err)
		}
	}
	if len(bank) > 0 {
		if err := json.Unmarshal(bank, &seller.BankDetails); err != nil {
			return nil, fmt.Errorf("decode seller bank details: %w", err)
		}
	}
	return seller, nil
}
