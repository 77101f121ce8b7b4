package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebank/loanengine/internal/domain/model"
)

// ProductRepo implements port.ProductRepository. Product settings beyond the
// identity columns share the termsRecord JSONB shape used for loan terms.
type ProductRepo struct {
	pool *pgxpool.Pool
}

// NewProductRepo creates a new PostgreSQL-backed product repository.
func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// productSettings is the JSONB persistence shape of the non-identity product
// fields.
type productSettings struct {
	MinPrincipal     string `json:"min_principal"`
	MaxPrincipal     string `json:"max_principal"`
	DefaultPrincipal string `json:"default_principal"`

	termsRecord
}

// Save upserts a product definition.
func (r *ProductRepo) Save(ctx context.Context, product model.LoanProduct) error {
	settings, err := json.Marshal(productSettings{
		MinPrincipal:     product.MinPrincipal.String(),
		MaxPrincipal:     product.MaxPrincipal.String(),
		DefaultPrincipal: product.DefaultPrincipal.String(),
		termsRecord:      toTermsRecord(model.TermsFromProduct(product)),
	})
	if err != nil {
		return fmt.Errorf("marshal product settings: %w", err)
	}

	query := `
		INSERT INTO loan_products (id, tenant_id, name, short_name, settings)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name       = EXCLUDED.name,
			short_name = EXCLUDED.short_name,
			settings   = EXCLUDED.settings
	`
	if _, err := r.pool.Exec(ctx, query,
		product.ID, product.TenantID, product.Name, product.ShortName, settings,
	); err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

// FindByID retrieves one product.
func (r *ProductRepo) FindByID(ctx context.Context, tenantID, id string) (model.LoanProduct, error) {
	query := `
		SELECT id, tenant_id, name, short_name, settings
		FROM loan_products
		WHERE tenant_id = $1 AND id = $2
	`
	return scanProduct(r.pool.QueryRow(ctx, query, tenantID, id))
}

// List retrieves all products of a tenant.
func (r *ProductRepo) List(ctx context.Context, tenantID string) ([]model.LoanProduct, error) {
	query := `
		SELECT id, tenant_id, name, short_name, settings
		FROM loan_products
		WHERE tenant_id = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []model.LoanProduct
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(s scannable) (model.LoanProduct, error) {
	var (
		product      model.LoanProduct
		settingsJSON []byte
	)
	if err := s.Scan(&product.ID, &product.TenantID, &product.Name, &product.ShortName, &settingsJSON); err != nil {
		return model.LoanProduct{}, fmt.Errorf("scan product: %w", err)
	}

	var settings productSettings
	if err := json.Unmarshal(settingsJSON, &settings); err != nil {
		return model.LoanProduct{}, fmt.Errorf("unmarshal product settings: %w", err)
	}

	terms, err := fromTermsRecord(settings.termsRecord)
	if err != nil {
		return model.LoanProduct{}, fmt.Errorf("parse product settings: %w", err)
	}

	product.Currency = terms.Currency
	product.InterestRatePerPeriod = terms.InterestRatePerPeriod
	product.NumberOfRepayments = terms.NumberOfRepayments
	product.RepaymentEvery = terms.RepaymentEvery
	product.RepaymentFrequency = terms.Frequency
	product.AmortizationType = terms.Amortization
	product.InterestType = terms.InterestType
	product.InterestCalcPeriod = terms.InterestCalcPeriod
	product.GraceOnPrincipal = terms.GraceOnPrincipal
	product.GraceOnInterest = terms.GraceOnInterest
	product.Recalculation = terms.Recalculation
	product.OverdueCharge = terms.OverdueCharge
	product.AccountingRule = terms.AccountingRule
	product.GLAccounts = terms.GLAccounts

	if product.MinPrincipal, err = parseDecimal(settings.MinPrincipal); err != nil {
		return model.LoanProduct{}, fmt.Errorf("parse min principal: %w", err)
	}
	if product.MaxPrincipal, err = parseDecimal(settings.MaxPrincipal); err != nil {
		return model.LoanProduct{}, fmt.Errorf("parse max principal: %w", err)
	}
	if product.DefaultPrincipal, err = parseDecimal(settings.DefaultPrincipal); err != nil {
		return model.LoanProduct{}, fmt.Errorf("parse default principal: %w", err)
	}

	return product, nil
}
