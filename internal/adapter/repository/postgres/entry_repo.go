package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	repo
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(source PoolSource) *EntryRepository {
	return &EntryRepository{repo{source: source}}
}

// Create appends a ledger entry inside tx and sets its ID.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	query := `
		INSERT INTO ledger_entries (reference, account_code, particular_id, expenses_code, user_code, debit, credit, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING entry_id
	`

	err := inTx(tx).QueryRow(ctx, query,
		entry.Reference,
		entry.AccountCode,
		entry.ParticularID,
		entry.ExpenseCode,
		entry.UserCode,
		entry.Debit,
		entry.Credit,
		entry.Notes,
		entry.CreatedAt,
	).Scan(&entry.ID)

	return mapPgError(err)
}

// List returns entries matching filter, newest first.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.EntryView, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	query, args := buildEntryQuery(filter)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.EntryView, 0)
	for rows.Next() {
		var v domain.EntryView
		err := rows.Scan(
			&v.ID,
			&v.Reference,
			&v.AccountCode,
			&v.ParticularID,
			&v.ExpenseCode,
			&v.UserCode,
			&v.Debit,
			&v.Credit,
			&v.Notes,
			&v.CreatedAt,
			&v.AccountNo,
			&v.Particular,
			&v.ExpenseName,
			&v.BranchAddress,
			&v.BankName,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &v)
	}

	return entries, rows.Err()
}

// Years returns the distinct years with entries, newest first.
func (r *EntryRepository) Years(ctx context.Context) ([]int, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT DISTINCT EXTRACT(YEAR FROM created_at)::int AS year
		FROM ledger_entries
		ORDER BY year DESC
	`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func buildEntryQuery(filter domain.EntryFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.StartDate != nil {
		add("e.created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		// End date is inclusive of the whole day.
		add("e.created_at < $%d", filter.EndDate.AddDate(0, 0, 1))
	}
	if filter.AccountCode > 0 {
		add("e.account_code = $%d", filter.AccountCode)
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT e.entry_id, e.reference, e.account_code, e.particular_id, e.expenses_code, e.user_code,
		       e.debit, e.credit, e.notes, e.created_at,
		       a.account_no, p.particular, COALESCE(x.expenses, ''), br.branch_address, b.bank_name
		FROM ledger_entries e
		JOIN accounts a ON a.account_code = e.account_code
		JOIN branches br ON br.branch_code = a.branch_code
		JOIN banks b ON b.bank_code = br.bank_code
		JOIN particulars p ON p.account_id = e.particular_id
		LEFT JOIN expenses x ON x.expenses_code = e.expenses_code`)

	if len(where) > 0 {
		sb.WriteString("\n\t\tWHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	args = append(args, filter.Limit)
	fmt.Fprintf(&sb, "\n\t\tORDER BY e.created_at DESC, e.entry_id DESC\n\t\tLIMIT $%d", len(args))

	return sb.String(), args
}
