package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/enum"
)

//go:embed schema
var schemaFS embed.FS

// Postgres is the document store: hand-written queries over a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Connect opens a pool and waits for the database to become reachable.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	const (
		maxRetries = 10
		retryDelay = 2 * time.Second
	)

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	for i := 1; i <= maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			return pool, nil
		}
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("db ping canceled: %w", ctx.Err())
		}
	}
	pool.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, err)
}

// ApplySchema runs the embedded DDL. Statements are idempotent, so repeated
// startups are safe.
func (p *Postgres) ApplySchema(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	for _, e := range entries {
		ddl, err := schemaFS.ReadFile("schema/" + e.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if _, err := p.pool.Exec(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply %s: %w", e.Name(), err)
		}
	}
	return nil
}

// --- Bills ---

func (p *Postgres) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	items, err := json.Marshal(arg.Items)
	if err != nil {
		return Bill{}, fmt.Errorf("marshal bill items: %w", err)
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO bills (items, total, status, cash, upi, mobile, time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, items, total, status, cash, upi, mobile, time`,
		items, decimalToNumeric(arg.Total), arg.Status,
		decimalToNumeric(arg.Cash), decimalToNumeric(arg.Upi),
		arg.Mobile, arg.Time)
	return scanBill(row)
}

func (p *Postgres) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, items, total, status, cash, upi, mobile, time
		FROM bills WHERE id = $1`, id)
	return scanBill(row)
}

// SettleBill flips a Pending bill to Paid with the given splits. It matches
// on status so a concurrent settlement cannot apply twice.
func (p *Postgres) SettleBill(ctx context.Context, id uuid.UUID, cash, upi decimal.Decimal) (Bill, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE bills
		SET status = $2, cash = $3, upi = $4
		WHERE id = $1 AND status = $5
		RETURNING id, items, total, status, cash, upi, mobile, time`,
		id, enum.BillStatusPaid, decimalToNumeric(cash), decimalToNumeric(upi),
		enum.BillStatusPending)
	return scanBill(row)
}

func (p *Postgres) ListBills(ctx context.Context, start, end time.Time) ([]Bill, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, items, total, status, cash, upi, mobile, time
		FROM bills
		WHERE time >= $1 AND time <= $2
		ORDER BY time`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBills(rows)
}

func (p *Postgres) ListPendingBills(ctx context.Context, start, end time.Time) ([]Bill, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, items, total, status, cash, upi, mobile, time
		FROM bills
		WHERE time >= $1 AND time <= $2 AND status = $3
		ORDER BY time`, start, end, enum.BillStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBills(rows)
}

// --- Transactions ---

// transactionTable maps a channel to its append-only log. Channels are
// validated at the handler/service boundary, so an unknown value here is a
// programming error.
func transactionTable(channel string) string {
	if channel == enum.ChannelUpi {
		return "upi_transactions"
	}
	return "cash_transactions"
}

func (p *Postgres) CreateTransaction(ctx context.Context, channel string, amount decimal.Decimal, reason string, at time.Time) (Transaction, error) {
	row := p.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (amount, reason, time)
		VALUES ($1, $2, $3)
		RETURNING id, amount, reason, time`, transactionTable(channel)),
		decimalToNumeric(amount), reason, at)
	return scanTransaction(row)
}

func (p *Postgres) ListTransactions(ctx context.Context, channel string, start, end time.Time) ([]Transaction, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, amount, reason, time
		FROM %s
		WHERE time >= $1 AND time <= $2
		ORDER BY time`, transactionTable(channel)), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// --- Registers ---

// IncrementRegister applies a signed delta. The register row is never
// overwritten wholesale.
func (p *Postgres) IncrementRegister(ctx context.Context, channel string, delta decimal.Decimal) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE registers SET total = total + $2 WHERE channel = $1`,
		channel, decimalToNumeric(delta))
	return err
}

func (p *Postgres) GetRegisterTotal(ctx context.Context, channel string) (decimal.Decimal, error) {
	var n pgtype.Numeric
	err := p.pool.QueryRow(ctx, `
		SELECT total FROM registers WHERE channel = $1`, channel).Scan(&n)
	if err != nil {
		return decimal.Zero, err
	}
	return numericToDecimal(n), nil
}

// --- Online orders ---

func (p *Postgres) CreateOnlineOrder(ctx context.Context, items []catalog.CartLine, total decimal.Decimal, slot time.Time, status string) (OnlineOrder, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return OnlineOrder{}, fmt.Errorf("marshal order items: %w", err)
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO online_orders (items, total, slot, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, items, total, slot, status, created_at`,
		data, decimalToNumeric(total), slot, status)
	return scanOnlineOrder(row)
}

func (p *Postgres) ListOnlineOrders(ctx context.Context, start, end time.Time) ([]OnlineOrder, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, items, total, slot, status, created_at
		FROM online_orders
		WHERE slot >= $1 AND slot <= $2
		ORDER BY slot`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OnlineOrder
	for rows.Next() {
		o, err := scanOnlineOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateOnlineOrderStatus(ctx context.Context, id uuid.UUID, status string) (OnlineOrder, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE online_orders SET status = $2 WHERE id = $1
		RETURNING id, items, total, slot, status, created_at`, id, status)
	return scanOnlineOrder(row)
}

// --- Users ---

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := p.pool.QueryRow(ctx, `
		SELECT id, full_name, email, hashed_password, role, created_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

func (p *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := p.pool.QueryRow(ctx, `
		SELECT id, full_name, email, hashed_password, role, created_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

func (p *Postgres) CreateUser(ctx context.Context, fullName, email, hashedPassword, role string) (User, error) {
	var u User
	err := p.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, hashed_password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, full_name, email, hashed_password, role, created_at`,
		fullName, email, hashedPassword, role).
		Scan(&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

// --- Row scanning ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (Bill, error) {
	var (
		b     Bill
		items []byte
		total pgtype.Numeric
		cash  pgtype.Numeric
		upi   pgtype.Numeric
	)
	if err := row.Scan(&b.ID, &items, &total, &b.Status, &cash, &upi, &b.Mobile, &b.Time); err != nil {
		return Bill{}, err
	}
	if err := json.Unmarshal(items, &b.Items); err != nil {
		return Bill{}, fmt.Errorf("unmarshal bill items: %w", err)
	}
	b.Total = numericToDecimal(total)
	b.Cash = numericToDecimal(cash)
	b.Upi = numericToDecimal(upi)
	return b, nil
}

func collectBills(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]Bill, error) {
	var out []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var (
		t      Transaction
		amount pgtype.Numeric
	)
	if err := row.Scan(&t.ID, &amount, &t.Reason, &t.Time); err != nil {
		return Transaction{}, err
	}
	t.Amount = numericToDecimal(amount)
	return t, nil
}

func scanOnlineOrder(row rowScanner) (OnlineOrder, error) {
	var (
		o     OnlineOrder
		items []byte
		total pgtype.Numeric
	)
	if err := row.Scan(&o.ID, &items, &total, &o.Slot, &o.Status, &o.CreatedAt); err != nil {
		return OnlineOrder{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return OnlineOrder{}, fmt.Errorf("unmarshal order items: %w", err)
	}
	o.Total = numericToDecimal(total)
	return o, nil
}

// --- Numeric conversion ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
