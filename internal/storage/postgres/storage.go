package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// Pool is the subset of pgxpool.Pool used by Storage. Satisfied by
// pgxmock pools in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   Pool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type profileRepository struct {
	storage *Storage
}

type bookRepository struct {
	storage *Storage
}

type purchaseRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Profiles() repository.ProfileRepository {
	return &profileRepository{storage: s}
}

func (s *Storage) Books() repository.BookRepository {
	return &bookRepository{storage: s}
}

func (s *Storage) Purchases() repository.PurchaseRepository {
	return &purchaseRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS user_roles (
            id SERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            role TEXT NOT NULL,
            UNIQUE (user_id, role)
        )`,
		`CREATE TABLE IF NOT EXISTS profiles (
            user_id BIGINT PRIMARY KEY REFERENCES users(id),
            full_name TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            avatar_url TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS books (
            id SERIAL PRIMARY KEY,
            slug TEXT UNIQUE NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            genre TEXT NOT NULL DEFAULT '',
            cover_image_url TEXT NOT NULL DEFAULT '',
            publication_date TIMESTAMPTZ,
            total_positions INT NOT NULL,
            available_positions INT NOT NULL,
            reserved_positions INT NOT NULL DEFAULT 0,
            price_per_position BIGINT NOT NULL,
            status TEXT NOT NULL DEFAULT 'draft',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT books_positions_bounds CHECK (
                available_positions >= 0
                AND available_positions <= total_positions
                AND reserved_positions >= 0
            )
        )`,
		`CREATE TABLE IF NOT EXISTS purchases (
            id SERIAL PRIMARY KEY,
            transaction_id TEXT UNIQUE NOT NULL,
            user_id BIGINT NOT NULL REFERENCES users(id),
            book_id BIGINT NOT NULL REFERENCES books(id),
            positions INT NOT NULL,
            total_amount BIGINT NOT NULL,
            payment_status TEXT NOT NULL DEFAULT 'pending',
            provider_ref TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            bio TEXT NOT NULL DEFAULT '',
            profile_image_url TEXT NOT NULL DEFAULT '',
            needs_reconciliation BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            checked_at TIMESTAMPTZ,
            settled_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_pending ON purchases(payment_status, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, email, passwordHash string) (*model.User, error) {
	const query = `INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, email, passwordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	u.Email = email
	u.PasswordHash = passwordHash
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE email=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) HasRole(ctx context.Context, userID int64, role model.Role) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id=$1 AND role=$2)`
	var has bool
	if err := r.storage.pool.QueryRow(ctx, query, userID, string(role)).Scan(&has); err != nil {
		return false, err
	}
	return has, nil
}

func (r *userRepository) GrantRole(ctx context.Context, userID int64, role model.Role) error {
	const query = `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT (user_id, role) DO NOTHING`
	_, err := r.storage.pool.Exec(ctx, query, userID, string(role))
	return err
}

func (r *userRepository) AnyWithRole(ctx context.Context, role model.Role) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE role=$1)`
	var any bool
	if err := r.storage.pool.QueryRow(ctx, query, string(role)).Scan(&any); err != nil {
		return false, err
	}
	return any, nil
}

// --- ProfileRepository implementation ---

func (r *profileRepository) Get(ctx context.Context, userID int64) (*model.Profile, error) {
	const query = `SELECT user_id, full_name, phone, bio, avatar_url, updated_at FROM profiles WHERE user_id=$1`
	var p model.Profile
	err := r.storage.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.FullName, &p.Phone, &p.Bio, &p.AvatarURL, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	const query = `INSERT INTO profiles (user_id, full_name, phone, bio, avatar_url, updated_at)
                   VALUES ($1, $2, $3, $4, $5, NOW())
                   ON CONFLICT (user_id) DO UPDATE
                   SET full_name=EXCLUDED.full_name,
                       phone=EXCLUDED.phone,
                       bio=EXCLUDED.bio,
                       avatar_url=EXCLUDED.avatar_url,
                       updated_at=NOW()
                   RETURNING updated_at`
	p := *profile
	err := r.storage.pool.QueryRow(ctx, query, p.UserID, p.FullName, p.Phone, p.Bio, p.AvatarURL).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// --- BookRepository implementation ---

const bookColumns = `id, slug, title, description, genre, cover_image_url, publication_date,
        total_positions, available_positions, reserved_positions, price_per_position, status,
        created_at, updated_at`

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Slug, &b.Title, &b.Description, &b.Genre, &b.CoverImageURL, &b.PublicationDate,
		&b.TotalPositions, &b.AvailablePositions, &b.ReservedPositions, &b.PricePerPosition, &b.Status,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) Create(ctx context.Context, book *model.Book) (*model.Book, error) {
	const query = `INSERT INTO books (slug, title, description, genre, cover_image_url, publication_date,
                       total_positions, available_positions, price_per_position, status)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                   RETURNING id, created_at, updated_at`
	b := *book
	err := r.storage.pool.QueryRow(ctx, query,
		b.Slug, b.Title, b.Description, b.Genre, b.CoverImageURL, b.PublicationDate,
		b.TotalPositions, b.AvailablePositions, b.PricePerPosition, string(b.Status),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return nil, domainErrors.ErrAlreadyExists
			case pgCheckViolation:
				return nil, domainErrors.ErrInvalidInput
			}
		}
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) GetBySlug(ctx context.Context, slug string) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE slug=$1`
	book, err := scanBook(r.storage.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id=$1`
	book, err := scanBook(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

func (r *bookRepository) list(ctx context.Context, query string) ([]model.Book, error) {
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *bookRepository) ListPublished(ctx context.Context) ([]model.Book, error) {
	return r.list(ctx, `SELECT `+bookColumns+` FROM books WHERE status='published' ORDER BY created_at DESC`)
}

func (r *bookRepository) ListAll(ctx context.Context) ([]model.Book, error) {
	return r.list(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at DESC`)
}

func (r *bookRepository) Update(ctx context.Context, id int64, upd repository.BookUpdate) (*model.Book, error) {
	query := `UPDATE books
                   SET available_positions = COALESCE($2, available_positions),
                       price_per_position = COALESCE($3, price_per_position),
                       status = COALESCE($4, status),
                       updated_at = NOW()
                   WHERE id=$1
                   RETURNING ` + bookColumns
	var status *string
	if upd.Status != nil {
		s := string(*upd.Status)
		status = &s
	}
	book, err := scanBook(r.storage.pool.QueryRow(ctx, query, id, upd.AvailablePositions, upd.PricePerPosition, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return nil, domainErrors.ErrInvalidInput
		}
		return nil, err
	}
	return book, nil
}

// Reserve places a short-lived hold on positions. The guard keeps the sum of
// holds within the currently available stock, so two concurrent intakes can
// never both reserve the last position.
func (r *bookRepository) Reserve(ctx context.Context, bookID int64, positions int) error {
	const query = `UPDATE books
                   SET reserved_positions = reserved_positions + $2, updated_at = NOW()
                   WHERE id=$1 AND status='published' AND available_positions - reserved_positions >= $2`
	tag, err := r.storage.pool.Exec(ctx, query, bookID, positions)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInsufficientInventory
	}
	return nil
}

func (r *bookRepository) Release(ctx context.Context, bookID int64, positions int) error {
	const query = `UPDATE books
                   SET reserved_positions = GREATEST(reserved_positions - $2, 0), updated_at = NOW()
                   WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, bookID, positions)
	return err
}

// --- PurchaseRepository implementation ---

const purchaseColumns = `id, transaction_id, user_id, book_id, positions, total_amount, payment_status,
        provider_ref, phone, bio, profile_image_url, needs_reconciliation, created_at, settled_at`

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	var p model.Purchase
	err := row.Scan(&p.ID, &p.TransactionID, &p.UserID, &p.BookID, &p.Positions, &p.TotalAmount, &p.Status,
		&p.ProviderRef, &p.Contact.Phone, &p.Contact.Bio, &p.Contact.ProfileImageURL,
		&p.NeedsReconciliation, &p.CreatedAt, &p.SettledAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) (*model.Purchase, error) {
	const query = `INSERT INTO purchases (transaction_id, user_id, book_id, positions, total_amount,
                       payment_status, phone, bio, profile_image_url)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
                   RETURNING id, created_at`
	p := *purchase
	if p.Status == "" {
		p.Status = model.PaymentStatusPending
	}
	err := r.storage.pool.QueryRow(ctx, query,
		p.TransactionID, p.UserID, p.BookID, p.Positions, p.TotalAmount,
		string(p.Status), p.Contact.Phone, p.Contact.Bio, p.Contact.ProfileImageURL,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE transaction_id=$1`
	purchase, err := scanPurchase(r.storage.pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return purchase, nil
}

func (r *purchaseRepository) ListByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Settle transitions the purchase out of pending and applies the inventory
// effect in the same transaction. The transition is guarded by
// payment_status='pending', which makes replayed callbacks no-ops: the guard
// matches zero rows and neither counter is touched a second time.
func (r *purchaseRepository) Settle(ctx context.Context, transactionID string, state model.PaymentState, providerRef string) (*model.Purchase, bool, error) {
	status := model.PaymentStatusFailed
	if state == model.PaymentStateCompleted {
		status = model.PaymentStatusSuccess
	}

	var (
		settled *model.Purchase
		applied bool
	)
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const transition = `UPDATE purchases
                            SET payment_status=$2,
                                provider_ref=COALESCE(NULLIF($3, ''), provider_ref),
                                settled_at=NOW()
                            WHERE transaction_id=$1 AND payment_status='pending'
                            RETURNING id, user_id, book_id, positions, total_amount, created_at, settled_at`
		var p model.Purchase
		p.TransactionID = transactionID
		p.Status = status
		p.ProviderRef = providerRef
		err := tx.QueryRow(ctx, transition, transactionID, string(status), providerRef).
			Scan(&p.ID, &p.UserID, &p.BookID, &p.Positions, &p.TotalAmount, &p.CreatedAt, &p.SettledAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Already settled or unknown; nothing to apply either way.
				return nil
			}
			return err
		}

		if status == model.PaymentStatusSuccess {
			// One statement: clamped decrement plus hold release, returning
			// the pre-decrement value so a shortfall can be surfaced.
			const decrement = `UPDATE books b
                               SET available_positions = GREATEST(b.available_positions - $2, 0),
                                   reserved_positions = GREATEST(b.reserved_positions - $2, 0),
                                   updated_at = NOW()
                               FROM (SELECT id, available_positions AS prev FROM books WHERE id=$1 FOR UPDATE) old
                               WHERE b.id = old.id
                               RETURNING old.prev`
			var prev int
			if err := tx.QueryRow(ctx, decrement, p.BookID, p.Positions).Scan(&prev); err != nil {
				return err
			}
			if prev < p.Positions {
				const flag = `UPDATE purchases SET needs_reconciliation=TRUE WHERE id=$1`
				if _, err := tx.Exec(ctx, flag, p.ID); err != nil {
					return err
				}
				p.NeedsReconciliation = true
				r.storage.logger.Warn("settlement decrement clamped, manual reconciliation required",
					slog.String("transaction_id", transactionID),
					slog.Int64("book_id", p.BookID),
					slog.Int("positions", p.Positions),
					slog.Int("available_before", prev),
				)
			}
		} else {
			const release = `UPDATE books
                             SET reserved_positions = GREATEST(reserved_positions - $2, 0), updated_at = NOW()
                             WHERE id=$1`
			if _, err := tx.Exec(ctx, release, p.BookID, p.Positions); err != nil {
				return err
			}
		}

		settled = &p
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !applied {
		existing, err := r.GetByTransactionID(ctx, transactionID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return settled, true, nil
}

func (r *purchaseRepository) SelectStaleForCheck(ctx context.Context, olderThan time.Duration, limit int) ([]model.Purchase, error) {
	const selectQuery = `SELECT ` + purchaseColumns + `
                         FROM purchases
                         WHERE payment_status='pending'
                           AND created_at < $1
                           AND (checked_at IS NULL OR checked_at < $1)
                         ORDER BY created_at
                         LIMIT $2
                         FOR UPDATE SKIP LOCKED`

	cutoff := time.Now().Add(-olderThan)

	var purchases []model.Purchase
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, cutoff, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPurchase(rows)
			if err != nil {
				return err
			}
			purchases = append(purchases, *p)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, p := range purchases {
			if _, err := tx.Exec(ctx, `UPDATE purchases SET checked_at=NOW() WHERE id=$1`, p.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
