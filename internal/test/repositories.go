package test

import (
	"context"
	"time"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Roles map[int64][]model.Role
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Roles: make(map[int64][]model.Role),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, email, passwordHash string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[email]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Email: email, PasswordHash: passwordHash}
	s.Next++
	s.Users[email] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByEmail fetches user by email or returns not found.
func (s *UserRepositoryStub) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[email]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// HasRole reports whether the user carries the role.
func (s *UserRepositoryStub) HasRole(ctx context.Context, userID int64, role model.Role) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	for _, r := range s.Roles[userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

// GrantRole records a role grant.
func (s *UserRepositoryStub) GrantRole(ctx context.Context, userID int64, role model.Role) error {
	if s.Err != nil {
		return s.Err
	}
	if s.Roles == nil {
		s.Roles = make(map[int64][]model.Role)
	}
	s.Roles[userID] = append(s.Roles[userID], role)
	return nil
}

// AnyWithRole reports whether any user carries the role.
func (s *UserRepositoryStub) AnyWithRole(ctx context.Context, role model.Role) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	for _, roles := range s.Roles {
		for _, r := range roles {
			if r == role {
				return true, nil
			}
		}
	}
	return false, nil
}

// ProfileRepositoryStub keeps profiles in-memory.
type ProfileRepositoryStub struct {
	Profiles map[int64]*model.Profile
	Err      error
}

// NewProfileRepositoryStub constructs stub repository with initialized map.
func NewProfileRepositoryStub() *ProfileRepositoryStub {
	return &ProfileRepositoryStub{Profiles: make(map[int64]*model.Profile)}
}

// Get returns stored profile or not found.
func (s *ProfileRepositoryStub) Get(ctx context.Context, userID int64) (*model.Profile, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if profile, ok := s.Profiles[userID]; ok {
		return profile, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Upsert stores the profile keyed by user id.
func (s *ProfileRepositoryStub) Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Profiles == nil {
		s.Profiles = make(map[int64]*model.Profile)
	}
	stored := *profile
	s.Profiles[profile.UserID] = &stored
	return &stored, nil
}

// ReservationCall stores information about Reserve and Release invocations.
type ReservationCall struct {
	BookID    int64
	Positions int
}

// BookRepositoryStub allows tests to customize behaviour.
type BookRepositoryStub struct {
	CreateFn        func(context.Context, *model.Book) (*model.Book, error)
	GetBySlugFn     func(context.Context, string) (*model.Book, error)
	GetByIDFn       func(context.Context, int64) (*model.Book, error)
	ListPublishedFn func(context.Context) ([]model.Book, error)
	ListAllFn       func(context.Context) ([]model.Book, error)
	UpdateFn        func(context.Context, int64, repository.BookUpdate) (*model.Book, error)
	ReserveFn       func(context.Context, int64, int) error
	ReleaseFn       func(context.Context, int64, int) error

	Books    []model.Book
	Reserved []ReservationCall
	Released []ReservationCall
}

// Create delegates to the override or echoes the book with an id.
func (s *BookRepositoryStub) Create(ctx context.Context, book *model.Book) (*model.Book, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, book)
	}
	created := *book
	created.ID = int64(len(s.Books) + 1)
	s.Books = append(s.Books, created)
	return &created, nil
}

// GetBySlug returns matched book either via override or stored slice.
func (s *BookRepositoryStub) GetBySlug(ctx context.Context, slug string) (*model.Book, error) {
	if s.GetBySlugFn != nil {
		return s.GetBySlugFn(ctx, slug)
	}
	for _, b := range s.Books {
		if b.Slug == slug {
			book := b
			return &book, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID returns matched book either via override or stored slice.
func (s *BookRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	for _, b := range s.Books {
		if b.ID == id {
			book := b
			return &book, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListPublished returns configured published books.
func (s *BookRepositoryStub) ListPublished(ctx context.Context) ([]model.Book, error) {
	if s.ListPublishedFn != nil {
		return s.ListPublishedFn(ctx)
	}
	var out []model.Book
	for _, b := range s.Books {
		if b.Status == model.BookStatusPublished {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListAll returns the configured slice.
func (s *BookRepositoryStub) ListAll(ctx context.Context) ([]model.Book, error) {
	if s.ListAllFn != nil {
		return s.ListAllFn(ctx)
	}
	return s.Books, nil
}

// Update delegates to the override or applies the patch in-memory.
func (s *BookRepositoryStub) Update(ctx context.Context, id int64, upd repository.BookUpdate) (*model.Book, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, upd)
	}
	for i := range s.Books {
		if s.Books[i].ID != id {
			continue
		}
		if upd.AvailablePositions != nil {
			s.Books[i].AvailablePositions = *upd.AvailablePositions
		}
		if upd.PricePerPosition != nil {
			s.Books[i].PricePerPosition = *upd.PricePerPosition
		}
		if upd.Status != nil {
			s.Books[i].Status = *upd.Status
		}
		book := s.Books[i]
		return &book, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Reserve tracks invocations and returns configured responses.
func (s *BookRepositoryStub) Reserve(ctx context.Context, bookID int64, positions int) error {
	s.Reserved = append(s.Reserved, ReservationCall{BookID: bookID, Positions: positions})
	if s.ReserveFn != nil {
		return s.ReserveFn(ctx, bookID, positions)
	}
	return nil
}

// Release tracks invocations and returns configured responses.
func (s *BookRepositoryStub) Release(ctx context.Context, bookID int64, positions int) error {
	s.Released = append(s.Released, ReservationCall{BookID: bookID, Positions: positions})
	if s.ReleaseFn != nil {
		return s.ReleaseFn(ctx, bookID, positions)
	}
	return nil
}

// SettleCall stores information about Settle invocations.
type SettleCall struct {
	TransactionID string
	State         model.PaymentState
	ProviderRef   string
}

// PurchaseRepositoryStub allows tests to customize behaviour.
type PurchaseRepositoryStub struct {
	CreateFn             func(context.Context, *model.Purchase) (*model.Purchase, error)
	GetByTransactionIDFn func(context.Context, string) (*model.Purchase, error)
	ListByUserFn         func(context.Context, int64) ([]model.Purchase, error)
	SettleFn             func(context.Context, string, model.PaymentState, string) (*model.Purchase, bool, error)
	SelectStaleFn        func(context.Context, time.Duration, int) ([]model.Purchase, error)

	Created     []model.Purchase
	Purchases   []model.Purchase
	SettleCalls []SettleCall
}

// Create tracks invocations and returns configured responses.
func (s *PurchaseRepositoryStub) Create(ctx context.Context, purchase *model.Purchase) (*model.Purchase, error) {
	s.Created = append(s.Created, *purchase)
	if s.CreateFn != nil {
		return s.CreateFn(ctx, purchase)
	}
	created := *purchase
	created.ID = int64(len(s.Created))
	return &created, nil
}

// GetByTransactionID returns matched purchase either via override or stored slice.
func (s *PurchaseRepositoryStub) GetByTransactionID(ctx context.Context, transactionID string) (*model.Purchase, error) {
	if s.GetByTransactionIDFn != nil {
		return s.GetByTransactionIDFn(ctx, transactionID)
	}
	for _, p := range s.Purchases {
		if p.TransactionID == transactionID {
			purchase := p
			return &purchase, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListByUser returns purchases from configured slice.
func (s *PurchaseRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	if s.ListByUserFn != nil {
		return s.ListByUserFn(ctx, userID)
	}
	var out []model.Purchase
	for _, p := range s.Purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Settle tracks invocations and returns configured responses.
func (s *PurchaseRepositoryStub) Settle(ctx context.Context, transactionID string, state model.PaymentState, providerRef string) (*model.Purchase, bool, error) {
	s.SettleCalls = append(s.SettleCalls, SettleCall{TransactionID: transactionID, State: state, ProviderRef: providerRef})
	if s.SettleFn != nil {
		return s.SettleFn(ctx, transactionID, state, providerRef)
	}
	purchase, err := s.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, false, err
	}
	return purchase, true, nil
}

// SelectStaleForCheck returns configured stale purchases.
func (s *PurchaseRepositoryStub) SelectStaleForCheck(ctx context.Context, olderThan time.Duration, limit int) ([]model.Purchase, error) {
	if s.SelectStaleFn != nil {
		return s.SelectStaleFn(ctx, olderThan, limit)
	}
	if limit > len(s.Purchases) {
		limit = len(s.Purchases)
	}
	return s.Purchases[:limit], nil
}
