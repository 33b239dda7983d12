// internal/catalog/service.go
package catalog

import (
	"context"
	"errors"

	"mediashelf/internal/eventstore"
)

var (
	ErrMediaNotFound     = errors.New("media item not found")
	ErrBorrowerNotFound  = errors.New("borrower not found")
	ErrUnknownCollection = errors.New("unknown media collection")
	ErrInvalidRuntime    = errors.New("runtime must be a positive number of minutes")
	ErrInvalidQuery      = errors.New("invalid query parameter")
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, title, author, genre string) (Media, error)
	AddDVD(ctx context.Context, title, director string, runtime int) (Media, error)
	AddBorrower(ctx context.Context, name, address, contactNumber, email string) (Borrower, error)
	RemoveMedia(ctx context.Context, collection Kind, id string) error
	RemoveBorrower(ctx context.Context, id string) error
	Borrow(ctx context.Context, mediaID, borrowerID string) (BorrowedEvent, error)
	ReturnMedia(ctx context.Context, mediaID string) (ReturnedEvent, error)

	GetMedia(ctx context.Context, id string) (Media, error)
	GetBorrower(ctx context.Context, id string) (Borrower, error)
	Search(ctx context.Context, keyword string) ([]Media, error)
	ListInventory(ctx context.Context) (Inventory, error)
	ListBorrowers(ctx context.Context) ([]Borrower, error)
	ListBorrowed(ctx context.Context) ([]Media, error)
	ListAvailable(ctx context.Context) ([]Media, error)
	ListBorrowedBy(ctx context.Context, borrowerID string) ([]Media, error)
	ListTitleContaining(ctx context.Context, keyword string) ([]Media, error)
	ListBorrowedLast7Days(ctx context.Context) ([]Media, error)
	History(ctx context.Context, mediaID string) ([]eventstore.Event, error)
	// Journal pages through every journaled event after the given sequence number.
	Journal(ctx context.Context, afterSequence int64, limit int) ([]eventstore.Event, error)
}
