// internal/catalog/domain.go
package catalog

import (
	"fmt"
	"strings"

	"mediashelf/internal/ident"
)

// Kind tags the variant of a Media item.
type Kind string

const (
	KindBook Kind = "book"
	KindDVD  Kind = "dvd"
)

// Label is the human-readable variant name used in event text.
func (k Kind) Label() string {
	switch k {
	case KindBook:
		return "Book"
	case KindDVD:
		return "DVD"
	default:
		return string(k)
	}
}

// ParseKind accepts "book"/"books" and "dvd"/"dvds" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "book", "books":
		return KindBook, nil
	case "dvd", "dvds":
		return KindDVD, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, s)
	}
}

// BookDetails is the payload carried by a book.
type BookDetails struct {
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

// DVDDetails is the payload carried by a DVD. Runtime is in minutes and is
// stored exactly as given.
type DVDDetails struct {
	Director string `json:"director"`
	Runtime  int    `json:"runtime"`
}

// Media is a circulating catalog item. Exactly one of Book or DVD is set,
// according to Kind. BorrowerID is non-empty iff IsBorrowed is true.
type Media struct {
	ID         string       `json:"id"`
	Kind       Kind         `json:"kind"`
	Title      string       `json:"title"`
	Book       *BookDetails `json:"book,omitempty"`
	DVD        *DVDDetails  `json:"dvd,omitempty"`
	IsBorrowed bool         `json:"is_borrowed"`
	BorrowerID string       `json:"borrower_id,omitempty"`
}

// NewBook creates a book with a fresh "BO" identifier.
func NewBook(gen *ident.Generator, title, author, genre string) *Media {
	return &Media{
		ID:    gen.Generate(ident.MediaPrefix),
		Kind:  KindBook,
		Title: title,
		Book:  &BookDetails{Author: author, Genre: genre},
	}
}

// NewDVD creates a DVD with a fresh "BO" identifier. Runtime is not validated.
func NewDVD(gen *ident.Generator, title, director string, runtime int) *Media {
	return &Media{
		ID:    gen.Generate(ident.MediaPrefix),
		Kind:  KindDVD,
		Title: title,
		DVD:   &DVDDetails{Director: director, Runtime: runtime},
	}
}

// Borrow marks the item as lent to b. An existing borrower is silently replaced.
func (m *Media) Borrow(b *Borrower) BorrowedEvent {
	m.IsBorrowed = true
	m.BorrowerID = b.ID
	return BorrowedEvent{
		MediaID:      m.ID,
		Kind:         m.Kind,
		Title:        m.Title,
		BorrowerID:   b.ID,
		BorrowerName: b.Name,
	}
}

// Return clears the borrow state whether or not the item was borrowed.
func (m *Media) Return() ReturnedEvent {
	ev := ReturnedEvent{MediaID: m.ID, Kind: m.Kind, Title: m.Title}
	m.IsBorrowed = false
	m.BorrowerID = ""
	return ev
}

// Clone returns a deep copy that shares no payload with m.
func (m *Media) Clone() Media {
	c := *m
	if m.Book != nil {
		book := *m.Book
		c.Book = &book
	}
	if m.DVD != nil {
		dvd := *m.DVD
		c.DVD = &dvd
	}
	return c
}

// Borrower is a person registered to borrow media.
type Borrower struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
}

// NewBorrower creates a borrower with a fresh "BR" identifier.
func NewBorrower(gen *ident.Generator, name, address, contactNumber, email string) *Borrower {
	return &Borrower{
		ID:            gen.Generate(ident.BorrowerPrefix),
		Name:          name,
		Address:       address,
		ContactNumber: contactNumber,
		Email:         email,
	}
}

// Inventory is the read accessor over both typed collections.
type Inventory struct {
	Books []Media `json:"books"`
	DVDs  []Media `json:"dvds"`
}

// Event types recorded in the journal.
const (
	EventMediaAdded         = "MediaAdded"
	EventMediaRemoved       = "MediaRemoved"
	EventMediaBorrowed      = "MediaBorrowed"
	EventMediaReturned      = "MediaReturned"
	EventBorrowerRegistered = "BorrowerRegistered"
	EventBorrowerRemoved    = "BorrowerRemoved"

	aggregateMedia    = "media"
	aggregateBorrower = "borrower"
)

// BorrowedEvent is produced when an item is lent.
type BorrowedEvent struct {
	MediaID      string `json:"media_id"`
	Kind         Kind   `json:"kind"`
	Title        string `json:"title"`
	BorrowerID   string `json:"borrower_id"`
	BorrowerName string `json:"borrower_name"`
}

func (e BorrowedEvent) String() string {
	return fmt.Sprintf("%s '%s' borrowed by %s.", e.Kind.Label(), e.Title, e.BorrowerName)
}

// ReturnedEvent is produced when an item is given back.
type ReturnedEvent struct {
	MediaID string `json:"media_id"`
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
}

func (e ReturnedEvent) String() string {
	return fmt.Sprintf("%s '%s' returned.", e.Kind.Label(), e.Title)
}

// MediaAddedEvent is journaled when an item enters a collection.
type MediaAddedEvent struct {
	Media Media `json:"media"`
}

// MediaRemovedEvent is journaled when an item leaves its collection.
type MediaRemovedEvent struct {
	MediaID string `json:"media_id"`
	Kind    Kind   `json:"kind"`
}

// BorrowerRegisteredEvent is journaled when a borrower is added.
type BorrowerRegisteredEvent struct {
	Borrower Borrower `json:"borrower"`
}

// BorrowerRemovedEvent is journaled when a borrower is removed. Items they
// hold keep referencing BorrowerID.
type BorrowerRemovedEvent struct {
	BorrowerID string `json:"borrower_id"`
}
