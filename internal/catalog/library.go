// internal/catalog/library.go
package catalog

import (
	"iter"
	"slices"
	"strings"
	"time"

	"mediashelf/internal/ident"
)

const recentWindowDays = 7

// Library aggregates the book collection, the DVD collection and the
// borrower list. It is not safe for concurrent use; see service for the
// locked wrapper.
type Library struct {
	books     *Collection[*Media]
	dvds      *Collection[*Media]
	borrowers []*Borrower
	now       ident.Clock
}

// NewLibrary returns an empty library. A nil clock uses time.Now.
func NewLibrary(now ident.Clock) *Library {
	if now == nil {
		now = time.Now
	}
	mediaID := func(m *Media) string { return m.ID }
	return &Library{
		books: NewCollection(mediaID),
		dvds:  NewCollection(mediaID),
		now:   now,
	}
}

// Books returns the book collection.
func (l *Library) Books() *Collection[*Media] { return l.books }

// DVDs returns the DVD collection.
func (l *Library) DVDs() *Collection[*Media] { return l.dvds }

// Collection returns the typed collection for kind.
func (l *Library) Collection(kind Kind) (*Collection[*Media], bool) {
	switch kind {
	case KindBook:
		return l.books, true
	case KindDVD:
		return l.dvds, true
	default:
		return nil, false
	}
}

// AddMedia appends m to the collection matching its kind.
func (l *Library) AddMedia(m *Media) bool {
	c, ok := l.Collection(m.Kind)
	if !ok {
		return false
	}
	c.Add(m)
	return true
}

// FindMedia looks the id up in the books, then in the DVDs.
func (l *Library) FindMedia(id string) (*Media, bool) {
	if m, ok := l.books.GetByID(id); ok {
		return m, true
	}
	return l.dvds.GetByID(id)
}

// AddBorrower appends b to the borrower list.
func (l *Library) AddBorrower(b *Borrower) {
	l.borrowers = append(l.borrowers, b)
}

// RemoveBorrower removes the first entry that is the same record as b.
// Items lent to b keep their borrower id.
func (l *Library) RemoveBorrower(b *Borrower) bool {
	i := slices.Index(l.borrowers, b)
	if i < 0 {
		return false
	}
	l.borrowers = slices.Delete(l.borrowers, i, i+1)
	return true
}

// FindBorrower returns the first borrower with the given id.
func (l *Library) FindBorrower(id string) (*Borrower, bool) {
	i := slices.IndexFunc(l.borrowers, func(b *Borrower) bool { return b.ID == id })
	if i < 0 {
		return nil, false
	}
	return l.borrowers[i], true
}

// Borrowers returns the borrowers in insertion order.
func (l *Library) Borrowers() []*Borrower {
	return slices.Clone(l.borrowers)
}

// BorrowMedia lends m to b without checking that b is registered.
func (l *Library) BorrowMedia(m *Media, b *Borrower) BorrowedEvent {
	return m.Borrow(b)
}

// ReturnMedia clears the borrow state of m.
func (l *Library) ReturnMedia(m *Media) ReturnedEvent {
	return m.Return()
}

// All yields books then DVDs, each in insertion order.
func (l *Library) All() iter.Seq[*Media] {
	return func(yield func(*Media) bool) {
		for m := range l.books.All() {
			if !yield(m) {
				return
			}
		}
		for m := range l.dvds.All() {
			if !yield(m) {
				return
			}
		}
	}
}

// SearchMedia matches keyword (case-sensitive substring) against the title,
// a book's author or genre, and a DVD's director.
func (l *Library) SearchMedia(keyword string) []*Media {
	return l.filter(func(m *Media) bool {
		if strings.Contains(m.Title, keyword) {
			return true
		}
		switch {
		case m.Kind == KindBook && m.Book != nil:
			return strings.Contains(m.Book.Author, keyword) || strings.Contains(m.Book.Genre, keyword)
		case m.Kind == KindDVD && m.DVD != nil:
			return strings.Contains(m.DVD.Director, keyword)
		}
		return false
	})
}

// GetBorrowedMedia returns every item currently lent out.
func (l *Library) GetBorrowedMedia() []*Media {
	return l.filter(func(m *Media) bool { return m.IsBorrowed })
}

// GetAvailableMedia returns every item on the shelf.
func (l *Library) GetAvailableMedia() []*Media {
	return l.filter(func(m *Media) bool { return !m.IsBorrowed })
}

// GetMediaBorrowedByBorrower returns items lent to borrowerID. The borrower
// record itself need not still exist.
func (l *Library) GetMediaBorrowedByBorrower(borrowerID string) []*Media {
	return l.filter(func(m *Media) bool {
		return m.IsBorrowed && m.BorrowerID == borrowerID
	})
}

// GetMediaWithTitleContainingKeyword filters on the title only.
func (l *Library) GetMediaWithTitleContainingKeyword(keyword string) []*Media {
	return l.filter(func(m *Media) bool { return strings.Contains(m.Title, keyword) })
}

// GetMediaBorrowedInLast7Days returns borrowed items whose borrower id
// encodes a creation time within the last seven days. The window is keyed
// on when the borrower was registered, not on when the item was lent.
func (l *Library) GetMediaBorrowedInLast7Days() []*Media {
	now := l.now()
	start := now.AddDate(0, 0, -recentWindowDays)
	return l.filter(func(m *Media) bool {
		if !m.IsBorrowed || m.BorrowerID == "" || !ident.HasPrefix(m.BorrowerID, ident.BorrowerPrefix) {
			return false
		}
		registered, ok := ident.ParseTimestamp(m.BorrowerID, now.Location())
		return ok && !registered.Before(start)
	})
}

func (l *Library) filter(keep func(*Media) bool) []*Media {
	out := make([]*Media, 0)
	for m := range l.All() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
