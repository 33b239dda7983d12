package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediashelf/internal/catalog"
	"mediashelf/internal/eventstore"
)

type tickClock struct{ t time.Time }

func (c *tickClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

func newService(t *testing.T) catalog.Service {
	t.Helper()
	clock := &tickClock{t: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)}
	svc, err := catalog.NewService(eventstore.NewEventStore(),
		catalog.WithClock(clock.Now),
		catalog.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return svc
}

func run(t *testing.T, svc catalog.Service, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, New(svc, in, &out).Run(context.Background()))
	return out.String()
}

func TestShellBorrowAndReturn(t *testing.T) {
	svc := newService(t)
	out := run(t, svc,
		"3", "Alice", "1 Main St", "555-0100", "alice@example.com",
		"1", "Dune", "Frank Herbert", "Sci-Fi",
		"7", "BO20240101120001", "BR20240101120000",
		"12",
		"8", "BO20240101120001",
		"17",
	)

	assert.Contains(t, out, "Borrower added successfully. ID: BR20240101120000\n")
	assert.Contains(t, out, "Book added successfully.\n")
	assert.Contains(t, out, "Book 'Dune' borrowed by Alice.\n")
	assert.Contains(t, out, "Borrowed Media:\nBook: Dune\n")
	assert.Contains(t, out, "Book 'Dune' returned.\n")
}

func TestShellAddDVDRepromptsForRuntime(t *testing.T) {
	svc := newService(t)
	out := run(t, svc, "2", "Alien", "Ridley Scott", "abc", "0", "-3", " 117 ", "10", "17")

	assert.Equal(t, 3, strings.Count(out, "Invalid input. Enter a valid runtime (in minutes): "))
	assert.Contains(t, out, "DVD added successfully.\n")
	assert.Contains(t, out, "ID: BO20240101120000, Title: Alien, Director: Ridley Scott, Runtime: 117 minutes, Availability: Available\n")
}

func TestShellSearch(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.AddBook(ctx, "Dune", "Frank Herbert", "Sci-Fi")
	require.NoError(t, err)
	_, err = svc.AddDVD(ctx, "Dune", "David Lynch", 137)
	require.NoError(t, err)

	out := run(t, svc, "9", "Dune", "9", "Zzz", "15", "un", "17")

	assert.Contains(t, out, "Search results:\nBook: Dune by Frank Herbert\nDVD: Dune directed by David Lynch\n")
	assert.Contains(t, out, "No media found matching the search criteria.\n")
	assert.Contains(t, out, "Media with Titles Containing Keyword \"un\":\nBook: Dune\nDVD: Dune\n")
}

func TestShellNotFoundMessages(t *testing.T) {
	svc := newService(t)
	_, err := svc.AddBook(context.Background(), "Dune", "Frank Herbert", "Sci-Fi")
	require.NoError(t, err)

	out := run(t, svc,
		"4", "BO00000000000000",
		"5", "BO20240101120000",
		"6", "BR00000000000000",
		"7", "missing",
		"7", "BO20240101120000", "BR00000000000000",
		"8", "missing",
		"17",
	)

	assert.Equal(t, 4, strings.Count(out, "Media item not found.\n"))
	assert.Equal(t, 2, strings.Count(out, "Borrower not found.\n"))
	// A missing media item must not prompt for a borrower.
	assert.Equal(t, 1, strings.Count(out, "Enter ID of the borrower: "))
}

func TestShellRemovals(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	book, _ := svc.AddBook(ctx, "Dune", "Frank Herbert", "Sci-Fi")
	dvd, _ := svc.AddDVD(ctx, "Alien", "Ridley Scott", 117)
	bob, _ := svc.AddBorrower(ctx, "Bob", "2 High St", "555-0200", "bob@example.com")

	out := run(t, svc, "11", "4", book.ID, "5", dvd.ID, "6", bob.ID, "10", "11", "17")

	assert.Contains(t, out, "Borrowers:\nID: "+bob.ID+", Name: Bob, Address: 2 High St, Contact: 555-0200, Email: bob@example.com\n")
	assert.Equal(t, 2, strings.Count(out, "Media item removed successfully.\n"))
	assert.Contains(t, out, "Borrower removed successfully.\n")
	assert.Contains(t, out, "Books:\n\nDVDs:\n")
}

func TestShellListings(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	alice, _ := svc.AddBorrower(ctx, "Alice", "", "", "")
	book, _ := svc.AddBook(ctx, "Dune", "Frank Herbert", "Sci-Fi")
	_, _ = svc.AddDVD(ctx, "Alien", "Ridley Scott", 117)
	_, err := svc.Borrow(ctx, book.ID, alice.ID)
	require.NoError(t, err)

	out := run(t, svc, "13", "14", alice.ID, "16", "10", "17")

	assert.Contains(t, out, "Available Media:\nDVD: Alien\n")
	assert.Contains(t, out, "Media Borrowed by Borrower (ID: "+alice.ID+"):\nBook: Dune\n")
	assert.Contains(t, out, "Media Borrowed in Last 7 Days:\nBook: Dune\n")
	assert.Contains(t, out, "Genre: Sci-Fi, Availability: Not Available\n")
}

func TestShellInvalidChoiceAndEOF(t *testing.T) {
	svc := newService(t)
	var out bytes.Buffer
	err := New(svc, strings.NewReader("42\n1\nDune"), &out).Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Invalid choice. Please try again.\n")
	assert.Contains(t, out.String(), "17. Exit\nEnter your choice: ")

	inv, err := svc.ListInventory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, inv.Books)
}

func TestShellStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(newService(t), strings.NewReader("10\n"), io.Discard).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
