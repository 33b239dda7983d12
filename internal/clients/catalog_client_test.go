package clients

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
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

func newTestClient(t *testing.T) *CatalogClient {
	t.Helper()
	clock := &tickClock{t: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := catalog.NewService(eventstore.NewEventStore(), catalog.WithClock(clock.Now), catalog.WithLogger(logger))
	require.NoError(t, err)

	srv := httptest.NewServer(catalog.NewHandler(svc, nil, logger).Routes())
	t.Cleanup(srv.Close)
	return NewCatalogClient(srv.URL+"/", srv.Client())
}

func TestCatalogClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	alice, err := c.AddBorrower(ctx, "Alice", "1 Main St", "555-0100", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "BR20240101120000", alice.ID)

	book, err := c.AddBook(ctx, "Dune", "Frank Herbert", "Sci-Fi")
	require.NoError(t, err)
	dvd, err := c.AddDVD(ctx, "Dune", "David Lynch", 137)
	require.NoError(t, err)
	assert.Equal(t, 137, dvd.DVD.Runtime)

	event, err := c.Borrow(ctx, dvd.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "DVD 'Dune' borrowed by Alice.", event.String())

	got, err := c.GetMedia(ctx, dvd.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBorrowed)
	assert.Equal(t, alice.ID, got.BorrowerID)

	found, err := c.Search(ctx, "Dune")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, book.ID, found[0].ID)

	titles, err := c.ListTitleContaining(ctx, "un")
	require.NoError(t, err)
	assert.Len(t, titles, 2)

	borrowed, err := c.ListBorrowed(ctx)
	require.NoError(t, err)
	require.Len(t, borrowed, 1)
	assert.Equal(t, dvd.ID, borrowed[0].ID)

	available, err := c.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, book.ID, available[0].ID)

	lent, err := c.ListBorrowedBy(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, lent, 1)

	recent, err := c.ListBorrowedLast7Days(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	returned, err := c.ReturnMedia(ctx, dvd.ID)
	require.NoError(t, err)
	assert.Equal(t, "DVD 'Dune' returned.", returned.String())

	history, err := c.History(ctx, dvd.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, catalog.EventMediaReturned, history[2].EventType)

	journal, err := c.Journal(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, journal, 5)

	inv, err := c.ListInventory(ctx)
	require.NoError(t, err)
	assert.Len(t, inv.Books, 1)
	assert.Len(t, inv.DVDs, 1)

	borrowers, err := c.ListBorrowers(ctx)
	require.NoError(t, err)
	require.Len(t, borrowers, 1)
	assert.Equal(t, "alice@example.com", borrowers[0].Email)

	require.NoError(t, c.RemoveMedia(ctx, catalog.KindBook, book.ID))
	require.NoError(t, c.RemoveBorrower(ctx, alice.ID))

	_, err = c.GetBorrower(ctx, alice.ID)
	assert.ErrorIs(t, err, catalog.ErrBorrowerNotFound)
}

func TestCatalogClientMapsErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	book, err := c.AddBook(ctx, "Dune", "Frank Herbert", "Sci-Fi")
	require.NoError(t, err)

	_, err = c.GetMedia(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrMediaNotFound)

	_, err = c.Borrow(ctx, book.ID, "missing")
	assert.ErrorIs(t, err, catalog.ErrBorrowerNotFound)
	assert.NotErrorIs(t, err, catalog.ErrMediaNotFound)

	_, err = c.ReturnMedia(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrMediaNotFound)

	assert.ErrorIs(t, c.RemoveMedia(ctx, catalog.KindDVD, book.ID), catalog.ErrMediaNotFound)
	assert.ErrorIs(t, c.RemoveMedia(ctx, catalog.Kind("vinyl"), book.ID), catalog.ErrUnknownCollection)
	assert.ErrorIs(t, c.RemoveBorrower(ctx, "missing"), catalog.ErrBorrowerNotFound)

	_, err = c.AddDVD(ctx, "Alien", "Ridley Scott", 0)
	assert.ErrorIs(t, err, catalog.ErrInvalidRuntime)

	_, err = c.Journal(ctx, -1, 10)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuery)
}

func TestCatalogClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, err := NewCatalogClient(url, nil).ListInventory(context.Background())
	assert.Error(t, err)
}

func TestCatalogClientUnmappedNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	c := NewCatalogClient(srv.URL, srv.Client())

	_, err := c.GetMedia(context.Background(), "BO20240101120000")
	require.Error(t, err)
	assert.NotErrorIs(t, err, catalog.ErrMediaNotFound)
	assert.Contains(t, err.Error(), "unexpected status code 404")

	err = c.RemoveBorrower(context.Background(), "BR20240101120000")
	assert.NotErrorIs(t, err, catalog.ErrBorrowerNotFound)
}
