// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mediashelf/internal/eventstore"
	"mediashelf/internal/ident"
)

const instrumentationName = "mediashelf/catalog"

// Option configures a catalog service.
type Option func(*options)

type options struct {
	now           ident.Clock
	logger        *slog.Logger
	meterProvider metric.MeterProvider
}

// WithClock replaces time.Now for identifier generation and the recency window.
func WithClock(now ident.Clock) Option {
	return func(o *options) { o.now = now }
}

// WithMeterProvider sets the provider the service counters are created from.
// The global provider is used by default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithLogger sets the logger used for mutation and lookup logs.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type serviceMetrics struct {
	mediaAdded metric.Int64Counter
	borrows    metric.Int64Counter
	returns    metric.Int64Counter
	notFound   metric.Int64Counter
}

// service implements the Service interface. The mutex guards the library;
// the library itself has no synchronisation.
type service struct {
	mu         sync.RWMutex
	library    *Library
	gen        *ident.Generator
	eventStore *eventstore.EventStore
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    serviceMetrics
}

// NewService creates a new catalog service instance over an empty library.
func NewService(es *eventstore.EventStore, opts ...Option) (Service, error) {
	o := options{now: time.Now, logger: slog.Default(), meterProvider: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}

	metrics, err := newServiceMetrics(o.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &service{
		library:    NewLibrary(o.now),
		gen:        ident.NewGenerator(o.now),
		eventStore: es,
		logger:     o.logger,
		tracer:     otel.Tracer(instrumentationName),
		metrics:    metrics,
	}, nil
}

func newServiceMetrics(meter metric.Meter) (serviceMetrics, error) {
	var m serviceMetrics
	var err error
	if m.mediaAdded, err = meter.Int64Counter("catalog.media.added", metric.WithDescription("Media items added to the catalog")); err != nil {
		return m, err
	}
	if m.borrows, err = meter.Int64Counter("catalog.borrows", metric.WithDescription("Borrow operations")); err != nil {
		return m, err
	}
	if m.returns, err = meter.Int64Counter("catalog.returns", metric.WithDescription("Return operations")); err != nil {
		return m, err
	}
	if m.notFound, err = meter.Int64Counter("catalog.lookups.not_found", metric.WithDescription("Lookups that found no record")); err != nil {
		return m, err
	}
	return m, nil
}

// AddBook creates a book and appends it to the book collection.
func (s *service) AddBook(ctx context.Context, title, author, genre string) (Media, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_book")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	book := NewBook(s.gen, title, author, genre)
	s.library.AddMedia(book)
	s.mediaAdded(ctx, span, book)
	return book.Clone(), nil
}

// AddDVD creates a DVD and appends it to the DVD collection. The runtime is stored as given.
func (s *service) AddDVD(ctx context.Context, title, director string, runtime int) (Media, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_dvd")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	dvd := NewDVD(s.gen, title, director, runtime)
	s.library.AddMedia(dvd)
	s.mediaAdded(ctx, span, dvd)
	return dvd.Clone(), nil
}

func (s *service) mediaAdded(ctx context.Context, span trace.Span, m *Media) {
	span.SetAttributes(attribute.String("media.id", m.ID), attribute.String("media.kind", string(m.Kind)))
	s.metrics.mediaAdded.Add(ctx, 1, metric.WithAttributes(attribute.String("media.kind", string(m.Kind))))
	s.record(ctx, m.ID, aggregateMedia, EventMediaAdded, MediaAddedEvent{Media: m.Clone()})
	s.logger.InfoContext(ctx, "media added", "media_id", m.ID, "kind", m.Kind, "title", m.Title)
}

// AddBorrower registers a borrower.
func (s *service) AddBorrower(ctx context.Context, name, address, contactNumber, email string) (Borrower, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_borrower")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	borrower := NewBorrower(s.gen, name, address, contactNumber, email)
	s.library.AddBorrower(borrower)

	span.SetAttributes(attribute.String("borrower.id", borrower.ID))
	s.record(ctx, borrower.ID, aggregateBorrower, EventBorrowerRegistered, BorrowerRegisteredEvent{Borrower: *borrower})
	s.logger.InfoContext(ctx, "borrower added", "borrower_id", borrower.ID)
	return *borrower, nil
}

// RemoveMedia removes the first item with id from the named collection.
func (s *service) RemoveMedia(ctx context.Context, collection Kind, id string) error {
	ctx, span := s.tracer.Start(ctx, "catalog.remove_media",
		trace.WithAttributes(
			attribute.String("media.id", id),
			attribute.String("media.kind", string(collection)),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.library.Collection(collection)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
		s.fail(span, err)
		return err
	}
	if !c.RemoveByID(id) {
		return s.notFound(ctx, span, ErrMediaNotFound, "media_id", id)
	}

	s.record(ctx, id, aggregateMedia, EventMediaRemoved, MediaRemovedEvent{MediaID: id, Kind: collection})
	s.logger.InfoContext(ctx, "media removed", "media_id", id, "kind", collection)
	return nil
}

// RemoveBorrower removes the borrower with id. Items they hold stay borrowed.
func (s *service) RemoveBorrower(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "catalog.remove_borrower",
		trace.WithAttributes(attribute.String("borrower.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	borrower, ok := s.library.FindBorrower(id)
	if !ok {
		return s.notFound(ctx, span, ErrBorrowerNotFound, "borrower_id", id)
	}
	s.library.RemoveBorrower(borrower)

	s.record(ctx, id, aggregateBorrower, EventBorrowerRemoved, BorrowerRemovedEvent{BorrowerID: id})
	s.logger.InfoContext(ctx, "borrower removed", "borrower_id", id)
	return nil
}

// Borrow lends the item to the borrower. The item is resolved first, books
// before DVDs, then the borrower. A borrowed item changes hands silently.
func (s *service) Borrow(ctx context.Context, mediaID, borrowerID string) (BorrowedEvent, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.borrow",
		trace.WithAttributes(
			attribute.String("media.id", mediaID),
			attribute.String("borrower.id", borrowerID),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	media, ok := s.library.FindMedia(mediaID)
	if !ok {
		return BorrowedEvent{}, s.notFound(ctx, span, ErrMediaNotFound, "media_id", mediaID)
	}
	borrower, ok := s.library.FindBorrower(borrowerID)
	if !ok {
		return BorrowedEvent{}, s.notFound(ctx, span, ErrBorrowerNotFound, "borrower_id", borrowerID)
	}

	previous := media.BorrowerID
	event := s.library.BorrowMedia(media, borrower)

	s.metrics.borrows.Add(ctx, 1, metric.WithAttributes(attribute.String("media.kind", string(media.Kind))))
	s.record(ctx, media.ID, aggregateMedia, EventMediaBorrowed, event)
	s.logger.InfoContext(ctx, "media borrowed",
		"media_id", media.ID,
		"borrower_id", borrower.ID,
		"previous_borrower_id", previous,
	)
	return event, nil
}

// ReturnMedia clears the borrow state of the item, borrowed or not.
func (s *service) ReturnMedia(ctx context.Context, mediaID string) (ReturnedEvent, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.return",
		trace.WithAttributes(attribute.String("media.id", mediaID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	media, ok := s.library.FindMedia(mediaID)
	if !ok {
		return ReturnedEvent{}, s.notFound(ctx, span, ErrMediaNotFound, "media_id", mediaID)
	}

	event := s.library.ReturnMedia(media)

	s.metrics.returns.Add(ctx, 1, metric.WithAttributes(attribute.String("media.kind", string(media.Kind))))
	s.record(ctx, media.ID, aggregateMedia, EventMediaReturned, event)
	s.logger.InfoContext(ctx, "media returned", "media_id", media.ID)
	return event, nil
}

// GetMedia returns a copy of the item with id.
func (s *service) GetMedia(ctx context.Context, id string) (Media, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get_media",
		trace.WithAttributes(attribute.String("media.id", id)),
	)
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	media, ok := s.library.FindMedia(id)
	if !ok {
		return Media{}, s.notFound(ctx, span, ErrMediaNotFound, "media_id", id)
	}
	return media.Clone(), nil
}

// GetBorrower returns a copy of the borrower with id.
func (s *service) GetBorrower(ctx context.Context, id string) (Borrower, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get_borrower",
		trace.WithAttributes(attribute.String("borrower.id", id)),
	)
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	borrower, ok := s.library.FindBorrower(id)
	if !ok {
		return Borrower{}, s.notFound(ctx, span, ErrBorrowerNotFound, "borrower_id", id)
	}
	return *borrower, nil
}

// Search finds items by title, author, genre or director.
func (s *service) Search(ctx context.Context, keyword string) ([]Media, error) {
	return s.query(ctx, "catalog.search", func(l *Library) []*Media {
		return l.SearchMedia(keyword)
	}, attribute.String("query.keyword", keyword))
}

// ListInventory returns both collections in insertion order.
func (s *service) ListInventory(ctx context.Context) (Inventory, error) {
	_, span := s.tracer.Start(ctx, "catalog.list_inventory")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	inv := Inventory{
		Books: make([]Media, 0, s.library.Books().Len()),
		DVDs:  make([]Media, 0, s.library.DVDs().Len()),
	}
	for m := range s.library.Books().All() {
		inv.Books = append(inv.Books, m.Clone())
	}
	for m := range s.library.DVDs().All() {
		inv.DVDs = append(inv.DVDs, m.Clone())
	}
	return inv, nil
}

// ListBorrowers returns the registered borrowers in insertion order.
func (s *service) ListBorrowers(ctx context.Context) ([]Borrower, error) {
	_, span := s.tracer.Start(ctx, "catalog.list_borrowers")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	borrowers := s.library.Borrowers()
	out := make([]Borrower, 0, len(borrowers))
	for _, b := range borrowers {
		out = append(out, *b)
	}
	return out, nil
}

func (s *service) ListBorrowed(ctx context.Context) ([]Media, error) {
	return s.query(ctx, "catalog.list_borrowed", (*Library).GetBorrowedMedia)
}

func (s *service) ListAvailable(ctx context.Context) ([]Media, error) {
	return s.query(ctx, "catalog.list_available", (*Library).GetAvailableMedia)
}

func (s *service) ListBorrowedBy(ctx context.Context, borrowerID string) ([]Media, error) {
	return s.query(ctx, "catalog.list_borrowed_by", func(l *Library) []*Media {
		return l.GetMediaBorrowedByBorrower(borrowerID)
	}, attribute.String("borrower.id", borrowerID))
}

func (s *service) ListTitleContaining(ctx context.Context, keyword string) ([]Media, error) {
	return s.query(ctx, "catalog.list_title_containing", func(l *Library) []*Media {
		return l.GetMediaWithTitleContainingKeyword(keyword)
	}, attribute.String("query.keyword", keyword))
}

func (s *service) ListBorrowedLast7Days(ctx context.Context) ([]Media, error) {
	return s.query(ctx, "catalog.list_borrowed_last_7_days", (*Library).GetMediaBorrowedInLast7Days)
}

// History returns the journaled events of a media item, including removed ones.
func (s *service) History(ctx context.Context, mediaID string) ([]eventstore.Event, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.history",
		trace.WithAttributes(attribute.String("media.id", mediaID)),
	)
	defer span.End()

	events, err := s.eventStore.LoadEvents(ctx, mediaID, 0, 0)
	if err != nil {
		if errors.Is(err, eventstore.ErrAggregateNotFound) {
			return nil, s.notFound(ctx, span, ErrMediaNotFound, "media_id", mediaID)
		}
		s.fail(span, err)
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	// Borrowers share the journal; their ids are not media ids.
	if len(events) == 0 || events[0].AggregateType != aggregateMedia {
		return nil, s.notFound(ctx, span, ErrMediaNotFound, "media_id", mediaID)
	}
	return events, nil
}

// Journal returns up to limit events with a sequence number above afterSequence.
func (s *service) Journal(ctx context.Context, afterSequence int64, limit int) ([]eventstore.Event, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.journal",
		trace.WithAttributes(
			attribute.Int64("journal.after", afterSequence),
			attribute.Int("journal.limit", limit),
		),
	)
	defer span.End()

	if afterSequence < 0 || limit <= 0 {
		err := fmt.Errorf("%w: after=%d limit=%d", ErrInvalidQuery, afterSequence, limit)
		s.fail(span, err)
		return nil, err
	}

	events, err := s.eventStore.StreamEvents(ctx, afterSequence, limit)
	if err != nil {
		s.fail(span, err)
		return nil, fmt.Errorf("failed to stream events: %w", err)
	}
	return events, nil
}

func (s *service) query(ctx context.Context, name string, run func(*Library) []*Media, attrs ...attribute.KeyValue) ([]Media, error) {
	_, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := run(s.library)
	out := make([]Media, 0, len(found))
	for _, m := range found {
		out = append(out, m.Clone())
	}
	span.SetAttributes(attribute.Int("query.results", len(out)))
	return out, nil
}

// record journals a domain event. The journal is an audit trail, so a
// failure is logged and does not undo the mutation.
func (s *service) record(ctx context.Context, aggregateID, aggregateType, eventType string, payload any) {
	event, err := eventstore.NewEvent(eventType, payload)
	if id, ok := RequestIDFromContext(ctx); ok && err == nil {
		event.Metadata = map[string]string{metadataRequestID: id}
	}
	if err == nil {
		err = s.eventStore.Append(ctx, aggregateID, aggregateType, event)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append event",
			"aggregate_id", aggregateID,
			"event_type", eventType,
			"error", err,
		)
	}
}

func (s *service) notFound(ctx context.Context, span trace.Span, err error, key, id string) error {
	span.SetAttributes(attribute.Bool("lookup.not_found", true))
	s.metrics.notFound.Add(ctx, 1)
	s.logger.DebugContext(ctx, err.Error(), key, id)
	return fmt.Errorf("%w: %s", err, id)
}

func (s *service) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
