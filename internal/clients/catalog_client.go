// internal/clients/catalog_client.go
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"mediashelf/internal/catalog"
	"mediashelf/internal/eventstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CatalogClient talks to a remote catalog service and implements catalog.Service.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ catalog.Service = (*CatalogClient)(nil)

// NewCatalogClient returns a client for the catalog API at baseURL. A nil
// httpClient means http.DefaultClient.
func NewCatalogClient(baseURL string, httpClient *http.Client) *CatalogClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CatalogClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *CatalogClient) AddBook(ctx context.Context, title, author, genre string) (catalog.Media, error) {
	req := struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Genre  string `json:"genre"`
	}{title, author, genre}

	var book catalog.Media
	err := c.do(ctx, http.MethodPost, "/books", req, http.StatusCreated, &book)
	return book, err
}

func (c *CatalogClient) AddDVD(ctx context.Context, title, director string, runtime int) (catalog.Media, error) {
	req := struct {
		Title    string `json:"title"`
		Director string `json:"director"`
		Runtime  int    `json:"runtime"`
	}{title, director, runtime}

	var dvd catalog.Media
	err := c.do(ctx, http.MethodPost, "/dvds", req, http.StatusCreated, &dvd)
	return dvd, err
}

func (c *CatalogClient) AddBorrower(ctx context.Context, name, address, contactNumber, email string) (catalog.Borrower, error) {
	req := struct {
		Name          string `json:"name"`
		Address       string `json:"address"`
		ContactNumber string `json:"contact_number"`
		Email         string `json:"email"`
	}{name, address, contactNumber, email}

	var borrower catalog.Borrower
	err := c.do(ctx, http.MethodPost, "/borrowers", req, http.StatusCreated, &borrower)
	return borrower, err
}

// RemoveMedia leaves validating the collection name to the server.
func (c *CatalogClient) RemoveMedia(ctx context.Context, collection catalog.Kind, id string) error {
	if collection == "" {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownCollection, collection)
	}
	path := "/collections/" + url.PathEscape(string(collection)) + "/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, http.StatusNoContent, nil)
}

func (c *CatalogClient) RemoveBorrower(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/borrowers/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

func (c *CatalogClient) Borrow(ctx context.Context, mediaID, borrowerID string) (catalog.BorrowedEvent, error) {
	req := struct {
		BorrowerID string `json:"borrower_id"`
	}{borrowerID}

	var resp catalog.BorrowResponse
	err := c.do(ctx, http.MethodPost, "/media/"+url.PathEscape(mediaID)+"/borrow", req, http.StatusOK, &resp)
	return resp.BorrowedEvent, err
}

func (c *CatalogClient) ReturnMedia(ctx context.Context, mediaID string) (catalog.ReturnedEvent, error) {
	var resp catalog.ReturnResponse
	err := c.do(ctx, http.MethodPost, "/media/"+url.PathEscape(mediaID)+"/return", nil, http.StatusOK, &resp)
	return resp.ReturnedEvent, err
}

func (c *CatalogClient) GetMedia(ctx context.Context, id string) (catalog.Media, error) {
	var media catalog.Media
	err := c.do(ctx, http.MethodGet, "/media/"+url.PathEscape(id), nil, http.StatusOK, &media)
	return media, err
}

func (c *CatalogClient) GetBorrower(ctx context.Context, id string) (catalog.Borrower, error) {
	var borrower catalog.Borrower
	err := c.do(ctx, http.MethodGet, "/borrowers/"+url.PathEscape(id), nil, http.StatusOK, &borrower)
	return borrower, err
}

func (c *CatalogClient) Search(ctx context.Context, keyword string) ([]catalog.Media, error) {
	return c.list(ctx, "/search?q="+url.QueryEscape(keyword))
}

func (c *CatalogClient) ListInventory(ctx context.Context) (catalog.Inventory, error) {
	var inv catalog.Inventory
	err := c.do(ctx, http.MethodGet, "/inventory", nil, http.StatusOK, &inv)
	return inv, err
}

func (c *CatalogClient) ListBorrowers(ctx context.Context) ([]catalog.Borrower, error) {
	var borrowers []catalog.Borrower
	err := c.do(ctx, http.MethodGet, "/borrowers", nil, http.StatusOK, &borrowers)
	return borrowers, err
}

func (c *CatalogClient) ListBorrowed(ctx context.Context) ([]catalog.Media, error) {
	return c.list(ctx, "/media/borrowed")
}

func (c *CatalogClient) ListAvailable(ctx context.Context) ([]catalog.Media, error) {
	return c.list(ctx, "/media/available")
}

func (c *CatalogClient) ListBorrowedBy(ctx context.Context, borrowerID string) ([]catalog.Media, error) {
	return c.list(ctx, "/borrowers/"+url.PathEscape(borrowerID)+"/media")
}

func (c *CatalogClient) ListTitleContaining(ctx context.Context, keyword string) ([]catalog.Media, error) {
	return c.list(ctx, "/media/titles?q="+url.QueryEscape(keyword))
}

func (c *CatalogClient) ListBorrowedLast7Days(ctx context.Context) ([]catalog.Media, error) {
	return c.list(ctx, "/media/recent")
}

func (c *CatalogClient) History(ctx context.Context, mediaID string) ([]eventstore.Event, error) {
	var events []eventstore.Event
	err := c.do(ctx, http.MethodGet, "/media/"+url.PathEscape(mediaID)+"/history", nil, http.StatusOK, &events)
	return events, err
}

func (c *CatalogClient) Journal(ctx context.Context, afterSequence int64, limit int) ([]eventstore.Event, error) {
	q := url.Values{}
	q.Set("after", strconv.FormatInt(afterSequence, 10))
	q.Set("limit", strconv.Itoa(limit))

	var events []eventstore.Event
	err := c.do(ctx, http.MethodGet, "/events?"+q.Encode(), nil, http.StatusOK, &events)
	return events, err
}

func (c *CatalogClient) list(ctx context.Context, path string) ([]catalog.Media, error) {
	var items []catalog.Media
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &items)
	return items, err
}

func (c *CatalogClient) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response back into the catalog sentinel it
// was produced from, when one matches.
func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	msg := payload.Error

	for _, sentinel := range []error{
		catalog.ErrMediaNotFound,
		catalog.ErrBorrowerNotFound,
		catalog.ErrUnknownCollection,
		catalog.ErrInvalidRuntime,
		catalog.ErrInvalidQuery,
	} {
		if strings.HasPrefix(msg, sentinel.Error()) {
			return fmt.Errorf("%w%s", sentinel, strings.TrimPrefix(msg, sentinel.Error()))
		}
	}

	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, msg)
}
