// internal/shell/shell.go
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mediashelf/internal/catalog"
)

const menu = `1. Add Book
2. Add DVD
3. Add Borrower
4. Remove Book
5. Remove DVD
6. Remove Borrower
7. Borrow Book/DVD
8. Return Book/DVD
9. Search Media
10. Display Inventory
11. Display Borrowers
12. Display Borrowed Media
13. Display Available Media
14. Display Media Borrowed by a Borrower
15. Display Media with Title Containing Keyword
16. Display Media Borrowed in Last 7 Days
17. Exit
`

const choiceExit = "17"

// Shell runs the interactive catalog menu against a catalog.Service.
type Shell struct {
	service catalog.Service
	in      *bufio.Scanner
	out     io.Writer
	actions map[string]func(context.Context) error
}

func New(service catalog.Service, in io.Reader, out io.Writer) *Shell {
	s := &Shell{
		service: service,
		in:      bufio.NewScanner(in),
		out:     out,
	}
	s.actions = map[string]func(context.Context) error{
		"1":  s.addBook,
		"2":  s.addDVD,
		"3":  s.addBorrower,
		"4":  s.removeMedia(catalog.KindBook, "Enter ID of the book to remove: "),
		"5":  s.removeMedia(catalog.KindDVD, "Enter ID of the DVD to remove: "),
		"6":  s.removeBorrower,
		"7":  s.borrow,
		"8":  s.returnMedia,
		"9":  s.search,
		"10": s.inventory,
		"11": s.borrowers,
		"12": s.listing("Borrowed Media:", s.service.ListBorrowed),
		"13": s.listing("Available Media:", s.service.ListAvailable),
		"14": s.borrowedBy,
		"15": s.titleContaining,
		"16": s.listing("Media Borrowed in Last 7 Days:", s.service.ListBorrowedLast7Days),
	}
	return s
}

// Run shows the menu until the user exits or input ends. It returns nil on
// either, and the first I/O or context error otherwise.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.print(menu)
		choice, err := s.prompt("Enter your choice: ")
		if err != nil {
			return endOfInput(err)
		}
		choice = strings.TrimSpace(choice)
		if choice == choiceExit {
			return nil
		}

		action, ok := s.actions[choice]
		if !ok {
			s.println("Invalid choice. Please try again.")
			continue
		}
		if err := action(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.report(err)
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Shell) addBook(ctx context.Context) error {
	fields, err := s.prompts("Enter book title: ", "Enter author: ", "Enter genre: ")
	if err != nil {
		return err
	}
	if _, err := s.service.AddBook(ctx, fields[0], fields[1], fields[2]); err != nil {
		return err
	}
	s.println("Book added successfully.")
	return nil
}

func (s *Shell) addDVD(ctx context.Context) error {
	fields, err := s.prompts("Enter DVD title: ", "Enter director: ")
	if err != nil {
		return err
	}
	runtime, err := s.promptRuntime()
	if err != nil {
		return err
	}
	if _, err := s.service.AddDVD(ctx, fields[0], fields[1], runtime); err != nil {
		return err
	}
	s.println("DVD added successfully.")
	return nil
}

// promptRuntime re-prompts until the input parses as a positive integer.
func (s *Shell) promptRuntime() (int, error) {
	line, err := s.prompt("Enter runtime (in minutes): ")
	for err == nil {
		if runtime, convErr := strconv.Atoi(strings.TrimSpace(line)); convErr == nil && runtime > 0 {
			return runtime, nil
		}
		line, err = s.prompt("Invalid input. Enter a valid runtime (in minutes): ")
	}
	return 0, err
}

func (s *Shell) addBorrower(ctx context.Context) error {
	fields, err := s.prompts("Enter borrower name: ", "Enter address: ", "Enter contact number: ", "Enter email: ")
	if err != nil {
		return err
	}
	borrower, err := s.service.AddBorrower(ctx, fields[0], fields[1], fields[2], fields[3])
	if err != nil {
		return err
	}
	s.printf("Borrower added successfully. ID: %s\n", borrower.ID)
	return nil
}

func (s *Shell) removeMedia(kind catalog.Kind, label string) func(context.Context) error {
	return func(ctx context.Context) error {
		id, err := s.prompt(label)
		if err != nil {
			return err
		}
		if err := s.service.RemoveMedia(ctx, kind, id); err != nil {
			return err
		}
		s.println("Media item removed successfully.")
		return nil
	}
}

func (s *Shell) removeBorrower(ctx context.Context) error {
	id, err := s.prompt("Enter ID of the borrower to remove: ")
	if err != nil {
		return err
	}
	if err := s.service.RemoveBorrower(ctx, id); err != nil {
		return err
	}
	s.println("Borrower removed successfully.")
	return nil
}

func (s *Shell) borrow(ctx context.Context) error {
	mediaID, err := s.prompt("Enter ID of the media item to borrow: ")
	if err != nil {
		return err
	}
	// The borrower is only asked for once the item is known to exist.
	if _, err := s.service.GetMedia(ctx, mediaID); err != nil {
		return err
	}
	borrowerID, err := s.prompt("Enter ID of the borrower: ")
	if err != nil {
		return err
	}
	event, err := s.service.Borrow(ctx, mediaID, borrowerID)
	if err != nil {
		return err
	}
	s.println(event.String())
	return nil
}

func (s *Shell) returnMedia(ctx context.Context) error {
	id, err := s.prompt("Enter ID of the media item to return: ")
	if err != nil {
		return err
	}
	event, err := s.service.ReturnMedia(ctx, id)
	if err != nil {
		return err
	}
	s.println(event.String())
	return nil
}

func (s *Shell) search(ctx context.Context) error {
	keyword, err := s.prompt("Enter search keyword: ")
	if err != nil {
		return err
	}
	results, err := s.service.Search(ctx, keyword)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		s.println("No media found matching the search criteria.")
		return nil
	}

	s.println("Search results:")
	for _, m := range results {
		switch m.Kind {
		case catalog.KindBook:
			s.printf("Book: %s by %s\n", m.Title, m.Book.Author)
		case catalog.KindDVD:
			s.printf("DVD: %s directed by %s\n", m.Title, m.DVD.Director)
		}
	}
	return nil
}

func (s *Shell) inventory(ctx context.Context) error {
	inv, err := s.service.ListInventory(ctx)
	if err != nil {
		return err
	}

	s.println("Books:")
	for _, b := range inv.Books {
		s.printf("ID: %s, Title: %s, Author: %s, Genre: %s, Availability: %s\n",
			b.ID, b.Title, b.Book.Author, b.Book.Genre, availability(b))
	}
	s.println("\nDVDs:")
	for _, d := range inv.DVDs {
		s.printf("ID: %s, Title: %s, Director: %s, Runtime: %d minutes, Availability: %s\n",
			d.ID, d.Title, d.DVD.Director, d.DVD.Runtime, availability(d))
	}
	return nil
}

func availability(m catalog.Media) string {
	if m.IsBorrowed {
		return "Not Available"
	}
	return "Available"
}

func (s *Shell) borrowers(ctx context.Context) error {
	borrowers, err := s.service.ListBorrowers(ctx)
	if err != nil {
		return err
	}
	s.println("Borrowers:")
	for _, b := range borrowers {
		s.printf("ID: %s, Name: %s, Address: %s, Contact: %s, Email: %s\n",
			b.ID, b.Name, b.Address, b.ContactNumber, b.Email)
	}
	return nil
}

func (s *Shell) borrowedBy(ctx context.Context) error {
	id, err := s.prompt("Enter ID of the borrower: ")
	if err != nil {
		return err
	}
	items, err := s.service.ListBorrowedBy(ctx, id)
	if err != nil {
		return err
	}
	s.printTitles(fmt.Sprintf("Media Borrowed by Borrower (ID: %s):", id), items)
	return nil
}

func (s *Shell) titleContaining(ctx context.Context) error {
	keyword, err := s.prompt("Enter keyword to search titles: ")
	if err != nil {
		return err
	}
	items, err := s.service.ListTitleContaining(ctx, keyword)
	if err != nil {
		return err
	}
	s.printTitles(fmt.Sprintf("Media with Titles Containing Keyword \"%s\":", keyword), items)
	return nil
}

func (s *Shell) listing(header string, list func(context.Context) ([]catalog.Media, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		items, err := list(ctx)
		if err != nil {
			return err
		}
		s.printTitles(header, items)
		return nil
	}
}

func (s *Shell) printTitles(header string, items []catalog.Media) {
	s.println(header)
	for _, m := range items {
		s.printf("%s: %s\n", m.Kind.Label(), m.Title)
	}
}

// report prints the user-facing message for a failed action.
func (s *Shell) report(err error) {
	switch {
	case errors.Is(err, catalog.ErrMediaNotFound):
		s.println("Media item not found.")
	case errors.Is(err, catalog.ErrBorrowerNotFound):
		s.println("Borrower not found.")
	default:
		s.printf("Error: %v\n", err)
	}
}

func (s *Shell) prompt(label string) (string, error) {
	s.print(label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSuffix(s.in.Text(), "\r"), nil
}

func (s *Shell) prompts(labels ...string) ([]string, error) {
	values := make([]string, 0, len(labels))
	for _, label := range labels {
		v, err := s.prompt(label)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (s *Shell) print(a string)                 { fmt.Fprint(s.out, a) }
func (s *Shell) println(a string)               { fmt.Fprintln(s.out, a) }
func (s *Shell) printf(format string, a ...any) { fmt.Fprintf(s.out, format, a...) }
