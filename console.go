package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"library-console/library"
)

// console is the interactive front-end. It collects arguments, calls the
// manager and prints whatever comes back.
type console struct {
	sc       *bufio.Scanner
	out      io.Writer
	mgr      *library.LibraryManager
	prompts  bool
	autosave bool
	width    int
}

func newConsole(in io.Reader, out io.Writer, mgr *library.LibraryManager) *console {
	return &console{
		sc:      bufio.NewScanner(in),
		out:     out,
		mgr:     mgr,
		prompts: true,
		width:   defaultWidth,
	}
}

const helpText = `Available commands:
  Books:        add book, update book, remove book, search books, list books
  Members:      add member, remove member, search members, list members
  Transactions: borrow, return, active loans, all loans
  Reports:      low availability, overdue, history
  System:       save, help, exit (save and quit), abort (quit without saving)`

// run reads commands until exit, abort or end of input. End of input saves
// like exit does.
func (c *console) run() error {
	fmt.Fprintln(c.out, "Welcome to the Library Management System!")
	fmt.Fprintln(c.out, helpText)

	for {
		if c.prompts {
			fmt.Fprint(c.out, "\n> ")
		}
		if !c.sc.Scan() {
			return c.save("Data saved. Goodbye!")
		}
		cmd := strings.ToLower(strings.TrimSpace(c.sc.Text()))

		switch cmd {
		case "":
			continue
		case "add book":
			c.handleAddBook()
		case "update book":
			c.handleUpdateBook()
		case "remove book":
			c.handleRemoveBook()
		case "search books", "search book":
			c.handleSearchBooks()
		case "list books":
			c.handleListBooks()
		case "add member":
			c.handleAddMember()
		case "remove member":
			c.handleRemoveMember()
		case "search members", "search member":
			c.handleSearchMembers()
		case "list members":
			c.handleListMembers()
		case "borrow":
			c.handleBorrow()
		case "return":
			c.handleReturn()
		case "active loans":
			c.handleActiveLoans()
		case "all loans":
			c.handleAllLoans()
		case "low availability":
			c.handleLowAvailability()
		case "overdue":
			c.handleOverdue()
		case "history":
			c.handleHistory()
		case "save":
			_ = c.save("Data saved.")
		case "help":
			fmt.Fprintln(c.out, helpText)
		case "exit":
			if err := c.save("Data saved. Exiting. Goodbye!"); err != nil {
				fmt.Fprintln(c.out, "Fix the problem and try again, or use 'abort' to quit without saving.")
				continue
			}
			return nil
		case "abort":
			fmt.Fprintln(c.out, "Exiting without saving.")
			return nil
		default:
			fmt.Fprintln(c.out, "Unknown command. Type 'help' to see the available commands.")
		}
	}
}

// ask prints prompt (when interactive) and reads one trimmed line.
func (c *console) ask(prompt string) (string, bool) {
	if c.prompts && prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	if !c.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.sc.Text()), true
}

// askInt keeps asking until it reads an integer >= minimum. With allowBlank
// an empty answer yields 0.
func (c *console) askInt(prompt string, minimum int, allowBlank bool) (int, bool) {
	text, ok := c.ask(prompt)
	for ok {
		if text == "" && allowBlank {
			return 0, true
		}
		v, err := strconv.Atoi(text)
		switch {
		case err != nil:
			fmt.Fprint(c.out, "Invalid number. Try again: ")
		case v < minimum:
			fmt.Fprintf(c.out, "Value must be >= %d. Try again: ", minimum)
		default:
			return v, true
		}
		text, ok = c.ask("")
	}
	return 0, false
}

func (c *console) save(success string) error {
	if err := c.mgr.Save(); err != nil {
		fmt.Fprintf(c.out, "Failed to save: %v\n", err)
		return err
	}
	fmt.Fprintln(c.out, success)
	return nil
}

// changed runs after every successful mutation.
func (c *console) changed() {
	if !c.autosave {
		return
	}
	if err := c.mgr.Save(); err != nil {
		fmt.Fprintf(c.out, "Warning: autosave failed: %v\n", err)
	}
}

func (c *console) fail(action string, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		fmt.Fprintf(c.out, "%s: not found (%v)\n", action, err)
	case errors.Is(err, library.ErrConflict):
		fmt.Fprintf(c.out, "%s: already exists (%v)\n", action, err)
	default:
		fmt.Fprintf(c.out, "%s: %v\n", action, err)
	}
}

// ------------------ Books ------------------

func (c *console) handleAddBook() {
	id, ok := c.ask("Book ID (unique): ")
	if !ok {
		return
	}
	if _, err := c.mgr.GetBook(id); err == nil {
		fmt.Fprintf(c.out, "Book with ID %q already exists.\n", id)
		return
	}
	title, ok := c.ask("Title: ")
	if !ok {
		return
	}
	author, ok := c.ask("Author: ")
	if !ok {
		return
	}
	copies, ok := c.askInt("Number of copies: ", 1, false)
	if !ok {
		return
	}

	b, err := c.mgr.AddBook(id, title, author, copies)
	if err != nil {
		c.fail("Error adding book", err)
		return
	}
	fmt.Fprintf(c.out, "Added book %q with %d copies.\n", b.ID, b.TotalCopies)
	c.changed()
}

func (c *console) handleUpdateBook() {
	id, ok := c.ask("Book ID to update: ")
	if !ok {
		return
	}
	b, err := c.mgr.GetBook(id)
	if err != nil {
		c.fail("Error updating book", err)
		return
	}
	fmt.Fprintf(c.out, "Current title: %s | author: %s | total: %d | available: %d\n",
		b.Title, b.Author, b.TotalCopies, b.AvailableCopies)

	title, ok := c.ask("New title (leave blank to keep): ")
	if !ok {
		return
	}
	author, ok := c.ask("New author (leave blank to keep): ")
	if !ok {
		return
	}
	total, ok := c.askInt("New total copies (blank or 0 to keep): ", 0, true)
	if !ok {
		return
	}

	updated, err := c.mgr.UpdateBook(id, library.BookUpdate{Title: title, Author: author, TotalCopies: total})
	if err != nil {
		if errors.Is(err, library.ErrInvalidState) {
			fmt.Fprintf(c.out, "Cannot set total copies below the %d currently lent out. Update aborted.\n", b.LentOut())
			return
		}
		c.fail("Error updating book", err)
		return
	}
	fmt.Fprintf(c.out, "Book updated: %s | %s | total %d | available %d\n",
		updated.Title, updated.Author, updated.TotalCopies, updated.AvailableCopies)
	c.changed()
}

func (c *console) handleRemoveBook() {
	id, ok := c.ask("Book ID to remove: ")
	if !ok {
		return
	}
	if err := c.mgr.RemoveBook(id); err != nil {
		if errors.Is(err, library.ErrInvalidState) {
			fmt.Fprintf(c.out, "Book cannot be removed: %v\n", err)
			return
		}
		c.fail("Error removing book", err)
		return
	}
	fmt.Fprintln(c.out, "Book removed.")
	c.changed()
}

func (c *console) handleSearchBooks() {
	q, ok := c.ask("Search keyword (title/author/id): ")
	if !ok {
		return
	}
	books := c.mgr.SearchBooks(q)
	if len(books) == 0 {
		fmt.Fprintf(c.out, "No books found matching '%s'.\n", q)
		return
	}
	fmt.Fprintf(c.out, "Found %d book(s) matching '%s':\n", len(books), q)
	printBooks(c.out, books, c.width)
}

func (c *console) handleListBooks() {
	books := c.mgr.ListBooks()
	if len(books) == 0 {
		fmt.Fprintln(c.out, "No books in library.")
		return
	}
	printBooks(c.out, books, c.width)
}

// ------------------ Members ------------------

func (c *console) handleAddMember() {
	id, ok := c.ask("Member ID (unique): ")
	if !ok {
		return
	}
	if _, err := c.mgr.GetMember(id); err == nil {
		fmt.Fprintf(c.out, "Member with ID %q already exists.\n", id)
		return
	}
	name, ok := c.ask("Name: ")
	if !ok {
		return
	}
	email, ok := c.ask("Email: ")
	if !ok {
		return
	}

	m, err := c.mgr.AddMember(id, name, email)
	if err != nil {
		c.fail("Error adding member", err)
		return
	}
	fmt.Fprintf(c.out, "Added member '%s' with ID %s\n", m.Name, m.ID)
	c.changed()
}

func (c *console) handleRemoveMember() {
	id, ok := c.ask("Member ID to remove: ")
	if !ok {
		return
	}
	if err := c.mgr.RemoveMember(id); err != nil {
		if errors.Is(err, library.ErrInvalidState) {
			fmt.Fprintln(c.out, "Member has outstanding loans; cannot remove.")
			return
		}
		c.fail("Error removing member", err)
		return
	}
	fmt.Fprintln(c.out, "Member removed.")
	c.changed()
}

func (c *console) handleSearchMembers() {
	q, ok := c.ask("Search keyword (name/id): ")
	if !ok {
		return
	}
	members := c.mgr.SearchMembers(q)
	if len(members) == 0 {
		fmt.Fprintf(c.out, "No members found matching '%s'.\n", q)
		return
	}
	printMembers(c.out, members)
}

func (c *console) handleListMembers() {
	members := c.mgr.ListMembers()
	if len(members) == 0 {
		fmt.Fprintln(c.out, "No members registered.")
		return
	}
	printMembers(c.out, members)
}

// ------------------ Transactions ------------------

func (c *console) handleBorrow() {
	memberID, ok := c.ask("Member ID: ")
	if !ok {
		return
	}
	bookID, ok := c.ask("Book ID: ")
	if !ok {
		return
	}

	loan, err := c.mgr.Borrow(memberID, bookID)
	if err != nil {
		if errors.Is(err, library.ErrInvalidState) {
			fmt.Fprintln(c.out, "No copies available.")
			return
		}
		c.fail("Error borrowing book", err)
		return
	}
	fmt.Fprintf(c.out, "Book borrowed (loan %s). Due date: %s\n", loan.ID, library.FormatDate(loan.DueDate))
	c.changed()
}

func (c *console) handleReturn() {
	q, ok := c.ask("Loan ID or Book ID to return: ")
	if !ok {
		return
	}
	r, err := c.mgr.GiveBack(q)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			fmt.Fprintln(c.out, "No active loan found with that ID or Book ID.")
			return
		}
		c.fail("Error returning book", err)
		return
	}
	fmt.Fprintf(c.out, "Book returned on %s (loan %s).\n", library.FormatDate(*r.Loan.ReturnDate), r.Loan.ID)
	if r.DaysLate > 0 {
		fmt.Fprintf(c.out, "Returned late by %d day(s).\n", r.DaysLate)
	}
	c.changed()
}

func (c *console) handleActiveLoans() {
	loans := c.mgr.ActiveLoans()
	if len(loans) == 0 {
		fmt.Fprintln(c.out, "No active loans.")
		return
	}
	printLoans(c.out, loans)
}

func (c *console) handleAllLoans() {
	loans := c.mgr.AllLoans()
	if len(loans) == 0 {
		fmt.Fprintln(c.out, "No loans yet.")
		return
	}
	printLoans(c.out, loans)
}

// ------------------ Reports ------------------

func (c *console) handleLowAvailability() {
	threshold, ok := c.askInt("Threshold for available copies (e.g., 1): ", 0, false)
	if !ok {
		return
	}
	books := c.mgr.LowAvailability(threshold)
	if len(books) == 0 {
		fmt.Fprintln(c.out, "No books at or below the threshold.")
		return
	}
	printBooks(c.out, books, c.width)
}

func (c *console) handleOverdue() {
	loans := c.mgr.Overdue(c.mgr.Today())
	if len(loans) == 0 {
		fmt.Fprintln(c.out, "No overdue loans.")
		return
	}
	printLoans(c.out, loans)
}

func (c *console) handleHistory() {
	id, ok := c.ask("Member ID: ")
	if !ok {
		return
	}
	loans, err := c.mgr.History(id)
	if err != nil {
		c.fail("Error reading history", err)
		return
	}
	if len(loans) == 0 {
		fmt.Fprintln(c.out, "No loan history for this member.")
		return
	}
	printLoans(c.out, loans)
}
