package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowAvailability(t *testing.T) {
	st := NewStore(&Snapshot{Books: []Book{
		{ID: "B1", TotalCopies: 3, AvailableCopies: 3},
		{ID: "B2", TotalCopies: 2, AvailableCopies: 1},
		{ID: "B3", TotalCopies: 0, AvailableCopies: 0},
	}})
	r := NewReports(st)

	ids := func(books []Book) []string {
		out := []string{}
		for _, b := range books {
			out = append(out, b.ID)
		}
		return out
	}
	assert.Equal(t, []string{"B2", "B3"}, ids(r.LowAvailability(1)))
	assert.Equal(t, []string{"B3"}, ids(r.LowAvailability(0)))
	assert.Len(t, r.LowAvailability(3), 3, "threshold is inclusive")
}

func TestOverdue(t *testing.T) {
	returned := date(2024, time.March, 20)
	st := NewStore(&Snapshot{
		Members: []Member{{ID: "M1"}},
		Loans: []Loan{
			{ID: "L1", BookID: "B1", MemberID: "M1", BorrowDate: date(2024, 3, 1), DueDate: date(2024, 3, 15)},
			{ID: "L2", BookID: "B1", MemberID: "M1", BorrowDate: date(2024, 3, 1), DueDate: date(2024, 3, 15), ReturnDate: &returned},
			{ID: "L3", BookID: "B2", MemberID: "M1", BorrowDate: date(2024, 3, 2), DueDate: date(2024, 3, 16)},
		},
	})
	r := NewReports(st)

	assert.Empty(t, r.Overdue(date(2024, 3, 15)), "due today is not overdue")

	// Time of day does not matter.
	late := r.Overdue(time.Date(2024, 3, 16, 23, 59, 0, 0, time.UTC))
	require.Len(t, late, 1)
	assert.Equal(t, "L1", late[0].ID)
	assert.Equal(t, 1, late[0].DaysOverdue(date(2024, 3, 16)))

	assert.Len(t, r.Overdue(date(2024, 4, 1)), 2, "returned loans are never overdue")
}

func TestHistory(t *testing.T) {
	l, cat, clock := newLending(t)
	_, err := cat.AddMember("M2", "Alan", "")
	require.NoError(t, err)

	first, _ := l.Borrow("M1", "B1")
	_, _ = l.Borrow("M2", "B1")
	clock.advance(2)
	_, err = l.GiveBack(first.ID)
	require.NoError(t, err)
	third, _ := l.Borrow("M1", "B1")

	r := NewReports(l.store)
	hist, err := r.History("M1")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, first.ID, hist[0].ID)
	assert.NotNil(t, hist[0].ReturnDate)
	assert.Equal(t, third.ID, hist[1].ID)
	assert.Nil(t, hist[1].ReturnDate)

	hist, err = r.History("M2")
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	_, err = r.History("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
