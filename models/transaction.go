package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction status values. A transaction only ever moves from
// borrowed to returned.
const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
)

// LoanPeriod is how long a borrowed book may be kept before it is due.
const LoanPeriod = 7 * 24 * time.Hour

type Transaction struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	BookID     primitive.ObjectID `bson:"bookId" json:"bookId"`
	BorrowDate time.Time          `bson:"borrowDate" json:"borrowDate"`
	// ReturnDate is the due date while the loan is open and the actual
	// return time once the status flips to returned.
	ReturnDate time.Time `bson:"returnDate" json:"returnDate"`
	Status     string    `bson:"status" json:"status"`
}

// NewTransaction builds an open loan starting now, due one loan period later.
func NewTransaction(userID, bookID primitive.ObjectID, now time.Time) *Transaction {
	return &Transaction{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: now,
		ReturnDate: now.Add(LoanPeriod),
		Status:     StatusBorrowed,
	}
}
