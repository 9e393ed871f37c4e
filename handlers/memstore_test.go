package handlers_test

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Adimad01/Library-Managment-Project/models"
	"github.com/Adimad01/Library-Managment-Project/store"
)

// memStore is an in-memory store.Store with the same atomicity guarantees
// as the Mongo implementation: check-and-decrement and the status flip
// each happen under one lock acquisition.
type memStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
	books map[primitive.ObjectID]*models.Book
	txns  map[primitive.ObjectID]*models.Transaction
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users: make(map[primitive.ObjectID]*models.User),
		books: make(map[primitive.ObjectID]*models.Book),
		txns:  make(map[primitive.ObjectID]*models.Transaction),
	}
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	cp := *user
	cp.ID = id
	m.users[id] = &cp
	return id, nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateUserProfile(_ context.Context, id primitive.ObjectID, upd store.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Email != nil {
		for oid, other := range m.users {
			if oid != id && other.Email == *upd.Email {
				return nil, store.ErrDuplicate
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.Categories != nil {
		u.Categories = *upd.Categories
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) AddBorrowedBook(_ context.Context, userID, bookID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range u.BorrowedBooks {
		if id == bookID {
			return nil
		}
	}
	u.BorrowedBooks = append(u.BorrowedBooks, bookID)
	return nil
}

func (m *memStore) RemoveBorrowedBook(_ context.Context, userID, bookID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for i, id := range u.BorrowedBooks {
		if id == bookID {
			u.BorrowedBooks = append(u.BorrowedBooks[:i], u.BorrowedBooks[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) InsertBook(_ context.Context, book *models.Book) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ISBN == book.ISBN {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	cp := *book
	cp.ID = id
	m.books[id] = &cp
	return id, nil
}

func (m *memStore) AllBooks(_ context.Context) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, *b)
	}
	return out, nil
}

func (m *memStore) BookByID(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) BooksByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Book
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memStore) UpdateBook(_ context.Context, id primitive.ObjectID, upd store.BookUpdate) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.ISBN != nil {
		b.ISBN = *upd.ISBN
	}
	if upd.PublicationYear != nil {
		b.PublicationYear = *upd.PublicationYear
	}
	if upd.Genre != nil {
		b.Genre = *upd.Genre
	}
	if upd.CopiesAvailable != nil {
		b.CopiesAvailable = *upd.CopiesAvailable
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) DeleteBook(_ context.Context, id primitive.ObjectID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(m.books, id)
	return b.CoverImage, nil
}

func (m *memStore) BorrowCopy(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok || b.CopiesAvailable <= 0 {
		return store.ErrNoCopies
	}
	b.CopiesAvailable--
	return nil
}

func (m *memStore) ReturnCopy(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return store.ErrNotFound
	}
	b.CopiesAvailable++
	return nil
}

func (m *memStore) CreateTransaction(_ context.Context, txn *models.Transaction) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.UserID == txn.UserID && t.BookID == txn.BookID && t.Status == models.StatusBorrowed {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	cp := *txn
	cp.ID = id
	m.txns[id] = &cp
	return id, nil
}

func (m *memStore) OpenTransaction(_ context.Context, userID, bookID primitive.ObjectID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.UserID == userID && t.BookID == bookID && t.Status == models.StatusBorrowed {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNoOpenLoan
}

func (m *memStore) OpenTransactionsByUser(_ context.Context, userID primitive.ObjectID) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, t := range m.txns {
		if t.UserID == userID && t.Status == models.StatusBorrowed {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) AllTransactions(_ context.Context) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Transaction, 0, len(m.txns))
	for _, t := range m.txns {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) CloseTransaction(_ context.Context, userID, bookID primitive.ObjectID, returnedAt time.Time) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.UserID == userID && t.BookID == bookID && t.Status == models.StatusBorrowed {
			t.Status = models.StatusReturned
			t.ReturnDate = returnedAt
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNoOpenLoan
}
