package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Adimad01/Library-Managment-Project/middleware"
	"github.com/Adimad01/Library-Managment-Project/models"
	"github.com/Adimad01/Library-Managment-Project/store"
)

type TransactionsHandler struct {
	DB  store.Store
	Log *zap.Logger
}

type BorrowRequest struct {
	BookID string `json:"bookId"`
}

// BookSummary is the slice of a book shown inside transaction listings.
type BookSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"coverImage,omitempty"`
}

// TransactionView is a transaction with its references resolved.
type TransactionView struct {
	ID         string       `json:"id"`
	User       *UserSummary `json:"user,omitempty"`
	Book       *BookSummary `json:"book,omitempty"`
	BorrowDate time.Time    `json:"borrowDate"`
	ReturnDate time.Time    `json:"returnDate"`
	Status     string       `json:"status"`
}

type TransactionResponse struct {
	Message     string              `json:"message"`
	Transaction *models.Transaction `json:"transaction"`
}

// Borrow lends a copy of the requested book to the caller. The
// availability check and the decrement are one conditional update, so two
// racing borrows of the last copy cannot both succeed; the loser gets the
// same answer as an empty shelf. If the transaction insert fails after
// the decrement, the copy is handed back.
func (h *TransactionsHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized: No user data found.")
		return
	}
	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	bookID, err := primitive.ObjectIDFromHex(req.BookID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	if _, err := h.DB.OpenTransaction(r.Context(), userID, bookID); err == nil {
		writeMessage(w, http.StatusBadRequest, "Book already borrowed")
		return
	} else if !errors.Is(err, store.ErrNoOpenLoan) {
		h.Log.Error("check open loan", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while borrowing book")
		return
	}

	if err := h.DB.BorrowCopy(r.Context(), bookID); err != nil {
		if errors.Is(err, store.ErrNoCopies) || errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusBadRequest, "Book not available for borrowing")
			return
		}
		h.Log.Error("borrow copy", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while borrowing book")
		return
	}

	txn := models.NewTransaction(userID, bookID, time.Now())
	id, err := h.DB.CreateTransaction(r.Context(), txn)
	if err != nil {
		// Put the copy back; without it the decrement would leak.
		if rbErr := h.DB.ReturnCopy(r.Context(), bookID); rbErr != nil {
			h.Log.Error("rollback borrow", zap.Error(rbErr))
		}
		if errors.Is(err, store.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, "Book already borrowed")
			return
		}
		h.Log.Error("create transaction", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while borrowing book")
		return
	}
	txn.ID = id

	if err := h.DB.AddBorrowedBook(r.Context(), userID, bookID); err != nil {
		h.Log.Warn("record borrowed book on user", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, TransactionResponse{
		Message:     "Book borrowed successfully",
		Transaction: txn,
	})
}

// Return closes the caller's open loan for the book. The status filter in
// CloseTransaction makes the borrowed→returned transition one-way, so a
// second return reports no active loan instead of incrementing twice.
func (h *TransactionsHandler) Return(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized: No user data found.")
		return
	}
	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	bookID, err := primitive.ObjectIDFromHex(req.BookID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid book ID")
		return
	}

	txn, err := h.DB.CloseTransaction(r.Context(), userID, bookID, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNoOpenLoan) {
			writeMessage(w, http.StatusBadRequest, "No active borrow transaction found for this book")
			return
		}
		h.Log.Error("close transaction", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while returning book")
		return
	}

	if err := h.DB.ReturnCopy(r.Context(), bookID); err != nil {
		h.Log.Error("return copy", zap.Error(err))
	}
	if err := h.DB.RemoveBorrowedBook(r.Context(), userID, bookID); err != nil {
		h.Log.Warn("remove borrowed book from user", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, TransactionResponse{
		Message:     "Book returned successfully",
		Transaction: txn,
	})
}

// ListMine returns the caller's open loans with book summaries attached.
func (h *TransactionsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized: No user data found.")
		return
	}
	txns, err := h.DB.OpenTransactionsByUser(r.Context(), userID)
	if err != nil {
		h.Log.Error("list transactions", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching transactions")
		return
	}
	views, err := h.expand(r, txns, false)
	if err != nil {
		h.Log.Error("expand transactions", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching transactions")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ListAll returns every transaction with user and book summaries. Admin only.
func (h *TransactionsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	txns, err := h.DB.AllTransactions(r.Context())
	if err != nil {
		h.Log.Error("list all transactions", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching transactions")
		return
	}
	views, err := h.expand(r, txns, true)
	if err != nil {
		h.Log.Error("expand transactions", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching transactions")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// expand resolves the user/book references on a batch of transactions.
// Books are fetched in one $in query; users individually, since admin
// listings are rare. Dangling references are left nil rather than
// failing the whole listing.
func (h *TransactionsHandler) expand(r *http.Request, txns []models.Transaction, withUsers bool) ([]TransactionView, error) {
	ids := make([]primitive.ObjectID, 0, len(txns))
	seen := make(map[primitive.ObjectID]bool, len(txns))
	for i := range txns {
		if !seen[txns[i].BookID] {
			seen[txns[i].BookID] = true
			ids = append(ids, txns[i].BookID)
		}
	}
	books, err := h.DB.BooksByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}

	users := make(map[primitive.ObjectID]*models.User)
	if withUsers {
		for i := range txns {
			uid := txns[i].UserID
			if _, ok := users[uid]; ok {
				continue
			}
			u, err := h.DB.UserByID(r.Context(), uid)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			users[uid] = u
		}
	}

	views := make([]TransactionView, 0, len(txns))
	for i := range txns {
		t := &txns[i]
		v := TransactionView{
			ID:         t.ID.Hex(),
			BorrowDate: t.BorrowDate,
			ReturnDate: t.ReturnDate,
			Status:     t.Status,
		}
		if b := byID[t.BookID]; b != nil {
			v.Book = &BookSummary{
				ID:         b.ID.Hex(),
				Title:      b.Title,
				Author:     b.Author,
				CoverImage: b.CoverImage,
			}
		}
		if withUsers {
			if u := users[t.UserID]; u != nil {
				v.User = &UserSummary{Name: u.Name, Email: u.Email}
			}
		}
		views = append(views, v)
	}
	return views, nil
}
