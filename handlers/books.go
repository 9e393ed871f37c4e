package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Adimad01/Library-Managment-Project/models"
	"github.com/Adimad01/Library-Managment-Project/service"
	"github.com/Adimad01/Library-Managment-Project/store"
)

const coverPrefix = "covers/"

type BooksHandler struct {
	DB       store.Store
	S3       *service.S3Service
	Log      *zap.Logger
	MaxBytes int64
}

// List returns the whole catalog.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.DB.AllBooks(r.Context())
	if err != nil {
		h.Log.Error("list books", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching books")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid book ID")
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Book not found")
			return
		}
		h.Log.Error("fetch book", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching book")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Create adds a book to the catalog. Admin only. The request is
// multipart so an optional cover image can ride along; the image lands
// in object storage and only its key is persisted.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	author := strings.TrimSpace(r.FormValue("author"))
	isbn := strings.TrimSpace(r.FormValue("isbn"))
	if title == "" || author == "" || isbn == "" {
		writeMessage(w, http.StatusBadRequest, "Title, author, and ISBN are required")
		return
	}
	book := &models.Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		Genre:           strings.TrimSpace(r.FormValue("genre")),
		CopiesAvailable: 1,
		CreatedAt:       time.Now(),
	}
	if v := r.FormValue("publicationYear"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid publication year")
			return
		}
		book.PublicationYear = year
	}
	if v := r.FormValue("copiesAvailable"); v != "" {
		copies, err := strconv.Atoi(v)
		if err != nil || copies < 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid copies available")
			return
		}
		book.CopiesAvailable = copies
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		if h.S3 == nil {
			writeMessage(w, http.StatusServiceUnavailable, "Image upload not configured")
			return
		}
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			writeMessage(w, http.StatusBadRequest, "Cover must be an image")
			return
		}
		key, err := h.S3.Upload(r.Context(), coverPrefix, header.Filename, file, contentType)
		if err != nil {
			h.Log.Error("upload cover", zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, "Failed to store cover image")
			return
		}
		book.CoverImage = key
	}

	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, "A book with this ISBN already exists")
			return
		}
		h.Log.Error("insert book", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to add book")
		return
	}
	book.ID = id
	writeJSON(w, http.StatusCreated, book)
}

type UpdateBookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"isbn"`
	PublicationYear *int    `json:"publicationYear"`
	Genre           *string `json:"genre"`
	CopiesAvailable *int    `json:"copiesAvailable"`
}

// Update patches catalog fields by id. Admin only.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid book ID")
		return
	}
	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CopiesAvailable != nil && *req.CopiesAvailable < 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid copies available")
		return
	}
	book, err := h.DB.UpdateBook(r.Context(), id, store.BookUpdate{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationYear: req.PublicationYear,
		Genre:           req.Genre,
		CopiesAvailable: req.CopiesAvailable,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Book not found")
		case errors.Is(err, store.ErrDuplicate):
			writeMessage(w, http.StatusBadRequest, "A book with this ISBN already exists")
		default:
			h.Log.Error("update book", zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, "Failed to update book")
		}
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Delete removes a book and, best effort, its stored cover image.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid book ID")
		return
	}
	coverImage, err := h.DB.DeleteBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Book not found")
			return
		}
		h.Log.Error("delete book", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while deleting book")
		return
	}
	if coverImage != "" && h.S3 != nil {
		if err := h.S3.Delete(r.Context(), coverImage); err != nil {
			h.Log.Warn("delete cover", zap.String("key", coverImage), zap.Error(err))
		}
	}
	writeMessage(w, http.StatusOK, "Book deleted successfully")
}

// Cover streams the stored cover image. Left unauthenticated so plain
// <img> tags can load it.
func (h *BooksHandler) Cover(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid book ID")
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Book not found")
		return
	}
	if book.CoverImage == "" || h.S3 == nil {
		writeMessage(w, http.StatusNotFound, "No cover image")
		return
	}
	body, contentType, err := h.S3.GetObject(r.Context(), book.CoverImage)
	if err != nil {
		h.Log.Error("load cover", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to load cover image")
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}
