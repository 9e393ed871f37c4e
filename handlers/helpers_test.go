package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Adimad01/Library-Managment-Project/handlers"
	"github.com/Adimad01/Library-Managment-Project/middleware"
	"github.com/Adimad01/Library-Managment-Project/models"
)

const testSecret = "test-secret"

// newTestRouter mounts the real route tree (auth middleware included)
// over the given store.
func newTestRouter(db *memStore) http.Handler {
	logger := zap.NewNop()
	usersHandler := &handlers.UsersHandler{DB: db, JWTSecret: testSecret, Log: logger}
	booksHandler := &handlers.BooksHandler{DB: db, Log: logger, MaxBytes: 10 << 20}
	txnsHandler := &handlers.TransactionsHandler{DB: db, Log: logger}

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", usersHandler.Register)
		r.Post("/login", usersHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(testSecret))
			r.Get("/me", usersHandler.Me)
			r.Put("/me", usersHandler.UpdateMe)
			r.With(middleware.RequireAdmin).Get("/", usersHandler.List)
		})
	})
	r.Route("/books", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(testSecret))
			r.Get("/", booksHandler.List)
			r.Get("/{id}", booksHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", booksHandler.Create)
				r.Put("/{id}", booksHandler.Update)
				r.Delete("/{id}", booksHandler.Delete)
			})
		})
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Use(middleware.Auth(testSecret))
		r.Get("/", txnsHandler.ListMine)
		r.With(middleware.RequireAdmin).Get("/all", txnsHandler.ListAll)
		r.Post("/borrow", txnsHandler.Borrow)
		r.Post("/return", txnsHandler.Return)
	})
	return r
}

func seedUser(t *testing.T, db *memStore, name, email, role string) primitive.ObjectID {
	t.Helper()
	id, err := db.CreateUser(context.Background(), &models.User{
		Name:      name,
		Email:     email,
		Password:  "$2a$10$not-a-real-hash",
		Role:      role,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedBook(t *testing.T, db *memStore, title, isbn string, copies int) primitive.ObjectID {
	t.Helper()
	id, err := db.InsertBook(context.Background(), &models.Book{
		Title:           title,
		Author:          "Test Author",
		ISBN:            isbn,
		CopiesAvailable: copies,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return id
}

// tokenFor signs a bearer token the way the login handler does.
func tokenFor(t *testing.T, userID primitive.ObjectID, role string) string {
	t.Helper()
	now := time.Now()
	claims := &middleware.Claims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}
