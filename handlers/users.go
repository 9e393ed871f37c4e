package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Adimad01/Library-Managment-Project/middleware"
	"github.com/Adimad01/Library-Managment-Project/models"
	"github.com/Adimad01/Library-Managment-Project/store"
)

const tokenTTL = time.Hour

type UsersHandler struct {
	DB        store.Store
	JWTSecret string
	Log       *zap.Logger
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// ProfileResponse is the caller's own profile with the borrowed book
// references expanded to full catalog records.
type ProfileResponse struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Role          string        `json:"role"`
	Phone         string        `json:"phone,omitempty"`
	Categories    []string      `json:"categories,omitempty"`
	BorrowedBooks []models.Book `json:"borrowedBooks"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// UserSummary is what admins see when listing accounts.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register creates an account. Name, email and password are required;
// role defaults to user unless explicitly admin.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Name, email, and password are required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error registering user")
		return
	}
	user := &models.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hash),
		Role:      models.NormalizeRole(req.Role),
		CreatedAt: time.Now(),
	}
	if _, err := h.DB.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, "Email already exists")
			return
		}
		h.Log.Error("create user", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error registering user")
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

// Login checks credentials and issues a one-hour bearer token. Unknown
// email and wrong password produce the same response so the caller
// cannot tell which one failed.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.Log.Error("login lookup", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error during login")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := h.createToken(user)
	if err != nil {
		h.Log.Error("sign token", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error during login")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{AccessToken: token})
}

func (h *UsersHandler) createToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &middleware.Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}

// Me returns the caller's profile with borrowed books expanded.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized: No user data found.")
		return
	}
	user, err := h.DB.UserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		h.Log.Error("fetch user", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching user")
		return
	}
	books, err := h.DB.BooksByIDs(r.Context(), user.BorrowedBooks)
	if err != nil {
		h.Log.Error("expand borrowed books", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching user")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		ID:            user.ID.Hex(),
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		Phone:         user.Phone,
		Categories:    user.Categories,
		BorrowedBooks: books,
		CreatedAt:     user.CreatedAt,
	})
}

type UpdateProfileRequest struct {
	Name       *string   `json:"name"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	Categories *[]string `json:"categories"`
}

// UpdateMe replaces the caller's name/email/phone/categories.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized: No user data found.")
		return
	}
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	upd := store.ProfileUpdate{
		Name:       req.Name,
		Phone:      req.Phone,
		Categories: req.Categories,
	}
	if req.Email != nil {
		e := strings.TrimSpace(strings.ToLower(*req.Email))
		if e == "" {
			writeMessage(w, http.StatusBadRequest, "Email cannot be empty")
			return
		}
		upd.Email = &e
	}
	user, err := h.DB.UpdateUserProfile(r.Context(), userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "User not found")
		case errors.Is(err, store.ErrDuplicate):
			writeMessage(w, http.StatusBadRequest, "Email already exists")
		default:
			h.Log.Error("update profile", zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// List returns every account's name and email. Admin only.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers(r.Context())
	if err != nil {
		h.Log.Error("list users", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Server error while fetching users")
		return
	}
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, UserSummary{Name: users[i].Name, Email: users[i].Email})
	}
	writeJSON(w, http.StatusOK, out)
}
