package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Adimad01/Library-Managment-Project/models"
)

// Sentinel errors handlers translate into HTTP status codes.
var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrNoCopies means the conditional decrement matched no document:
	// either the book does not exist or no copies are available.
	ErrNoCopies = errors.New("store: no copies available")
	// ErrNoOpenLoan means no borrowed transaction exists for the (user, book) pair.
	ErrNoOpenLoan = errors.New("store: no open loan")
)

// Store is the typed repository surface the handlers work against.
type Store interface {
	// users
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	AddBorrowedBook(ctx context.Context, userID, bookID primitive.ObjectID) error
	RemoveBorrowedBook(ctx context.Context, userID, bookID primitive.ObjectID) error

	// books
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	AllBooks(ctx context.Context) ([]models.Book, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error)
	UpdateBook(ctx context.Context, id primitive.ObjectID, upd BookUpdate) (*models.Book, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) (coverImage string, err error)
	BorrowCopy(ctx context.Context, id primitive.ObjectID) error
	ReturnCopy(ctx context.Context, id primitive.ObjectID) error

	// transactions
	CreateTransaction(ctx context.Context, txn *models.Transaction) (primitive.ObjectID, error)
	OpenTransaction(ctx context.Context, userID, bookID primitive.ObjectID) (*models.Transaction, error)
	OpenTransactionsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Transaction, error)
	AllTransactions(ctx context.Context) ([]models.Transaction, error)
	CloseTransaction(ctx context.Context, userID, bookID primitive.ObjectID, returnedAt time.Time) (*models.Transaction, error)
}

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var _ Store = (*DB)(nil)

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection("books")
}

func (db *DB) Transactions() *mongo.Collection {
	return db.Database.Collection("transactions")
}

// EnsureIndexes creates the uniqueness constraints the service relies on:
// one account per email, one catalog entry per ISBN, and at most one open
// loan per (user, book) pair.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Books().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "isbn", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Transactions().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "bookId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": models.StatusBorrowed}),
	})
	return err
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
