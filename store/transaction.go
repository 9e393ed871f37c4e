package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Adimad01/Library-Managment-Project/models"
)

func (db *DB) CreateTransaction(ctx context.Context, txn *models.Transaction) (primitive.ObjectID, error) {
	res, err := db.Transactions().InsertOne(ctx, txn)
	if err != nil {
		// The partial unique index on (userId, bookId, status=borrowed)
		// rejects a second open loan for the same pair.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) OpenTransaction(ctx context.Context, userID, bookID primitive.ObjectID) (*models.Transaction, error) {
	var txn models.Transaction
	err := db.Transactions().FindOne(ctx, bson.M{
		"userId": userID,
		"bookId": bookID,
		"status": models.StatusBorrowed,
	}).Decode(&txn)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoOpenLoan
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (db *DB) OpenTransactionsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Transaction, error) {
	cur, err := db.Transactions().Find(ctx,
		bson.M{"userId": userID, "status": models.StatusBorrowed},
		options.Find().SetSort(bson.M{"borrowDate": -1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var txns []models.Transaction
	if err := cur.All(ctx, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (db *DB) AllTransactions(ctx context.Context) ([]models.Transaction, error) {
	cur, err := db.Transactions().Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"borrowDate": -1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var txns []models.Transaction
	if err := cur.All(ctx, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// CloseTransaction flips the open loan for (user, book) to returned and
// stamps the actual return time. The status filter makes the transition
// one-way: a returned loan never matches again, so a double return
// reports ErrNoOpenLoan instead of mutating anything.
func (db *DB) CloseTransaction(ctx context.Context, userID, bookID primitive.ObjectID, returnedAt time.Time) (*models.Transaction, error) {
	var txn models.Transaction
	err := db.Transactions().FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "bookId": bookID, "status": models.StatusBorrowed},
		bson.M{"$set": bson.M{"status": models.StatusReturned, "returnDate": returnedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&txn)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoOpenLoan
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
