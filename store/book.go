package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Adimad01/Library-Managment-Project/models"
)

// BookUpdate carries the catalog fields an admin may patch. Nil pointers
// leave the stored value untouched.
type BookUpdate struct {
	Title           *string
	Author          *string
	ISBN            *string
	PublicationYear *int
	Genre           *string
	CopiesAvailable *int
}

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) AllBooks(ctx context.Context) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) BooksByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := db.Books().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, upd BookUpdate) (*models.Book, error) {
	updates := bson.M{}
	if upd.Title != nil {
		updates["title"] = *upd.Title
	}
	if upd.Author != nil {
		updates["author"] = *upd.Author
	}
	if upd.ISBN != nil {
		updates["isbn"] = *upd.ISBN
	}
	if upd.PublicationYear != nil {
		updates["publicationYear"] = *upd.PublicationYear
	}
	if upd.Genre != nil {
		updates["genre"] = *upd.Genre
	}
	if upd.CopiesAvailable != nil {
		updates["copiesAvailable"] = *upd.CopiesAvailable
	}
	if len(updates) == 0 {
		return db.BookByID(ctx, id)
	}
	var book models.Book
	err := db.Books().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book by ID and reports its stored cover image key
// (if any) so the caller can clean up object storage.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (string, error) {
	var book models.Book
	err := db.Books().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return book.CoverImage, nil
}

// BorrowCopy decrements copiesAvailable, but only while at least one copy
// remains. The conditional filter makes check-and-decrement a single
// atomic operation, so concurrent borrows cannot oversell a book.
func (db *DB) BorrowCopy(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Books().UpdateOne(ctx,
		bson.M{"_id": id, "copiesAvailable": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"copiesAvailable": -1}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrNoCopies
	}
	return nil
}

// ReturnCopy puts a copy back on the shelf.
func (db *DB) ReturnCopy(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Books().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"copiesAvailable": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
