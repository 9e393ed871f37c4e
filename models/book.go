package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Book struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Author          string             `bson:"author" json:"author"`
	ISBN            string             `bson:"isbn" json:"isbn"`
	CoverImage      string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"` // object key in S3
	PublicationYear int                `bson:"publicationYear,omitempty" json:"publicationYear,omitempty"`
	Genre           string             `bson:"genre,omitempty" json:"genre,omitempty"`
	CopiesAvailable int                `bson:"copiesAvailable" json:"copiesAvailable"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
