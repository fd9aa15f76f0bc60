package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

const sharedCollection = "shared_books"

// sharedBookDoc is the stored form of a shared collection record. The share
// code is the document id, which gives code uniqueness for free.
type sharedBookDoc struct {
	Code                 string    `bson:"_id"`
	Name                 string    `bson:"name"`
	WordIDs              []string  `bson:"wordIds"`
	CreatorID            string    `bson:"creatorId"`
	CreatorName          string    `bson:"creatorName"`
	Mode                 string    `bson:"mode"`
	ExpiresAt            time.Time `bson:"expiresAt,omitempty"`
	OriginalCollectionID string    `bson:"originalCollectionId,omitempty"`
	Status               string    `bson:"status"`
	CreatedAt            time.Time `bson:"createdAt"`
}

// NewSharedCollectionRepository wires the shared-book namespace.
func NewSharedCollectionRepository(db *mongo.Database) repository.SharedCollectionRepository {
	return &sharedCollectionRepository{col: db.Collection(sharedCollection)}
}

type sharedCollectionRepository struct {
	col *mongo.Collection
}

func (r *sharedCollectionRepository) FindByCode(ctx context.Context, code string) (*entity.SharedCollection, error) {
	var doc sharedBookDoc
	err := r.col.FindOne(ctx, bson.M{"_id": code}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find shared book: %w", err)
	}

	record := &entity.SharedCollection{
		Code:                 doc.Code,
		Name:                 doc.Name,
		WordIDs:              doc.WordIDs,
		CreatorID:            doc.CreatorID,
		CreatorName:          doc.CreatorName,
		Mode:                 entity.ShareMode(doc.Mode),
		ExpiresAt:            doc.ExpiresAt,
		OriginalCollectionID: doc.OriginalCollectionID,
		Status:               entity.ShareStatus(doc.Status),
		CreatedAt:            doc.CreatedAt,
	}
	if record.WordIDs == nil {
		record.WordIDs = []string{}
	}
	return record, nil
}

func (r *sharedCollectionRepository) Insert(ctx context.Context, record *entity.SharedCollection) error {
	doc := sharedBookDoc{
		Code:                 record.Code,
		Name:                 record.Name,
		WordIDs:              record.WordIDs,
		CreatorID:            record.CreatorID,
		CreatorName:          record.CreatorName,
		Mode:                 string(record.Mode),
		ExpiresAt:            record.ExpiresAt,
		OriginalCollectionID: record.OriginalCollectionID,
		Status:               string(record.Status),
		CreatedAt:            record.CreatedAt,
	}
	if doc.WordIDs == nil {
		doc.WordIDs = []string{}
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert shared book: %w", err)
	}
	return nil
}

func (r *sharedCollectionRepository) UpdateWordIDs(ctx context.Context, code string, wordIDs []string) error {
	if wordIDs == nil {
		wordIDs = []string{}
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": code},
		bson.M{"$set": bson.M{"wordIds": wordIDs}},
	)
	if err != nil {
		return fmt.Errorf("update shared book words: %w", err)
	}
	return nil
}

func (r *sharedCollectionRepository) Delete(ctx context.Context, code string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": code}); err != nil {
		return fmt.Errorf("delete shared book: %w", err)
	}
	return nil
}
