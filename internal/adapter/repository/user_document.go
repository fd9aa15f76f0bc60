package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

const userCollection = "users"

// userDocument mirrors LearningState with the field names the replicated
// slices are keyed by, so a slice patch maps to exactly one document field.
type userDocument struct {
	UserID              string              `bson:"_id"`
	StarredWords        []string            `bson:"starredWords"`
	MasteredWords       []string            `bson:"masteredWords"`
	DailyProgress       map[string][]string `bson:"dailyProgress"`
	CustomBooks         []collectionDoc     `bson:"customBooks"`
	StreakData          streakDoc           `bson:"streakData"`
	PlacementTestResult *placementDoc       `bson:"placementTestResult,omitempty"`
	FCMToken            string              `bson:"fcmToken,omitempty"`
	UpdatedAt           time.Time           `bson:"updatedAt"`
}

type collectionDoc struct {
	ID                   string          `bson:"id"`
	Name                 string          `bson:"name"`
	WordIDs              []string        `bson:"wordIds"`
	CreatorID            string          `bson:"creatorId,omitempty"`
	CreatorName          string          `bson:"creatorName,omitempty"`
	ExportInfo           *exportInfoDoc  `bson:"exportInfo,omitempty"`
	CoeditCode           string          `bson:"coeditCode,omitempty"`
	OriginalCode         string          `bson:"originalCode,omitempty"`
	OriginalCollectionID string          `bson:"originalCollectionId,omitempty"`
}

type exportInfoDoc struct {
	Code      string    `bson:"code"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

type streakDoc struct {
	Count          int    `bson:"count"`
	LastActiveDate string `bson:"lastActiveDate"`
	MaxCount       int    `bson:"maxCount"`
}

type placementDoc struct {
	Level   string    `bson:"level"`
	Score   int       `bson:"score"`
	TakenAt time.Time `bson:"takenAt"`
}

// NewUserDocumentRepository wires the per-user document collection.
func NewUserDocumentRepository(db *mongo.Database) repository.UserDocumentRepository {
	return &userDocumentRepository{col: db.Collection(userCollection)}
}

type userDocumentRepository struct {
	col *mongo.Collection
}

func (r *userDocumentRepository) Fetch(ctx context.Context, userID string) (*entity.LearningState, error) {
	var doc userDocument
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user document: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *userDocumentRepository) Publish(ctx context.Context, userID string, state *entity.LearningState) error {
	update := bson.M{}
	for _, slice := range entity.Slices {
		update[string(slice)] = documentSliceValue(slice, state)
	}
	update["updatedAt"] = time.Now()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": update},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("publish user document: %w", err)
	}
	return nil
}

func (r *userDocumentRepository) PatchSlice(ctx context.Context, userID string, slice entity.Slice, state *entity.LearningState) error {
	if !entity.KnownSlice(slice) {
		return fmt.Errorf("%w: %q", entity.ErrUnknownSlice, slice)
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			string(slice): documentSliceValue(slice, state),
			"updatedAt":   time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("patch slice %s: %w", slice, err)
	}
	return nil
}

func documentSliceValue(slice entity.Slice, state *entity.LearningState) any {
	switch slice {
	case entity.SliceStarred:
		return state.StarredWordIDs
	case entity.SliceMastered:
		return state.MasteredWordIDs
	case entity.SliceDailyProgress:
		return state.DailyProgress
	case entity.SliceCollections:
		docs := make([]collectionDoc, 0, len(state.Collections))
		for _, c := range state.Collections {
			docs = append(docs, toCollectionDoc(c))
		}
		return docs
	case entity.SliceStreak:
		return streakDoc(state.Streak)
	case entity.SlicePlacement:
		if state.Placement == nil {
			return nil
		}
		return &placementDoc{
			Level:   string(state.Placement.Level),
			Score:   state.Placement.Score,
			TakenAt: state.Placement.TakenAt,
		}
	case entity.SlicePushToken:
		return state.PushToken
	}
	return nil
}

func toCollectionDoc(c entity.Collection) collectionDoc {
	doc := collectionDoc{
		ID:                   c.ID,
		Name:                 c.Name,
		WordIDs:              c.WordIDs,
		CreatorID:            c.CreatorID,
		CreatorName:          c.CreatorName,
		CoeditCode:           c.CoeditCode,
		OriginalCode:         c.OriginalCode,
		OriginalCollectionID: c.OriginalCollectionID,
	}
	if doc.WordIDs == nil {
		doc.WordIDs = []string{}
	}
	if c.ExportInfo != nil {
		doc.ExportInfo = &exportInfoDoc{Code: c.ExportInfo.Code, ExpiresAt: c.ExportInfo.ExpiresAt}
	}
	return doc
}

func (d *userDocument) toEntity() *entity.LearningState {
	state := &entity.LearningState{
		StarredWordIDs:  d.StarredWords,
		MasteredWordIDs: d.MasteredWords,
		DailyProgress:   d.DailyProgress,
		Streak:          entity.Streak(d.StreakData),
		PushToken:       d.FCMToken,
	}
	for _, doc := range d.CustomBooks {
		c := entity.Collection{
			ID:                   doc.ID,
			Name:                 doc.Name,
			WordIDs:              doc.WordIDs,
			CreatorID:            doc.CreatorID,
			CreatorName:          doc.CreatorName,
			CoeditCode:           doc.CoeditCode,
			OriginalCode:         doc.OriginalCode,
			OriginalCollectionID: doc.OriginalCollectionID,
		}
		if doc.ExportInfo != nil {
			c.ExportInfo = &entity.ExportInfo{Code: doc.ExportInfo.Code, ExpiresAt: doc.ExportInfo.ExpiresAt}
		}
		state.Collections = append(state.Collections, c)
	}
	if d.PlacementTestResult != nil {
		state.Placement = &entity.PlacementResult{
			Level:   entity.PlacementLevel(d.PlacementTestResult.Level),
			Score:   d.PlacementTestResult.Score,
			TakenAt: d.PlacementTestResult.TakenAt,
		}
	}
	state.Normalize()
	return state
}
