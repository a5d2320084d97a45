package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/equiptrack/defect-registry/internal/models"
)

// DefectStore persists defect reports in the "defects" collection.
type DefectStore struct {
	collection *mongo.Collection
}

// NewDefectStore constructs a DefectStore on the given database handle.
func NewDefectStore(db *mongo.Database) *DefectStore {
	return &DefectStore{collection: db.Collection("defects")}
}

// Insert stores a report verbatim. Reports are immutable once written.
func (s *DefectStore) Insert(ctx context.Context, report *models.DefectReport) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, report)
	return err
}

// List returns every report in natural storage order. No pagination; the
// search/display page loads the whole collection.
func (s *DefectStore) List(ctx context.Context) ([]models.DefectReport, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []models.DefectReport{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}
