package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coursehub/marketplace/internal/core/domain"
)

const enrollmentsCollection = "user_courses"

type EnrollmentRepository struct {
	coll *mongo.Collection
}

func NewEnrollmentRepository(db *mongo.Database) *EnrollmentRepository {
	return &EnrollmentRepository{coll: db.Collection(enrollmentsCollection)}
}

type mongoEnrollment struct {
	UserID    string    `bson:"user_id"`
	CourseID  string    `bson:"course_id"`
	PaymentID string    `bson:"payment_id,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (me mongoEnrollment) toDomain() *domain.Enrollment {
	return &domain.Enrollment{
		UserID:    me.UserID,
		CourseID:  me.CourseID,
		PaymentID: me.PaymentID,
		CreatedAt: me.CreatedAt.UTC(),
	}
}

// Grant upserts on (user_id, course_id). The unique index turns a lost race
// into a duplicate key error, which is reported as an existing enrollment.
func (r *EnrollmentRepository) Grant(ctx context.Context, e *domain.Enrollment) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user_id": e.UserID, "course_id": e.CourseID}
	update := bson.M{"$setOnInsert": mongoEnrollment{
		UserID:    e.UserID,
		CourseID:  e.CourseID,
		PaymentID: e.PaymentID,
		CreatedAt: e.CreatedAt.UTC(),
	}}

	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("grant enrollment: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Enrollment, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *EnrollmentRepository) ListAll(ctx context.Context) ([]*domain.Enrollment, error) {
	return r.find(ctx, bson.M{})
}

func (r *EnrollmentRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return n, nil
}

func (r *EnrollmentRepository) find(ctx context.Context, filter bson.M) ([]*domain.Enrollment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find enrollments: %w", err)
	}
	var docs []mongoEnrollment
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode enrollments: %w", err)
	}
	out := make([]*domain.Enrollment, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *EnrollmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "course_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
