package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coursehub/marketplace/internal/core/domain"
)

const coursesCollection = "courses"

type CourseRepository struct {
	coll *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{coll: db.Collection(coursesCollection)}
}

type mongoCourse struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Category    string             `bson:"category"`
	StartDate   time.Time          `bson:"start_date"`
	EndDate     time.Time          `bson:"end_date"`
	TeacherID   string             `bson:"teacher_id"`
	VideoURL    string             `bson:"video_url"`
}

func toMongoCourse(c *domain.Course) mongoCourse {
	return mongoCourse{
		Title:       c.Title,
		Description: c.Description,
		Price:       c.Price,
		Category:    c.Category,
		StartDate:   c.StartDate.UTC(),
		EndDate:     c.EndDate.UTC(),
		TeacherID:   c.TeacherID,
		VideoURL:    c.VideoURL,
	}
}

func (mc mongoCourse) toDomain() *domain.Course {
	return &domain.Course{
		ID:          mc.ID.Hex(),
		Title:       mc.Title,
		Description: mc.Description,
		Price:       mc.Price,
		Category:    mc.Category,
		StartDate:   mc.StartDate.UTC(),
		EndDate:     mc.EndDate.UTC(),
		TeacherID:   mc.TeacherID,
		VideoURL:    mc.VideoURL,
	}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoCourse(c)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*domain.Course, error) {
	oid, err := objectID(id, domain.ErrCourseNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoCourse
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return mc.toDomain(), nil
}

func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Course, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*domain.Course{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *CourseRepository) List(ctx context.Context) ([]*domain.Course, error) {
	return r.find(ctx, bson.M{})
}

func (r *CourseRepository) find(ctx context.Context, filter bson.M) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	return decodeCourses(ctx, cur)
}

func (r *CourseRepository) Save(ctx context.Context, c *domain.Course) error {
	oid, err := objectID(c.ID, domain.ErrCourseNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoCourse(c)
	doc.ID = oid
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("replace course: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrCourseNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// Sample picks n courses server side with $sample.
func (r *CourseRepository) Sample(ctx context.Context, n int) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: n}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("sample courses: %w", err)
	}
	return decodeCourses(ctx, cur)
}

func (r *CourseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "teacher_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	return err
}

func decodeCourses(ctx context.Context, cur *mongo.Cursor) ([]*domain.Course, error) {
	var docs []mongoCourse
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	out := make([]*domain.Course, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}
