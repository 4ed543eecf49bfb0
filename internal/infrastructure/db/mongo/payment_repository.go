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

const paymentsCollection = "payments"

type PaymentRepository struct {
	coll *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{coll: db.Collection(paymentsCollection)}
}

type mongoPayment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	CourseID    string             `bson:"course_id"`
	Amount      float64            `bson:"amount"`
	Currency    string             `bson:"currency"`
	Method      string             `bson:"payment_method"`
	Status      string             `bson:"status"`
	GatewayRef  string             `bson:"gateway_ref,omitempty"`
	PaymentDate time.Time          `bson:"payment_date"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (mp mongoPayment) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:          mp.ID.Hex(),
		UserID:      mp.UserID,
		CourseID:    mp.CourseID,
		Amount:      mp.Amount,
		Currency:    mp.Currency,
		Method:      domain.PaymentMethod(mp.Method),
		Status:      domain.PaymentStatus(mp.Status),
		GatewayRef:  mp.GatewayRef,
		PaymentDate: mp.PaymentDate.UTC(),
		UpdatedAt:   mp.UpdatedAt.UTC(),
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoPayment{
		UserID:      p.UserID,
		CourseID:    p.CourseID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Method:      string(p.Method),
		Status:      string(p.Status),
		GatewayRef:  p.GatewayRef,
		PaymentDate: p.PaymentDate.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	oid, err := objectID(id, domain.ErrPaymentNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoPayment
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return mp.toDomain(), nil
}

// UpdateStatus filters on the current status so concurrent updates cannot
// both leave pending.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.PaymentStatus, at time.Time) (*domain.Payment, error) {
	oid, err := objectID(id, domain.ErrPaymentNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "status": string(from)}
	update := bson.M{"$set": bson.M{"status": string(to), "updated_at": at.UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mp mongoPayment
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mp)
	if err == nil {
		return mp.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update payment status: %w", err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("count payment: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrPaymentNotFound
	}
	return nil, domain.ErrInvalidTransition
}

func (r *PaymentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "gateway_ref", Value: 1}}},
	})
	return err
}
