package mongo

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/coursehub/marketplace/internal/core/domain"
)

func TestUserDocument_RolesStoredByName(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	u := &domain.User{
		Name:         "alice",
		Email:        "alice@example.com",
		PasswordHash: "digest",
		Roles:        domain.NewRoleSet(domain.RoleTeacher, domain.RoleUser),
		CreatedAt:    now,
	}

	doc := toMongoUser(u)
	if len(doc.Roles) != 2 || doc.Roles[0] != "TEACHER" || doc.Roles[1] != "USER" {
		t.Fatalf("unexpected stored roles: %v", doc.Roles)
	}
	if doc.UpdatedAt != 0 {
		t.Fatalf("zero time must be stored as 0, got %d", doc.UpdatedAt)
	}

	doc.ID = primitive.NewObjectID()
	back, err := doc.toDomain()
	if err != nil {
		t.Fatalf("toDomain returned error: %v", err)
	}
	if back.Roles != u.Roles || back.ID != doc.ID.Hex() || !back.CreatedAt.Equal(now) {
		t.Fatalf("unexpected round trip: %+v", back)
	}
	if !back.UpdatedAt.IsZero() {
		t.Fatalf("expected zero UpdatedAt")
	}
}

func TestUserDocument_LegacyNumericRoles(t *testing.T) {
	doc := mongoUser{ID: primitive.NewObjectID(), Name: "old", Roles: []string{"1", "3"}}
	u, err := doc.toDomain()
	if err != nil {
		t.Fatalf("toDomain returned error: %v", err)
	}
	if u.Roles != domain.NewRoleSet(domain.RoleAdmin, domain.RoleUser) {
		t.Fatalf("unexpected roles: %v", u.Roles)
	}

	doc.Roles = []string{"ROOT"}
	if _, err := doc.toDomain(); !errors.Is(err, domain.ErrInvalidRoles) {
		t.Fatalf("expected ErrInvalidRoles, got %v", err)
	}
}

func TestObjectID_MalformedIsNotFound(t *testing.T) {
	if _, err := objectID("not-hex", domain.ErrCourseNotFound); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex(), domain.ErrCourseNotFound)
	if err != nil || got != oid {
		t.Fatalf("expected %v, got %v %v", oid, got, err)
	}
}

func TestPaymentDocument_ToDomain(t *testing.T) {
	mp := mongoPayment{
		ID:       primitive.NewObjectID(),
		UserID:   "u1",
		CourseID: "c1",
		Amount:   12.5,
		Method:   "stripe",
		Status:   "pending",
	}
	p := mp.toDomain()
	if p.Status != domain.PaymentPending || p.Method != domain.MethodStripe || p.ID != mp.ID.Hex() {
		t.Fatalf("unexpected payment: %+v", p)
	}
}
