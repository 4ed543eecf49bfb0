package domain

import "time"

// Course is a listing in the marketplace catalogue.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TeacherID   string    `json:"teacher_id"`
	VideoURL    string    `json:"video_url"`
}

// Enrollment grants a user access to a course.
type Enrollment struct {
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	PaymentID string    `json:"payment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
