package models

import "time"

type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Class struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Subject         string    `json:"subject"`
	LocationID      string    `json:"locationId"`
	TeacherID       string    `json:"teacherId"`
	Capacity        int       `json:"capacity"`
	MonthlyFeeCents int64     `json:"monthlyFeeCents"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusWithdrawn EnrollmentStatus = "withdrawn"
)

type Enrollment struct {
	ID         string           `json:"id"`
	ClassID    string           `json:"classId"`
	StudentID  string           `json:"studentId"`
	Status     EnrollmentStatus `json:"status"`
	EnrolledAt time.Time        `json:"enrolledAt"`
}

// FeeBalance tracks money owed against one enrollment. Amounts are integer
// cents; DueCents only ever grows via charges and PaidCents via payments.
type FeeBalance struct {
	EnrollmentID string    `json:"enrollmentId"`
	DueCents     int64     `json:"dueCents"`
	PaidCents    int64     `json:"paidCents"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (f FeeBalance) OutstandingCents() int64 {
	return f.DueCents - f.PaidCents
}

// Document is the metadata row for a student file held in object storage.
type Document struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	UploaderID  string    `json:"uploaderId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	ObjectKey   string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}
