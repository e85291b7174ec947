package course

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lms/models"
)

// Domain errors surfaced by enrollment state transitions. The HTTP layer maps
// them onto response codes.
var (
	ErrCertificateState  = errors.New("course not completed or certificate already issued")
	ErrRefundRequested   = errors.New("refund already requested")
	ErrReviewGiven       = errors.New("review already submitted")
	ErrConcurrentUpdate  = errors.New("enrollment was modified concurrently")
	ErrInvalidRefundStep = errors.New("invalid refund status")
)

// Enrollment tracks one student's purchase of and progress in one course.
// Payment, certificate, rating and refund sub-records are flattened onto the
// row; derived fields are recomputed on read and never stored.
type Enrollment struct {
	gorm.Model
	UserID       uint `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID     uint `json:"course_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	InstructorID uint `json:"instructor_id" gorm:"index"` // copied from the course at enrollment time

	Status            string     `json:"status" gorm:"default:'active'"` // active, completed, cancelled
	Progress          int        `json:"progress" gorm:"default:0"`      // completion percentage (0-100)
	CompletedLectures int        `json:"completed_lectures" gorm:"default:0"`
	TotalLectures     int        `json:"total_lectures" gorm:"default:0"`
	CompletedAt       *time.Time `json:"completed_at"`
	LastAccessedAt    *time.Time `json:"last_accessed_at"`

	// Payment sub-record, settled upstream before enrollment
	PaymentAmount   float64        `json:"payment_amount"`
	PaymentCurrency string         `json:"payment_currency" gorm:"default:'USD'"`
	PaymentMethod   string         `json:"payment_method"`
	TransactionID   string         `json:"transaction_id" gorm:"not null"`
	PaymentStatus   string         `json:"payment_status" gorm:"default:'completed'"`
	PaidAt          *time.Time     `json:"paid_at"`
	ReceiptNumber   string         `json:"receipt_number"`
	GatewayReceipt  datatypes.JSON `json:"-"`

	// Certificate sub-record
	CertificateIssued   bool       `json:"certificate_issued" gorm:"default:false"`
	CertificateID       string     `json:"certificate_id" gorm:"index"`
	CertificateIssuedAt *time.Time `json:"certificate_issued_at"`
	CertificateURL      string     `json:"certificate_url"`

	// Rating sub-record, at most one per enrollment
	RatingGiven bool       `json:"rating_given" gorm:"default:false"`
	Rating      int        `json:"rating"`
	Review      string     `json:"review" gorm:"type:text"`
	RatedAt     *time.Time `json:"rated_at"`

	// Refund sub-record
	RefundRequested   bool       `json:"refund_requested" gorm:"default:false"`
	RefundReason      string     `json:"refund_reason"`
	RefundStatus      string     `json:"refund_status" gorm:"default:'none'"` // none, pending, approved, rejected
	RefundProcessedAt *time.Time `json:"refund_processed_at"`
	RefundAmount      *float64   `json:"refund_amount"`

	// Access window
	// No column default: false must survive the insert, gorm omits
	// zero values for defaulted fields
	IsLifetime         bool       `json:"is_lifetime"`
	AccessExpiresAt    *time.Time `json:"access_expires_at"`
	ExpiryReminderSent bool       `json:"-" gorm:"default:false"`

	Version   uint `json:"-" gorm:"default:0"`
	IsDeleted bool `json:"-" gorm:"default:false"`

	// Derived on read, never persisted
	IsCompleted        bool `json:"is_completed" gorm:"-"`
	IsExpired          bool `json:"is_expired" gorm:"-"`
	EnrollmentDuration int  `json:"enrollment_duration_days" gorm:"-"`
}

// LectureCompletion records one completed lecture for an enrollment. A lecture
// appears at most once per enrollment; re-marking does not merge time spent.
type LectureCompletion struct {
	gorm.Model
	EnrollmentID uint `json:"enrollment_id" gorm:"uniqueIndex:idx_completion_enrollment_lecture;not null"`
	LectureID    uint `json:"lecture_id" gorm:"uniqueIndex:idx_completion_enrollment_lecture;not null"`
	TimeSpent    int  `json:"time_spent"` // seconds
	IsDeleted    bool `json:"-" gorm:"default:false"`
}

// ApplyProgress recomputes progress from the completion counts and transitions
// the status when progress first reaches 100. This is the only place the
// status field moves from active to completed.
func (e *Enrollment) ApplyProgress(completed, total int, now time.Time) {
	e.CompletedLectures = completed
	e.TotalLectures = total

	if total > 0 {
		e.Progress = completed * 100 / total
		if e.Progress > 100 {
			e.Progress = 100
		}
	}

	if e.Progress >= 100 && e.Status == models.EnrollmentActive {
		e.Status = models.EnrollmentCompleted
		e.CompletedAt = &now
	}
}

// IssueCertificate attaches an issued certificate. It fails unless the course
// is fully completed and no certificate exists yet; a certificate is never
// reissued.
func (e *Enrollment) IssueCertificate(certificateID, downloadURL string, now time.Time) error {
	if e.Progress < 100 || e.CertificateIssued {
		return ErrCertificateState
	}
	e.CertificateIssued = true
	e.CertificateID = certificateID
	e.CertificateURL = downloadURL
	e.CertificateIssuedAt = &now
	return nil
}

// RequestRefund opens the refund workflow. Only one request is allowed for
// the life of the enrollment.
func (e *Enrollment) RequestRefund(reason string, now time.Time) error {
	if e.RefundRequested {
		return ErrRefundRequested
	}
	e.RefundRequested = true
	e.RefundReason = reason
	e.RefundStatus = models.RefundPending
	return nil
}

// ProcessRefund records the admin decision on a refund. Any decision status is
// accepted regardless of the current one.
func (e *Enrollment) ProcessRefund(status string, amount *float64, now time.Time) error {
	if !models.Contains(models.RefundDecisions, status) {
		return ErrInvalidRefundStep
	}
	e.RefundStatus = status
	if amount != nil {
		e.RefundAmount = amount
	}
	e.RefundProcessedAt = &now
	return nil
}

// AddRating stores the student's rating and review. The given flag blocks a
// second submission.
func (e *Enrollment) AddRating(rating int, review string, now time.Time) error {
	if e.RatingGiven {
		return ErrReviewGiven
	}
	e.RatingGiven = true
	e.Rating = rating
	e.Review = review
	e.RatedAt = &now
	return nil
}

// Expired reports whether the access window has lapsed. Always false for
// lifetime enrollments.
func (e *Enrollment) Expired(now time.Time) bool {
	if e.IsLifetime || e.AccessExpiresAt == nil {
		return false
	}
	return now.After(*e.AccessExpiresAt)
}

// ComputeDerived fills the non-persisted fields before the record is
// serialized.
func (e *Enrollment) ComputeDerived(now time.Time) {
	e.IsCompleted = e.Status == models.EnrollmentCompleted
	e.IsExpired = e.Expired(now)

	end := now
	if e.CompletedAt != nil {
		end = *e.CompletedAt
	}
	e.EnrollmentDuration = int(end.Sub(e.CreatedAt).Hours() / 24)
}

// SaveWithVersion writes the full record guarded by a compare-and-swap on the
// version column. A stale version means a concurrent writer won; the caller
// gets ErrConcurrentUpdate and no retry is attempted.
func (e *Enrollment) SaveWithVersion(db *gorm.DB) error {
	prev := e.Version
	e.Version = prev + 1

	res := db.Model(e).
		Where("version = ?", prev).
		Select("*").
		Omit("id", "created_at", "deleted_at").
		Updates(e)
	if res.Error != nil {
		e.Version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		e.Version = prev
		return ErrConcurrentUpdate
	}
	return nil
}
