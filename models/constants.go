package models

// User roles
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// Enrollment statuses. Expired is never persisted, it is computed from
// the access expiry on read.
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentCancelled = "cancelled"
	EnrollmentExpired   = "expired"
)

// Course statuses
const (
	CourseDraft     = "draft"
	CoursePublished = "published"
	CourseArchived  = "archived"
)

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Refund statuses
const (
	RefundNone     = "none"
	RefundPending  = "pending"
	RefundApproved = "approved"
	RefundRejected = "rejected"
)

// Validation bounds shared by the request validators and the domain checks
const (
	RatingMin          = 1
	RatingMax          = 5
	ReviewMaxLen       = 1000
	RefundReasonMinLen = 10
	RefundReasonMaxLen = 500
	PasswordMinLen     = 8
)

// PaymentMethods lists the accepted payment methods
var PaymentMethods = []string{"credit_card", "debit_card", "paypal", "stripe", "bank_transfer"}

// RefundDecisions lists the statuses an admin may set on a pending refund
var RefundDecisions = []string{RefundApproved, RefundRejected}

// EnrollmentStatuses lists the persisted enrollment statuses
var EnrollmentStatuses = []string{EnrollmentActive, EnrollmentCompleted, EnrollmentCancelled}

// Contains reports whether value is one of list
func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
