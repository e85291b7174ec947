package course

import (
	"gorm.io/gorm"

	"lms/models"
)

// Course represents a learning course in the catalog
type Course struct {
	gorm.Model
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	InstructorID  uint    `json:"instructor_id" gorm:"index;not null"`
	Price         float64 `json:"price" gorm:"default:0"`
	Currency      string  `json:"currency" gorm:"default:'USD'"`
	TotalLectures int     `json:"total_lectures" gorm:"default:0"`
	AccessDays    int     `json:"access_days" gorm:"default:0"` // 0 grants lifetime access
	Status        string  `json:"status" gorm:"default:'draft'"` // draft, published, archived
	ThumbnailURL  string  `json:"thumbnail_url"`
	EnrolledCount int64   `json:"enrolled_count" gorm:"default:0"`
	RatingSum     int64   `json:"-" gorm:"default:0"`
	RatingCount   int64   `json:"rating_count" gorm:"default:0"`
	AverageRating float64 `json:"average_rating" gorm:"default:0"`
	IsDeleted     bool    `json:"-" gorm:"default:false"`
}

// IsPublished reports whether the course can accept enrollments
func (c *Course) IsPublished() bool {
	return c.Status == models.CoursePublished
}

// AddRating folds one review rating into the course aggregate
func (c *Course) AddRating(rating int) {
	c.RatingSum += int64(rating)
	c.RatingCount++
	c.AverageRating = float64(c.RatingSum) / float64(c.RatingCount)
}
