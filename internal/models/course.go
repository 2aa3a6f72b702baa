package models

import "time"

// Course represents a course offering taught by a professor.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	Credits     int       `db:"credits" json:"credits"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with professor info.
type CourseDetail struct {
	Course
	ProfessorName string `db:"professor_name" json:"professor_name"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	Search      string
	ProfessorID string
	Active      *bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
