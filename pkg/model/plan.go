package model

import "time"

// Plan is a lesson plan a reservation may optionally link to. The
// reservation core only reads plans; authoring lives elsewhere.
type Plan struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID    string    `json:"author_id" bson:"author_id"`
	Title       string    `json:"title" bson:"title"`
	Area        string    `json:"area" bson:"area"`
	Description string    `json:"description" bson:"description"`
	Version     int       `json:"version" bson:"version"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
