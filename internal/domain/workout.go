package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateExercise is a single exercise inside a workout template.
// Reps is a string on purpose: it can be a range ("8-12") or descriptive
// ("to failure").
type TemplateExercise struct {
	Name  string `bson:"name" json:"name"`
	Sets  int    `bson:"sets" json:"sets"`
	Reps  string `bson:"reps" json:"reps"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutTemplate is a reusable, PT-authored ordered list of exercises.
// Ownership is immutable after creation; deleting a template cascades to
// every assignment referencing it.
type WorkoutTemplate struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title             string             `bson:"title" json:"title"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Difficulty        FitnessLevel       `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	EstimatedDuration int                `bson:"estimatedDuration,omitempty" json:"estimatedDuration,omitempty"` // minutes
	Exercises         []TemplateExercise `bson:"exercises" json:"exercises"`
	CreatedBy         primitive.ObjectID `bson:"createdBy" json:"createdBy"` // Owning PT
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
