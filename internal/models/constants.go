package models

// Category name constants used as defaults across the application.
const (
	CategoryUncategorized = "Uncategorized"
)

// DefaultConfidence is assigned to classification results whose confidence
// could not be parsed from the model output.
const DefaultConfidence = 50
