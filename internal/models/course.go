package models

// Course is owned by the course catalogue; this service only reads it to expand enrollments.
// The quizzes field keeps the "quizes" wire name the frontend already consumes.
type Course struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Quizzes     []Quiz `json:"quizes"`
}

type Quiz struct {
	ID        string         `json:"_id"`
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}
