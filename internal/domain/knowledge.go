package domain

import "time"

// KnowledgeDoc is a knowledge-base article maintained by admins.
type KnowledgeDoc struct {
	ID        string
	Title     string
	Content   string
	Category  string
	CreatedAt time.Time
}
