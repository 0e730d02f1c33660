package note

import (
	"time"

	"github.com/eleven-am/voicenotes/internal/dto"
)

const maxTitleLength = 80

type Note struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"not null" json:"text"`
	Title     string    `json:"title"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Note) ToResponse() dto.NoteResponse {
	return dto.NoteResponse{
		ID:        n.ID,
		Text:      n.Text,
		Title:     n.Title,
		Timestamp: n.Timestamp,
	}
}
