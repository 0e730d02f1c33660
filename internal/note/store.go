package note

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eleven-am/voicenotes/internal/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Note{})
}

// Create fills in the id, title and timestamp when they are missing.
func (s *Store) Create(ctx context.Context, n *Note) error {
	n.Text = strings.TrimSpace(n.Text)
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Title == "" {
		n.Title = shared.FirstSentence(n.Text, maxTitleLength)
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Note, error) {
	var n Note
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &n, err
}

func (s *Store) GetByIDs(ctx context.Context, ids []string) (map[string]*Note, error) {
	out := make(map[string]*Note, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var notes []*Note
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&notes).Error; err != nil {
		return nil, err
	}
	for _, n := range notes {
		out[n.ID] = n
	}
	return out, nil
}

// List returns every note oldest first.
func (s *Store) List(ctx context.Context) ([]*Note, error) {
	var notes []*Note
	err := s.db.WithContext(ctx).Order("timestamp ASC").Find(&notes).Error
	return notes, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Note{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
