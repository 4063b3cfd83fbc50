package preferences

import (
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/events"
)

// Service wraps the repository and publishes change events
type Service struct {
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger
}

// NewService creates a new preferences service
func NewService(repo *Repository, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: eventManager,
		log:    log.With().Str("service", "preferences").Logger(),
	}
}

// Get returns a user's preferences
func (s *Service) Get(userID int64) (*Preferences, error) {
	return s.repo.Get(userID)
}

// Update applies a partial change and returns the resulting preferences
func (s *Service) Update(userID int64, update Update) (*Preferences, error) {
	if err := s.repo.Apply(userID, update); err != nil {
		return nil, err
	}

	if s.events != nil && !update.IsEmpty() {
		s.events.Emit("preferences", &events.PreferencesChangedData{
			UserID: userID,
			Fields: update.Fields(),
		})
	}

	return s.repo.Get(userID)
}
