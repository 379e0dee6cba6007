package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"podnplay/internal/models"
)

// State tags what the discovery view shows.
type State string

const (
	StateLoading State = "loading"
	StateResults State = "results"
	StateEmpty   State = "empty"
	StateError   State = "error"
)

const CreateRoute = "/create"

// Card is one podcast in the results grid.
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// EmptyState is the prompt shown when nothing matched.
type EmptyState struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ButtonLink  string `json:"buttonLink"`
	ButtonText  string `json:"buttonText"`
}

// View is the rendered discovery section.
type View struct {
	Search  string      `json:"search"`
	Heading string      `json:"heading"`
	State   State       `json:"state"`
	Cards   []Card      `json:"cards,omitempty"`
	Empty   *EmptyState `json:"empty,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Build derives the view from a query result. A nil result with no error
// means the query has not resolved yet.
func Build(search string, podcasts []models.Podcast, err error) View {
	v := View{Search: search, Heading: heading(search)}
	switch {
	case err != nil:
		v.State = StateError
		v.Error = "Podcasts could not be loaded. Please try again."
	case podcasts == nil:
		v.State = StateLoading
	case len(podcasts) == 0:
		v.State = StateEmpty
		v.Empty = emptyState(search)
	default:
		v.State = StateResults
		v.Cards = lo.Map(podcasts, func(p models.Podcast, _ int) Card {
			return Card{
				ID:          p.ID,
				Title:       p.Title,
				Description: p.Description,
				ImageURL:    lo.FromPtr(p.ImageURL),
			}
		})
	}
	return v
}

func heading(search string) string {
	if search != "" {
		return fmt.Sprintf(`Search results for "%s"`, search)
	}
	return "Discover Podcasts"
}

func emptyState(search string) *EmptyState {
	e := &EmptyState{
		Title:       "No podcasts available",
		Description: "Be the first to create a podcast",
		ButtonLink:  CreateRoute,
		ButtonText:  "Create a podcast",
	}
	if search != "" {
		e.Title = "No podcasts found"
		e.Description = "Try searching with different keywords"
	}
	return e
}

// SearchFunc queries podcasts by free text.
type SearchFunc func(ctx context.Context, search string) ([]models.Podcast, error)

// Service runs discovery queries with a deadline, so a stalled query ends
// in StateError instead of loading forever.
type Service struct {
	search  SearchFunc
	timeout time.Duration
	logger  *zap.Logger
	observe func(state State, elapsed time.Duration)
}

func NewService(search SearchFunc, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{search: search, timeout: timeout, logger: logger}
}

// OnQuery registers a callback invoked after every query.
func (s *Service) OnQuery(fn func(state State, elapsed time.Duration)) {
	s.observe = fn
}

func (s *Service) Search(ctx context.Context, search string) View {
	search = strings.TrimSpace(search)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	podcasts, err := s.search(ctx, search)
	if err != nil {
		s.logger.Error("podcast search failed", zap.String("search", search), zap.Error(err))
	}
	view := Build(search, podcasts, err)
	if s.observe != nil {
		s.observe(view.State, time.Since(start))
	}
	return view
}
