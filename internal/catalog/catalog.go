// Package catalog resolves game ids to display titles.
package catalog

import (
	"strings"

	"github.com/DegrassiAaron/meepleai/internal/config"
)

type Catalog interface {
	// Resolve returns the display title for a game id. ok is false for
	// unknown games.
	Resolve(gameID string) (title string, ok bool)
}

// Static is a config-backed catalog.
type Static struct {
	titles map[string]string
}

func NewStatic(cfg *config.GamesConfig) *Static {
	titles := make(map[string]string, len(cfg.Titles))
	for id, title := range cfg.Titles {
		titles[strings.ToLower(id)] = title
	}
	return &Static{titles: titles}
}

func (s *Static) Resolve(gameID string) (string, bool) {
	title, ok := s.titles[strings.ToLower(strings.TrimSpace(gameID))]
	return title, ok
}

var _ Catalog = (*Static)(nil)
