package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Endpoint namespaces. Each orchestrator caches under its own namespace
// so invalidation can target one endpoint without touching the others.
const (
	EndpointQA      = "qa"
	EndpointChess   = "chess"
	EndpointExplain = "explain"
	EndpointSetup   = "setup"
)

const keyPrefix = "meeple"

// Normalize canonicalizes query text for key generation: lowercase,
// internal whitespace runs collapsed to a single space, trimmed. Case
// and spacing variants of the same question collide to the same key.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Key derives the deterministic cache key for (endpoint, gameId, query).
func Key(endpoint, gameID, query string) string {
	sum := sha256.Sum256([]byte(Normalize(query)))
	return fmt.Sprintf("%s:%s:%s:%x", keyPrefix, endpoint, gameID, sum)
}

// gamePattern matches every endpoint's entries for one game.
func gamePattern(gameID string) string {
	return fmt.Sprintf("%s:*:%s:*", keyPrefix, gameID)
}

// endpointPattern matches one endpoint's entries for one game.
func endpointPattern(endpoint, gameID string) string {
	return fmt.Sprintf("%s:%s:%s:*", keyPrefix, endpoint, gameID)
}
