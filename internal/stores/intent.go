package stores

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"voyo/api_curator/pkg/logging"
)

// Modes are the six fixed mixboard mode identifiers.
var Modes = []string{"afro_heat", "chill", "party", "workout", "late_night", "discovery"}

// IntentStore reads per-session mixboard intent weights from Redis. Weights
// live in a hash keyed by session and are normalized on read.
type IntentStore struct {
	client goredis.UniversalClient
	logger logging.Logger
}

// NewIntentStore creates an intent store over an existing Redis client.
func NewIntentStore(client goredis.UniversalClient, logger logging.Logger) *IntentStore {
	return &IntentStore{client: client, logger: logger}
}

func intentKey(sessionID string) string {
	return "voyo:intent:" + sessionID
}

// Snapshot returns normalized intent weights for a session. Sessions with no
// recorded intent get equal weights across all modes.
func (s *IntentStore) Snapshot(ctx context.Context, sessionID string) (map[string]float64, error) {
	raw, err := s.client.HGetAll(ctx, intentKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read intent weights: %w", err)
	}

	weights := make(map[string]float64, len(Modes))
	var total float64
	for _, mode := range Modes {
		value, ok := raw[mode]
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed < 0 {
			s.logger.WithFields(logging.Fields{
				"session_id": sessionID,
				"mode":       mode,
				"value":      value,
			}).Warn("Skipping unparseable intent weight")
			continue
		}
		weights[mode] = parsed
		total += parsed
	}

	if total == 0 {
		equal := 1.0 / float64(len(Modes))
		for _, mode := range Modes {
			weights[mode] = equal
		}
		return weights, nil
	}

	for mode, weight := range weights {
		weights[mode] = weight / total
	}
	return weights, nil
}

// SetWeight records one mode weight for a session.
func (s *IntentStore) SetWeight(ctx context.Context, sessionID, mode string, weight float64) error {
	if err := s.client.HSet(ctx, intentKey(sessionID), mode, weight).Err(); err != nil {
		return fmt.Errorf("write intent weight: %w", err)
	}
	return nil
}

// SessionIntents binds an intent store to one session.
type SessionIntents struct {
	store     *IntentStore
	sessionID string
}

// ForSession returns a session-bound view of the store.
func (s *IntentStore) ForSession(sessionID string) *SessionIntents {
	return &SessionIntents{store: s, sessionID: sessionID}
}

// Snapshot returns the bound session's normalized intent weights.
func (si *SessionIntents) Snapshot(ctx context.Context) (map[string]float64, error) {
	return si.store.Snapshot(ctx, si.sessionID)
}
