package governance

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"zklend/crypto"
	"zklend/storage"
)

const (
	paramsKey          = "gov/params"
	whitelistKeyPrefix = "gov/whitelist/"
)

// Store provides typed accessors for governance-controlled parameters and
// institutional whitelists. Values are marshalled as JSON to align with
// governance proposal payloads.
type Store struct {
	db storage.Database
}

// NewStore constructs a parameter store over the supplied backend.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func (s *Store) withDB() (storage.Database, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("governance: store not configured")
	}
	return s.db, nil
}

// SetParams persists the protocol parameters under the canonical key.
func (s *Store) SetParams(params Params) error {
	db, err := s.withDB()
	if err != nil {
		return err
	}
	params.EnsureDefaults()
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("governance: encode params: %w", err)
	}
	return db.Put([]byte(paramsKey), encoded)
}

// Params loads the persisted parameters. When unset, a zero-value
// configuration is returned; the engine refuses to operate on zero
// thresholds, so bootstrapping requires an explicit SetParams.
func (s *Store) Params() (Params, error) {
	db, err := s.withDB()
	if err != nil {
		return Params{}, err
	}
	raw, err := db.Get([]byte(paramsKey))
	if err != nil {
		if err == storage.ErrNotFound {
			params := Params{}
			params.EnsureDefaults()
			return params, nil
		}
		return Params{}, err
	}
	var params Params
	if err := json.Unmarshal(raw, &params); err != nil {
		return Params{}, fmt.Errorf("governance: decode params: %w", err)
	}
	params.EnsureDefaults()
	return params, nil
}

// IsPaused implements the pause view consulted by module guards.
func (s *Store) IsPaused(module string) bool {
	params, err := s.Params()
	if err != nil {
		// A store failure must never silently unpause a halted module.
		return true
	}
	return params.Pauses[strings.TrimSpace(module)]
}

func whitelistKey(poolID string) []byte {
	return []byte(whitelistKeyPrefix + strings.TrimSpace(poolID))
}

// SetWhitelist replaces the institutional whitelist for a pool.
func (s *Store) SetWhitelist(poolID string, members []crypto.Address) error {
	db, err := s.withDB()
	if err != nil {
		return err
	}
	encoded := make([]string, 0, len(members))
	for _, member := range members {
		encoded = append(encoded, member.String())
	}
	sort.Strings(encoded)
	blob, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("governance: encode whitelist: %w", err)
	}
	return db.Put(whitelistKey(poolID), blob)
}

// IsWhitelisted reports whether the identity may borrow from the
// institutional pool. Membership is a plaintext identity check, not a hidden
// value.
func (s *Store) IsWhitelisted(identity crypto.Address, poolID string) bool {
	db, err := s.withDB()
	if err != nil {
		return false
	}
	raw, err := db.Get(whitelistKey(poolID))
	if err != nil {
		return false
	}
	var members []string
	if err := json.Unmarshal(raw, &members); err != nil {
		return false
	}
	encoded := identity.String()
	for _, member := range members {
		if member == encoded {
			return true
		}
	}
	return false
}
