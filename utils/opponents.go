package utils

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultOpponents is the built-in opponent roster used when no
// opponents file is configured.
var DefaultOpponents = []string{
	"CryptoKing", "TONMaster", "RockStar", "PaperTiger", "ScissorHands",
	"LuckyStrike", "DiamondHodler", "MoonWalker", "BlockRunner", "ChainChamp",
	"SatoshiJr", "TONWhale", "PixelPunk", "GameOverlord", "TicketHunter",
}

// LoadOpponents reads an opponent roster from a JSON file of the shape
// {"opponents": ["name", ...]}. An empty path returns the default roster.
func LoadOpponents(path string) ([]string, error) {
	if path == "" {
		return DefaultOpponents, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read opponents file: %w", err)
	}

	var payload struct {
		Opponents []string `json:"opponents"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid opponents file: %w", err)
	}
	if len(payload.Opponents) == 0 {
		return DefaultOpponents, nil
	}
	return payload.Opponents, nil
}
