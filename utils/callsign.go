package utils

import (
	"fmt"
	"math/rand"
)

var (
	adjectives = []string{
		"Swift", "Brave", "Mighty", "Rapid", "Fierce", "Sharp", "Noble", "Deadly", "Silent", "Valiant",
		"Savage", "Lethal", "Royal", "Crazy", "Raging", "Brutal", "Iron", "Steel", "Shadow", "Thunder",
		"Desert", "Arctic", "Jungle", "Mountain", "Ocean", "Crimson", "Golden", "Silver", "Phantom", "Emerald",
	}

	nouns = []string{
		"Eagle", "Wolf", "Tiger", "Hawk", "Lion", "Bear", "Shark", "Cobra", "Viper", "Panther",
		"Dragon", "Falcon", "Fox", "Rhino", "Phoenix", "Scorpion", "Hunter", "Ranger", "Knight", "Warrior",
		"Storm", "Ghost", "Blade", "Fist", "Arrow", "Thunder", "Lightning", "Hammer", "Shield", "Dagger",
	}
)

// GenerateCallsign creates a random robot name in the format
// "<Adjective>-<Noun>-<3 digit int>". Seeding r makes the names reproducible.
func GenerateCallsign(r *rand.Rand) string {
	adj := adjectives[r.Intn(len(adjectives))]
	noun := nouns[r.Intn(len(nouns))]
	number := r.Intn(900) + 100

	return fmt.Sprintf("%s-%s-%d", adj, noun, number)
}
