package models

import (
	"fmt"
	"strings"
)

// Difficulty rates how demanding a concept or segment is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Rank orders difficulties from easy (0) to hard (2).
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyHard:
		return 2
	default:
		return 1
	}
}

// ParseDifficulty maps free-form text to a Difficulty, defaulting to medium.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "beginner", "basic":
		return DifficultyEasy
	case "hard", "advanced", "difficult":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Role is a speaker role in the dialogue.
type Role string

const (
	RoleHost       Role = "host"
	RoleExpert     Role = "expert"
	RoleSimplifier Role = "simplifier"
)

// Roles lists every role in turn-taking order.
var Roles = []Role{RoleHost, RoleExpert, RoleSimplifier}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleExpert, RoleSimplifier:
		return true
	}
	return false
}

// ParseRole parses a role name. Unknown names return an error.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Status is the lifecycle state of a podcast record.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusGenerating, StatusReady, StatusError:
		return true
	}
	return false
}

// RelationKind is the type of an edge between two concepts.
type RelationKind string

const (
	RelationRequires RelationKind = "requires"
	RelationRelated  RelationKind = "related"
	RelationOpposite RelationKind = "opposite"
	RelationExample  RelationKind = "example"
)

// Valid reports whether k is one of the known relation kinds.
func (k RelationKind) Valid() bool {
	switch k {
	case RelationRequires, RelationRelated, RelationOpposite, RelationExample:
		return true
	}
	return false
}

// ParseRelationKind parses a relation kind. Unknown kinds return false.
func ParseRelationKind(s string) (RelationKind, bool) {
	k := RelationKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// VoiceProvider names a text-to-speech backend.
type VoiceProvider string

const (
	VoiceProviderOpenAI VoiceProvider = "openai"
	VoiceProviderGemini VoiceProvider = "gemini"
)

// Valid reports whether p is one of the known providers.
func (p VoiceProvider) Valid() bool {
	switch p {
	case VoiceProviderOpenAI, VoiceProviderGemini:
		return true
	}
	return false
}
