package tts

import "github.com/hyperjump/studycast/internal/models"

// DefaultProfiles returns one voice per role for provider.
func DefaultProfiles(provider models.VoiceProvider) []models.VoiceProfile {
	switch provider {
	case models.VoiceProviderGemini:
		return []models.VoiceProfile{
			{ID: "gemini-host", Role: models.RoleHost, Name: "Kore", Provider: provider, VoiceID: "Kore", Description: "firm, guides the conversation"},
			{ID: "gemini-expert", Role: models.RoleExpert, Name: "Charon", Provider: provider, VoiceID: "Charon", Description: "informative, explains in depth"},
			{ID: "gemini-simplifier", Role: models.RoleSimplifier, Name: "Puck", Provider: provider, VoiceID: "Puck", Description: "upbeat, restates in plain words"},
		}
	default:
		return []models.VoiceProfile{
			{ID: "openai-host", Role: models.RoleHost, Name: "Alloy", Provider: models.VoiceProviderOpenAI, VoiceID: "alloy", Description: "neutral, guides the conversation"},
			{ID: "openai-expert", Role: models.RoleExpert, Name: "Onyx", Provider: models.VoiceProviderOpenAI, VoiceID: "onyx", Description: "deep, explains in depth"},
			{ID: "openai-simplifier", Role: models.RoleSimplifier, Name: "Nova", Provider: models.VoiceProviderOpenAI, VoiceID: "nova", Description: "bright, restates in plain words"},
		}
	}
}

// ProfileFor returns the profile for role, if present.
func ProfileFor(profiles []models.VoiceProfile, role models.Role) (models.VoiceProfile, bool) {
	for _, p := range profiles {
		if p.Role == role {
			return p, true
		}
	}
	return models.VoiceProfile{}, false
}
