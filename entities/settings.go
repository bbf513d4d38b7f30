package entities

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// CredentialKey is the settings key under which a provider's API key is stored.
func CredentialKey(provider string) string {
	return provider + "_api_key"
}
