package constants

const (
	// EnvOpenAiApiKey is the environment variable name for the OpenAI API key
	EnvOpenAiApiKey = "OPENAI_API_KEY"

	// EnvSlackWebhookUrl is the environment variable name for the Slack webhook URL
	// used for watch-mode notifications
	EnvSlackWebhookUrl = "SLACK_WEBHOOK_URL"

	// EnvOllamaBaseUrl is the env var for the base url served by ollama.
	// Default is "http://localhost:11434"
	EnvOllamaBaseUrl = "OLLAMA_BASE_URL"
)
