package widget

// ConfigurationError is reported when a message cannot be sent because the
// credential is missing. No request is attempted.
type ConfigurationError struct{}

func (*ConfigurationError) Error() string {
	return "API key is not configured. Please provide an OpenAI API key."
}
