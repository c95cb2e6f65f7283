package llm

import (
	"time"

	"marketwatch/internal/platform/config"
)

const defaultEndpoint = "https://integrate.api.nvidia.com/v1/chat/completions"

// Options configures the chat completions client
type Options struct {
	Endpoint string
	Model    string
	// VisionModel, when set, is used with the listing image attached
	VisionModel string
	APIKey      string

	Timeout     time.Duration
	MaxRetries  int
	RatePerSec  float64
	Temperature float64
	MaxTokens   int
}

// Enabled reports whether the verifier can be built
func (o Options) Enabled() bool { return o.APIKey != "" && o.Endpoint != "" && o.Model != "" }

// FromConfig reads options using the VERIFY_ prefix
func FromConfig(cfg config.Conf) Options {
	v := cfg.Prefix("VERIFY_")
	return Options{
		Endpoint:    v.MayString("ENDPOINT", defaultEndpoint),
		Model:       v.MayString("MODEL", "meta/llama-3.1-70b-instruct"),
		VisionModel: v.MayString("VISION_MODEL", ""),
		APIKey:      v.MayString("API_KEY", ""),
		Timeout:     v.MayDuration("TIMEOUT", 120*time.Second),
		MaxRetries:  v.MayInt("MAX_RETRIES", 2),
		RatePerSec:  v.MayFloat64("RATE_PER_SEC", 1),
		Temperature: v.MayFloat64("TEMPERATURE", 0.1),
		MaxTokens:   v.MayInt("MAX_TOKENS", 200),
	}
}
