package config

// ServerHeaders holds the names of the headers stamped onto classified mail
type ServerHeaders struct {
	Class    string
	Score    string
	Level    string
	Detector string
}

// ServerConfig represents the configuration for the mail filter server
type ServerConfig struct {
	FilterType    string
	ListenAddress string
	RelayAddress  string
	Headers       ServerHeaders
}

// ClassificationConfig represents the configuration for the classification pipeline
type ClassificationConfig struct {
	MaxBodySize    int
	FuzzyMatching  bool
	MemoizeSenders bool
	MinLevel       string
}

// RouterConfig represents the detector ordering and per-detector thresholds
type RouterConfig struct {
	Order      []string
	Thresholds map[string]float64
}

// TrustConfig represents the sender trust domain lists
type TrustConfig struct {
	MarketingDomains  []string
	KnownServices     []string
	PaymentProcessors []string
}

// EvidenceConfig represents the configuration for the evidence store
type EvidenceConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// LLMConfig represents the configuration for the LLM fallback
type LLMConfig struct {
	Enabled       bool
	Provider      string
	MinConfidence float64
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GetServer returns the mail filter server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FilterType:    c.GetString("server.filter_type"),
		ListenAddress: c.GetString("server.listen_address"),
		RelayAddress:  c.GetString("server.relay_address"),
		Headers: ServerHeaders{
			Class:    c.GetString("server.headers.class"),
			Score:    c.GetString("server.headers.score"),
			Level:    c.GetString("server.headers.level"),
			Detector: c.GetString("server.headers.detector"),
		},
	}
}

// GetClassification returns the classification pipeline configuration
func (c *Config) GetClassification() ClassificationConfig {
	return ClassificationConfig{
		MaxBodySize:    c.GetInt("classification.max_body_size"),
		FuzzyMatching:  c.GetBool("classification.fuzzy_matching"),
		MemoizeSenders: c.GetBool("classification.memoize_senders"),
		MinLevel:       c.GetString("classification.min_level"),
	}
}

// GetRouter returns the detector ordering and thresholds
func (c *Config) GetRouter() RouterConfig {
	order := c.GetStringSlice("router.order")
	thresholds := make(map[string]float64, len(order))
	for _, name := range order {
		thresholds[name] = c.GetFloat64("router.thresholds." + name)
	}
	return RouterConfig{
		Order:      order,
		Thresholds: thresholds,
	}
}

// GetTrust returns the sender trust domain lists
func (c *Config) GetTrust() TrustConfig {
	return TrustConfig{
		MarketingDomains:  c.GetStringSlice("trust.marketing_domains"),
		KnownServices:     c.GetStringSlice("trust.known_services"),
		PaymentProcessors: c.GetStringSlice("trust.payment_processors"),
	}
}

// GetEvidence returns the evidence store configuration
func (c *Config) GetEvidence() EvidenceConfig {
	return EvidenceConfig{
		Type:       c.GetString("evidence.type"),
		SQLitePath: c.GetString("evidence.sqlite_path"),
		MySQLDSN:   c.GetString("evidence.mysql_dsn"),
	}
}

// GetLLM returns the LLM fallback configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Enabled:       c.GetBool("llm.enabled"),
		Provider:      c.GetString("llm.provider"),
		MinConfidence: c.GetFloat64("llm.min_confidence"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}
