package conf

import z "github.com/Oudwins/zog"

// AgentMode selects how backend adapters are built: "stub" keeps everything
// in-process and deterministic, "api" talks to the real provider endpoints.
type AgentMode string

const (
	AgentModeStub AgentMode = "stub"
	AgentModeAPI  AgentMode = "api"
)

func (m AgentMode) String() string {
	return string(m)
}

var AgentModeSchema = z.StringLike[AgentMode]().OneOf([]AgentMode{AgentModeStub, AgentModeAPI}).DefaultFunc(func() AgentMode {
	return AgentModeStub
})

type OpenAIConfig struct {
	Model     string `json:"model"`
	BaseURL   string `json:"base_url"`
	MaxTokens int    `json:"max_tokens"`
}

type AnthropicConfig struct {
	Model     string `json:"model"`
	BaseURL   string `json:"base_url"`
	MaxTokens int    `json:"max_tokens"`
}

type AgentsConfig struct {
	Mode      AgentMode       `json:"mode"`
	OpenAI    OpenAIConfig    `json:"openai"`
	Anthropic AnthropicConfig `json:"anthropic"`
}

var AgentsSchema = z.Struct(z.Shape{
	"Mode": AgentModeSchema,
	"OpenAI": z.Struct(z.Shape{
		"Model":     z.String().Default("gpt-5.2"),
		"BaseURL":   z.String().Default("https://api.openai.com/v1"),
		"MaxTokens": z.Int().Default(4096),
	}),
	"Anthropic": z.Struct(z.Shape{
		"Model":     z.String().Default("claude-sonnet-4-5"),
		"BaseURL":   z.String().Default("https://api.anthropic.com/v1"),
		"MaxTokens": z.Int().Default(4096),
	}),
})
