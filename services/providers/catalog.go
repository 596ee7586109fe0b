package providers

import (
	"errors"
	"sort"
	"strings"
)

// EnvLookup resolves credential and override environment variables. Injected
// so tests never depend on process-wide state.
type EnvLookup func(key string) (string, bool)

// ProviderSpec is the immutable metadata for one registered provider.
type ProviderSpec struct {
	// ID is the provider identifier (e.g., "groq", "anthropic")
	ID string

	// DisplayName is the human-readable name
	DisplayName string

	// BaseURL is the API root. Overridable via <ID>_BASE_URL.
	BaseURL string

	// CredentialEnv is the environment variable holding the API key
	CredentialEnv string

	// AltCredentialEnvs are documented alternate credential variable names
	AltCredentialEnvs []string

	// DefaultModel is used when the caller does not override the model
	DefaultModel string

	// CostPerMTok is the estimated output cost in USD per million tokens.
	// It is the fallback ordering key: cheapest providers are tried first.
	CostPerMTok float64

	// Format selects the wire adapter for this provider
	Format Format
}

// ProviderStatus is one row of a diagnostics report.
type ProviderStatus struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"display_name"`
	DefaultModel string  `json:"default_model"`
	CostPerMTok  float64 `json:"cost_per_mtok"`
	Available    bool    `json:"available"`
}

// Catalog is the explicitly constructed, immutable provider table. It is
// built once at startup and handed to the dispatcher; it is never mutated
// afterwards, so concurrent readers need no locking.
type Catalog struct {
	specs  []ProviderSpec // cost ascending
	byID   map[string]ProviderSpec
	lookup EnvLookup
}

// NewCatalog builds a catalog from the given specs, applying <ID>_BASE_URL
// overrides from the environment and ordering entries cost ascending.
func NewCatalog(lookup EnvLookup, specs ...ProviderSpec) (*Catalog, error) {
	if lookup == nil {
		return nil, errors.New("env lookup cannot be nil")
	}
	if len(specs) == 0 {
		return nil, errors.New("catalog requires at least one provider spec")
	}

	byID := make(map[string]ProviderSpec, len(specs))
	ordered := make([]ProviderSpec, 0, len(specs))
	for _, spec := range specs {
		if spec.ID == "" {
			return nil, errors.New("provider ID cannot be empty")
		}
		if _, exists := byID[spec.ID]; exists {
			return nil, errors.New("duplicate provider ID: " + spec.ID)
		}
		if spec.CredentialEnv == "" {
			return nil, errors.New("provider " + spec.ID + " has no credential env")
		}

		if override, ok := lookup(envPrefix(spec.ID) + "_BASE_URL"); ok && override != "" {
			spec.BaseURL = strings.TrimSuffix(override, "/")
		}

		byID[spec.ID] = spec
		ordered = append(ordered, spec)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CostPerMTok < ordered[j].CostPerMTok
	})

	return &Catalog{specs: ordered, byID: byID, lookup: lookup}, nil
}

// DefaultCatalog returns the standard provider table, cheapest first.
func DefaultCatalog(lookup EnvLookup) (*Catalog, error) {
	return NewCatalog(lookup,
		ProviderSpec{
			ID:            "groq",
			DisplayName:   "Groq",
			BaseURL:       "https://api.groq.com/openai/v1",
			CredentialEnv: "GROQ_API_KEY",
			DefaultModel:  "llama-3.3-70b-versatile",
			CostPerMTok:   0.08,
			Format:        FormatOpenAI,
		},
		ProviderSpec{
			ID:            "deepseek",
			DisplayName:   "DeepSeek",
			BaseURL:       "https://api.deepseek.com",
			CredentialEnv: "DEEPSEEK_API_KEY",
			DefaultModel:  "deepseek-chat",
			CostPerMTok:   0.28,
			Format:        FormatOpenAI,
		},
		ProviderSpec{
			ID:                "kimi",
			DisplayName:       "Kimi (Moonshot)",
			BaseURL:           "https://api.moonshot.ai/v1",
			CredentialEnv:     "MOONSHOT_API_KEY",
			AltCredentialEnvs: []string{"KIMI_API_KEY"},
			DefaultModel:      "moonshot-v1-8k",
			CostPerMTok:       0.60,
			Format:            FormatOpenAI,
		},
		ProviderSpec{
			ID:            "together",
			DisplayName:   "Together AI",
			BaseURL:       "https://api.together.xyz/v1",
			CredentialEnv: "TOGETHER_API_KEY",
			DefaultModel:  "meta-llama/Llama-3.3-70B-Instruct-Turbo",
			CostPerMTok:   0.88,
			Format:        FormatOpenAI,
		},
		ProviderSpec{
			ID:                "xai",
			DisplayName:       "xAI (Grok)",
			BaseURL:           "https://api.x.ai/v1",
			CredentialEnv:     "XAI_API_KEY",
			AltCredentialEnvs: []string{"GROK_API_KEY"},
			DefaultModel:      "grok-2-latest",
			CostPerMTok:       2.00,
			Format:            FormatOpenAI,
		},
		ProviderSpec{
			ID:            "openrouter",
			DisplayName:   "OpenRouter",
			BaseURL:       "https://openrouter.ai/api/v1",
			CredentialEnv: "OPENROUTER_API_KEY",
			DefaultModel:  "openrouter/auto",
			CostPerMTok:   2.40,
			Format:        FormatOpenAI,
		},
		ProviderSpec{
			ID:            "openai",
			DisplayName:   "OpenAI",
			BaseURL:       "https://api.openai.com/v1",
			CredentialEnv: "OPENAI_API_KEY",
			DefaultModel:  "gpt-4o",
			CostPerMTok:   10.00,
			Format:        FormatOpenAI,
		},
		ProviderSpec{
			ID:            "anthropic",
			DisplayName:   "Anthropic",
			BaseURL:       "https://api.anthropic.com",
			CredentialEnv: "ANTHROPIC_API_KEY",
			DefaultModel:  "claude-3-5-sonnet-20241022",
			CostPerMTok:   15.00,
			Format:        FormatAnthropic,
		},
	)
}

// Get retrieves a spec by provider ID.
func (c *Catalog) Get(id string) (ProviderSpec, bool) {
	spec, ok := c.byID[id]
	return spec, ok
}

// Specs returns all specs in cost-ascending order.
func (c *Catalog) Specs() []ProviderSpec {
	out := make([]ProviderSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Credential resolves the API key for a provider, checking the primary
// variable first and then any documented alternates.
func (c *Catalog) Credential(spec ProviderSpec) (string, bool) {
	if v, ok := c.lookup(spec.CredentialEnv); ok && v != "" {
		return v, true
	}
	for _, alt := range spec.AltCredentialEnvs {
		if v, ok := c.lookup(alt); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// DetectAvailable returns the IDs of providers with a configured credential,
// in cost-ascending order. The only side effect is reading the environment.
func (c *Catalog) DetectAvailable() []string {
	ids := make([]string, 0, len(c.specs))
	for _, spec := range c.specs {
		if _, ok := c.Credential(spec); ok {
			ids = append(ids, spec.ID)
		}
	}
	return ids
}

// AvailableSpecs returns the specs of providers with a configured credential,
// in cost-ascending order.
func (c *Catalog) AvailableSpecs() []ProviderSpec {
	specs := make([]ProviderSpec, 0, len(c.specs))
	for _, spec := range c.specs {
		if _, ok := c.Credential(spec); ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// StatusReport returns a diagnostics row for every registered provider,
// available or not. Identical environments yield identical reports.
func (c *Catalog) StatusReport() []ProviderStatus {
	report := make([]ProviderStatus, 0, len(c.specs))
	for _, spec := range c.specs {
		_, available := c.Credential(spec)
		report = append(report, ProviderStatus{
			ID:           spec.ID,
			DisplayName:  spec.DisplayName,
			DefaultModel: spec.DefaultModel,
			CostPerMTok:  spec.CostPerMTok,
			Available:    available,
		})
	}
	return report
}

func envPrefix(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
}
