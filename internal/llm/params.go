package llm

// Threshold is a per-category sensitivity. Higher values block less.
type Threshold int

const (
	ThresholdUnspecified Threshold = iota
	BlockLowAndAbove
	BlockMediumAndAbove
	BlockOnlyHigh
	BlockNone
)

// MostPermissive is the threshold applied when the content filter is off.
const MostPermissive = BlockNone

func (t Threshold) String() string {
	switch t {
	case BlockLowAndAbove:
		return "block_low_and_above"
	case BlockMediumAndAbove:
		return "block_medium_and_above"
	case BlockOnlyHigh:
		return "block_only_high"
	case BlockNone:
		return "block_none"
	default:
		return "unspecified"
	}
}

// SafetySetting pairs a provider harm category with a threshold.
type SafetySetting struct {
	Category  string    `yaml:"category" json:"category"`
	Threshold Threshold `yaml:"threshold" json:"threshold"`
}

// Params holds generation parameters. Context is used in chat mode and
// MaxOutputTokens in text mode; zero values leave the provider default.
type Params struct {
	Model           string          `yaml:"model" json:"model"`
	CandidateCount  int             `yaml:"candidate_count" json:"candidate_count"`
	Context         string          `yaml:"context" json:"context,omitempty"`
	Temperature     float32         `yaml:"temperature" json:"temperature"`
	TopK            int             `yaml:"top_k" json:"top_k"`
	TopP            float32         `yaml:"top_p" json:"top_p"`
	MaxOutputTokens int             `yaml:"max_output_tokens" json:"max_output_tokens,omitempty"`
	SafetySettings  []SafetySetting `yaml:"safety_settings" json:"safety_settings"`
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	c := p
	if p.SafetySettings != nil {
		c.SafetySettings = make([]SafetySetting, len(p.SafetySettings))
		copy(c.SafetySettings, p.SafetySettings)
	}
	return c
}

// WithoutContentFilter returns a copy with every threshold at MostPermissive.
func (p Params) WithoutContentFilter() Params {
	c := p.Clone()
	for i := range c.SafetySettings {
		c.SafetySettings[i].Threshold = MostPermissive
	}
	return c
}

// Effective resolves the parameters a backend should send for req.
// defaults must return a fresh value for each call.
func Effective(req Request, defaults func(Mode) Params) Params {
	var p Params
	if req.Params != nil {
		p = req.Params.Clone()
	} else {
		p = defaults(req.Mode)
	}

	if req.Mode == ModeChat && req.Context != "" {
		p.Context = req.Context
	}
	if req.DisableContentFilter {
		p = p.WithoutContentFilter()
	}
	return p
}
