package config

import (
	"fmt"
	"time"
)

// CompatibilityWeights are the score contributions of each compatibility rule.
type CompatibilityWeights struct {
	KeyMatch      int
	KeyClash      int
	TempoExact    int
	TempoClose    int
	TempoNear     int
	TempoClash    int
	RhythmPair    int
	Harmonic      int
	Genre         int
	Effect        int
	Vocal         int
	BassMelody    int
	Generic       int
	CloseTempoBPM int // max delta for TempoClose
	NearTempoBPM  int // max delta for TempoNear
}

// Palette holds the stroke colours used when styling edges.
type Palette struct {
	High       string
	Medium     string
	Low        string
	Default    string
	Next       string
	Has        string
	BlendsWith string
	Supports   string
	Influences string
	Instrument string
	Mood       string
	Sequence   string
	Tempo      string
}

// Layout holds the placement constants for generated nodes.
type Layout struct {
	GridColumns     int
	GridSpacingX    float64
	GridSpacingY    float64
	GridOffset      float64
	SectionSpacingX float64
	SectionY        float64
	ChildSpacingX   float64
	InstrumentY     float64
	MoodY           float64
}

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph int
	MaxEdgesPerGraph int

	// Node constraints
	MaxLabelLength   int
	MaxSectionLength int
	MaxBPM           int

	// Parser limits
	MaxFallbackNodes    int
	MaxTranscriptLength int

	// Validation settings
	AllowSelfConnections bool
	AllowDuplicateEdges  bool

	// Edge styling
	CrossSectionDash string
	LowEmphasisDash  string
	DefaultStroke    float64

	Compatibility CompatibilityWeights
	Palette       Palette
	Layout        Layout

	// Collaborators
	MinAudioBytes      int
	DefaultDurationMs  int
	MinDurationMs      int
	MaxDurationMs      int
	RecommendationTTL  time.Duration
	InstructionTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerGraph: 500,
		MaxEdgesPerGraph: 5000,

		MaxLabelLength:   200,
		MaxSectionLength: 64,
		MaxBPM:           400,

		MaxFallbackNodes:    10,
		MaxTranscriptLength: 20000,

		AllowSelfConnections: false,
		AllowDuplicateEdges:  false,

		CrossSectionDash: "5,5",
		LowEmphasisDash:  "3,3",
		DefaultStroke:    2,

		Compatibility: CompatibilityWeights{
			KeyMatch:      10,
			KeyClash:      -5,
			TempoExact:    8,
			TempoClose:    5,
			TempoNear:     2,
			TempoClash:    -3,
			RhythmPair:    7,
			Harmonic:      6,
			Genre:         4,
			Effect:        3,
			Vocal:         5,
			BassMelody:    4,
			Generic:       1,
			CloseTempoBPM: 5,
			NearTempoBPM:  10,
		},

		Palette: Palette{
			High:       "#10b981",
			Medium:     "#3b82f6",
			Low:        "#6b7280",
			Default:    "#3b82f6",
			Next:       "#3b82f6",
			Has:        "#10b981",
			BlendsWith: "#06b6d4",
			Supports:   "#f59e0b",
			Influences: "#ec4899",
			Instrument: "#8b5cf6",
			Mood:       "#ec4899",
			Sequence:   "#10b981",
			Tempo:      "#ef4444",
		},

		Layout: Layout{
			GridColumns:     3,
			GridSpacingX:    250,
			GridSpacingY:    200,
			GridOffset:      100,
			SectionSpacingX: 350,
			SectionY:        50,
			ChildSpacingX:   120,
			InstrumentY:     200,
			MoodY:           330,
		},

		MinAudioBytes:      100,
		DefaultDurationMs:  10000,
		MinDurationMs:      1000,
		MaxDurationMs:      120000,
		RecommendationTTL:  5 * time.Minute,
		InstructionTimeout: 60 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerGraph = 200
	config.MaxEdgesPerGraph = 2000
	config.MaxTranscriptLength = 8000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerGraph = 5000
	config.MaxEdgesPerGraph = 50000
	config.RecommendationTTL = 30 * time.Second

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.Layout.GridColumns <= 0 {
		return fmt.Errorf("layout grid columns must be positive, got %d", c.Layout.GridColumns)
	}
	if c.MaxFallbackNodes < 0 {
		return fmt.Errorf("max fallback nodes must not be negative")
	}
	if c.MaxBPM <= 0 {
		return fmt.Errorf("max bpm must be positive")
	}
	if c.MinDurationMs <= 0 || c.MinDurationMs > c.MaxDurationMs {
		return fmt.Errorf("invalid duration bounds [%d, %d]", c.MinDurationMs, c.MaxDurationMs)
	}
	if c.DefaultDurationMs < c.MinDurationMs || c.DefaultDurationMs > c.MaxDurationMs {
		return fmt.Errorf("default duration %d outside [%d, %d]", c.DefaultDurationMs, c.MinDurationMs, c.MaxDurationMs)
	}
	return nil
}
