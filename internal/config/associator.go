package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/units"
)

// DefaultConfigPath is the path to the canonical associator defaults file.
const DefaultConfigPath = "config/associator.defaults.json"

// Denominator values accepted for sim_to_reco_denominator.
const (
	DenominatorSim  = "sim"
	DenominatorReco = "reco"
)

// AssociatorConfig is the root configuration for both associators. Every
// field is optional; the Get* accessors supply defaults for omitted values
// so partial files are safe.
type AssociatorConfig struct {
	// Hit associator
	AbsoluteNumberOfHits     *bool    `json:"absolute_number_of_hits,omitempty"`
	QualitySimToReco         *float64 `json:"quality_sim_to_reco,omitempty"`
	PuritySimToReco          *float64 `json:"purity_sim_to_reco,omitempty"`
	CutRecoToSim             *float64 `json:"cut_reco_to_sim,omitempty"`
	ThreeHitTracksAreSpecial *bool    `json:"three_hit_tracks_are_special,omitempty"`
	SimToRecoDenominator     *string  `json:"sim_to_reco_denominator,omitempty"` // "sim" or "reco"
	AssociatePixel           *bool    `json:"associate_pixel,omitempty"`
	AssociateStrip           *bool    `json:"associate_strip,omitempty"`

	// Chi2 associator
	Chi2Cut      *float64 `json:"chi2_cut,omitempty"`
	OnlyDiagonal *bool    `json:"only_diagonal,omitempty"`
	MinPt        *float64 `json:"min_pt,omitempty"`

	// Unit of field values in event files
	FieldUnit *string `json:"field_unit,omitempty"`
}

// EmptyAssociatorConfig returns a config with all fields unset.
func EmptyAssociatorConfig() *AssociatorConfig {
	return &AssociatorConfig{}
}

// LoadAssociatorConfig loads an AssociatorConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadAssociatorConfig(path string) (*AssociatorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAssociatorConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *AssociatorConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadAssociatorConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *AssociatorConfig) Validate() error {
	if c.SimToRecoDenominator != nil {
		switch *c.SimToRecoDenominator {
		case DenominatorSim, DenominatorReco:
		default:
			return fmt.Errorf("sim_to_reco_denominator must be %q or %q, got %q",
				DenominatorSim, DenominatorReco, *c.SimToRecoDenominator)
		}
	}

	for name, v := range map[string]*float64{
		"quality_sim_to_reco": c.QualitySimToReco,
		"purity_sim_to_reco":  c.PuritySimToReco,
		"cut_reco_to_sim":     c.CutRecoToSim,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}

	if c.Chi2Cut != nil && *c.Chi2Cut <= 0 {
		return fmt.Errorf("chi2_cut must be positive, got %f", *c.Chi2Cut)
	}

	if c.MinPt != nil && *c.MinPt < 0 {
		return fmt.Errorf("min_pt must be non-negative, got %f", *c.MinPt)
	}

	if c.FieldUnit != nil && !units.IsValid(*c.FieldUnit) {
		return fmt.Errorf("field_unit must be one of %s, got %q", units.GetValidUnitsString(), *c.FieldUnit)
	}

	return nil
}

// GetAbsoluteNumberOfHits returns absolute_number_of_hits or the default.
func (c *AssociatorConfig) GetAbsoluteNumberOfHits() bool {
	if c.AbsoluteNumberOfHits == nil {
		return false
	}
	return *c.AbsoluteNumberOfHits
}

// GetQualitySimToReco returns quality_sim_to_reco or the default.
func (c *AssociatorConfig) GetQualitySimToReco() float64 {
	if c.QualitySimToReco == nil {
		return 0.5
	}
	return *c.QualitySimToReco
}

// GetPuritySimToReco returns purity_sim_to_reco or the default.
func (c *AssociatorConfig) GetPuritySimToReco() float64 {
	if c.PuritySimToReco == nil {
		return 0.75
	}
	return *c.PuritySimToReco
}

// GetCutRecoToSim returns cut_reco_to_sim or the default.
func (c *AssociatorConfig) GetCutRecoToSim() float64 {
	if c.CutRecoToSim == nil {
		return 0.75
	}
	return *c.CutRecoToSim
}

// GetThreeHitTracksAreSpecial returns three_hit_tracks_are_special or the default.
func (c *AssociatorConfig) GetThreeHitTracksAreSpecial() bool {
	if c.ThreeHitTracksAreSpecial == nil {
		return true
	}
	return *c.ThreeHitTracksAreSpecial
}

// GetSimToRecoDenominator returns sim_to_reco_denominator or the default.
// The value is returned verbatim; Validate rejects unknown strings.
func (c *AssociatorConfig) GetSimToRecoDenominator() string {
	if c.SimToRecoDenominator == nil || *c.SimToRecoDenominator == "" {
		return DenominatorSim
	}
	return *c.SimToRecoDenominator
}

// GetAssociatePixel returns associate_pixel or the default.
func (c *AssociatorConfig) GetAssociatePixel() bool {
	if c.AssociatePixel == nil {
		return true
	}
	return *c.AssociatePixel
}

// GetAssociateStrip returns associate_strip or the default.
func (c *AssociatorConfig) GetAssociateStrip() bool {
	if c.AssociateStrip == nil {
		return true
	}
	return *c.AssociateStrip
}

// GetChi2Cut returns chi2_cut or the default.
func (c *AssociatorConfig) GetChi2Cut() float64 {
	if c.Chi2Cut == nil {
		return 25.0
	}
	return *c.Chi2Cut
}

// GetOnlyDiagonal returns only_diagonal or the default.
func (c *AssociatorConfig) GetOnlyDiagonal() bool {
	if c.OnlyDiagonal == nil {
		return false
	}
	return *c.OnlyDiagonal
}

// GetMinPt returns min_pt or the default.
func (c *AssociatorConfig) GetMinPt() float64 {
	if c.MinPt == nil {
		return 0.5
	}
	return *c.MinPt
}

// GetFieldUnit returns field_unit or the default.
func (c *AssociatorConfig) GetFieldUnit() string {
	if c.FieldUnit == nil || *c.FieldUnit == "" {
		return units.Tesla
	}
	return *c.FieldUnit
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
