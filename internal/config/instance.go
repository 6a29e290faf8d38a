package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/robust-cbss/internal/core"
)

// InstanceFile is the YAML form of a planning instance. The grid comes
// either from a MovingAI map file or from inline rows ('.' free, '@' blocked).
type InstanceFile struct {
	Map    string       `yaml:"map,omitempty"`
	Grid   []string     `yaml:"grid,omitempty"`
	Agents []AgentEntry `yaml:"agents"`
	Goals  []int        `yaml:"goals"`

	NoCollisionProb float64 `yaml:"no_collision_prob,omitempty"`
	Alpha           float64 `yaml:"alpha,omitempty"`
}

// AgentEntry places one agent.
type AgentEntry struct {
	Loc     int      `yaml:"loc"`
	Heading string   `yaml:"heading,omitempty"`
	Delay   *float64 `yaml:"delay,omitempty"`
}

// LoadInstance reads an instance file. A relative map path is resolved
// against the instance file's directory; agents without a delay get
// defaultDelay.
func LoadInstance(path string, defaultDelay float64) (*core.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance: %w", err)
	}
	var f InstanceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse instance %s: %w", path, err)
	}
	if f.Map != "" && !filepath.IsAbs(f.Map) {
		f.Map = filepath.Join(filepath.Dir(path), f.Map)
	}
	return f.Build(defaultDelay)
}

// Build converts the file into a validated instance.
func (f *InstanceFile) Build(defaultDelay float64) (*core.Instance, error) {
	var (
		g   *core.Grid
		err error
	)
	switch {
	case f.Map != "" && len(f.Grid) > 0:
		return nil, fmt.Errorf("%w: both map and grid given", core.ErrInvalidInstance)
	case f.Map != "":
		g, err = core.LoadMap(f.Map)
	case len(f.Grid) > 0:
		g, err = core.ParseRows(f.Grid)
	default:
		return nil, fmt.Errorf("%w: no map or grid", core.ErrInvalidInstance)
	}
	if err != nil {
		return nil, err
	}

	inst := core.NewInstance(g)
	for i, a := range f.Agents {
		h, err := core.ParseHeading(a.Heading)
		if err != nil {
			return nil, fmt.Errorf("%w: agent %d: %v", core.ErrInvalidInstance, i, err)
		}
		if !g.InBounds(a.Loc) {
			return nil, fmt.Errorf("%w: agent %d at %d is off the map", core.ErrInvalidInstance, i, a.Loc)
		}
		delay := defaultDelay
		if a.Delay != nil {
			delay = *a.Delay
		}
		inst.AddAgent(a.Loc, h, delay)
	}
	for _, goal := range f.Goals {
		if !g.InBounds(goal) {
			return nil, fmt.Errorf("%w: goal %d is off the map", core.ErrInvalidInstance, goal)
		}
	}
	inst.Goals = append([]int(nil), f.Goals...)
	if f.NoCollisionProb != 0 {
		inst.NoCollisionProb = f.NoCollisionProb
	}
	if f.Alpha != 0 {
		inst.Alpha = f.Alpha
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// FromInstance converts inst back to its file form with inline rows.
func FromInstance(inst *core.Instance) *InstanceFile {
	f := &InstanceFile{
		Grid:            inst.Grid.RowStrings(),
		Goals:           append([]int(nil), inst.Goals...),
		NoCollisionProb: inst.NoCollisionProb,
		Alpha:           inst.Alpha,
	}
	for _, a := range inst.Agents {
		delay := a.DelayProb
		f.Agents = append(f.Agents, AgentEntry{
			Loc:     a.Start.Loc,
			Heading: a.Start.Heading.String(),
			Delay:   &delay,
		})
	}
	return f
}

// SaveInstance writes inst to path as YAML.
func SaveInstance(path string, inst *core.Instance) error {
	data, err := yaml.Marshal(FromInstance(inst))
	if err != nil {
		return fmt.Errorf("encode instance: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write instance: %w", err)
	}
	return nil
}
