package team

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Selector picks a review team for a task, falling back to "everyone
// available" when disabled or when no template matches.
type Selector struct {
	templates map[TaskType]TeamTemplate
	disabled  bool
}

// NewSelector builds a selector seeded with the built-in default
// templates.
func NewSelector() *Selector {
	return &Selector{templates: defaultTemplates()}
}

// LoadConfig reads a YAML document (grounded on the teacher's
// agent.Config loading in cmd/api/main.go), overrides the built-in
// templates it names and sets the disabled flag. Profiles in the document
// are parsed but not used. A missing, unreadable or malformed file returns
// an error and leaves the selector unchanged.
func (s *Selector) LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read team config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse team config %s: %w", path, err)
	}
	s.disabled = cfg.Disabled
	for _, tpl := range cfg.Templates {
		s.templates[tpl.Type] = tpl
	}
	return nil
}

func defaultTemplates() map[TaskType]TeamTemplate {
	templates := []TeamTemplate{
		{Type: TaskSecurityAudit, Supervisors: []string{"security-reviewer", "architect"}, Lead: "security-reviewer", ConsensusMode: "unanimous"},
		{Type: TaskUIDesign, Supervisors: []string{"ux-reviewer", "frontend-reviewer"}, Lead: "ux-reviewer", ConsensusMode: "simple-majority"},
		{Type: TaskBugFix, Supervisors: []string{"debugger", "architect"}, Lead: "debugger", ConsensusMode: "simple-majority"},
		{Type: TaskDocumentation, Supervisors: []string{"technical-writer"}, Lead: "technical-writer", ConsensusMode: "simple-majority"},
		{Type: TaskTesting, Supervisors: []string{"qa-reviewer", "debugger"}, Lead: "qa-reviewer", ConsensusMode: "simple-majority"},
		{Type: TaskArchitecture, Supervisors: []string{"architect", "security-reviewer", "performance-reviewer"}, Lead: "architect", ConsensusMode: "supermajority"},
		{Type: TaskPerformance, Supervisors: []string{"performance-reviewer", "architect"}, Lead: "performance-reviewer", ConsensusMode: "simple-majority"},
		{Type: TaskAPIDesign, Supervisors: []string{"architect", "backend-reviewer"}, Lead: "architect", ConsensusMode: "simple-majority"},
		{Type: TaskCodeReview, Supervisors: []string{"code-reviewer", "architect"}, Lead: "code-reviewer", ConsensusMode: "simple-majority"},
		{Type: TaskRefactoring, Supervisors: []string{"architect", "code-reviewer"}, Lead: "architect", ConsensusMode: "simple-majority"},
		{Type: TaskGeneral, Supervisors: []string{"code-reviewer"}, Lead: "code-reviewer", ConsensusMode: "weighted"},
	}
	m := make(map[TaskType]TeamTemplate, len(templates))
	for _, t := range templates {
		m[t.Type] = t
	}
	return m
}

// SelectTeam picks the review team for task given the set of currently
// available supervisor names.
func (s *Selector) SelectTeam(task Task, available []string) Selection {
	if s.disabled {
		return Selection{Team: available, Mode: "weighted", Type: TaskGeneral, Reasoning: "team selection disabled — using all available supervisors"}
	}

	detection := Detect(task)
	tpl, ok := s.templates[detection.Type]
	if !ok {
		return Selection{Team: available, Mode: "weighted", Type: TaskGeneral, Reasoning: "no template for detected type — using all available supervisors"}
	}

	availSet := make(map[string]bool, len(available))
	for _, a := range available {
		availSet[a] = true
	}

	var team []string
	for _, s := range tpl.Supervisors {
		if availSet[s] {
			team = append(team, s)
		}
	}
	lead := ""
	if len(team) > 0 {
		lead = team[0]
	}
	if len(team) == 0 {
		team = available
	}

	return Selection{
		Team:       team,
		Lead:       lead,
		Mode:       tpl.ConsensusMode,
		Type:       detection.Type,
		Confidence: detection.Confidence,
		Reasoning:  fmt.Sprintf("Detected task type %q (confidence %.2f); using the %q review template.", detection.Type, detection.Confidence, detection.Type),
	}
}
