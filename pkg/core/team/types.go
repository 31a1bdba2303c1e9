// Package team detects a task's type from its description and picks the
// supervisor team best suited to review it, grounded on the teacher's
// agent.Config/AgentConfig YAML-loadable shape.
package team

// SupervisorProfile maps a supervisor name to the strength tags it is
// known for. Tags are free-form; the selector does not read them.
type SupervisorProfile struct {
	Name      string   `yaml:"name"`
	Strengths []string `yaml:"strengths"`
}

// TaskType is one of the eleven wire-visible task classification strings.
type TaskType string

const (
	TaskSecurityAudit TaskType = "security-audit"
	TaskUIDesign      TaskType = "ui-design"
	TaskBugFix        TaskType = "bug-fix"
	TaskDocumentation TaskType = "documentation"
	TaskTesting       TaskType = "testing"
	TaskArchitecture  TaskType = "architecture"
	TaskPerformance   TaskType = "performance"
	TaskAPIDesign     TaskType = "api-design"
	TaskCodeReview    TaskType = "code-review"
	TaskRefactoring   TaskType = "refactoring"
	TaskGeneral       TaskType = "general"
)

// ConsensusMode mirrors the wire-visible consensus mode strings consumed
// by pkg/core/consensus; duplicated here (rather than imported) to keep
// team free of a dependency on consensus, since a template only needs to
// name the mode, never evaluate it.
type ConsensusMode string

// TeamTemplate is a task-type's default review team.
type TeamTemplate struct {
	Type          TaskType      `yaml:"type"`
	Supervisors   []string      `yaml:"supervisors"`
	Lead          string        `yaml:"lead"`
	ConsensusMode ConsensusMode `yaml:"consensus_mode"`
}

// Config is the YAML-loadable document overriding built-in profiles and
// templates, grounded on the teacher's agent.Config shape.
type Config struct {
	Profiles  []SupervisorProfile `yaml:"profiles"`
	Templates []TeamTemplate      `yaml:"templates"`
	Disabled  bool                `yaml:"disabled"`
}

// Detection is the result of Detect.
type Detection struct {
	Type       TaskType
	Confidence float64
}

// Selection is the result of Selector.SelectTeam.
type Selection struct {
	Team       []string
	Lead       string
	Mode       ConsensusMode
	Type       TaskType
	Confidence float64
	Reasoning  string
}

// Task is the minimal shape the selector needs from a review task.
type Task struct {
	Description   string
	Context       string
	FilesAffected []string
}
