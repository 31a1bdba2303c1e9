package team

import "testing"

func TestDetectSecurityAudit(t *testing.T) {
	d := Detect(Task{Description: "Check for SQL injection and auth bypass vulnerab issues"})
	if d.Type != TaskSecurityAudit {
		t.Errorf("expected security-audit, got %s", d.Type)
	}
	if d.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %v", d.Confidence)
	}
}

func TestDetectDocumentationByExtension(t *testing.T) {
	d := Detect(Task{Description: "Update the readme", FilesAffected: []string{"README.md"}})
	if d.Type != TaskDocumentation {
		t.Errorf("expected documentation, got %s", d.Type)
	}
}

func TestDetectGeneralWhenNoMatch(t *testing.T) {
	d := Detect(Task{Description: "Something entirely unrelated to any keyword set"})
	if d.Type != TaskGeneral {
		t.Errorf("expected general, got %s", d.Type)
	}
	if d.Confidence != 0 {
		t.Errorf("expected zero confidence, got %v", d.Confidence)
	}
}

func TestSelectTeamIntersectsAvailable(t *testing.T) {
	sel := NewSelector()
	task := Task{Description: "Fix a crash in the login flow"}
	selection := sel.SelectTeam(task, []string{"debugger", "technical-writer"})

	if selection.Type != TaskBugFix {
		t.Fatalf("expected bug-fix detection, got %s", selection.Type)
	}
	if len(selection.Team) != 1 || selection.Team[0] != "debugger" {
		t.Errorf("expected team [debugger], got %v", selection.Team)
	}
	if selection.Lead != "debugger" {
		t.Errorf("expected lead debugger, got %s", selection.Lead)
	}
}

func TestSelectTeamFallsBackWhenIntersectionEmpty(t *testing.T) {
	sel := NewSelector()
	task := Task{Description: "Fix a crash"}
	selection := sel.SelectTeam(task, []string{"someone-else"})

	if len(selection.Team) != 1 || selection.Team[0] != "someone-else" {
		t.Errorf("expected fallback to all available, got %v", selection.Team)
	}
}

func TestSelectTeamDisabled(t *testing.T) {
	sel := NewSelector()
	sel.disabled = true
	selection := sel.SelectTeam(Task{Description: "anything"}, []string{"a", "b"})
	if len(selection.Team) != 2 {
		t.Errorf("expected all available supervisors when disabled, got %v", selection.Team)
	}
	if selection.Mode != "weighted" {
		t.Errorf("expected weighted mode, got %s", selection.Mode)
	}
}
