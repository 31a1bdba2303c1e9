package debate

import (
	"fmt"
	"strings"
)

// formatTaskPrompt builds the initial round-1 user message per §6: a
// title line, Task ID, Description, Context, a newline-joined Files
// Affected list, and a role instruction asking for four-point analysis.
// Grounded on the teacher's synthesis context formatting in
// generateFinalReport (fmt.Fprintf-built transcript blocks), adapted from
// a finance-report synthesis to a review-request prompt.
func formatTaskPrompt(task Task) string {
	var sb strings.Builder
	sb.WriteString("# Code Review Request\n\n")
	fmt.Fprintf(&sb, "Task ID: %s\n", task.ID)
	fmt.Fprintf(&sb, "Description: %s\n", task.Description)
	if task.Context != "" {
		fmt.Fprintf(&sb, "Context: %s\n", task.Context)
	}
	if len(task.FilesAffected) > 0 {
		sb.WriteString("Files Affected:\n")
		for _, f := range task.FilesAffected {
			fmt.Fprintf(&sb, "%s\n", f)
		}
	}
	sb.WriteString("\nAs a reviewer, provide your analysis covering: (1) code quality, " +
		"(2) risks, (3) suggested improvements, and (4) your approval recommendation.")
	return sb.String()
}

// roundSuffix is appended to the running debate context for rounds 2..R.
const roundSuffix = "Considering the above opinions, provide your refined assessment."

// votePrompt instructs the exact reply format the parser expects (§6).
const votePrompt = "Based on the full discussion, cast your final vote using exactly this format:\n\n" +
	"VOTE: [APPROVE/REJECT]\n" +
	"CONFIDENCE: [0.0-1.0]\n" +
	"REASONING: [your reasoning]"

// formatOpinionsBlock concatenates a round's collected opinions for
// inclusion in the next round's context.
func formatOpinionsBlock(round int, opinions map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Round %d Opinions ---\n", round)
	for name, text := range opinions {
		fmt.Fprintf(&sb, "[%s]: %s\n\n", name, text)
	}
	return sb.String()
}
