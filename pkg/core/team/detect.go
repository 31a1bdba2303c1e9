package team

import (
	"sort"
	"strings"
)

// keywordRule scores a task-type against the combined description+context
// text and the affected file list.
type keywordRule struct {
	taskType TaskType
	keywords []string // plain substrings, so a stem such as "vulnerab" also matches longer words
	exts     []string // file-extension hints, matched against file names
}

var rules = []keywordRule{
	{taskType: TaskSecurityAudit, keywords: []string{"sql injection", "xss", "auth", "vulnerab"}},
	{taskType: TaskUIDesign, keywords: []string{"button", "layout"}, exts: []string{".css", ".tsx"}},
	{taskType: TaskBugFix, keywords: []string{"crash", "fix", "error", "stack trace", "stacktrace"}},
	{taskType: TaskDocumentation, keywords: []string{"readme"}, exts: []string{".md"}},
	{taskType: TaskTesting, keywords: []string{"test"}, exts: []string{".test."}},
	{taskType: TaskArchitecture, keywords: []string{"microservice", "design", "scalab"}},
	{taskType: TaskPerformance, keywords: []string{"latency", "throughput"}},
	{taskType: TaskAPIDesign, keywords: []string{"endpoint", "rest", "graphql"}},
	{taskType: TaskCodeReview, keywords: []string{"review", "pull request", "diff", "approve"}},
	{taskType: TaskRefactoring, keywords: []string{"refactor", "rename", "extract", "dedupe", "clean up"}},
}

// Detect scores every known task-type against the task's text and file
// list, returning the highest-scoring type and its confidence
// (topScore / sum of all scores). Ties break on alphabetic order of the
// type string.
func Detect(t Task) Detection {
	text := strings.ToLower(t.Description + " " + t.Context)
	fileNames := make([]string, 0, len(t.FilesAffected))
	for _, f := range t.FilesAffected {
		fileNames = append(fileNames, strings.ToLower(f))
	}

	scores := make(map[TaskType]int, len(rules))
	total := 0
	for _, r := range rules {
		score := 0
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		for _, ext := range r.exts {
			for _, fn := range fileNames {
				if strings.Contains(fn, ext) {
					score++
					break
				}
			}
		}
		scores[r.taskType] = score
		total += score
	}

	if total == 0 {
		return Detection{Type: TaskGeneral, Confidence: 0}
	}

	types := make([]TaskType, 0, len(scores))
	for t := range scores {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	best := types[0]
	bestScore := scores[best]
	for _, t := range types[1:] {
		if scores[t] > bestScore {
			best = t
			bestScore = scores[t]
		}
	}

	confidence := float64(bestScore) / float64(total)
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return Detection{Type: best, Confidence: confidence}
}
