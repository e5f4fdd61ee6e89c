// Package orchestrator coordinates multi-agent sessions: it plans a
// task into steps, routes each step to the best-fit agent, carries
// compressed AICF context between steps, and persists the session
// record.
package orchestrator

import (
	"fmt"
	"strings"

	"github.com/batonlabs/baton/pkg/models"
)

// buildKeywords are words that indicate construction work.
var buildKeywords = []string{
	"build",
	"create",
	"implement",
	"add",
}

// debugKeywords are words that indicate repair work.
var debugKeywords = []string{
	"fix",
	"debug",
	"error",
	"bug",
}

// analyzeKeywords are words that indicate read-only assessment work.
var analyzeKeywords = []string{
	"analyze",
	"review",
	"evaluate",
}

// TaskAnalyzer classifies a task description and expands it into an
// execution plan.
type TaskAnalyzer struct {
	buildKeywords   []string
	debugKeywords   []string
	analyzeKeywords []string
}

// NewTaskAnalyzer creates a TaskAnalyzer with the default keywords.
func NewTaskAnalyzer() *TaskAnalyzer {
	return &TaskAnalyzer{
		buildKeywords:   append([]string{}, buildKeywords...),
		debugKeywords:   append([]string{}, debugKeywords...),
		analyzeKeywords: append([]string{}, analyzeKeywords...),
	}
}

// Analyze classifies the task and returns its execution plan. It checks
// in priority order:
//  1. Build keywords (build, create, implement, add) -> three-step build plan
//  2. Debug keywords (fix, debug, error, bug) -> two-step debug plan
//  3. Analyze keywords (analyze, review, evaluate) -> single-step analyze plan
//  4. No match -> build plan (the default)
//
// An empty or whitespace-only description yields a single clarify step
// rather than an error; planning never fails.
func (a *TaskAnalyzer) Analyze(taskDescription string) *models.ExecutionPlan {
	if strings.TrimSpace(taskDescription) == "" {
		return clarifyPlan()
	}

	lowerDesc := strings.ToLower(taskDescription)

	for _, keyword := range a.buildKeywords {
		if strings.Contains(lowerDesc, keyword) {
			return buildPlan(taskDescription, keyword)
		}
	}

	for _, keyword := range a.debugKeywords {
		if strings.Contains(lowerDesc, keyword) {
			return debugPlan(taskDescription, keyword)
		}
	}

	for _, keyword := range a.analyzeKeywords {
		if strings.Contains(lowerDesc, keyword) {
			return analyzePlan(taskDescription, keyword)
		}
	}

	// No signal: treat the task as construction work.
	return buildPlan(taskDescription, "")
}

// AnalyzeTask is a convenience function that analyzes the task with a
// default TaskAnalyzer.
func AnalyzeTask(taskDescription string) *models.ExecutionPlan {
	return NewTaskAnalyzer().Analyze(taskDescription)
}

func buildPlan(task, keyword string) *models.ExecutionPlan {
	return &models.ExecutionPlan{
		Intent:         models.IntentBuild,
		MatchedKeyword: keyword,
		Steps: []models.Step{
			{
				Index:       0,
				Name:        "architecture",
				Description: fmt.Sprintf("Design the architecture and plan the work for: %s", task),
				Required:    []models.Capability{models.CapabilityArchitecture, models.CapabilityPlanning},
			},
			{
				Index:       1,
				Name:        "implementation",
				Description: fmt.Sprintf("Implement the solution for: %s", task),
				Required:    []models.Capability{models.CapabilityCoding, models.CapabilityImplementation},
			},
			{
				Index:       2,
				Name:        "review",
				Description: fmt.Sprintf("Review the implementation of: %s", task),
				Required:    []models.Capability{models.CapabilityReasoning, models.CapabilityAnalysis},
			},
		},
	}
}

func debugPlan(task, keyword string) *models.ExecutionPlan {
	return &models.ExecutionPlan{
		Intent:         models.IntentDebug,
		MatchedKeyword: keyword,
		Steps: []models.Step{
			{
				Index:       0,
				Name:        "diagnosis",
				Description: fmt.Sprintf("Diagnose the failure described in: %s", task),
				Required:    []models.Capability{models.CapabilityDebugging, models.CapabilityAnalysis},
			},
			{
				Index:       1,
				Name:        "fix",
				Description: fmt.Sprintf("Apply a fix for: %s", task),
				Required:    []models.Capability{models.CapabilityCoding, models.CapabilityDebugging},
			},
		},
	}
}

func analyzePlan(task, keyword string) *models.ExecutionPlan {
	return &models.ExecutionPlan{
		Intent:         models.IntentAnalyze,
		MatchedKeyword: keyword,
		Steps: []models.Step{
			{
				Index:       0,
				Name:        "analysis",
				Description: fmt.Sprintf("Analyze and report on: %s", task),
				Required:    []models.Capability{models.CapabilityReasoning, models.CapabilityAnalysis},
			},
		},
	}
}

func clarifyPlan() *models.ExecutionPlan {
	return &models.ExecutionPlan{
		Intent: models.IntentClarify,
		Steps: []models.Step{
			{
				Index:       0,
				Name:        "clarify",
				Description: "Ask the user to restate the task; the description was empty.",
				Required:    []models.Capability{models.CapabilityReasoning, models.CapabilityAnalysis},
			},
		},
	}
}
