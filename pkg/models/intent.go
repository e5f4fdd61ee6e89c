package models

// Intent classifies a task into a plan template category.
type Intent string

const (
	// IntentBuild is for constructive tasks that produce new functionality.
	IntentBuild Intent = "build"
	// IntentDebug is for tasks that diagnose and repair defects.
	IntentDebug Intent = "debug"
	// IntentAnalyze is for tasks that evaluate existing work.
	IntentAnalyze Intent = "analyze"
	// IntentClarify is the fallback plan for empty task input.
	IntentClarify Intent = "clarify"
)

// Valid returns true if the intent is a known value.
func (i Intent) Valid() bool {
	switch i {
	case IntentBuild, IntentDebug, IntentAnalyze, IntentClarify:
		return true
	default:
		return false
	}
}
