package aicf

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// Leaf text may contain the reserved pipe and newline, which the codec
// escapes. Backslashes and semicolons are excluded because producers
// sanitize them out of free text before encoding.
var leafRunes = []rune("abcdefgh XYZ0129.,:|\n")

// Labels live in csv sub-lists, so commas are excluded too.
var labelRunes = []rune("abcdefgh XYZ0129.:|\n")

func drawLeaf(t *rapid.T, name string) string {
	return rapid.StringOfN(rapid.RuneFrom(leafRunes), 0, 16, -1).Draw(t, name)
}

func drawLabels(t *rapid.T, name string) []string {
	n := rapid.IntRange(0, 3).Draw(t, name+"Count")
	if n == 0 {
		return nil
	}
	labels := make([]string, n)
	for i := range labels {
		labels[i] = rapid.StringOfN(rapid.RuneFrom(labelRunes), 1, 12, -1).Draw(t, fmt.Sprintf("%s%d", name, i))
	}
	return labels
}

func drawRecord(t *rapid.T) *Record {
	rec := &Record{
		Version:        RecordVersion,
		Timestamp:      "2026-08-22T14:30:00Z",
		ConversationID: drawLeaf(t, "conversationId"),
		Flow: FlowSummary{
			TurnCount:    rapid.IntRange(0, 500).Draw(t, "turnCount"),
			DominantRole: rapid.SampledFrom([]string{RoleUser, RoleAssistant, RoleBalanced}).Draw(t, "dominantRole"),
			Sequence:     drawLabels(t, "sequence"),
		},
		WorkingState: WorkingState{
			CurrentTask: drawLeaf(t, "currentTask"),
			Blockers:    drawLabels(t, "blockers"),
			NextAction:  drawLeaf(t, "nextAction"),
		},
	}

	for i, n := 0, rapid.IntRange(0, 3).Draw(t, "intentCount"); i < n; i++ {
		rec.UserIntents = append(rec.UserIntents, IntentEntry{
			Text:     drawLeaf(t, fmt.Sprintf("intentText%d", i)),
			Category: drawLeaf(t, fmt.Sprintf("intentCategory%d", i)),
		})
	}
	for i, n := 0, rapid.IntRange(0, 3).Draw(t, "actionCount"); i < n; i++ {
		rec.AIActions = append(rec.AIActions, ActionEntry{
			AgentID: drawLeaf(t, fmt.Sprintf("actionAgent%d", i)),
			Summary: drawLeaf(t, fmt.Sprintf("actionSummary%d", i)),
			Tokens:  rapid.IntRange(0, 100000).Draw(t, fmt.Sprintf("actionTokens%d", i)),
		})
	}
	for i, n := 0, rapid.IntRange(0, 3).Draw(t, "workCount"); i < n; i++ {
		rec.TechnicalWork = append(rec.TechnicalWork, WorkEntry{
			Action: drawLeaf(t, fmt.Sprintf("workAction%d", i)),
			Detail: drawLeaf(t, fmt.Sprintf("workDetail%d", i)),
		})
	}
	for i, n := 0, rapid.IntRange(0, 3).Draw(t, "decisionCount"); i < n; i++ {
		rec.Decisions = append(rec.Decisions, DecisionEntry{
			Decision:  drawLeaf(t, fmt.Sprintf("decision%d", i)),
			Rationale: drawLeaf(t, fmt.Sprintf("rationale%d", i)),
		})
	}

	return rec
}

func TestCodec_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := drawRecord(t)

		decoded, err := Decode(Encode(rec))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if !reflect.DeepEqual(decoded, rec) {
			t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", decoded, rec)
		}
	})
}

func TestEncode_StructureProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := drawRecord(t)

		lines := strings.Split(Encode(rec), "\n")
		if len(lines) != len(requiredFields) {
			t.Fatalf("Encode() produced %d lines, want %d", len(lines), len(requiredFields))
		}
		for i, name := range requiredFields {
			if !strings.HasPrefix(lines[i], name+"|") {
				t.Fatalf("line %d = %q, want prefix %q", i, lines[i], name+"|")
			}
		}
	})
}
