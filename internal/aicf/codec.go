package aicf

import (
	"fmt"
	"strconv"
	"strings"
)

// Separators of the format. Fields within a line use fieldSep, list
// entries within a field use entrySep, and csv-style sub-lists use
// subSep. Record lines are separated by newlines, which is why literal
// newlines in values must be escaped.
const (
	fieldSep = '|'
	entrySep = ';'
	subSep   = ','
)

// Top-level field names. Encode always emits them in this order;
// Decode accepts any order and ignores names it does not know.
const (
	fieldVersion        = "version"
	fieldTimestamp      = "timestamp"
	fieldConversationID = "conversationId"
	fieldUserIntents    = "userIntents"
	fieldAIActions      = "aiActions"
	fieldTechnicalWork  = "technicalWork"
	fieldDecisions      = "decisions"
	fieldFlow           = "flow"
	fieldWorkingState   = "workingState"
)

var requiredFields = []string{
	fieldVersion,
	fieldTimestamp,
	fieldConversationID,
	fieldUserIntents,
	fieldAIActions,
	fieldTechnicalWork,
	fieldDecisions,
	fieldFlow,
	fieldWorkingState,
}

// FormatError reports a malformed record encountered while decoding.
// It is local to Decode: callers get it back as a typed value and the
// orchestrator is never crashed by bad record text.
type FormatError struct {
	// Field is the record field the problem was found in.
	Field string
	// Reason describes what was wrong.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed record: %s: %s", e.Field, e.Reason)
}

// escaper rewrites both reserved characters in a single pass so an
// already-escaped sequence is never transformed twice.
var escaper = strings.NewReplacer("\n", `\n`, "|", `\|`)

// escapeValue makes a free-text leaf safe for insertion into a field:
// literal newlines become the two characters `\n` and literal pipes
// become `\|`.
func escapeValue(s string) string {
	return escaper.Replace(s)
}

// unescapeValue reverses escapeValue in one pass. Backslashes that do
// not start a known escape are kept as-is.
func unescapeValue(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '|':
				b.WriteByte('|')
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// splitEscaped splits s on sep, treating a backslash as shielding the
// byte that follows it. This keeps escaped pipes inside leaves from
// being read as separators.
func splitEscaped(s string, sep byte) []string {
	var parts []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(c)
			b.WriteByte(s[i+1])
			i++
			continue
		}
		if c == sep {
			parts = append(parts, b.String())
			b.Reset()
			continue
		}
		b.WriteByte(c)
	}
	parts = append(parts, b.String())
	return parts
}

// SanitizeLeaf prepares free text for use as a tuple leaf. The escaping
// discipline covers pipes and newlines only, so entry separators have to
// be removed by the producer; semicolons become commas.
func SanitizeLeaf(s string) string {
	return strings.ReplaceAll(s, ";", ",")
}

// SanitizeLabel prepares free text for use inside a csv sub-list, where
// commas and semicolons both act as structure.
func SanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, ",", " ")
	return strings.ReplaceAll(s, ";", " ")
}

// Encode renders a record as AICF text: one `fieldName|fieldValue` line
// per field, in the fixed field order, joined by newlines with no
// trailing newline. Encoding never fails; every free-text leaf is
// escaped on the way in.
func Encode(r *Record) string {
	var b strings.Builder

	writeLine(&b, fieldVersion, escapeValue(r.Version))
	writeLine(&b, fieldTimestamp, escapeValue(r.Timestamp))
	writeLine(&b, fieldConversationID, escapeValue(r.ConversationID))
	writeLine(&b, fieldUserIntents, encodeIntents(r.UserIntents))
	writeLine(&b, fieldAIActions, encodeActions(r.AIActions))
	writeLine(&b, fieldTechnicalWork, encodeWork(r.TechnicalWork))
	writeLine(&b, fieldDecisions, encodeDecisions(r.Decisions))
	writeLine(&b, fieldFlow, encodeFlow(r.Flow))
	b.WriteString(fieldWorkingState)
	b.WriteByte(fieldSep)
	b.WriteString(encodeWorkingState(r.WorkingState))

	return b.String()
}

func writeLine(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteByte(fieldSep)
	b.WriteString(value)
	b.WriteByte('\n')
}

func encodeIntents(entries []IntentEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = escapeValue(e.Text) + "|" + escapeValue(e.Category)
	}
	return strings.Join(parts, ";")
}

func encodeActions(entries []ActionEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = escapeValue(e.AgentID) + "|" + escapeValue(e.Summary) + "|" + strconv.Itoa(e.Tokens)
	}
	return strings.Join(parts, ";")
}

func encodeWork(entries []WorkEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = escapeValue(e.Action) + "|" + escapeValue(e.Detail)
	}
	return strings.Join(parts, ";")
}

func encodeDecisions(entries []DecisionEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = escapeValue(e.Decision) + "|" + escapeValue(e.Rationale)
	}
	return strings.Join(parts, ";")
}

func encodeFlow(f FlowSummary) string {
	labels := make([]string, len(f.Sequence))
	for i, l := range f.Sequence {
		labels[i] = escapeValue(l)
	}
	return strconv.Itoa(f.TurnCount) + "|" + escapeValue(f.DominantRole) + "|" + strings.Join(labels, ",")
}

func encodeWorkingState(w WorkingState) string {
	blockers := make([]string, len(w.Blockers))
	for i, bl := range w.Blockers {
		blockers[i] = escapeValue(bl)
	}
	return escapeValue(w.CurrentTask) + "|" + strings.Join(blockers, ",") + "|" + escapeValue(w.NextAction)
}

// Decode parses AICF text into a fresh record. Line order does not
// matter and unknown field names are skipped. It returns a *FormatError
// when a required field is missing, a numeric subfield is non-numeric,
// the dominant role is unknown, or a line or entry is structurally
// wrong.
func Decode(text string) (*Record, error) {
	rec := &Record{}
	seen := make(map[string]bool, len(requiredFields))

	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "|")
		if !ok {
			return nil, &FormatError{Field: name, Reason: "line has no field separator"}
		}

		switch name {
		case fieldVersion:
			rec.Version = unescapeValue(value)
		case fieldTimestamp:
			rec.Timestamp = unescapeValue(value)
		case fieldConversationID:
			rec.ConversationID = unescapeValue(value)
		case fieldUserIntents:
			entries, err := decodeIntents(value)
			if err != nil {
				return nil, err
			}
			rec.UserIntents = entries
		case fieldAIActions:
			entries, err := decodeActions(value)
			if err != nil {
				return nil, err
			}
			rec.AIActions = entries
		case fieldTechnicalWork:
			entries, err := decodeWork(value)
			if err != nil {
				return nil, err
			}
			rec.TechnicalWork = entries
		case fieldDecisions:
			entries, err := decodeDecisions(value)
			if err != nil {
				return nil, err
			}
			rec.Decisions = entries
		case fieldFlow:
			flow, err := decodeFlow(value)
			if err != nil {
				return nil, err
			}
			rec.Flow = flow
		case fieldWorkingState:
			ws, err := decodeWorkingState(value)
			if err != nil {
				return nil, err
			}
			rec.WorkingState = ws
		default:
			// Unknown fields are tolerated for forward compatibility.
			continue
		}
		seen[name] = true
	}

	for _, name := range requiredFields {
		if !seen[name] {
			return nil, &FormatError{Field: name, Reason: "required field missing"}
		}
	}

	return rec, nil
}

func decodeIntents(value string) ([]IntentEntry, error) {
	if value == "" {
		return nil, nil
	}
	var entries []IntentEntry
	for _, raw := range splitEscaped(value, entrySep) {
		leaves := splitEscaped(raw, fieldSep)
		if len(leaves) != 2 {
			return nil, &FormatError{
				Field:  fieldUserIntents,
				Reason: fmt.Sprintf("entry has %d fields, want 2", len(leaves)),
			}
		}
		entries = append(entries, IntentEntry{
			Text:     unescapeValue(leaves[0]),
			Category: unescapeValue(leaves[1]),
		})
	}
	return entries, nil
}

func decodeActions(value string) ([]ActionEntry, error) {
	if value == "" {
		return nil, nil
	}
	var entries []ActionEntry
	for _, raw := range splitEscaped(value, entrySep) {
		leaves := splitEscaped(raw, fieldSep)
		if len(leaves) != 3 {
			return nil, &FormatError{
				Field:  fieldAIActions,
				Reason: fmt.Sprintf("entry has %d fields, want 3", len(leaves)),
			}
		}
		tokens, err := strconv.Atoi(unescapeValue(leaves[2]))
		if err != nil {
			return nil, &FormatError{
				Field:  fieldAIActions,
				Reason: fmt.Sprintf("non-numeric token count %q", leaves[2]),
			}
		}
		entries = append(entries, ActionEntry{
			AgentID: unescapeValue(leaves[0]),
			Summary: unescapeValue(leaves[1]),
			Tokens:  tokens,
		})
	}
	return entries, nil
}

func decodeWork(value string) ([]WorkEntry, error) {
	if value == "" {
		return nil, nil
	}
	var entries []WorkEntry
	for _, raw := range splitEscaped(value, entrySep) {
		leaves := splitEscaped(raw, fieldSep)
		if len(leaves) != 2 {
			return nil, &FormatError{
				Field:  fieldTechnicalWork,
				Reason: fmt.Sprintf("entry has %d fields, want 2", len(leaves)),
			}
		}
		entries = append(entries, WorkEntry{
			Action: unescapeValue(leaves[0]),
			Detail: unescapeValue(leaves[1]),
		})
	}
	return entries, nil
}

func decodeDecisions(value string) ([]DecisionEntry, error) {
	if value == "" {
		return nil, nil
	}
	var entries []DecisionEntry
	for _, raw := range splitEscaped(value, entrySep) {
		leaves := splitEscaped(raw, fieldSep)
		if len(leaves) != 2 {
			return nil, &FormatError{
				Field:  fieldDecisions,
				Reason: fmt.Sprintf("entry has %d fields, want 2", len(leaves)),
			}
		}
		entries = append(entries, DecisionEntry{
			Decision:  unescapeValue(leaves[0]),
			Rationale: unescapeValue(leaves[1]),
		})
	}
	return entries, nil
}

func decodeFlow(value string) (FlowSummary, error) {
	leaves := splitEscaped(value, fieldSep)
	if len(leaves) != 3 {
		return FlowSummary{}, &FormatError{
			Field:  fieldFlow,
			Reason: fmt.Sprintf("value has %d fields, want 3", len(leaves)),
		}
	}

	turns, err := strconv.Atoi(unescapeValue(leaves[0]))
	if err != nil {
		return FlowSummary{}, &FormatError{
			Field:  fieldFlow,
			Reason: fmt.Sprintf("non-numeric turn count %q", leaves[0]),
		}
	}

	role := unescapeValue(leaves[1])
	switch role {
	case RoleUser, RoleAssistant, RoleBalanced:
	default:
		return FlowSummary{}, &FormatError{
			Field:  fieldFlow,
			Reason: fmt.Sprintf("unknown dominant role %q", role),
		}
	}

	var sequence []string
	if leaves[2] != "" {
		for _, raw := range splitEscaped(leaves[2], subSep) {
			sequence = append(sequence, unescapeValue(raw))
		}
	}

	return FlowSummary{TurnCount: turns, DominantRole: role, Sequence: sequence}, nil
}

func decodeWorkingState(value string) (WorkingState, error) {
	leaves := splitEscaped(value, fieldSep)
	if len(leaves) != 3 {
		return WorkingState{}, &FormatError{
			Field:  fieldWorkingState,
			Reason: fmt.Sprintf("value has %d fields, want 3", len(leaves)),
		}
	}

	var blockers []string
	if leaves[1] != "" {
		for _, raw := range splitEscaped(leaves[1], subSep) {
			blockers = append(blockers, unescapeValue(raw))
		}
	}

	return WorkingState{
		CurrentTask: unescapeValue(leaves[0]),
		Blockers:    blockers,
		NextAction:  unescapeValue(leaves[2]),
	}, nil
}
