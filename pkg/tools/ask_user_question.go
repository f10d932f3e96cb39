package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"agentd/pkg/logx"
)

// ToolAskUserQuestion is the constant name for the structured question tool.
const ToolAskUserQuestion = "ask_user_question"

// Question set limits.
const (
	maxHeaderChars = 12
	minOptions     = 2
	maxOptions     = 4
	minQuestions   = 1
	maxQuestions   = 4
)

// Result status values, shared with the server layer.
const (
	StatusAwaitingUserInput = "awaiting_user_input"
	StatusCompleted         = "completed"
	StatusFailed            = "failed"
)

//nolint:gochecknoglobals // Package logger, matches persistence dbLogger pattern
var askUserLogger = logx.NewLogger("askuser")

// QuestionOption is a single choice offered to the human. Label is the
// answer-matching key and is expected to be unique within its question;
// uniqueness is the caller's responsibility and is not enforced here.
type QuestionOption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Question is one unit of inquiry: prompt text, a short header chip shown in
// the UI, 2-4 options, and whether multiple options may be selected.
// Construct via NewQuestion so the invariants hold.
type Question struct {
	Question    string           `json:"question"`
	Header      string           `json:"header"`
	Options     []QuestionOption `json:"options"`
	MultiSelect bool             `json:"multiSelect"`
}

// NewQuestion validates and constructs a Question.
// The header is limited to 12 characters and the option count to [2,4];
// question text that does not end with '?' logs a warning but is accepted.
func NewQuestion(question, header string, options []QuestionOption, multiSelect bool) (Question, error) {
	if utf8.RuneCountInString(header) > maxHeaderChars {
		return Question{}, &ValidationError{
			Msg: fmt.Sprintf("header %q exceeds %d character limit", header, maxHeaderChars),
		}
	}
	if len(options) < minOptions || len(options) > maxOptions {
		return Question{}, &ValidationError{
			Msg: fmt.Sprintf("must have %d-%d options, got %d", minOptions, maxOptions, len(options)),
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(question), "?") {
		askUserLogger.Warn("question should end with '?': %s", question)
	}

	return Question{
		Question:    question,
		Header:      header,
		Options:     append([]QuestionOption(nil), options...),
		MultiSelect: multiSelect,
	}, nil
}

// NewQuestionInput assembles the raw record shape accepted by Evaluate from
// typed arguments. It performs no validation; malformed input is reported by
// Evaluate on first use. Marshal a slice of these to build the questions JSON.
func NewQuestionInput(question, header string, options []QuestionOption, multiSelect bool) map[string]any {
	opts := make([]map[string]string, 0, len(options))
	for _, o := range options {
		opts = append(opts, map[string]string{
			"label":       o.Label,
			"description": o.Description,
		})
	}
	return map[string]any{
		"question":    question,
		"header":      header,
		"options":     opts,
		"multiSelect": multiSelect,
	}
}

// FormatError reports input that is not syntactically valid JSON.
type FormatError struct {
	Field string // "questions" or "answers"
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s JSON: %v", e.Field, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ShapeError reports a questions payload whose top-level value is not an array.
type ShapeError struct{}

func (e *ShapeError) Error() string {
	return "questions JSON must be an array of question objects"
}

// CountError reports a question count outside the allowed range.
type CountError struct {
	Count int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("must ask %d-%d questions, got %d", minQuestions, maxQuestions, e.Count)
}

// FieldError reports a question record with missing required fields.
type FieldError struct {
	Index int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("question %d missing required fields", e.Index)
}

// OptionFieldError reports an option record with a missing label or description.
type OptionFieldError struct {
	Question int
	Option   int
}

func (e *OptionFieldError) Error() string {
	return fmt.Sprintf("option %d in question %d missing 'label' or 'description'", e.Option, e.Question)
}

// ValidationError reports a Question invariant violation at construction time.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// askResult is the ask-phase payload rendered to the human.
type askResult struct {
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
	Status         string     `json:"status"`
}

// completedResult is the resume-phase payload returned to the agent.
type completedResult struct {
	Answers        map[string][]string `json:"answers"`
	QuestionsAsked int                 `json:"questions_asked"`
	Status         string              `json:"status"`
}

// failedResult is the error payload for either phase.
type failedResult struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

// Evaluate implements the two-phase ask/resume exchange over a question set.
//
// The first call passes the question set alone (answersJSON empty) and yields
// an awaiting_user_input payload for the host to render; after the human
// responds, the caller invokes Evaluate again with the same question set plus
// an answers map keyed "question_0", "question_1", ... by array position, and
// receives the completed payload with selections keyed by question header.
//
// Evaluate holds no state between the two calls and never blocks; suspending
// the run while answers are collected is entirely the caller's job. Answers
// are not checked against the declared option labels, so free-text selections
// pass through untouched. Every failure mode is returned as a
// {status:"failed"} payload rather than an error: the caller is typically an
// LLM agent that handles structured results better than transport failures.
func Evaluate(questionsJSON, answersJSON string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			askUserLogger.Error("%s panicked: %v", ToolAskUserQuestion, r)
			out = marshalResult(failedResult{Error: fmt.Sprint(r), Status: StatusFailed})
		}
	}()

	questions, err := parseQuestionSet(questionsJSON)
	if err != nil {
		askUserLogger.Error("%s failed: %v", ToolAskUserQuestion, err)
		return marshalResult(failedResult{Error: err.Error(), Status: StatusFailed})
	}

	// Ask phase: no answers yet, hand the questions back for display.
	if answersJSON == "" {
		askUserLogger.Info("waiting for user to answer %d question(s)", len(questions))
		return marshalResult(askResult{
			Questions:      questions,
			TotalQuestions: len(questions),
			Status:         StatusAwaitingUserInput,
		})
	}

	// Resume phase: map answers back to question headers.
	var answers map[string]any
	if err := json.Unmarshal([]byte(answersJSON), &answers); err != nil {
		ferr := &FormatError{Field: "answers", Err: err}
		askUserLogger.Error("%s failed: %v", ToolAskUserQuestion, ferr)
		return marshalResult(failedResult{Error: ferr.Error(), Status: StatusFailed})
	}

	result := completedResult{
		Answers:        make(map[string][]string, len(questions)),
		QuestionsAsked: len(questions),
		Status:         StatusCompleted,
	}
	for idx := range questions {
		q := &questions[idx]
		key := fmt.Sprintf("question_%d", idx)

		value, ok := answers[key]
		if !ok {
			askUserLogger.Warn("no answer provided for question: %s", q.Header)
			result.Answers[q.Header] = make([]string, 0)
			continue
		}
		result.Answers[q.Header] = coerceSelection(value)
	}

	askUserLogger.Info("user answered %d question(s)", len(questions))
	return marshalResult(result)
}

// parseQuestionSet parses and validates the raw question array.
// Any failure aborts the whole set; partial question sets are never accepted.
func parseQuestionSet(questionsJSON string) ([]Question, error) {
	var raw any
	if err := json.Unmarshal([]byte(questionsJSON), &raw); err != nil {
		return nil, &FormatError{Field: "questions", Err: err}
	}

	records, ok := raw.([]any)
	if !ok {
		return nil, &ShapeError{}
	}
	if len(records) < minQuestions || len(records) > maxQuestions {
		return nil, &CountError{Count: len(records)}
	}

	questions := make([]Question, 0, len(records))
	for idx, record := range records {
		fields, ok := record.(map[string]any)
		if !ok {
			return nil, &FieldError{Index: idx}
		}
		for _, key := range []string{"question", "header", "options", "multiSelect"} {
			if _, present := fields[key]; !present {
				return nil, &FieldError{Index: idx}
			}
		}

		rawOptions, ok := fields["options"].([]any)
		if !ok {
			return nil, fmt.Errorf("error parsing question %d: options must be an array", idx)
		}
		options := make([]QuestionOption, 0, len(rawOptions))
		for optIdx, rawOption := range rawOptions {
			optFields, ok := rawOption.(map[string]any)
			if !ok {
				return nil, &OptionFieldError{Question: idx, Option: optIdx}
			}
			label, hasLabel := optFields["label"]
			description, hasDescription := optFields["description"]
			if !hasLabel || !hasDescription {
				return nil, &OptionFieldError{Question: idx, Option: optIdx}
			}
			options = append(options, QuestionOption{
				Label:       stringify(label),
				Description: stringify(description),
			})
		}

		multiSelect, _ := fields["multiSelect"].(bool)
		question, err := NewQuestion(stringify(fields["question"]), stringify(fields["header"]), options, multiSelect)
		if err != nil {
			return nil, fmt.Errorf("error parsing question %d: %w", idx, err)
		}
		questions = append(questions, question)
	}

	return questions, nil
}

// coerceSelection normalizes an answer value to a list of labels,
// wrapping a scalar into a one-element list.
func coerceSelection(value any) []string {
	if list, ok := value.([]any); ok {
		selection := make([]string, 0, len(list))
		for _, item := range list {
			selection = append(selection, stringify(item))
		}
		return selection
	}
	return []string{stringify(value)}
}

// stringify renders a decoded JSON value as a label string.
func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// marshalResult serializes a result payload. Marshaling these shapes cannot
// fail; the fallback exists so the function still never returns invalid JSON.
func marshalResult(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q, "status": %q}`, err.Error(), StatusFailed)
	}
	return string(data)
}

// AskUserQuestionTool exposes Evaluate as an agent tool. The ask phase
// attaches an AWAIT_USER effect so the agent loop pauses the run while the
// host collects answers out-of-band.
type AskUserQuestionTool struct{}

// NewAskUserQuestionTool creates a new ask_user_question tool instance.
func NewAskUserQuestionTool() *AskUserQuestionTool {
	return &AskUserQuestionTool{}
}

// Name returns the tool identifier.
func (t *AskUserQuestionTool) Name() string {
	return ToolAskUserQuestion
}

// Definition returns the tool's declaration for LLM APIs.
func (t *AskUserQuestionTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolAskUserQuestion,
		Description: `Ask the user 1-4 structured questions with single or multiple choice options. Use this tool when:
- The user's request is ambiguous and you need to clarify intent before proceeding
- Multiple valid interpretations or approaches exist and the user must pick one
- You need the user's preference among a small set of concrete options
Each question needs: question (should end with '?'), header (max 12 chars), 2-4 options with label and description, and multiSelect.
The first call returns the questions for display and pauses the run; answers arrive on the resumed call.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"questions": {
					Type:        "string",
					Description: `JSON array of question objects, e.g. [{"question":"Which framework?","header":"Framework","options":[{"label":"React","description":"UI library"},{"label":"Vue","description":"Progressive framework"}],"multiSelect":false}]`,
				},
				"answers": {
					Type:        "string",
					Description: `JSON object mapping positional keys to selected labels, e.g. {"question_0":["React"]}. Leave unset on the first call; the host supplies it when resuming.`,
				},
			},
			Required: []string{"questions"},
		},
	}
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *AskUserQuestionTool) PromptDocumentation() string {
	return `- **ask_user_question** - Ask the user 1-4 structured single/multiple choice questions
  - Parameters:
    - questions (string, required): JSON array of {question, header, options, multiSelect}
    - answers (string, optional): supplied by the host when the run resumes
  - header is a short chip label, max 12 characters; each question has 2-4 options
  - The run pauses after the first call; answers come back keyed by question header
  - ALWAYS include ALL required fields in every question object`
}

// Exec executes the tool. String arguments pass through unchanged; structured
// arguments are re-serialized so agents may send either form.
func (t *AskUserQuestionTool) Exec(_ context.Context, args map[string]any) (*ExecResult, error) {
	rawQuestions, ok := args["questions"]
	if !ok {
		return nil, fmt.Errorf("questions parameter is required")
	}
	questionsJSON, err := argToJSON(rawQuestions)
	if err != nil {
		return nil, fmt.Errorf("questions parameter: %w", err)
	}

	answersJSON := ""
	if rawAnswers, ok := args["answers"]; ok && rawAnswers != nil {
		answersJSON, err = argToJSON(rawAnswers)
		if err != nil {
			return nil, fmt.Errorf("answers parameter: %w", err)
		}
	}

	result := Evaluate(questionsJSON, answersJSON)

	// Peek at the status to decide whether the run must pause.
	var envelope struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal([]byte(result), &envelope)

	if envelope.Status == StatusAwaitingUserInput {
		return &ExecResult{
			Content: result,
			ProcessEffect: &ProcessEffect{
				Signal: SignalAwaitUser,
				Data: map[string]string{
					"tool":      ToolAskUserQuestion,
					"questions": questionsJSON,
				},
			},
		}, nil
	}
	return &ExecResult{Content: result}, nil
}

// argToJSON renders a tool argument as a JSON string: strings pass through,
// structured values are marshaled.
func argToJSON(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("cannot serialize value: %w", err)
	}
	return string(data), nil
}
