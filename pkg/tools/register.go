package tools

// Tool sets per agent. The chat agent runs without tools; the search agent
// carries the full HITL and research set.
//
//nolint:gochecknoglobals // Shared allow-lists, referenced from agent construction
var (
	ChatTools   = []string{}
	SearchTools = []string{
		ToolWebSearch,
		ToolAskUserQuestion,
		ToolCollectFeedback,
	}
)

//nolint:gochecknoinits // Tools self-register before the registry is sealed
func init() {
	Register(ToolAskUserQuestion, func(AgentContext) (Tool, error) {
		return NewAskUserQuestionTool(), nil
	}, metaFor(NewAskUserQuestionTool()))

	Register(ToolCollectFeedback, func(AgentContext) (Tool, error) {
		return NewCollectFeedbackTool(), nil
	}, metaFor(NewCollectFeedbackTool()))

	Register(ToolWebSearch, func(AgentContext) (Tool, error) {
		return NewWebSearchTool(), nil
	}, metaFor(NewWebSearchTool()))
}

// metaFor derives registry metadata from a tool's definition.
func metaFor(t Tool) *ToolMeta {
	def := t.Definition()
	return &ToolMeta{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: def.InputSchema,
	}
}
