package prompt

// Bounds requested from the model. Responses are not clamped to them.
const (
	ScoreMin = 0
	ScoreMax = 100
)

// FocusExamples are hints for the label, not a closed vocabulary.
var FocusExamples = []string{
	"Active Listening",
	"Persuasion",
	"Storytelling",
	"Instruction",
	"Conflict Resolution",
}

type AnalysisPromptData struct {
	SourceURL   string
	Transcript  string
	ScoreMin    int
	ScoreMax    int
	FocusLabels []string
}
