package summarize

import (
	"fmt"
	"strings"
)

const summaryInstruction = `Summarize the sustainability report chapter below.

Rules:
- Write in the requested language
- Stay under the requested character budget
- Lead with concrete measures, figures, and stated commitments
- Skip boilerplate, greetings, and section numbering
- Respond with ONLY the summary text, no headings and no markdown`

// BuildSummaryPrompt assembles the instruction block, the language and
// length constraints, and the chapter text.
func BuildSummaryPrompt(text, targetLanguage string, maxChars int) string {
	var sb strings.Builder
	sb.WriteString(summaryInstruction)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Language: %s\n", targetLanguage))
	sb.WriteString(fmt.Sprintf("Character budget: %d\n", maxChars))
	sb.WriteString("---\n")
	sb.WriteString(text)
	return sb.String()
}
