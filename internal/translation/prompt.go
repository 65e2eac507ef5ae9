package translation

import (
	"fmt"
	"strings"
)

// The instruction templates below have their wording fixed on purpose;
// callers must not alter or parameterize them.
const (
	dualTargetInstruction = `Translate the following Japanese message into both Polish and English.
Reply in exactly two lines using this format:
Polish: <Polish translation>
English: <English translation>`

	singleTargetInstruction = `Translate the following message into Japanese.
Reply with the Japanese translation only.`

	contextHeader = `Recent messages from the same sender, oldest first, for reference:`

	contextInstruction = `Use them only to resolve pronouns and omitted subjects in the message below.`

	stylingInstruction = `Keep the casual register of everyday team chat. Preserve the tone and intent of the original, prefer natural nuance over literal wording, and do not shorten or embellish the content.`
)

// BuildPrompt composes the translation request for a message. The output
// is deterministic for identical inputs. A Japanese source requests the
// dual Polish+English rendition; any other source requests Japanese only.
func BuildPrompt(message string, history []HistoryEntry, source Language) string {
	var sb strings.Builder

	if source == Japanese {
		sb.WriteString(dualTargetInstruction)
	} else {
		sb.WriteString(singleTargetInstruction)
	}
	sb.WriteString("\n\n")

	if len(history) > 0 {
		sb.WriteString(contextHeader)
		sb.WriteString("\n")
		for i, entry := range history {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, entry.Message)
		}
		sb.WriteString(contextInstruction)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "Message: %s\n\n", message)
	sb.WriteString(stylingInstruction)

	return sb.String()
}
