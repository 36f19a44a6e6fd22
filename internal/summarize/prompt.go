package summarize

import (
	"fmt"

	"github.com/user/schoolaide/pkg/llm"
)

// EmptyShell is the summary document before any newsletter has been
// processed. The merge prompt requires the model to keep this structure.
const EmptyShell = `<summary>
<policies>
</policies>
<academic>
</academic>
<events>
</events>
<extracurriculars>
</extracurriculars>
<announcements>
</announcements>
</summary>`

const mergeSystemPrompt = `You maintain a single cumulative summary of a school's newsletters. You will receive the current summary document and the text of the newest newsletter. Produce the complete replacement document.

Rules:
1. Merge the new content into the existing summary chronologically. Never discard an item from the current summary unless the budget rule below forces it.
2. Keep the exact tag structure of the document: <summary> containing <policies>, <academic>, <events>, <extracurriculars> and <announcements>. Place every item in the single best-fitting section. Sort <events> chronologically.
3. Preserve all dates, times, locations, numeric figures, named individuals, and referenced documents or links exactly as written.
4. Deduplicate: if the new text repeats something already summarized, keep one entry, preferring the more recent wording.
5. The whole document must stay under %d words. When over budget, drop the oldest content first, removing whole entries. Never cut an entry off mid-sentence.
6. Output only the document. No preamble, no commentary.`

// BuildMergeMessages assembles the incremental merge request: prior summary
// plus the latest newsletter text.
func BuildMergeMessages(previous, latest string, wordBudget int) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: fmt.Sprintf(mergeSystemPrompt, wordBudget)},
		{
			Role: "user",
			Content: fmt.Sprintf("CURRENT SUMMARY\n\n%s\n\nNEW NEWSLETTER TEXT\n\n%s",
				previous, latest),
		},
	}
}
