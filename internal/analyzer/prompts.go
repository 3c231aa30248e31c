package analyzer

import (
	"fmt"
	"time"
)

const analyzePrompt = `Analyze the following document:
---
%s
---

Today's date is %s.

Please provide:
1. A concise summary of the key points (maximum 5 bullet points)
2. Action items required with deadlines if mentioned
3. Relevant category tags for this document (maximum 5 tags)

Format your response as JSON with the following structure:
{
  "summary": "bullet point summary here",
  "actionItems": [{"task": "task description", "dueDate": "YYYY-MM-DD if a deadline is mentioned, otherwise today's date", "priority": "high, medium or low"}],
  "tags": ["tag1", "tag2", "tag3"]
}`

const askPrompt = `The following is a document text:
---
%s
---

Question about this document: %q

Please answer this question based only on information from the document. If the answer cannot be determined from the document, say so clearly.`

func buildAnalyzePrompt(text string, now time.Time) string {
	return fmt.Sprintf(analyzePrompt, text, now.Format("2006-01-02"))
}

func buildAskPrompt(text, question string) string {
	return fmt.Sprintf(askPrompt, text, question)
}
