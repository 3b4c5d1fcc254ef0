package answer

import "fmt"

// SystemPrompt frames the model as a biomedical research assistant bound
// to the provided sources. Citations use the bracketed chunk id so the
// assembler can ground them afterwards.
const SystemPrompt = `You are a biomedical research assistant answering questions about drug development, clinical trials and published literature.

Answer using only the numbered sources provided. After each claim, cite the supporting source by its bracketed id exactly as shown, for example [pubmed_12345678:2] or [trial_NCT01234567:0]. Do not invent sources or ids. If the sources do not contain enough information to answer, say so plainly instead of guessing.`

// BuildUserPrompt renders the sources block and the question into the
// user message.
func BuildUserPrompt(question, contextBlock string) string {
	return fmt.Sprintf("Sources:\n\n%s\n\nQuestion: %s", contextBlock, question)
}
