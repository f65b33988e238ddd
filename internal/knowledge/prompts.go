package knowledge

import "fmt"

const extractionSystemPrompt = `You analyse study material and build a concept map for an educational podcast.
Return a JSON object with exactly these fields:
{"concepts":[{"name":"...","description":"one or two sentences","difficulty":"easy|medium|hard"}],
 "relationships":[{"from":"concept name","to":"concept name","type":"requires|related|opposite|example"}]}
Use "requires" when understanding "from" needs "to" first. Only reference concept names you listed.
Prefer the important ideas over trivia. Return JSON only.`

func extractionPrompt(chunk Chunk, language string) string {
	return fmt.Sprintf("Write names and descriptions in the language with code %q.\n\nMaterial:\n%s", language, chunk.Text)
}
