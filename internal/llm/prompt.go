package llm

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"strings"
)

// SystemPrompt is sent as the system message of every analysis.
const SystemPrompt = "You are an expert resume analyzer."

//go:embed prompts/analyze.txt
var analyzeTemplate string

// BuildPrompt embeds both texts verbatim into the analysis template.
func BuildPrompt(resumeText, jobDescription string) string {
	replacer := strings.NewReplacer(
		"{{RESUME}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobDescription,
	)
	return replacer.Replace(strings.TrimRight(analyzeTemplate, "\n"))
}

// BuildMessages returns the system and user messages for req.
func BuildMessages(req Request) []Message {
	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: BuildPrompt(req.ResumeText, req.JobDescription)},
	}
}

// PromptHash fingerprints messages so logs can correlate calls without storing resumes.
func PromptHash(messages []Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
