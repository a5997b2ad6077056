package extraction

import _ "embed"

// PromptVersion identifies the prompt pair below; it is stored with each score.
const PromptVersion = "v1"

var (
	//go:embed prompts/jd_v1.txt
	jdPromptV1 string
	//go:embed prompts/resume_v1.txt
	resumePromptV1 string
)
