package runner

import "github.com/gosolc/buildcore/internal/model"

// sourceContent is one entry of the Standard JSON "sources" map.
type sourceContent struct {
	Content string `json:"content"`
}

// standardJSONInput is the Standard JSON compiler input (§4.7): fixed
// language tag, a source-name -> content map, and the job's settings
// forwarded verbatim.
type standardJSONInput struct {
	Language string                   `json:"language"`
	Sources  map[string]sourceContent `json:"sources"`
	Settings map[string]interface{}   `json:"settings,omitempty"`
}

// buildInput forms the Standard JSON input for a job: every file in
// the job's input set (roots and dependencies alike — the compiler
// needs the whole closure to resolve imports), keyed by source name.
func buildInput(job *model.CompilationJob) standardJSONInput {
	sources := make(map[string]sourceContent, len(job.Files))
	for name, f := range job.Files {
		sources[string(name)] = sourceContent{Content: f.Content}
	}
	return standardJSONInput{
		Language: "Solidity",
		Sources:  sources,
		Settings: job.Config.Settings,
	}
}
