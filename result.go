package lintbridge

// Message severity levels, matching the ESLint wire format.
const (
	SeverityWarning = 1
	SeverityError   = 2
)

// Fix carries the byte range and replacement text the engine computed for an
// auto-fixable message.
type Fix struct {
	Range [2]int `json:"range"`
	Text  string `json:"text"`
}

// Message is a single finding inside one analyzed file.
type Message struct {
	RuleID    string `json:"ruleId"`
	Severity  int    `json:"severity"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine,omitempty"`
	EndColumn int    `json:"endColumn,omitempty"`
	Fix       *Fix   `json:"fix,omitempty"`
}

// FileResult holds the findings for one analyzed file. Output is the fully
// fixed source text when the engine ran with fixes enabled; Source is the
// original text the engine saw.
type FileResult struct {
	FilePath     string    `json:"filePath"`
	Messages     []Message `json:"messages"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	Output       string    `json:"output,omitempty"`
	Source       string    `json:"source,omitempty"`
}

// LintResult is the structured outcome of one lint invocation: aggregate
// counts plus the ordered per-file records. The policy engine mutates a
// LintResult locally (quiet filtering, path stamping); a mutated result is
// never written back to the cache.
type LintResult struct {
	ErrorCount   int          `json:"errorCount"`
	WarningCount int          `json:"warningCount"`
	Results      []FileResult `json:"results"`
}

// NewLintResult assembles a LintResult from per-file records, deriving the
// aggregate counts from the per-file ones.
func NewLintResult(files []FileResult) *LintResult {
	res := &LintResult{Results: files}
	for _, f := range files {
		res.ErrorCount += f.ErrorCount
		res.WarningCount += f.WarningCount
	}
	return res
}

// MessageCount returns the total number of messages across all files.
func (r *LintResult) MessageCount() int {
	n := 0
	for _, f := range r.Results {
		n += len(f.Messages)
	}
	return n
}

// Clean reports whether the result carries no findings at all.
func (r *LintResult) Clean() bool {
	return r.ErrorCount == 0 && r.WarningCount == 0
}

// combinedSource concatenates the source text of all analyzed files, used
// when interpolating content hashes into report artifact paths.
func (r *LintResult) combinedSource() string {
	s := ""
	for _, f := range r.Results {
		s += f.Source
	}
	return s
}
