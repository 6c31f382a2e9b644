package domain

// LineType classifies a single line within a unified diff
type LineType string

const (
	LineAdded     LineType = "add"
	LineDeleted   LineType = "del"
	LineUnchanged LineType = "eq"
)

// DiffLine is one line of a unified diff
type DiffLine struct {
	Type       LineType `json:"type"`
	Content    string   `json:"content"`
	LineNumber int      `json:"lineNumber"`
}

// FileDiff holds the parsed diff for a single file in a commit
type FileDiff struct {
	FilePath  string
	OldPath   string // For renames
	Lines     []DiffLine
	IsNew     bool
	IsDeleted bool
	IsRenamed bool
	Truncated bool
}

// DiffDocument is the full diff of one commit, owned by the request that
// fetched it. It is never shared or cached across requests.
type DiffDocument struct {
	Owner     string
	RepoName  string
	CommitSha string
	Message   string
	Files     []FileDiff
}

// MaxDiffLines is the maximum number of lines kept per file
const MaxDiffLines = 300

// AddedLines counts lines added across all files
func (d *DiffDocument) AddedLines() int {
	count := 0
	for _, f := range d.Files {
		for _, l := range f.Lines {
			if l.Type == LineAdded {
				count++
			}
		}
	}
	return count
}

// DeletedLines counts lines removed across all files
func (d *DiffDocument) DeletedLines() int {
	count := 0
	for _, f := range d.Files {
		for _, l := range f.Lines {
			if l.Type == LineDeleted {
				count++
			}
		}
	}
	return count
}

// IsEmpty returns true if the commit touched no files
func (d *DiffDocument) IsEmpty() bool {
	return len(d.Files) == 0
}
