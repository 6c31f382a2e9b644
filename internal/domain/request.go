package domain

// GenerateRequest is the inbound payload for a draft generation run.
// It is immutable once validated and discarded when the pipeline finishes.
type GenerateRequest struct {
	RepoName  string `json:"repoName"`
	Owner     string `json:"owner"`
	CommitSha string `json:"commitSha"`
}

// Repository is a source-host repository visible to the authenticated caller.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         string `json:"owner"`
	Description   string `json:"description,omitempty"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}
