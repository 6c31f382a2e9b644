package domain

// DraftType identifies which content variant a draft is
type DraftType string

const (
	DraftTwitter  DraftType = "twitter"
	DraftLinkedIn DraftType = "linkedin"
	DraftBlog     DraftType = "blog"
)

// DraftTypes lists the variants every successful generation must produce,
// in the order they are returned to the caller.
var DraftTypes = []DraftType{DraftTwitter, DraftLinkedIn, DraftBlog}

// ContentDraft is one generated content variant
type ContentDraft struct {
	ID      string    `json:"id"`
	Type    DraftType `json:"type"`
	Tone    string    `json:"tone"`
	Content string    `json:"content"`
}

// IsKnownDraftType reports whether t is one of the declared variants
func IsKnownDraftType(t DraftType) bool {
	for _, known := range DraftTypes {
		if t == known {
			return true
		}
	}
	return false
}
