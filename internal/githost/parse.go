package githost

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/juparave/commitcast/internal/domain"
)

// hunk header: @@ -oldStart,oldCount +newStart,newCount @@
var hunkPattern = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// ParsePatch converts one file's unified-diff patch into a FileDiff. Added
// and unchanged lines carry new-file line numbers, deletions carry the
// old-file number of the removed line. Files longer than MaxDiffLines are
// cut off and flagged as truncated.
func ParsePatch(filePath, patch string) domain.FileDiff {
	fd := domain.FileDiff{FilePath: filePath}

	oldLine, newLine := 0, 0
	seenHunk := false
	for _, raw := range strings.Split(patch, "\n") {
		if len(fd.Lines) >= domain.MaxDiffLines {
			fd.Truncated = true
			break
		}

		if m := hunkPattern.FindStringSubmatch(raw); m != nil {
			oldLine, _ = strconv.Atoi(m[1])
			newLine, _ = strconv.Atoi(m[2])
			seenHunk = true
			continue
		}

		// full unified diffs open with ---/+++ file headers; GitHub's
		// per-file patch field starts straight at the first hunk
		if !seenHunk {
			continue
		}

		// context lines are prefixed with a space, so a fully empty line is
		// a split artifact, not diff content
		if raw == "" || raw == `\ No newline at end of file` {
			continue
		}

		switch {
		case strings.HasPrefix(raw, "+"):
			fd.Lines = append(fd.Lines, domain.DiffLine{
				Type:       domain.LineAdded,
				Content:    raw[1:],
				LineNumber: newLine,
			})
			newLine++
		case strings.HasPrefix(raw, "-"):
			fd.Lines = append(fd.Lines, domain.DiffLine{
				Type:       domain.LineDeleted,
				Content:    raw[1:],
				LineNumber: oldLine,
			})
			oldLine++
		default:
			content := raw
			if strings.HasPrefix(raw, " ") {
				content = raw[1:]
			}
			fd.Lines = append(fd.Lines, domain.DiffLine{
				Type:       domain.LineUnchanged,
				Content:    content,
				LineNumber: newLine,
			})
			oldLine++
			newLine++
		}
	}

	return fd
}
