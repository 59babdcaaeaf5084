// Package diff produces unified-diff text for agent file changes.
//
// The diff is positional: line i of the old content is compared against
// line i of the new content. Insertions or deletions that shift line
// numbers therefore show up as a delete/insert pair at every shifted
// position. This is intentional — callers depend on the exact output
// shape, so do not swap in a minimal-edit-distance algorithm.
package diff

import "strings"

type lineKind int

const (
	lineContext lineKind = iota
	lineAdd
	lineDel
)

type diffLine struct {
	kind  lineKind
	value string
}

// Unified renders a unified diff between oldContent and newContent for
// filePath. The output starts with "--- a/<path>" and "+++ b/<path>"
// header lines, followed by one line per compared position: context lines
// prefixed with a space, deletions with "-", insertions with "+". Lines
// are joined with "\n" and there is no trailing newline.
func Unified(filePath, oldContent, newContent string) string {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	hunks := createHunks(oldLines, newLines)

	var b strings.Builder
	b.WriteString("--- a/")
	b.WriteString(filePath)
	b.WriteString("\n+++ b/")
	b.WriteString(filePath)

	for _, line := range hunks {
		b.WriteByte('\n')
		switch line.kind {
		case lineAdd:
			b.WriteByte('+')
		case lineDel:
			b.WriteByte('-')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(line.value)
	}

	return b.String()
}

// createHunks walks both line slices by index. Equal positions yield a
// single context line; differing positions yield the old line as a
// deletion followed by the new line as an insertion. Positions past the
// end of one side only emit the side that exists.
func createHunks(oldLines, newLines []string) []diffLine {
	maxLen := len(oldLines)
	if len(newLines) > maxLen {
		maxLen = len(newLines)
	}

	hunks := make([]diffLine, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		hasOld := i < len(oldLines)
		hasNew := i < len(newLines)

		if hasOld && hasNew && oldLines[i] == newLines[i] {
			hunks = append(hunks, diffLine{kind: lineContext, value: oldLines[i]})
			continue
		}

		if hasOld {
			hunks = append(hunks, diffLine{kind: lineDel, value: oldLines[i]})
		}
		if hasNew {
			hunks = append(hunks, diffLine{kind: lineAdd, value: newLines[i]})
		}
	}

	return hunks
}
