package output

import (
	"github.com/disiqueira/gotree/v3"
)

// VisualHistory renders versions as a tree: one branch per location the document was saved at
// (consecutive saves at the same location share a branch), one leaf per version.
type VisualHistory struct {
	tree         gotree.Tree
	branch       gotree.Tree
	branchLabel  string
	branchOpened bool
}

func NewVisualHistory(rootLabel string) *VisualHistory {
	return &VisualHistory{tree: gotree.New(rootLabel)}
}

func (h *VisualHistory) InsertVersion(location string, versionLabel string) {
	if !h.branchOpened || location != h.branchLabel {
		h.branch = h.tree.Add(location)
		h.branchLabel = location
		h.branchOpened = true
	}
	h.branch.Add(versionLabel)
}

func (h *VisualHistory) Render() string {
	return h.tree.Print()
}
