package model

// FileTree is a nested file/folder structure with file contents inline.
// Keys are entry names at that level. It round-trips through JSON as the
// project file blob stored in the database.
type FileTree map[string]FileNode

// Node types for FileNode.Type.
const (
	NodeFile   = "file"
	NodeFolder = "folder"
)

// FileNode is one entry in a FileTree. Files carry Content; folders carry
// Children. The redundant Name field mirrors the map key so a node remains
// self-describing when handed to the editor on its own.
type FileNode struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Content  string   `json:"content,omitempty"`
	Children FileTree `json:"children,omitempty"`
}

// Clone returns a deep copy of the tree. Project cloning must not alias the
// source blob — edits to the clone may never leak into the original.
func (t FileTree) Clone() FileTree {
	if t == nil {
		return nil
	}
	out := make(FileTree, len(t))
	for name, node := range t {
		node.Children = node.Children.Clone()
		out[name] = node
	}
	return out
}
