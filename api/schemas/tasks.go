package schemas

// -- Task Source Schemas --

// TaskNode is one row of the read-only task tree that seeds extraction. The
// root node (empty ParentID) supplies the overall project context text.
type TaskNode struct {
	ID                    string `json:"id"`
	ParentID              string `json:"parent_id,omitempty"`
	Description           string `json:"description"`
	ImplementationDetails string `json:"implementation_details,omitempty"`
	IsAtomic              bool   `json:"is_atomic"`
}

// IsRoot reports whether the node is the project root.
func (t TaskNode) IsRoot() bool { return t.ParentID == "" }
