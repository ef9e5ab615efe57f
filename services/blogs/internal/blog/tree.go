package blog

// CommentNode is one comment plus its replies, ordered oldest-first on
// every level.
type CommentNode struct {
	CommentView
	Replies []*CommentNode `json:"replies,omitempty"`
}

// BuildCommentTree arranges a flat, chronologically ordered page of
// comments into a reply forest. A comment whose parent is outside the
// page (paginated away or never fetched) is promoted to a root, so a
// single page always renders as a complete forest.
func BuildCommentTree(flat []CommentView) []*CommentNode {
	nodes := make(map[int64]*CommentNode, len(flat))
	for i := range flat {
		nodes[flat[i].ID] = &CommentNode{CommentView: flat[i]}
	}

	var roots []*CommentNode
	for i := range flat {
		n := nodes[flat[i].ID]
		if pid := flat[i].ParentID; pid != nil {
			if parent, ok := nodes[*pid]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}
