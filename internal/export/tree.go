package export

import (
	"github.com/takibi/seiri/internal/models"
)

// TreeNode is one node of the case tree view, importable by tools that accept
// tree-JSON (mindmap importers, dashboard panels).
type TreeNode struct {
	Name     string            `json:"name"`
	Meta     map[string]string `json:"meta,omitempty"`
	Children []*TreeNode       `json:"children,omitempty"`
}

// BuildTree groups items under their category as a two-level tree rooted at
// the case. Categories appear in taxonomy order; items keep pipeline order.
func BuildTree(caseID string, items []models.Item) *TreeNode {
	root := &TreeNode{Name: "case " + caseID}

	grouped := make(map[models.Category][]models.Item)
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}

	for _, category := range models.Categories() {
		group := grouped[category]
		if len(group) == 0 {
			continue
		}
		node := &TreeNode{Name: string(category)}
		for _, item := range group {
			node.Children = append(node.Children, &TreeNode{
				Name: item.ID,
				Meta: map[string]string{
					"path": item.SourcePath,
					"kind": string(item.Kind),
				},
			})
		}
		root.Children = append(root.Children, node)
	}
	return root
}
