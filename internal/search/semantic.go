package search

import "github.com/saeedalam/nodewise/pkg/types"

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for s := range a {
		if _, ok := b[s]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SemanticSimilarity scores how much of the vocabulary of requirement and
// text overlap once both are stemmed.
func SemanticSimilarity(requirement, text string) float64 {
	return Jaccard(Stems(requirement), Stems(text))
}

// NodeText is the text a node is semantically compared on.
func NodeText(n *types.NodeDescriptor) string {
	return n.DisplayName + " " + n.Description
}

// NodeSimilarity is SemanticSimilarity against a node's display name and
// description.
func NodeSimilarity(requirement string, n *types.NodeDescriptor) float64 {
	return SemanticSimilarity(requirement, NodeText(n))
}
