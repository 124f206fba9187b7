package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"jamflow/domain/core/entities"
)

// StructuralSignature hashes the parts of a node set that affect edge
// styling: ids, types, labels and section membership, in order. Positions are
// excluded, so dragging never changes the signature.
func StructuralSignature(nodes []entities.Node) string {
	h := sha256.New()
	for _, n := range nodes {
		fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%s\x1f%t\x1e",
			n.ID, n.Data.Type, n.Data.Label, n.Data.Section, n.Data.IsSection)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Checksum hashes the full rendered content of a graph, positions included.
// Recommendations are cached under it.
func Checksum(nodes []entities.Node, edges []entities.Edge) (string, error) {
	sortedEdges := make([]entities.Edge, len(edges))
	copy(sortedEdges, edges)
	sort.Slice(sortedEdges, func(i, j int) bool { return sortedEdges[i].ID < sortedEdges[j].ID })

	payload, err := json.Marshal(struct {
		Nodes []entities.Node `json:"nodes"`
		Edges []entities.Edge `json:"edges"`
	}{nodes, sortedEdges})
	if err != nil {
		return "", fmt.Errorf("marshal graph content: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
