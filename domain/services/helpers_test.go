package services

import (
	"testing"

	"jamflow/domain/core/entities"
	"jamflow/domain/core/valueobjects"

	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, id string, data entities.NodeData) entities.Node {
	t.Helper()
	node, err := entities.NewNode(valueobjects.NodeID(id), data, valueobjects.Position{})
	require.NoError(t, err)
	return node
}

func element(t *testing.T, id string, typ valueobjects.ElementType, key valueobjects.Key, bpm int) entities.Node {
	return mustNode(t, id, entities.NodeData{Label: id, Type: typ, Key: key, BPM: valueobjects.BPM(bpm)})
}

func entitiesSection(label string) entities.NodeData {
	return entities.NodeData{Label: label, Type: valueobjects.TypeSection}
}

func sectioned(t *testing.T, id string, typ valueobjects.ElementType, label, section string) entities.Node {
	return mustNode(t, id, entities.NodeData{Label: label, Type: typ, Section: section})
}
