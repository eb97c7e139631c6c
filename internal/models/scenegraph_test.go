// Package models defines the scene graph and region-of-interest database types
// shared by the parser, the ROIDB builder and the HDF5 layer.
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectCorners(t *testing.T) {
	obj := Object{X: 10, Y: 20, W: 30, H: 40}
	assert.Equal(t, [4]int{10, 20, 40, 60}, obj.Corners())
}

func TestSceneGraphObjectIDs(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		g := &SceneGraph{}
		assert.Empty(t, g.ObjectIDs())
	})

	t.Run("collects every object id", func(t *testing.T) {
		g := &SceneGraph{
			Objects: []Object{{ObjectID: 3}, {ObjectID: 7}},
		}
		ids := g.ObjectIDs()
		assert.Len(t, ids, 2)
		assert.True(t, ids[3])
		assert.True(t, ids[7])
		assert.False(t, ids[5])
	})
}

func TestSceneGraphUnmarshal(t *testing.T) {
	jsonData := `{
		"image_id": 1,
		"objects": [
			{"object_id": 10, "names": ["man"], "x": 1, "y": 2, "w": 3, "h": 4}
		],
		"relationships": [
			{
				"subject": {"object_id": 10},
				"object": {"object_id": 11, "name": "horse", "x": 5, "y": 6, "w": 7, "h": 8},
				"predicate": "riding"
			}
		]
	}`

	var g SceneGraph
	err := json.Unmarshal([]byte(jsonData), &g)
	require.NoError(t, err)

	assert.Equal(t, 1, g.ImageID)
	require.Len(t, g.Objects, 1)
	assert.Equal(t, []string{"man"}, g.Objects[0].Names)
	require.Len(t, g.Relationships, 1)
	assert.Equal(t, "riding", g.Relationships[0].Predicate)
	assert.Empty(t, g.Relationships[0].Subject.Name)
	assert.Equal(t, "horse", g.Relationships[0].Object.Name)
	assert.Equal(t, 7, g.Relationships[0].Object.W)
}

func TestEndpointMarshalOmitsInlineObject(t *testing.T) {
	data, err := json.Marshal(Endpoint{ObjectID: 42})
	require.NoError(t, err)

	assert.JSONEq(t, `{"object_id": 42}`, string(data))
}
