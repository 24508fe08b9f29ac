package changeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cqlmap/schema"
)

func TestTrackerOrdering(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.AddToSet(tags, "a"))
	require.NoError(t, tr.AppendToList(scores, 1))
	require.NoError(t, tr.RemoveFromSet(tags, "b"))
	require.NoError(t, tr.SetScalar(name, "ada"))

	got := tr.Changes()
	require.Len(t, got, 3)
	// scores < tags; within tags insertion order is kept
	kinds := make([]Kind, len(got))
	for i, cs := range got {
		kinds[i] = cs.Kind()
	}
	assert.Equal(t, []Kind{AppendToList, AddToSet, RemoveFromSet}, kinds)
	assert.Equal(t, []string{"name", "scores", "tags"}, tr.Attributes())
	assert.Equal(t, 4, tr.Len())
	assert.Len(t, tr.For("tags"), 2)
}

func TestTrackerScalarLastWriteWins(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.SetScalar(name, "a"))
	require.NoError(t, tr.SetScalar(name, "b"))

	sc := tr.Scalars()
	require.Len(t, sc, 1)
	assert.Equal(t, "b", sc[0].Value)
	assert.Equal(t, 1, tr.Len())
}

func TestTrackerRejects(t *testing.T) {
	tr := NewTracker()
	assert.ErrorIs(t, tr.SetScalar(tags, "x"), ErrShape)

	id := &schema.Attribute{Name: "id", Kind: schema.Scalar, Elem: schema.BigInt, PrimaryKey: true, Ordinal: 1}
	assert.Error(t, tr.SetScalar(id, 1), "primary key columns are not updatable")
	assert.Error(t, tr.SetAtIndex(scores, -2, 1))
	assert.Error(t, tr.AddToMap(tags, Map{{Key: "a", Value: "b"}}))
	assert.Zero(t, tr.Len(), "failed assignments are not recorded")
}

func TestTrackerTypedHelpers(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.AssignList(scores, 1, 2))
	require.NoError(t, tr.PrependToList(scores, 0))
	require.NoError(t, tr.RemoveFromList(scores, 2))
	require.NoError(t, tr.SetAtIndex(scores, 0, 5))
	require.NoError(t, tr.RemoveAtIndex(scores, 1))
	require.NoError(t, tr.AssignSet(tags, "x"))
	require.NoError(t, tr.AssignMap(prefs, Map{{Key: "k", Value: 1}}))
	require.NoError(t, tr.AddToMap(prefs, Map{{Key: "j", Value: 2}}))
	require.NoError(t, tr.RemoveFromMapKey(prefs, "k"))
	require.NoError(t, tr.Clear(tags))
	assert.Equal(t, 10, tr.Len())

	rm := tr.For("prefs")[2]
	assert.Equal(t, RemoveFromMapKey, rm.Kind())
	assert.Equal(t, Map{{Key: "k"}}, rm.Payload())

	tr.Reset()
	assert.Zero(t, tr.Len())
	assert.Empty(t, tr.Changes())
	assert.Empty(t, tr.Attributes())
}
