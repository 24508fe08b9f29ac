package changeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cqlmap/schema"
	"github.com/unkn0wn-root/cqlmap/transcode"
)

var (
	tags   = schema.SetOf("tags", schema.Text)
	scores = schema.ListOf("scores", schema.Int)
	prefs  = schema.MapOf("prefs", schema.Text, schema.BigInt)
	name   = schema.ScalarOf("name", schema.Text)
)

// countingTranscoder wraps a registry and counts Encode calls.
type countingTranscoder struct {
	inner transcode.Transcoder
	calls int
}

func (c *countingTranscoder) Encode(t schema.Type, v any) (any, error) {
	c.calls++
	return c.inner.Encode(t, v)
}

func (c *countingTranscoder) Decode(t schema.Type, v any) (any, error) {
	return c.inner.Decode(t, v)
}

func newCounting() *countingTranscoder {
	return &countingTranscoder{inner: transcode.NewRegistry()}
}

func TestNewShapeValidation(t *testing.T) {
	tests := []struct {
		name    string
		attr    *schema.Attribute
		kind    Kind
		payload any
		wantErr bool
	}{
		{"assign list", scores, AssignList, List{1, 2}, false},
		{"assign list from []any", scores, AssignList, []any{1}, false},
		{"assign list with set payload", scores, AssignList, Set{1}, true},
		{"assign list on set attr", tags, AssignList, List{"a"}, true},
		{"add to set", tags, AddToSet, Set{"a"}, false},
		{"add to set with map", tags, AddToSet, Map{{Key: "a"}}, true},
		{"assign map", prefs, AssignMap, Map{{Key: "a", Value: 1}}, false},
		{"add to map with list", prefs, AddToMap, List{1}, true},
		{"remove map key", prefs, RemoveFromMapKey, Map{{Key: "a"}}, false},
		{"remove map key with value", prefs, RemoveFromMapKey, Map{{Key: "a", Value: 1}}, true},
		{"remove map key two entries", prefs, RemoveFromMapKey, Map{{Key: "a"}, {Key: "b"}}, true},
		{"set at index", scores, SetAtIndex, Indexed{Index: 2, Value: 5}, false},
		{"set at negative index", scores, SetAtIndex, Indexed{Index: -1, Value: 5}, true},
		{"set at index wrong payload", scores, SetAtIndex, 2, true},
		{"remove at index", scores, RemoveAtIndex, Indexed{Index: 0}, false},
		{"remove at index with value", scores, RemoveAtIndex, Indexed{Index: 0, Value: 1}, true},
		{"clear list", scores, ClearCollection, nil, false},
		{"clear map", prefs, ClearCollection, nil, false},
		{"clear with payload", prefs, ClearCollection, Map{}, true},
		{"clear scalar", name, ClearCollection, nil, true},
		{"unknown kind", scores, Kind(0), nil, true},
		{"nil attribute", nil, AssignList, List{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := New(tt.attr, tt.kind, tt.payload)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrShape)
				var se *ShapeError
				assert.ErrorAs(t, err, &se)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cs.Kind())
			assert.Equal(t, tt.attr.Name, cs.Column())
		})
	}
}

func TestSetPayloadDeduplicates(t *testing.T) {
	cs, err := New(tags, AddToSet, Set{"a", "b", "a", []byte("x"), []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, Set{"a", "b", []byte("x")}, cs.Payload())
}

type boxed struct{ V any }

// Struct elements are deduplicated by value unless something inside them
// cannot be hashed; those are kept as given.
func TestSetPayloadUnhashableStructs(t *testing.T) {
	blobs := &schema.Attribute{Name: "blobs", Kind: schema.Set, Elem: "json:box"}

	var cs *ChangeSet
	var err error
	require.NotPanics(t, func() {
		cs, err = New(blobs, AddToSet, Set{boxed{V: []int{1}}, boxed{V: []int{2}}, boxed{V: map[string]int{"a": 1}}})
	})
	require.NoError(t, err)
	assert.Len(t, cs.Payload(), 3)

	cs, err = New(blobs, AddToSet, Set{boxed{V: 1}, boxed{V: 1}, boxed{V: [2]any{"a", []byte("b")}}})
	require.NoError(t, err)
	assert.Equal(t, Set{boxed{V: 1}, boxed{V: [2]any{"a", []byte("b")}}}, cs.Payload())

	tr := NewTracker()
	require.NotPanics(t, func() {
		require.NoError(t, tr.RemoveFromSet(blobs, boxed{V: []string{"x"}}, boxed{V: []string{"x"}}))
	})
	assert.Equal(t, 1, tr.Len())
}

func TestEncodedMemoized(t *testing.T) {
	tc := newCounting()
	cs, err := New(tags, AddToSet, Set{"a", "b"})
	require.NoError(t, err)

	first, err := cs.Encoded(tc)
	require.NoError(t, err)
	second, err := cs.Encoded(tc)
	require.NoError(t, err)

	assert.Equal(t, 2, tc.calls, "one transcoder call per element")
	assert.Equal(t, Set{"a", "b"}, first)
	assert.Equal(t, first, second)
}

func TestEncodedEmptyPayloadSkipsTranscoder(t *testing.T) {
	tc := newCounting()
	cases := []struct {
		attr    *schema.Attribute
		kind    Kind
		payload any
	}{
		{scores, AssignList, List{}},
		{tags, AssignSet, Set{}},
		{prefs, AssignMap, Map{}},
		{scores, RemoveAtIndex, Indexed{Index: 3}},
		{scores, ClearCollection, nil},
	}
	for _, c := range cases {
		cs, err := New(c.attr, c.kind, c.payload)
		require.NoError(t, err, c.kind.String())
		got, err := cs.Encoded(tc)
		require.NoError(t, err, c.kind.String())
		assert.Equal(t, cs.Payload(), got, "%s: empty payload encodes to itself", c.kind)
	}
	assert.Zero(t, tc.calls, "transcoder is not called for empty payloads")
}

func TestEncodedPayloadShapes(t *testing.T) {
	tc := transcode.NewRegistry()
	cases := []struct {
		name    string
		attr    *schema.Attribute
		kind    Kind
		payload any
		want    any
	}{
		{"list", scores, AppendToList, List{1, int64(2)}, List{int32(1), int32(2)}},
		{"map", prefs, AddToMap, Map{{Key: "a", Value: 1}}, Map{{Key: "a", Value: int64(1)}}},
		{"remove key", prefs, RemoveFromMapKey, Map{{Key: "a"}}, Map{{Key: "a"}}},
		{"indexed", scores, SetAtIndex, Indexed{Index: 1, Value: 9}, Indexed{Index: 1, Value: int32(9)}},
		// int and int64 of the same value collapse once encoded
		{"set", schema.SetOf("ids", schema.BigInt), AddToSet, Set{1, int64(1), 2}, Set{int64(1), int64(2)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cs, err := New(c.attr, c.kind, c.payload)
			require.NoError(t, err)
			got, err := cs.Encoded(tc)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestEncodedErrorCarriesAttribute(t *testing.T) {
	tc := newCounting()
	cs, err := New(scores, AppendToList, List{"not an int"})
	require.NoError(t, err)

	_, err = cs.Encoded(tc)
	var te *transcode.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "scores", te.Attribute)
	assert.Equal(t, "not an int", te.Value)

	// memoized failure
	calls := tc.calls
	_, err = cs.Encoded(tc)
	assert.Error(t, err)
	assert.Equal(t, calls, tc.calls)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "AddToSet", AddToSet.String())
	assert.Equal(t, "RemoveFromMapKey", RemoveFromMapKey.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Len(t, Kinds, 13)
	assert.Zero(t, ClearCollection.Target())
	assert.Equal(t, schema.List, PrependToList.Target())
}
