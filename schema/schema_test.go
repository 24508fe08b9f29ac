package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributeValidate(t *testing.T) {
	tests := []struct {
		name    string
		attr    *Attribute
		wantErr bool
	}{
		{"nil", nil, true},
		{"no name", &Attribute{Kind: Scalar, Elem: Text}, true},
		{"scalar ok", ScalarOf("name", Text), false},
		{"list without elem", &Attribute{Name: "l", Kind: List}, true},
		{"set ok", SetOf("tags", Text), false},
		{"map missing value", &Attribute{Name: "m", Kind: Map, Key: Text}, true},
		{"map ok", MapOf("prefs", Text, Int), false},
		{"counter ok", &Attribute{Name: "hits", Kind: CounterKind}, false},
		{"counter wrong elem", &Attribute{Name: "hits", Kind: CounterKind, Elem: Text}, true},
		{"unknown kind", &Attribute{Name: "x", Kind: Kind(99)}, true},
		{"collection in pk", &Attribute{Name: "l", Kind: List, Elem: Int, PrimaryKey: true}, true},
		{"negative ordinal", &Attribute{Name: "id", Kind: Scalar, Elem: BigInt, Ordinal: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attr.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Set", Set.String())
	assert.Equal(t, "Counter", CounterKind.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.True(t, Map.IsCollection())
	assert.False(t, Scalar.IsCollection())
}
