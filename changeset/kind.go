package changeset

import (
	"fmt"

	"github.com/unkn0wn-root/cqlmap/schema"
)

// Kind is the closed set of collection mutations.
type Kind uint8

const (
	AssignList Kind = iota + 1
	AssignSet
	AssignMap
	ClearCollection
	AddToSet
	RemoveFromSet
	AppendToList
	PrependToList
	RemoveFromList
	SetAtIndex
	RemoveAtIndex
	AddToMap
	RemoveFromMapKey
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{
	AssignList, AssignSet, AssignMap, ClearCollection,
	AddToSet, RemoveFromSet,
	AppendToList, PrependToList, RemoveFromList, SetAtIndex, RemoveAtIndex,
	AddToMap, RemoveFromMapKey,
}

var kindNames = [...]string{
	AssignList:       "AssignList",
	AssignSet:        "AssignSet",
	AssignMap:        "AssignMap",
	ClearCollection:  "ClearCollection",
	AddToSet:         "AddToSet",
	RemoveFromSet:    "RemoveFromSet",
	AppendToList:     "AppendToList",
	PrependToList:    "PrependToList",
	RemoveFromList:   "RemoveFromList",
	SetAtIndex:       "SetAtIndex",
	RemoveAtIndex:    "RemoveAtIndex",
	AddToMap:         "AddToMap",
	RemoveFromMapKey: "RemoveFromMapKey",
}

func (k Kind) String() string {
	if k >= AssignList && k <= RemoveFromMapKey {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Target returns the attribute kind a mutation applies to. ClearCollection
// applies to every collection and reports 0.
func (k Kind) Target() schema.Kind {
	switch k {
	case AssignList, AppendToList, PrependToList, RemoveFromList, SetAtIndex, RemoveAtIndex:
		return schema.List
	case AssignSet, AddToSet, RemoveFromSet:
		return schema.Set
	case AssignMap, AddToMap, RemoveFromMapKey:
		return schema.Map
	}
	return 0
}

func (k Kind) valid() bool { return k >= AssignList && k <= RemoveFromMapKey }
