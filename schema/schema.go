// Package schema holds the static description of mapped attributes.
//
// An Attribute is built once per record type at setup time and shared by
// pointer afterwards. Nothing in this package performs I/O or reflection.
package schema

import "fmt"

// Type names a store-native scalar type. Built-in names follow CQL; callers
// may register their own names (e.g. "json:address") with a transcoder.
type Type string

const (
	Text      Type = "text"
	ASCII     Type = "ascii"
	Varchar   Type = "varchar"
	Int       Type = "int"
	BigInt    Type = "bigint"
	SmallInt  Type = "smallint"
	TinyInt   Type = "tinyint"
	Float     Type = "float"
	Double    Type = "double"
	Boolean   Type = "boolean"
	Blob      Type = "blob"
	Timestamp Type = "timestamp"
	UUID      Type = "uuid"
	TimeUUID  Type = "timeuuid"
	Counter   Type = "counter"
)

// Kind is the semantic kind of an attribute.
type Kind uint8

const (
	Scalar Kind = iota + 1
	List
	Set
	Map
	CompoundKey
	CounterKind
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "Scalar"
	case List:
		return "List"
	case Set:
		return "Set"
	case Map:
		return "Map"
	case CompoundKey:
		return "CompoundKey"
	case CounterKind:
		return "Counter"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsCollection reports whether k is List, Set or Map.
func (k Kind) IsCollection() bool { return k == List || k == Set || k == Map }

// Attribute describes one mapped attribute.
//
// Elem is the element type of a Scalar, List, Set or Counter attribute.
// Key and Value are the entry types of a Map attribute.
// Ordinal is the 1-based position of a primary key component; 0 otherwise.
type Attribute struct {
	Name       string
	Kind       Kind
	Elem       Type
	Key        Type
	Value      Type
	PrimaryKey bool
	Ordinal    int
}

// Validate checks that the declared types are consistent with Kind.
func (a *Attribute) Validate() error {
	if a == nil {
		return fmt.Errorf("schema: nil attribute")
	}
	if a.Name == "" {
		return fmt.Errorf("schema: attribute name is required")
	}
	switch a.Kind {
	case Scalar, List, Set:
		if a.Elem == "" {
			return fmt.Errorf("schema: attribute %q (%s) has no element type", a.Name, a.Kind)
		}
	case Map:
		if a.Key == "" || a.Value == "" {
			return fmt.Errorf("schema: map attribute %q needs key and value types", a.Name)
		}
	case CounterKind:
		if a.Elem != "" && a.Elem != Counter {
			return fmt.Errorf("schema: counter attribute %q has element type %q", a.Name, a.Elem)
		}
	case CompoundKey:
	default:
		return fmt.Errorf("schema: attribute %q has unknown kind %d", a.Name, a.Kind)
	}
	if a.PrimaryKey && a.Kind.IsCollection() {
		return fmt.Errorf("schema: collection attribute %q cannot be part of the primary key", a.Name)
	}
	if a.Ordinal < 0 {
		return fmt.Errorf("schema: attribute %q has negative ordinal %d", a.Name, a.Ordinal)
	}
	return nil
}

// ListOf, SetOf, MapOf and ScalarOf are shorthands used when wiring entities.
func ListOf(name string, elem Type) *Attribute {
	return &Attribute{Name: name, Kind: List, Elem: elem}
}

func SetOf(name string, elem Type) *Attribute {
	return &Attribute{Name: name, Kind: Set, Elem: elem}
}

func MapOf(name string, key, value Type) *Attribute {
	return &Attribute{Name: name, Kind: Map, Key: key, Value: value}
}

func ScalarOf(name string, t Type) *Attribute {
	return &Attribute{Name: name, Kind: Scalar, Elem: t}
}
