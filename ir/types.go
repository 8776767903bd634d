package ir

// Kind is the scalar element kind of a Node's Type, modeled the way c67's
// Vibe67Type.Kind enumerates its type categories (types.go), narrowed to the
// integer kinds spec.md §4.7 needs to describe vector element width.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindByte   // signed 8-bit
	KindUByte  // unsigned 8-bit (loads promoted to Bool per §4.7)
	KindShort  // signed 16-bit
	KindChar   // unsigned 16-bit, stored form narrows to Short per §4.7
	KindInt    // signed 32-bit, "full int"
	KindLong   // signed 64-bit
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindByte:
		return "byte"
	case KindUByte:
		return "ubyte"
	case KindShort:
		return "short"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	default:
		return "unknown"
	}
}

// SizeBytes returns the element width in bytes, 0 for KindUnknown.
func (k Kind) SizeBytes() int {
	switch k {
	case KindBool, KindByte, KindUByte:
		return 1
	case KindShort, KindChar:
		return 2
	case KindInt:
		return 4
	case KindLong:
		return 8
	default:
		return 0
	}
}

// Wider reports whether k has strictly more bits than other.
func (k Kind) Wider(other Kind) bool {
	return k.SizeBytes() > other.SizeBytes()
}

// Type is a Node's value type. Memory is true for the type of a
// load/store address target; AliasIndex is then the alias class the host
// compiler's get_alias_index(type) capability assigned it (spec.md §4.5).
type Type struct {
	Kind       Kind
	Memory     bool
	AliasIndex int
}

// IntType is a convenience constructor for a non-memory integer Type.
func IntType(k Kind) *Type { return &Type{Kind: k} }

// MemType constructs the declared access type of a memory node.
func MemType(k Kind, aliasIndex int) *Type {
	return &Type{Kind: k, Memory: true, AliasIndex: aliasIndex}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Memory {
		return "mem(" + t.Kind.String() + ")"
	}
	return t.Kind.String()
}
