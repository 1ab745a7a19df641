package ctype

// Kind is the variant of a type declaration.
type Kind uint8

const (
	KindUnsigned Kind = iota
	KindSigned
	KindFloat24
	KindChars
	KindPointer
	KindStruct
	KindArray
)

var kindNames = [...]string{
	KindUnsigned: "unsigned",
	KindSigned:   "signed",
	KindFloat24:  "float24",
	KindChars:    "chars",
	KindPointer:  "pointer",
	KindStruct:   "struct",
	KindArray:    "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether values of the kind hold a single codec value.
func (k Kind) IsPrimitive() bool {
	return k <= KindPointer
}

// IsComposite reports whether the kind has children.
func (k Kind) IsComposite() bool {
	return k == KindStruct || k == KindArray
}
