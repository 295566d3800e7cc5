package types

import (
	"fmt"
	"strings"

	"rvcheck/internal/source"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	if typesIn == nil {
		return "?"
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnit:
		return "()"
	case KindNever:
		return "!"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindStr:
		return "str"
	case KindInt:
		return formatIntType(tt.Width, true)
	case KindUint:
		return formatIntType(tt.Width, false)
	case KindFloat:
		return fmt.Sprintf("f%d", tt.Width)
	case KindPointer:
		if tt.Mutable {
			return "*mut " + labelDepth(typesIn, tt.Elem, depth+1)
		}
		return "*const " + labelDepth(typesIn, tt.Elem, depth+1)
	case KindReference:
		if tt.Mutable {
			return "&mut " + labelDepth(typesIn, tt.Elem, depth+1)
		}
		return "&" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindBox:
		return "Box<" + labelDepth(typesIn, tt.Elem, depth+1) + ">"
	case KindArray:
		elem := labelDepth(typesIn, tt.Elem, depth+1)
		if tt.Count == ArrayDynamicLength {
			return "[" + elem + "]"
		}
		return fmt.Sprintf("[%s; %d]", elem, tt.Count)
	case KindTuple:
		elems := typesIn.TupleElems(id)
		parts := labelList(typesIn, elems, depth)
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindStruct:
		return formatStructType(typesIn, id, depth)
	case KindFn:
		info, _ := typesIn.FnInfo(id)
		params := labelList(typesIn, info.Params, depth)
		ret := labelDepth(typesIn, info.Result, depth+1)
		if info.Result == typesIn.builtins.Unit {
			return "fn(" + strings.Join(params, ", ") + ")"
		}
		return "fn(" + strings.Join(params, ", ") + ") -> " + ret
	case KindDynTrait:
		return "dyn " + typesIn.TraitName(TraitID(tt.Payload))
	case KindForeign:
		if info, ok := typesIn.ForeignInfo(id); ok {
			return lookupNameFallback(typesIn.Strings, info.Name)
		}
		return "?"
	case KindGenericParam:
		if info, ok := typesIn.TypeParamInfo(id); ok {
			if name, ok := lookupName(typesIn.Strings, info.Name); ok {
				return name
			}
		}
		return "T"
	case KindProjection:
		trait := TraitID(tt.Payload)
		assoc := "?"
		if info, ok := typesIn.TraitInfo(trait); ok && int(tt.Count) < len(info.Assoc) {
			assoc = lookupNameFallback(typesIn.Strings, info.Assoc[tt.Count].Name)
		}
		return fmt.Sprintf("<%s as %s>::%s", labelDepth(typesIn, tt.Elem, depth+1), typesIn.TraitName(trait), assoc)
	case KindInfer:
		return fmt.Sprintf("?%d", tt.Count)
	default:
		return "?"
	}
}

func labelList(typesIn *Interner, ids []TypeID, depth int) []string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = labelDepth(typesIn, id, depth+1)
	}
	return parts
}

func formatStructType(typesIn *Interner, id TypeID, depth int) string {
	def, args, ok := typesIn.StructOf(id)
	if !ok {
		return "?"
	}
	info, ok := typesIn.StructDef(def)
	if !ok {
		return "?"
	}
	name := lookupNameFallback(typesIn.Strings, info.Name)
	if len(args) == 0 {
		return name
	}
	return name + "<" + strings.Join(labelList(typesIn, args, depth), ", ") + ">"
}

func lookupName(stringsIn *source.Interner, id source.StringID) (string, bool) {
	if stringsIn == nil {
		return "", false
	}
	name, ok := stringsIn.Lookup(id)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func lookupNameFallback(stringsIn *source.Interner, id source.StringID) string {
	if name, ok := lookupName(stringsIn, id); ok {
		return name
	}
	return "?"
}

func formatIntType(width Width, signed bool) string {
	prefix := "i"
	if !signed {
		prefix = "u"
	}
	if width == WidthSize {
		return prefix + "size"
	}
	return fmt.Sprintf("%s%d", prefix, width)
}
