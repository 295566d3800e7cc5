package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Ошибки загрузки HIR-документа
	SynInfo              Code = 2000
	SynMalformedDocument Code = 2001
	SynUnsupportedVer    Code = 2002
	SynBadTypeExpr       Code = 2003
	SynUnknownType       Code = 2004
	SynBadExpr           Code = 2005
	SynBadStmt           Code = 2006
	SynBadPattern        Code = 2007
	SynUnknownName       Code = 2008
	SynDuplicateItem     Code = 2009
	SynGenericArity      Code = 2010
	SynUnknownTrait      Code = 2011
	SynUnknownField      Code = 2012

	// Семантические
	SemaInfo        Code = 3000
	SemaMoveUnsized Code = 3161
	SemaInternal    Code = 3162

	// I/O
	IOLoadFileError Code = 4001

	// Проект
	ProjInfo        Code = 5000
	ProjBadManifest Code = 5001

	// Наблюдаемость
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		SynInfo:              "HIR document information",
		SynMalformedDocument: "Malformed HIR document",
		SynUnsupportedVer:    "Unsupported HIR document version",
		SynBadTypeExpr:       "Invalid type expression",
		SynUnknownType:       "Unknown type name",
		SynBadExpr:           "Invalid expression",
		SynBadStmt:           "Invalid statement",
		SynBadPattern:        "Invalid pattern",
		SynUnknownName:       "Unknown name",
		SynDuplicateItem:     "Duplicate item",
		SynGenericArity:      "Wrong number of generic arguments",
		SynUnknownTrait:      "Unknown trait",
		SynUnknownField:      "Unknown field",
		SemaInfo:             "Semantic information",
		SemaMoveUnsized:      "Cannot move a value of unsized type",
		SemaInternal:         "Internal compiler error",
		IOLoadFileError:      "I/O load file error",
		ProjInfo:             "Project information",
		ProjBadManifest:      "Invalid project manifest",
		ObsInfo:              "Observability information",
		ObsTimings:           "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
