package config

const SourceFileExt = ".lumen"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".lumen", ".lm"}

// IsTestMode indicates if the compiler is running in test mode; type
// printing then normalizes generated identifiers. It defaults to false and
// no code in this module assigns it.
var IsTestMode = false

// PrimModule is the module that owns the compiler-solved classes and types.
const PrimModule = "Prim"

// Compiler-solved class names. Instances for these are synthesized by the
// entailment solver instead of being looked up in user code.
const (
	CoercibleClassName     = "Coercible"
	IsSymbolClassName      = "IsSymbol"
	SymbolCompareClassName = "SymbolCompare"
	SymbolAppendClassName  = "SymbolAppend"
	SymbolConsClassName    = "SymbolCons"
	RowUnionClassName      = "RowUnion"
	RowNubClassName        = "RowNub"
	RowLacksClassName      = "RowLacks"
	RowConsClassName       = "RowCons"
	RowToListClassName     = "RowToList"
	WarnClassName          = "Warn"
)

// Built-in type constructor names
const (
	FunctionTypeName   = "Function"
	ArrayTypeName      = "Array"
	RecordTypeName     = "Record"
	OrderingLTName     = "LT"
	OrderingEQName     = "EQ"
	OrderingGTName     = "GT"
	RowListConsName    = "RowListCons"
	RowListNilName     = "RowListNil"
	ReflectSymbolField = "reflectSymbol"
	UndefinedName      = "undefined"
)

// DefaultSolverWorkBudget bounds recursive instance search depth before the
// solver reports a possibly infinite instance.
const DefaultSolverWorkBudget = 1000
