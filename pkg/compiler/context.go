package compiler

import (
	"github.com/DomioKing653/Flare/pkg/ast"
	"github.com/DomioKing653/Flare/pkg/errors"
)

// StaticType is a compile-time type tag. Int and Float stay distinct here
// even though the runtime collapses both into one number representation.
type StaticType int

const (
	TypeInt StaticType = iota
	TypeFloat
	TypeString
	TypeBool
	TypeVoid
)

func (t StaticType) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeString:
		return "String"
	case TypeBool:
		return "Bool"
	case TypeVoid:
		return "Void"
	default:
		return "Unknown"
	}
}

// ResolveType maps a source-language type keyword to its static type.
func ResolveType(name string) (StaticType, error) {
	switch name {
	case "numb":
		return TypeInt, nil
	case "flt":
		return TypeFloat, nil
	case "string":
		return TypeString, nil
	case "bool":
		return TypeBool, nil
	case "void":
		return TypeVoid, nil
	default:
		return 0, errors.UndefinedType(name)
	}
}

// CompiledVariable is a symbol-table entry.
type CompiledVariable struct {
	Type    StaticType
	IsConst bool
}

// FunctionSignature is a registered function. Bodies are recorded but never
// emitted; calls are not supported.
type FunctionSignature struct {
	Params     []ast.Param
	ParamTypes []StaticType
	ReturnType StaticType
}

// Context is the stateful accumulator used during compilation: a stack of
// scope frames plus a flat function registry. The bottom frame is the global
// scope and is never popped.
type Context struct {
	scopes    []map[string]CompiledVariable
	functions map[string]FunctionSignature
}

// NewContext creates a context with the global frame pre-installed.
func NewContext() *Context {
	return &Context{
		scopes:    []map[string]CompiledVariable{make(map[string]CompiledVariable)},
		functions: make(map[string]FunctionSignature),
	}
}

// EnterScope pushes a fresh frame.
func (ctx *Context) EnterScope() {
	ctx.scopes = append(ctx.scopes, make(map[string]CompiledVariable))
}

// ExitScope pops the top frame. Popping the global frame is a compiler bug,
// not a user error.
func (ctx *Context) ExitScope() {
	if len(ctx.scopes) == 1 {
		panic("compiler invariant violated: exit of global scope")
	}
	ctx.scopes = ctx.scopes[:len(ctx.scopes)-1]
}

// Define inserts a variable into the top frame. Shadowing an outer frame is
// allowed; redefining within the same frame is not.
func (ctx *Context) Define(name string, entry CompiledVariable) error {
	top := ctx.scopes[len(ctx.scopes)-1]
	if _, exists := top[name]; exists {
		return errors.VariableRecreation(name)
	}
	top[name] = entry
	return nil
}

// Lookup walks frames top to bottom; the first match wins.
func (ctx *Context) Lookup(name string) (CompiledVariable, bool) {
	for i := len(ctx.scopes) - 1; i >= 0; i-- {
		if entry, ok := ctx.scopes[i][name]; ok {
			return entry, true
		}
	}
	return CompiledVariable{}, false
}

// AddFunction registers a function signature.
func (ctx *Context) AddFunction(name string, sig FunctionSignature) error {
	if _, exists := ctx.functions[name]; exists {
		return errors.FunctionAlreadyExists(name)
	}
	ctx.functions[name] = sig
	return nil
}

// LookupFunction returns a registered signature.
func (ctx *Context) LookupFunction(name string) (FunctionSignature, bool) {
	sig, ok := ctx.functions[name]
	return sig, ok
}

// Depth returns the number of live frames. The global frame counts.
func (ctx *Context) Depth() int {
	return len(ctx.scopes)
}
