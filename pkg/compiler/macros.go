package compiler

import (
	"github.com/DomioKing653/Flare/pkg/ast"
	"github.com/DomioKing653/Flare/pkg/errors"
	"github.com/DomioKing653/Flare/pkg/vm"
)

// MacroFunc is a compile-time handler: it compiles its argument expressions
// and emits instructions. Its return type is the call's static type.
type MacroFunc func(c *Compiler, args []ast.Expression) (StaticType, error)

// registerBuiltinMacros installs the built-in macros at compiler
// construction.
func registerBuiltinMacros(c *Compiler) {
	c.macros["writeLn"] = writeMacro(vm.WriteLnLastOnStack)
	c.macros["write"] = writeMacro(vm.WriteLastOnStack)
	c.macros["processExit"] = processExitMacro
	c.macros["readInput"] = readInputMacro
}

// writeMacro builds the writeLn/write handler: each argument compiles, then
// the matching write instruction pops and prints it.
func writeMacro(emit func() vm.Instruction) MacroFunc {
	return func(c *Compiler, args []ast.Expression) (StaticType, error) {
		if len(args) == 0 {
			return TypeVoid, errors.WrongMacroArgCount(1, 0)
		}
		for _, arg := range args {
			t, err := c.compileNode(arg)
			if err != nil {
				return TypeVoid, err
			}
			switch t {
			case TypeString, TypeInt, TypeFloat:
				c.emit(emit())
			default:
				return TypeVoid, errors.ExpectedPrintable(t.String())
			}
		}
		return TypeVoid, nil
	}
}

func processExitMacro(c *Compiler, args []ast.Expression) (StaticType, error) {
	if len(args) != 1 {
		return TypeVoid, errors.WrongMacroArgCount(1, len(args))
	}
	t, err := c.compileNode(args[0])
	if err != nil {
		return TypeVoid, err
	}
	if t != TypeInt {
		return TypeVoid, errors.TypeMismatch(TypeInt.String(), t.String())
	}
	c.emit(vm.ProcessExit())
	return TypeVoid, nil
}

func readInputMacro(c *Compiler, args []ast.Expression) (StaticType, error) {
	if len(args) != 1 {
		return TypeVoid, errors.WrongMacroArgCount(1, len(args))
	}
	t, err := c.compileNode(args[0])
	if err != nil {
		return TypeVoid, err
	}
	if t != TypeString {
		return TypeVoid, errors.TypeMismatch(TypeString.String(), t.String())
	}
	c.emit(vm.WriteLastOnStack())
	c.emit(vm.ReadInput())
	return TypeString, nil
}
