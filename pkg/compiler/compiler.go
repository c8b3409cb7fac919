// Package compiler lowers the AST into a linear stack-machine instruction
// stream, performing scoped name resolution and static type checking in a
// single pass. The first error wins; on failure the output stream is
// unspecified and must be discarded.
package compiler

import (
	"fmt"

	"github.com/DomioKing653/Flare/pkg/ast"
	"github.com/DomioKing653/Flare/pkg/errors"
	"github.com/DomioKing653/Flare/pkg/vm"
)

// Compiler compiles AST to an instruction stream.
type Compiler struct {
	ctx    *Context
	out    []vm.Instruction
	macros map[string]MacroFunc
	level  OptimizationLevel
}

// NewCompiler creates a compiler with basic optimization enabled.
func NewCompiler() *Compiler {
	return NewCompilerWithOptLevel(OptBasic)
}

// NewCompilerWithOptLevel creates a compiler with the given optimization
// level.
func NewCompilerWithOptLevel(level OptimizationLevel) *Compiler {
	c := &Compiler{
		ctx:    NewContext(),
		out:    make([]vm.Instruction, 0),
		macros: make(map[string]MacroFunc),
		level:  level,
	}
	registerBuiltinMacros(c)
	return c
}

// Reset clears compiled output and all scopes for a fresh program. Macros
// and the optimization level survive.
func (c *Compiler) Reset() {
	c.ctx = NewContext()
	c.out = make([]vm.Instruction, 0)
}

// Context exposes the compile context, letting embedders such as the REPL
// inspect state between programs.
func (c *Compiler) Context() *Context { return c.ctx }

// Compile compiles a whole program: every top-level statement in order,
// then Halt, then the optimizer pass.
func (c *Compiler) Compile(program *ast.Program) ([]vm.Instruction, error) {
	if _, err := c.compileNode(program); err != nil {
		return nil, err
	}
	if c.level > OptNone {
		c.out = Optimize(c.out)
	}
	return c.out, nil
}

// CompileInteractive compiles one program against the accumulated context:
// output from earlier inputs is discarded, but scopes, constants and
// registered functions survive. Used by the REPL.
func (c *Compiler) CompileInteractive(program *ast.Program) ([]vm.Instruction, error) {
	c.out = make([]vm.Instruction, 0)
	for _, stmt := range program.Statements {
		if _, err := c.compileNode(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(vm.Halt())
	if c.level > OptNone {
		c.out = Optimize(c.out)
	}
	return c.out, nil
}

// CompileStatements compiles statements without appending Halt or
// optimizing, for embedders that manage the stream themselves.
func (c *Compiler) CompileStatements(stmts []ast.Statement) ([]vm.Instruction, error) {
	for _, stmt := range stmts {
		if _, err := c.compileNode(stmt); err != nil {
			return nil, err
		}
	}
	return c.out, nil
}

// emit appends an instruction and returns its index, for back-patching.
func (c *Compiler) emit(in vm.Instruction) int {
	c.out = append(c.out, in)
	return len(c.out) - 1
}

// patchJump rewrites the branch target of a previously emitted jump.
func (c *Compiler) patchJump(pos, target int) {
	c.out[pos].Target = target
}

// compileNode appends instructions for one node and returns its static
// result type. Statements are Void.
func (c *Compiler) compileNode(node ast.Node) (StaticType, error) {
	switch n := node.(type) {
	case *ast.Program:
		for _, stmt := range n.Statements {
			if _, err := c.compileNode(stmt); err != nil {
				return TypeVoid, err
			}
		}
		c.emit(vm.Halt())
		return TypeVoid, nil

	case *ast.NumberLiteral:
		c.emit(vm.PushNumber(float32(n.Value)))
		return TypeInt, nil

	case *ast.FloatLiteral:
		c.emit(vm.PushNumber(n.Value))
		return TypeFloat, nil

	case *ast.StringLiteral:
		c.emit(vm.PushString(n.Value))
		return TypeString, nil

	case *ast.BoolLiteral:
		c.emit(vm.PushBool(n.Value))
		return TypeBool, nil

	case *ast.BinaryOp:
		return c.compileBinaryOp(n)

	case *ast.VariableAccess:
		entry, ok := c.ctx.Lookup(n.Name)
		if !ok {
			return TypeVoid, errors.UndefinedVariable(n.Name)
		}
		c.emit(vm.LoadVar(n.Name))
		return entry.Type, nil

	case *ast.VariableDefine:
		return c.compileVariableDefine(n)

	case *ast.VariableAssign:
		return c.compileVariableAssign(n)

	case *ast.If:
		return c.compileIf(n)

	case *ast.While:
		return c.compileWhile(n)

	case *ast.Call:
		return c.compileCall(n)

	case *ast.FunctionDefine:
		return c.compileFunctionDefine(n)

	default:
		return TypeVoid, fmt.Errorf("compiler invariant violated: unhandled node %T", node)
	}
}

// compileBinaryOp emits left then right, so evaluation is left-to-right
// with the left operand deeper on the stack.
func (c *Compiler) compileBinaryOp(n *ast.BinaryOp) (StaticType, error) {
	left, err := c.compileNode(n.Left)
	if err != nil {
		return TypeVoid, err
	}
	right, err := c.compileNode(n.Right)
	if err != nil {
		return TypeVoid, err
	}

	numeric := func(t StaticType) bool { return t == TypeInt || t == TypeFloat }

	switch n.Op {
	case "+":
		if numeric(left) && left == right {
			c.emit(vm.Add())
			return left, nil
		}
		if left == TypeString && right == TypeString {
			c.emit(vm.Add())
			return TypeString, nil
		}
	case "-", "*", "/", "%":
		if numeric(left) && left == right {
			switch n.Op {
			case "-":
				c.emit(vm.Sub())
			case "*":
				c.emit(vm.Mul())
			case "/":
				c.emit(vm.Div())
			case "%":
				c.emit(vm.Modulo())
			}
			return left, nil
		}
	case ">", "<":
		if numeric(left) && left == right {
			if n.Op == ">" {
				c.emit(vm.GreaterThan())
			} else {
				c.emit(vm.LessThan())
			}
			return TypeBool, nil
		}
	case "==":
		if left == right {
			c.emit(vm.Equal())
			return TypeBool, nil
		}
	}
	return TypeVoid, errors.InvalidBinaryOp(n.Op, left.String(), right.String())
}

func (c *Compiler) compileVariableDefine(n *ast.VariableDefine) (StaticType, error) {
	// Same-frame redefinition is checked before any code is emitted.
	top := c.ctx.scopes[len(c.ctx.scopes)-1]
	if _, exists := top[n.Name]; exists {
		return TypeVoid, errors.VariableRecreation(n.Name)
	}
	if n.IsConst && n.Value == nil {
		return TypeVoid, errors.ConstantWithoutValue(n.Name)
	}

	var inferred *StaticType
	if n.Value != nil {
		t, err := c.compileNode(n.Value)
		if err != nil {
			return TypeVoid, err
		}
		inferred = &t
	}

	var declared *StaticType
	if n.TypeName != "" {
		t, err := ResolveType(n.TypeName)
		if err != nil {
			return TypeVoid, err
		}
		declared = &t
	}

	var final StaticType
	switch {
	case declared != nil && inferred != nil:
		if *declared != *inferred {
			return TypeVoid, errors.TypeMismatch(declared.String(), inferred.String())
		}
		final = *declared
	case declared != nil:
		switch *declared {
		case TypeString:
			c.emit(vm.PushString(""))
		case TypeInt, TypeFloat:
			c.emit(vm.PushNumber(0))
		case TypeBool:
			c.emit(vm.PushBool(false))
		case TypeVoid:
			return TypeVoid, errors.InvalidVariableType(declared.String())
		}
		final = *declared
	case inferred != nil:
		final = *inferred
	default:
		return TypeVoid, errors.CannotInferType(n.Name)
	}

	if final == TypeVoid {
		return TypeVoid, errors.InvalidVariableType(final.String())
	}

	if err := c.ctx.Define(n.Name, CompiledVariable{Type: final, IsConst: n.IsConst}); err != nil {
		return TypeVoid, err
	}
	c.emit(vm.SaveVar(n.Name))
	return TypeVoid, nil
}

func (c *Compiler) compileVariableAssign(n *ast.VariableAssign) (StaticType, error) {
	entry, ok := c.ctx.Lookup(n.Name)
	if !ok {
		return TypeVoid, errors.UndefinedVariable(n.Name)
	}
	if entry.IsConst {
		return TypeVoid, errors.ConstReassignment(n.Name)
	}

	valueType, err := c.compileNode(n.Value)
	if err != nil {
		return TypeVoid, err
	}
	if valueType != entry.Type {
		return TypeVoid, errors.TypeMismatch(entry.Type.String(), valueType.String())
	}

	c.emit(vm.SaveVar(n.Name))
	return TypeVoid, nil
}

func (c *Compiler) compileIf(n *ast.If) (StaticType, error) {
	condType, err := c.compileNode(n.Condition)
	if err != nil {
		return TypeVoid, err
	}
	if condType != TypeBool {
		return TypeVoid, errors.TypeMismatch(TypeBool.String(), condType.String())
	}

	jumpToElse := c.emit(vm.JumpIfFalse(0))

	c.ctx.EnterScope()
	for _, stmt := range n.Then {
		if _, err := c.compileNode(stmt); err != nil {
			return TypeVoid, err
		}
	}
	c.ctx.ExitScope()

	jumpToEnd := c.emit(vm.Jump(0))
	c.patchJump(jumpToElse, len(c.out))

	c.ctx.EnterScope()
	for _, stmt := range n.Else {
		if _, err := c.compileNode(stmt); err != nil {
			return TypeVoid, err
		}
	}
	c.ctx.ExitScope()

	c.patchJump(jumpToEnd, len(c.out))
	return TypeVoid, nil
}

func (c *Compiler) compileWhile(n *ast.While) (StaticType, error) {
	loopTop := len(c.out)

	condType, err := c.compileNode(n.Condition)
	if err != nil {
		return TypeVoid, err
	}
	if condType != TypeBool {
		return TypeVoid, errors.TypeMismatch(TypeBool.String(), condType.String())
	}

	jumpToExit := c.emit(vm.JumpIfFalse(0))

	c.ctx.EnterScope()
	for _, stmt := range n.Body {
		if _, err := c.compileNode(stmt); err != nil {
			return TypeVoid, err
		}
	}
	c.ctx.ExitScope()

	c.emit(vm.Jump(loopTop))
	c.patchJump(jumpToExit, len(c.out))
	return TypeVoid, nil
}

func (c *Compiler) compileCall(n *ast.Call) (StaticType, error) {
	switch n.Kind {
	case ast.CallMacro:
		macro, ok := c.macros[n.Name]
		if !ok {
			return TypeVoid, errors.UnknownMacro(n.Name)
		}
		return macro(c, n.Args)
	default:
		// The registry stores signatures only; the parser never produces
		// function calls.
		return TypeVoid, fmt.Errorf("function calls are not supported: %s", n.Name)
	}
}

// compileFunctionDefine registers the signature; the body is not emitted.
func (c *Compiler) compileFunctionDefine(n *ast.FunctionDefine) (StaticType, error) {
	returnType, err := ResolveType(n.ReturnType)
	if err != nil {
		return TypeVoid, err
	}
	paramTypes := make([]StaticType, len(n.Params))
	for i, p := range n.Params {
		t, err := ResolveType(p.TypeName)
		if err != nil {
			return TypeVoid, err
		}
		paramTypes[i] = t
	}
	err = c.ctx.AddFunction(n.Name, FunctionSignature{
		Params:     n.Params,
		ParamTypes: paramTypes,
		ReturnType: returnType,
	})
	if err != nil {
		return TypeVoid, err
	}
	return TypeVoid, nil
}
