package compiler

import (
	"reflect"
	"testing"

	"github.com/DomioKing653/Flare/pkg/ast"
	"github.com/DomioKing653/Flare/pkg/errors"
	"github.com/DomioKing653/Flare/pkg/vm"
)

// compileProgram compiles without optimization so emitted streams can be
// asserted instruction for instruction.
func compileProgram(t *testing.T, stmts ...ast.Statement) []vm.Instruction {
	t.Helper()
	c := NewCompilerWithOptLevel(OptNone)
	out, err := c.Compile(&ast.Program{Statements: stmts})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return out
}

// compileError compiles expecting a coded failure.
func compileError(t *testing.T, stmts ...ast.Statement) *errors.CompileError {
	t.Helper()
	c := NewCompilerWithOptLevel(OptNone)
	_, err := c.Compile(&ast.Program{Statements: stmts})
	if err == nil {
		t.Fatal("Compile() expected error, got nil")
	}
	ce, ok := err.(*errors.CompileError)
	if !ok {
		t.Fatalf("Compile() error = %T (%v), want *CompileError", err, err)
	}
	return ce
}

func num(v int64) ast.Expression      { return &ast.NumberLiteral{Value: v} }
func flt(v float32) ast.Expression    { return &ast.FloatLiteral{Value: v} }
func str(v string) ast.Expression     { return &ast.StringLiteral{Value: v} }
func boolean(v bool) ast.Expression   { return &ast.BoolLiteral{Value: v} }
func access(n string) ast.Expression  { return &ast.VariableAccess{Name: n} }
func writeLn(args ...ast.Expression) ast.Statement {
	return &ast.Call{Name: "writeLn", Args: args, Kind: ast.CallMacro}
}

func TestCompileLiterals(t *testing.T) {
	out := compileProgram(t,
		&ast.VariableDefine{Name: "a", Value: num(42)},
		&ast.VariableDefine{Name: "b", Value: flt(3.14)},
		&ast.VariableDefine{Name: "c", Value: str("hi")},
		&ast.VariableDefine{Name: "d", Value: boolean(true)},
	)
	want := []vm.Instruction{
		vm.PushNumber(42), vm.SaveVar("a"),
		vm.PushNumber(3.14), vm.SaveVar("b"),
		vm.PushString("hi"), vm.SaveVar("c"),
		vm.PushBool(true), vm.SaveVar("d"),
		vm.Halt(),
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream mismatch:\n got %v\nwant %v", out, want)
	}
}

func TestCompileBinaryOpEmissionOrder(t *testing.T) {
	// Left compiles first: the left operand sits deeper on the stack, so
	// a - b stays a - b.
	out := compileProgram(t,
		&ast.VariableDefine{Name: "x", Value: &ast.BinaryOp{Left: num(10), Op: "-", Right: num(4)}},
	)
	want := []vm.Instruction{
		vm.PushNumber(10), vm.PushNumber(4), vm.Sub(), vm.SaveVar("x"), vm.Halt(),
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream mismatch:\n got %v\nwant %v", out, want)
	}
}

func TestCompileBinaryOpTypeRules(t *testing.T) {
	ok := []struct {
		name  string
		left  ast.Expression
		op    string
		right ast.Expression
		emit  vm.Instruction
	}{
		{"int add", num(1), "+", num(2), vm.Add()},
		{"float add", flt(1), "+", flt(2), vm.Add()},
		{"string concat", str("a"), "+", str("b"), vm.Add()},
		{"int sub", num(1), "-", num(2), vm.Sub()},
		{"int mul", num(1), "*", num(2), vm.Mul()},
		{"float div", flt(1), "/", flt(2), vm.Div()},
		{"int modulo", num(1), "%", num(2), vm.Modulo()},
		{"int greater", num(1), ">", num(2), vm.GreaterThan()},
		{"float less", flt(1), "<", flt(2), vm.LessThan()},
		{"int equal", num(1), "==", num(2), vm.Equal()},
		{"string equal", str("a"), "==", str("b"), vm.Equal()},
		{"bool equal", boolean(true), "==", boolean(false), vm.Equal()},
	}

	for _, tt := range ok {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompilerWithOptLevel(OptNone)
			expr := &ast.BinaryOp{Left: tt.left, Op: tt.op, Right: tt.right}
			if _, err := c.compileNode(expr); err != nil {
				t.Fatalf("compileNode() error: %v", err)
			}
			last := c.out[len(c.out)-1]
			if last != tt.emit {
				t.Errorf("last instruction = %v, want %v", last, tt.emit)
			}
		})
	}

	invalid := []struct {
		name  string
		left  ast.Expression
		op    string
		right ast.Expression
	}{
		{"mixed int float add", num(1), "+", flt(2)},
		{"bool add", boolean(true), "+", num(5)},
		{"string sub", str("a"), "-", str("b")},
		{"string greater", str("a"), ">", str("b")},
		{"bool less", boolean(true), "<", boolean(false)},
		{"mixed equal", num(1), "==", str("1")},
		{"mixed float int mul", flt(1), "*", num(2)},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompilerWithOptLevel(OptNone)
			expr := &ast.BinaryOp{Left: tt.left, Op: tt.op, Right: tt.right}
			_, err := c.compileNode(expr)
			ce, ok := err.(*errors.CompileError)
			if !ok || ce.Code != errors.CodeInvalidBinaryOp {
				t.Errorf("error = %v, want InvalidBinaryOp", err)
			}
		})
	}
}

func TestCompileBinaryOpResultTypes(t *testing.T) {
	tests := []struct {
		name string
		expr *ast.BinaryOp
		want StaticType
	}{
		{"int+int is Int", &ast.BinaryOp{Left: num(1), Op: "+", Right: num(2)}, TypeInt},
		{"flt+flt is Float", &ast.BinaryOp{Left: flt(1), Op: "+", Right: flt(2)}, TypeFloat},
		{"str+str is String", &ast.BinaryOp{Left: str("a"), Op: "+", Right: str("b")}, TypeString},
		{"comparison is Bool", &ast.BinaryOp{Left: num(1), Op: "<", Right: num(2)}, TypeBool},
		{"equality is Bool", &ast.BinaryOp{Left: str("a"), Op: "==", Right: str("a")}, TypeBool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompilerWithOptLevel(OptNone)
			got, err := c.compileNode(tt.expr)
			if err != nil {
				t.Fatalf("compileNode() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("result type = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVariableDefine(t *testing.T) {
	t.Run("declared only emits zero value", func(t *testing.T) {
		out := compileProgram(t,
			&ast.VariableDefine{Name: "s", TypeName: "string"},
			&ast.VariableDefine{Name: "n", TypeName: "numb"},
			&ast.VariableDefine{Name: "f", TypeName: "flt"},
			&ast.VariableDefine{Name: "b", TypeName: "bool"},
		)
		want := []vm.Instruction{
			vm.PushString(""), vm.SaveVar("s"),
			vm.PushNumber(0), vm.SaveVar("n"),
			vm.PushNumber(0), vm.SaveVar("f"),
			vm.PushBool(false), vm.SaveVar("b"),
			vm.Halt(),
		}
		if !reflect.DeepEqual(out, want) {
			t.Errorf("stream mismatch:\n got %v\nwant %v", out, want)
		}
	})

	t.Run("declared and inferred agree", func(t *testing.T) {
		compileProgram(t, &ast.VariableDefine{Name: "x", TypeName: "numb", Value: num(1)})
	})

	t.Run("declared and inferred disagree", func(t *testing.T) {
		ce := compileError(t, &ast.VariableDefine{Name: "x", TypeName: "numb", Value: str("no")})
		if ce.Code != errors.CodeTypeMismatch {
			t.Errorf("code = %s, want TypeMismatch", ce.Code)
		}
	})

	t.Run("int literal does not satisfy flt", func(t *testing.T) {
		ce := compileError(t, &ast.VariableDefine{Name: "x", TypeName: "flt", Value: num(1)})
		if ce.Code != errors.CodeTypeMismatch {
			t.Errorf("code = %s, want TypeMismatch", ce.Code)
		}
	})

	t.Run("neither declared nor inferred", func(t *testing.T) {
		ce := compileError(t, &ast.VariableDefine{Name: "x"})
		if ce.Code != errors.CodeCannotInferType {
			t.Errorf("code = %s, want CannotInferType", ce.Code)
		}
	})

	t.Run("void is not storable", func(t *testing.T) {
		ce := compileError(t, &ast.VariableDefine{Name: "x", TypeName: "void"})
		if ce.Code != "" {
			t.Errorf("code = %s, want uncoded InvalidVariableType", ce.Code)
		}
	})

	t.Run("unknown type keyword", func(t *testing.T) {
		ce := compileError(t, &ast.VariableDefine{Name: "x", TypeName: "MyType", Value: num(1)})
		if ce.Code != errors.CodeUndefinedType {
			t.Errorf("code = %s, want UndefinedType", ce.Code)
		}
	})

	t.Run("redefinition in same scope", func(t *testing.T) {
		ce := compileError(t,
			&ast.VariableDefine{Name: "x", Value: num(1)},
			&ast.VariableDefine{Name: "x", Value: num(2)},
		)
		if ce.Code != errors.CodeVariableRecreation {
			t.Errorf("code = %s, want VariableRecreation", ce.Code)
		}
	})

	t.Run("const without value", func(t *testing.T) {
		ce := compileError(t, &ast.VariableDefine{Name: "PI", TypeName: "flt", IsConst: true})
		if ce.Code != errors.CodeConstantWithoutValue {
			t.Errorf("code = %s, want ConstantWithoutValue", ce.Code)
		}
	})
}

func TestVariableAssign(t *testing.T) {
	t.Run("assign matching type", func(t *testing.T) {
		out := compileProgram(t,
			&ast.VariableDefine{Name: "x", Value: num(1)},
			&ast.VariableAssign{Name: "x", Value: num(2)},
		)
		want := []vm.Instruction{
			vm.PushNumber(1), vm.SaveVar("x"),
			vm.PushNumber(2), vm.SaveVar("x"),
			vm.Halt(),
		}
		if !reflect.DeepEqual(out, want) {
			t.Errorf("stream mismatch:\n got %v\nwant %v", out, want)
		}
	})

	t.Run("assign undefined", func(t *testing.T) {
		ce := compileError(t, &ast.VariableAssign{Name: "ghost", Value: num(1)})
		if ce.Code != errors.CodeUndefinedVariable {
			t.Errorf("code = %s, want UndefinedVariable", ce.Code)
		}
	})

	t.Run("assign wrong type", func(t *testing.T) {
		ce := compileError(t,
			&ast.VariableDefine{Name: "x", Value: num(1)},
			&ast.VariableAssign{Name: "x", Value: str("no")},
		)
		if ce.Code != errors.CodeTypeMismatch {
			t.Errorf("code = %s, want TypeMismatch", ce.Code)
		}
	})

	t.Run("const reassignment", func(t *testing.T) {
		ce := compileError(t,
			&ast.VariableDefine{Name: "PI", TypeName: "flt", Value: flt(3.14), IsConst: true},
			&ast.VariableAssign{Name: "PI", Value: flt(2.71)},
		)
		if ce.Code != errors.CodeConstReassignment {
			t.Errorf("code = %s, want ConstReassignment", ce.Code)
		}
	})
}

func TestVariableAccessUndefined(t *testing.T) {
	ce := compileError(t, writeLn(access("ghost")))
	if ce.Code != errors.CodeUndefinedVariable {
		t.Errorf("code = %s, want UndefinedVariable", ce.Code)
	}
}

func TestCompileIf(t *testing.T) {
	out := compileProgram(t, &ast.If{
		Condition: boolean(true),
		Then:      []ast.Statement{writeLn(str("t"))},
		Else:      []ast.Statement{writeLn(str("f"))},
	})
	want := []vm.Instruction{
		vm.PushBool(true),    // 0 condition
		vm.JumpIfFalse(5),    // 1 -> else
		vm.PushString("t"),   // 2
		vm.WriteLnLastOnStack(), // 3
		vm.Jump(7),           // 4 -> end
		vm.PushString("f"),   // 5
		vm.WriteLnLastOnStack(), // 6
		vm.Halt(),            // 7
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream mismatch:\n got %v\nwant %v", out, want)
	}
}

func TestCompileIfWithoutElse(t *testing.T) {
	out := compileProgram(t, &ast.If{
		Condition: boolean(false),
		Then:      []ast.Statement{writeLn(str("t"))},
	})
	want := []vm.Instruction{
		vm.PushBool(false),
		vm.JumpIfFalse(5),
		vm.PushString("t"),
		vm.WriteLnLastOnStack(),
		vm.Jump(5),
		vm.Halt(),
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream mismatch:\n got %v\nwant %v", out, want)
	}
}

func TestCompileIfConditionMustBeBool(t *testing.T) {
	ce := compileError(t, &ast.If{Condition: num(1), Then: nil})
	if ce.Code != errors.CodeTypeMismatch {
		t.Errorf("code = %s, want TypeMismatch", ce.Code)
	}
}

func TestCompileWhile(t *testing.T) {
	// var i = 0; while (i < 3) { i = i + 1; }
	out := compileProgram(t,
		&ast.VariableDefine{Name: "i", Value: num(0)},
		&ast.While{
			Condition: &ast.BinaryOp{Left: access("i"), Op: "<", Right: num(3)},
			Body: []ast.Statement{
				&ast.VariableAssign{Name: "i", Value: &ast.BinaryOp{Left: access("i"), Op: "+", Right: num(1)}},
			},
		},
	)
	want := []vm.Instruction{
		vm.PushNumber(0), vm.SaveVar("i"), // 0-1
		vm.LoadVar("i"), vm.PushNumber(3), vm.LessThan(), // 2-4 condition
		vm.JumpIfFalse(11), // 5 exit past the back jump
		vm.LoadVar("i"), vm.PushNumber(1), vm.Add(), vm.SaveVar("i"), // 6-9 body
		vm.Jump(2), // 10 back to the condition
		vm.Halt(),  // 11
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream mismatch:\n got %v\nwant %v", out, want)
	}
}

func TestCompileWhileConditionMustBeBool(t *testing.T) {
	ce := compileError(t, &ast.While{Condition: str("x"), Body: nil})
	if ce.Code != errors.CodeTypeMismatch {
		t.Errorf("code = %s, want TypeMismatch", ce.Code)
	}
}

func TestScopeIsolation(t *testing.T) {
	// A variable defined inside an if body is gone after the block.
	ce := compileError(t,
		&ast.If{
			Condition: boolean(true),
			Then:      []ast.Statement{&ast.VariableDefine{Name: "inner", Value: num(1)}},
		},
		writeLn(access("inner")),
	)
	if ce.Code != errors.CodeUndefinedVariable {
		t.Errorf("code = %s, want UndefinedVariable", ce.Code)
	}
}

func TestShadowingInNestedScope(t *testing.T) {
	// Redefining in a nested frame is allowed.
	compileProgram(t,
		&ast.VariableDefine{Name: "x", Value: num(1)},
		&ast.If{
			Condition: boolean(true),
			Then:      []ast.Statement{&ast.VariableDefine{Name: "x", Value: str("shadow")}},
		},
	)
}

func TestFunctionDefineRegistersSignature(t *testing.T) {
	c := NewCompilerWithOptLevel(OptNone)
	fn := &ast.FunctionDefine{
		Name:       "twice",
		Params:     []ast.Param{{Name: "n", TypeName: "numb"}},
		ReturnType: "numb",
		Body:       []ast.Statement{},
	}
	out, err := c.Compile(&ast.Program{Statements: []ast.Statement{fn}})
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	// Bodies are not emitted.
	want := []vm.Instruction{vm.Halt()}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream = %v, want only Halt", out)
	}
	sig, ok := c.Context().LookupFunction("twice")
	if !ok {
		t.Fatal("function not registered")
	}
	if sig.ReturnType != TypeInt || len(sig.ParamTypes) != 1 || sig.ParamTypes[0] != TypeInt {
		t.Errorf("signature = %+v", sig)
	}
}

func TestFunctionDefineDuplicate(t *testing.T) {
	fn := func() ast.Statement {
		return &ast.FunctionDefine{Name: "foo", ReturnType: "void"}
	}
	ce := compileError(t, fn(), fn())
	if ce.Code != errors.CodeFunctionAlreadyExists {
		t.Errorf("code = %s, want FunctionAlreadyExists", ce.Code)
	}
}

func TestProgramEndsWithSingleHalt(t *testing.T) {
	out := compileProgram(t, writeLn(str("x")))
	halts := 0
	for _, in := range out {
		if in.Op == vm.OpHalt {
			halts++
		}
	}
	if halts != 1 || out[len(out)-1].Op != vm.OpHalt {
		t.Errorf("stream = %v, want exactly one trailing Halt", out)
	}
}
