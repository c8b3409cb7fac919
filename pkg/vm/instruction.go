package vm

import (
	"fmt"
	"strconv"
)

// Opcode represents a bytecode operation. The numeric assignments are part of
// the wire format and must not be renumbered.
type Opcode byte

const (
	OpAdd         Opcode = 1
	OpSub         Opcode = 2
	OpMul         Opcode = 3
	OpDiv         Opcode = 4
	OpModulo      Opcode = 5
	OpGreaterThan Opcode = 6
	OpLessThan    Opcode = 7
	OpEqual       Opcode = 8

	OpPushString Opcode = 20
	OpPushBool   Opcode = 21
	OpPushNumber Opcode = 22

	OpWriteLn Opcode = 30
	OpWrite   Opcode = 31

	OpJump        Opcode = 40
	OpJumpIfFalse Opcode = 41
	OpJumpIfTrue  Opcode = 42

	OpSaveVar Opcode = 50
	OpLoadVar Opcode = 51

	OpReadInput   Opcode = 60
	OpProcessExit Opcode = 61

	OpHalt Opcode = 255
)

// OperandKind describes the operand an opcode carries on the wire.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandNumber
	OperandBool
	OperandString
	OperandTarget
)

// Definition describes an opcode's mnemonic and operand layout.
type Definition struct {
	Name    string
	Operand OperandKind
}

var definitions = map[Opcode]Definition{
	OpAdd:         {"Add", OperandNone},
	OpSub:         {"Sub", OperandNone},
	OpMul:         {"Mul", OperandNone},
	OpDiv:         {"Div", OperandNone},
	OpModulo:      {"Modulo", OperandNone},
	OpGreaterThan: {"GreaterThan", OperandNone},
	OpLessThan:    {"LessThan", OperandNone},
	OpEqual:       {"Equal", OperandNone},
	OpPushString:  {"PushString", OperandString},
	OpPushBool:    {"PushBool", OperandBool},
	OpPushNumber:  {"PushNumber", OperandNumber},
	OpWriteLn:     {"WriteLnLastOnStack", OperandNone},
	OpWrite:       {"WriteLastOnStack", OperandNone},
	OpJump:        {"Jump", OperandTarget},
	OpJumpIfFalse: {"JumpIfFalse", OperandTarget},
	OpJumpIfTrue:  {"JumpIfTrue", OperandTarget},
	OpSaveVar:     {"SaveVar", OperandString},
	OpLoadVar:     {"LoadVar", OperandString},
	OpReadInput:   {"ReadInput", OperandNone},
	OpProcessExit: {"ProcessExit", OperandNone},
	OpHalt:        {"Halt", OperandNone},
}

// Lookup returns the definition for an opcode.
func Lookup(op Opcode) (Definition, bool) {
	def, ok := definitions[op]
	return def, ok
}

// Instruction is one decoded instruction. Exactly one operand field is
// meaningful, selected by the opcode's OperandKind; the rest stay zero so
// instructions compare with ==.
type Instruction struct {
	Op     Opcode
	Num    float32
	Str    string
	Bool   bool
	Target int
}

// Constructors for every instruction variant.

func Add() Instruction         { return Instruction{Op: OpAdd} }
func Sub() Instruction         { return Instruction{Op: OpSub} }
func Mul() Instruction         { return Instruction{Op: OpMul} }
func Div() Instruction         { return Instruction{Op: OpDiv} }
func Modulo() Instruction      { return Instruction{Op: OpModulo} }
func GreaterThan() Instruction { return Instruction{Op: OpGreaterThan} }
func LessThan() Instruction    { return Instruction{Op: OpLessThan} }
func Equal() Instruction       { return Instruction{Op: OpEqual} }

func PushNumber(n float32) Instruction { return Instruction{Op: OpPushNumber, Num: n} }
func PushBool(b bool) Instruction      { return Instruction{Op: OpPushBool, Bool: b} }
func PushString(s string) Instruction  { return Instruction{Op: OpPushString, Str: s} }

func WriteLnLastOnStack() Instruction { return Instruction{Op: OpWriteLn} }
func WriteLastOnStack() Instruction   { return Instruction{Op: OpWrite} }

func Jump(target int) Instruction        { return Instruction{Op: OpJump, Target: target} }
func JumpIfFalse(target int) Instruction { return Instruction{Op: OpJumpIfFalse, Target: target} }
func JumpIfTrue(target int) Instruction  { return Instruction{Op: OpJumpIfTrue, Target: target} }

func LoadVar(name string) Instruction { return Instruction{Op: OpLoadVar, Str: name} }
func SaveVar(name string) Instruction { return Instruction{Op: OpSaveVar, Str: name} }

func ReadInput() Instruction   { return Instruction{Op: OpReadInput} }
func ProcessExit() Instruction { return Instruction{Op: OpProcessExit} }
func Halt() Instruction        { return Instruction{Op: OpHalt} }

// String renders the instruction in disassembly form.
func (in Instruction) String() string {
	def, ok := definitions[in.Op]
	if !ok {
		return fmt.Sprintf("Unknown(0x%02x)", byte(in.Op))
	}
	switch def.Operand {
	case OperandNumber:
		return fmt.Sprintf("%s(%s)", def.Name, strconv.FormatFloat(float64(in.Num), 'f', -1, 32))
	case OperandBool:
		return fmt.Sprintf("%s(%t)", def.Name, in.Bool)
	case OperandString:
		return fmt.Sprintf("%s(%q)", def.Name, in.Str)
	case OperandTarget:
		return fmt.Sprintf("%s(%d)", def.Name, in.Target)
	default:
		return def.Name
	}
}
