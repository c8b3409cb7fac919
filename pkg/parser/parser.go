// Package parser produces the AST consumed by the compiler.
package parser

import (
	"fmt"
	"strconv"

	"github.com/DomioKing653/Flare/pkg/ast"
)

// ParseError is a syntax failure.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

func errUnexpected(expected string, got Token) *ParseError {
	return &ParseError{Message: fmt.Sprintf("expected %s, got '%s'", expected, got.Value)}
}

// Parser is a recursive-descent parser over a token stream.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over tokens produced by the lexer.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token stream into a program.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{}
	for p.current().Kind != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}
	return program, nil
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Kind: EOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok := p.current()
	if tok.Kind != kind {
		return Token{}, errUnexpected(fmt.Sprintf("'%s'", kind), tok)
	}
	p.pos++
	return tok, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.current().Kind {
	case VAR:
		return p.parseVariableDefine(false)
	case CONST:
		return p.parseVariableDefine(true)
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FN:
		return p.parseFunctionDefine()
	case IDENTIFIER:
		if p.peek().Kind == EQUAL {
			return p.parseAssign()
		}
		if p.peek().Kind == BANG {
			call, err := p.parseMacroCall()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(SEMICOLON); err != nil {
				return nil, err
			}
			return call, nil
		}
		return nil, errUnexpected("statement", p.current())
	default:
		return nil, errUnexpected("statement", p.current())
	}
}

// parseVariableDefine handles `var name[: type][= expr];` and the const
// form.
func (p *Parser) parseVariableDefine(isConst bool) (ast.Statement, error) {
	p.advance() // var / const
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}

	stmt := &ast.VariableDefine{Name: name.Value, IsConst: isConst}

	if p.current().Kind == COLON {
		p.advance()
		typeName, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		stmt.TypeName = typeName.Value
	}

	if p.current().Kind == EQUAL {
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}

	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseAssign() (ast.Statement, error) {
	name := p.advance()
	p.advance() // =
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.VariableAssign{Name: name.Value, Value: value}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	p.advance() // if
	if _, err := p.expect(LEFTPAREN); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHTPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	stmt := &ast.If{Condition: condition, Then: then}
	if p.current().Kind == ELSE {
		p.advance()
		stmt.Else, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	p.advance() // while
	if _, err := p.expect(LEFTPAREN); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHTPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Condition: condition, Body: body}, nil
}

// parseFunctionDefine handles `fn name(arg: type, ...): type { body }`.
// Signatures are registered by the compiler; calls are not supported.
func (p *Parser) parseFunctionDefine() (ast.Statement, error) {
	p.advance() // fn
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFTPAREN); err != nil {
		return nil, err
	}

	var params []ast.Param
	for p.current().Kind != RIGHTPAREN {
		if len(params) > 0 {
			if _, err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		paramName, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		paramType, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: paramName.Value, TypeName: paramType.Value})
	}
	p.advance() // )

	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	returnType, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDefine{
		Name:       name.Value,
		Params:     params,
		ReturnType: returnType.Value,
		Body:       body,
	}, nil
}

func (p *Parser) parseBlock() ([]ast.Statement, error) {
	if _, err := p.expect(OPENINGBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Statement
	for p.current().Kind != CLOSINGBRACE {
		if p.current().Kind == EOF {
			return nil, &ParseError{Message: "unexpected end of input, expected '}'"}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // }
	return stmts, nil
}

func (p *Parser) parseMacroCall() (*ast.Call, error) {
	name := p.advance()
	p.advance() // !
	if _, err := p.expect(LEFTPAREN); err != nil {
		return nil, err
	}

	var args []ast.Expression
	for p.current().Kind != RIGHTPAREN {
		if len(args) > 0 {
			if _, err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance() // )
	return &ast.Call{Name: name.Value, Args: args, Kind: ast.CallMacro}, nil
}

// Expression parsing: comparison < additive < multiplicative.

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Kind {
		case GREATER:
			op = ">"
		case LESS:
			op = "<"
		case EQUALEQUAL:
			op = "=="
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Kind {
		case PLUS:
			op = "+"
		case MINUS:
			op = "-"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.current().Kind {
		case TIMES:
			op = "*"
		case DIVIDE:
			op = "/"
		case MODULO:
			op = "%"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.current()
	switch tok.Kind {
	case NUMB:
		p.advance()
		value, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("invalid number literal '%s'", tok.Value)}
		}
		return &ast.NumberLiteral{Value: value}, nil
	case FLOAT:
		p.advance()
		value, err := strconv.ParseFloat(tok.Value, 32)
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("invalid float literal '%s'", tok.Value)}
		}
		return &ast.FloatLiteral{Value: float32(value)}, nil
	case STRING:
		p.advance()
		return &ast.StringLiteral{Value: tok.Value}, nil
	case TRUE:
		p.advance()
		return &ast.BoolLiteral{Value: true}, nil
	case FALSE:
		p.advance()
		return &ast.BoolLiteral{Value: false}, nil
	case IDENTIFIER:
		if p.peek().Kind == BANG {
			return p.parseMacroCall()
		}
		if p.peek().Kind == LEFTPAREN {
			return nil, &ParseError{Message: fmt.Sprintf("function calls are not supported: %s(...)", tok.Value)}
		}
		p.advance()
		return &ast.VariableAccess{Name: tok.Value}, nil
	case LEFTPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RIGHTPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, errUnexpected("expression", tok)
	}
}
