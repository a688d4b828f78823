// Package parser is a recursive-descent parser producing the tree
// shape internal/ast describes. Style follows the teacher's
// internal/parser/parser.go: a cursor over a token slice, a
// precedence table driving binary-operator climbing, and an Errors
// slice instead of panicking on a malformed program.
package parser

import (
	"fmt"

	"jlc/internal/ast"
	"jlc/internal/lexer"
)

var precedence = map[lexer.TokenType]int{
	lexer.TokenDoubleVBar:  1, // ||
	lexer.TokenDoubleAnd:   2, // &&
	lexer.TokenDoubleEqual: 3,
	lexer.TokenNotEqual:    3,
	lexer.TokenLess:        3,
	lexer.TokenLessEqual:   3,
	lexer.TokenGreater:     3,
	lexer.TokenGreaterEq:   3,
	lexer.TokenPlus:        4,
	lexer.TokenMinus:       4,
	lexer.TokenStar:        5,
	lexer.TokenSlash:       5,
	lexer.TokenPercent:     5,
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenDoubleVBar:  ast.OpOr,
	lexer.TokenDoubleAnd:   ast.OpAnd,
	lexer.TokenDoubleEqual: ast.OpEq,
	lexer.TokenNotEqual:    ast.OpNeq,
	lexer.TokenLess:        ast.OpLt,
	lexer.TokenLessEqual:   ast.OpLe,
	lexer.TokenGreater:     ast.OpGt,
	lexer.TokenGreaterEq:   ast.OpGe,
	lexer.TokenPlus:        ast.OpAdd,
	lexer.TokenMinus:       ast.OpSub,
	lexer.TokenStar:        ast.OpMul,
	lexer.TokenSlash:       ast.OpDiv,
	lexer.TokenPercent:     ast.OpMod,
}

var typeTokens = map[lexer.TokenType]ast.Type{
	lexer.TokenTypeInteger: ast.Integer,
	lexer.TokenTypeFloat64: ast.Float64,
	lexer.TokenTypeBool:    ast.Bool,
	lexer.TokenTypeString:  ast.String,
}

// Parser walks a flat token stream and builds an *ast.Program.
type Parser struct {
	tokens  []lexer.Token
	current int
	Errors  []error
}

func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token stream and returns the program.
// Check p.Errors afterwards; a non-nil return value may still be
// partial if errors were recorded.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.isAtEnd() {
		fn := p.function()
		if fn == nil {
			continue
		}
		if fn.IsMain {
			if prog.Main != nil {
				p.errorAt(fn.Pos, "duplicate 'main' function")
				continue
			}
			prog.Main = fn
		} else {
			prog.Functions = append(prog.Functions, fn)
		}
	}
	return prog
}

func (p *Parser) function() *ast.Function {
	start := p.peek()
	if !p.match(lexer.TokenFunction) {
		p.errorAt(p.pos(start), "expected 'function'")
		p.advance()
		return nil
	}
	nameTok := p.peek()
	isMain := nameTok.Type == lexer.TokenMain
	if !isMain && nameTok.Type != lexer.TokenIdent {
		p.errorAt(p.pos(nameTok), "expected function name")
		return nil
	}
	p.advance()

	fn := &ast.Function{Name: nameTok.Lexeme, IsMain: isMain, Pos: p.pos(nameTok)}

	p.consume(lexer.TokenLParen, "expected '(' after function name")
	if !p.check(lexer.TokenRParen) {
		for {
			pname := p.consume(lexer.TokenIdent, "expected parameter name")
			p.consume(lexer.TokenDoubleColon, "expected '::' after parameter name")
			ptype := p.typeSpec()
			fn.Params = append(fn.Params, ast.Param{Name: pname.Lexeme, Type: ptype, Pos: p.pos(pname)})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' after parameters")

	if p.match(lexer.TokenDoubleColon) {
		rt := p.typeSpec()
		fn.ReturnType = &rt
	}

	seenInstruction := false
	for !p.check(lexer.TokenEnd) && !p.isAtEnd() {
		if p.looksLikeDeclaration() {
			decl := p.declaration()
			if seenInstruction {
				p.errorAt(decl.At, "declarations must precede all instructions")
			} else {
				fn.Decls = append(fn.Decls, decl)
			}
			continue
		}
		instr := p.instruction()
		if instr != nil {
			seenInstruction = true
			fn.Body = append(fn.Body, instr)
		}
	}
	p.consume(lexer.TokenEnd, "expected 'end' to close function body")
	return fn
}

func (p *Parser) typeSpec() ast.Type {
	tok := p.peek()
	if t, ok := typeTokens[tok.Type]; ok {
		p.advance()
		return t
	}
	p.errorAt(p.pos(tok), "expected a type name, got %q", tok.Lexeme)
	p.advance()
	return ast.Integer
}

// looksLikeDeclaration peeks for `IDENT ::` without consuming.
func (p *Parser) looksLikeDeclaration() bool {
	return p.check(lexer.TokenIdent) && p.checkNext(lexer.TokenDoubleColon)
}

func (p *Parser) declaration() *ast.Declaration {
	nameTok := p.advance()
	p.consume(lexer.TokenDoubleColon, "expected '::' in declaration")
	vtype := p.typeSpec()
	p.consume(lexer.TokenEqual, "expected '=' in declaration")
	expr := p.expression()
	return &ast.Declaration{Name: nameTok.Lexeme, Type: vtype, Expr: expr, At: p.pos(nameTok)}
}

func (p *Parser) instruction() ast.Instruction {
	switch {
	case p.check(lexer.TokenLBrace):
		return p.block()
	case p.check(lexer.TokenIf):
		return p.ifStmt()
	case p.check(lexer.TokenWhile):
		return p.whileStmt()
	case p.check(lexer.TokenPrint):
		return p.printStmt()
	case p.check(lexer.TokenReturn):
		return p.returnStmt()
	case p.check(lexer.TokenIdent) && p.checkNext(lexer.TokenEqual):
		return p.assignment()
	case p.check(lexer.TokenIdent) || p.check(lexer.TokenMain):
		return p.callStmt()
	default:
		tok := p.peek()
		p.errorAt(p.pos(tok), "unexpected token %q in instruction", tok.Lexeme)
		p.advance()
		return nil
	}
}

func (p *Parser) block() *ast.Block {
	start := p.advance() // {
	b := &ast.Block{At: p.pos(start)}
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		if instr := p.instruction(); instr != nil {
			b.Instrs = append(b.Instrs, instr)
		}
	}
	p.consume(lexer.TokenRBrace, "expected '}' to close block")
	return b
}

func (p *Parser) ifStmt() *ast.IfStmt {
	start := p.advance() // if
	cond := p.expression()
	then := p.instrList()
	stmt := &ast.IfStmt{Cond: cond, Then: then, At: p.pos(start)}
	if p.match(lexer.TokenElse) {
		stmt.Else = p.instrList()
	}
	p.consume(lexer.TokenEnd, "expected 'end' to close if-structure")
	return stmt
}

func (p *Parser) whileStmt() *ast.WhileStmt {
	start := p.advance() // while
	cond := p.expression()
	body := p.instrList()
	p.consume(lexer.TokenEnd, "expected 'end' to close while-structure")
	return &ast.WhileStmt{Cond: cond, Body: body, At: p.pos(start)}
}

// instrList parses instructions until an 'end'/'else' terminator
// without consuming the terminator itself.
func (p *Parser) instrList() []ast.Instruction {
	var instrs []ast.Instruction
	for !p.check(lexer.TokenEnd) && !p.check(lexer.TokenElse) && !p.isAtEnd() {
		if instr := p.instruction(); instr != nil {
			instrs = append(instrs, instr)
		}
	}
	return instrs
}

func (p *Parser) printStmt() *ast.PrintStmt {
	start := p.advance() // println
	p.consume(lexer.TokenLParen, "expected '(' after println")
	var expr ast.Expr
	if !p.check(lexer.TokenRParen) {
		expr = p.expression()
	}
	p.consume(lexer.TokenRParen, "expected ')' after println argument")
	return &ast.PrintStmt{Expr: expr, At: p.pos(start)}
}

func (p *Parser) returnStmt() *ast.ReturnStmt {
	start := p.advance() // return
	var expr ast.Expr
	if !p.check(lexer.TokenEnd) && !p.check(lexer.TokenElse) {
		expr = p.expression()
	}
	return &ast.ReturnStmt{Expr: expr, At: p.pos(start)}
}

func (p *Parser) assignment() *ast.Assignment {
	nameTok := p.advance()
	p.consume(lexer.TokenEqual, "expected '=' in assignment")
	expr := p.expression()
	return &ast.Assignment{Name: nameTok.Lexeme, Expr: expr, At: p.pos(nameTok)}
}

func (p *Parser) callStmt() *ast.CallStmt {
	call := p.call()
	return &ast.CallStmt{Call: call, At: call.At}
}

// expression parses with precedence climbing, per the teacher's
// precedence table.
func (p *Parser) expression() ast.Expr {
	return p.binary(1)
}

func (p *Parser) binary(minPrec int) ast.Expr {
	left := p.unary()
	for {
		tok := p.peek()
		prec, ok := precedence[tok.Type]
		if !ok || prec < minPrec {
			return left
		}
		p.advance()
		right := p.binary(prec + 1)
		left = &ast.BinaryExpr{Left: left, Op: binaryOps[tok.Type], Right: right, At: p.pos(tok)}
	}
}

func (p *Parser) unary() ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenPlus:
		p.advance()
		return &ast.UnaryExpr{Op: ast.OpPos, Operand: p.unary(), At: p.pos(tok)}
	case lexer.TokenMinus:
		p.advance()
		return &ast.UnaryExpr{Op: ast.OpNeg, Operand: p.unary(), At: p.pos(tok)}
	case lexer.TokenExclamation:
		p.advance()
		return &ast.UnaryExpr{Op: ast.OpNot, Operand: p.unary(), At: p.pos(tok)}
	default:
		return p.atom()
	}
}

func (p *Parser) atom() ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenLParen:
		p.advance()
		inner := p.expression()
		p.consume(lexer.TokenRParen, "expected ')' to close parenthesised expression")
		return &ast.ParenExpr{Inner: inner, At: p.pos(tok)}
	case lexer.TokenIntNumber:
		p.advance()
		var v int32
		fmt.Sscan(tok.Lexeme, &v)
		return &ast.IntLit{Value: v, At: p.pos(tok)}
	case lexer.TokenFloatNumber:
		p.advance()
		var v float64
		fmt.Sscan(tok.Lexeme, &v)
		return &ast.FloatLit{Value: v, At: p.pos(tok)}
	case lexer.TokenTrue:
		p.advance()
		return &ast.BoolLit{Value: true, At: p.pos(tok)}
	case lexer.TokenFalse:
		p.advance()
		return &ast.BoolLit{Value: false, At: p.pos(tok)}
	case lexer.TokenString:
		p.advance()
		return &ast.StringLit{Value: tok.Lexeme, At: p.pos(tok)}
	case lexer.TokenIdent, lexer.TokenMain:
		if p.checkNext(lexer.TokenLParen) {
			return p.call()
		}
		p.advance()
		return &ast.IdentExpr{Name: tok.Lexeme, At: p.pos(tok)}
	default:
		p.errorAt(p.pos(tok), "unexpected token %q in expression", tok.Lexeme)
		p.advance()
		return &ast.IntLit{At: p.pos(tok)}
	}
}

func (p *Parser) call() *ast.CallExpr {
	nameTok := p.advance()
	p.consume(lexer.TokenLParen, "expected '(' in function call")
	var args []ast.Expr
	if !p.check(lexer.TokenRParen) {
		for {
			args = append(args, p.expression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' to close function call")
	return &ast.CallExpr{Name: nameTok.Lexeme, Args: args, At: p.pos(nameTok)}
}

// --- token cursor helpers ---

func (p *Parser) peek() lexer.Token { return p.tokens[p.current] }

func (p *Parser) peekNext() lexer.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) check(t lexer.TokenType) bool     { return p.peek().Type == t }
func (p *Parser) checkNext(t lexer.TokenType) bool { return p.peekNext().Type == t }

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) consume(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	tok := p.peek()
	p.errorAt(p.pos(tok), "%s, got %q", msg, tok.Lexeme)
	return tok
}

func (p *Parser) isAtEnd() bool { return p.peek().Type == lexer.TokenEOF }

func (p *Parser) pos(tok lexer.Token) ast.Pos { return ast.Pos{Line: tok.Line, Column: tok.Column} }

func (p *Parser) errorAt(pos ast.Pos, format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Errorf("line %d:%d %s", pos.Line, pos.Column, fmt.Sprintf(format, args...)))
}
