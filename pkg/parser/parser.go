// Package parser is a small recursive-descent front end over
// pkg/lexer's token stream. It exists only so the CLI and this
// repository's own tests can hand pkg/codegen something real to lower;
// it does none of a real compiler's work — no module system, no
// overload resolution, no diagnostics beyond a single first error. It
// doubles as the minimal type resolver the code generator needs
// upstream of it: as it parses, it declares every name into a
// symtab.SymbolTable and stamps ResolvedType directly onto the AST
// nodes that carry one.
package parser

import (
	"fmt"

	"cowgolc/pkg/ast"
	"cowgolc/pkg/lexer"
	"cowgolc/pkg/symtab"
)

// Parse scans and parses src in one pass, returning the program and
// the symbol table built up while parsing it.
func Parse(src string) (*ast.Program, *symtab.SymbolTable, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, nil, err
	}
	p := &Parser{toks: toks, table: symtab.New(), types: make(map[string]symtab.Type)}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, nil, err
	}
	return prog, p.table, nil
}

// Parser holds all state for a single parse.
type Parser struct {
	toks  []lexer.Token
	pos   int
	table *symtab.SymbolTable
	types map[string]symtab.Type // named record/typedef types, by name
}

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) match(tt lexer.TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if !p.check(tt) {
		return lexer.Token{}, p.errorf("expected %s, got %s", tt, p.cur().Type)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...any) error {
	t := p.cur()
	return fmt.Errorf("parser: %d:%d: %s", t.Line, t.Col, fmt.Sprintf(format, args...))
}

// parseProgram consumes declarations and top-level statements until EOF.
func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.check(lexer.EOF) {
		switch p.cur().Type {
		case lexer.VAR:
			decl, err := p.parseVarDecl()
			if err != nil {
				return nil, err
			}
			p.table.DeclareGlobal(decl.Name, decl.Type)
			prog.Globals = append(prog.Globals, decl)
		case lexer.CONST:
			decl, err := p.parseConstDecl()
			if err != nil {
				return nil, err
			}
			p.table.DeclareConst(decl.Name, decl.Value)
			prog.Globals = append(prog.Globals, decl)
		case lexer.RECORD:
			decl, err := p.parseRecordDecl()
			if err != nil {
				return nil, err
			}
			p.table.DeclareRecord(decl.Name, decl.Fields)
			p.types[decl.Name] = symtab.RecordType{Name: decl.Name}
			prog.Globals = append(prog.Globals, decl)
		case lexer.TYPE:
			decl, err := p.parseTypedefDecl()
			if err != nil {
				return nil, err
			}
			p.types[decl.Name] = decl.Type
			prog.Globals = append(prog.Globals, decl)
		case lexer.EXTERN, lexer.SUB:
			decl, err := p.parseSubDecl()
			if err != nil {
				return nil, err
			}
			p.table.DeclareSubroutine(&symtab.SubroutineSig{
				Name:       decl.Name,
				ExternName: decl.ExternName,
				Params:     toSymtabParams(decl.Params),
				Returns:    toSymtabParams(decl.Returns),
			})
			prog.Subroutines = append(prog.Subroutines, decl)
		default:
			stmt, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			prog.TopLevel = append(prog.TopLevel, stmt)
		}
	}
	return prog, nil
}

func toSymtabParams(params []ast.Param) []symtab.Param {
	out := make([]symtab.Param, len(params))
	for i, pm := range params {
		out[i] = symtab.Param{Name: pm.Name, Type: pm.Type}
	}
	return out
}

// parseType parses a type expression: a builtin name, a named
// record/typedef, intf, a pointer (@Type), or an array suffix
// (Type[N]).
func (p *Parser) parseType() (symtab.Type, error) {
	var base symtab.Type

	switch {
	case p.match(lexer.AT):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		base = symtab.PointerType{Elem: elem}
	case p.match(lexer.INTF):
		base = symtab.InterfaceType{}
	case p.check(lexer.IDENT):
		name := p.advance().Text
		switch name {
		case "uint8":
			base = symtab.UInt8
		case "int8":
			base = symtab.Int8
		case "uint16":
			base = symtab.UInt16
		case "int16":
			base = symtab.Int16
		default:
			t, ok := p.types[name]
			if !ok {
				return nil, p.errorf("unknown type %q", name)
			}
			base = t
		}
	default:
		return nil, p.errorf("expected a type, got %s", p.cur().Type)
	}

	for p.match(lexer.LBRACKET) {
		countTok, err := p.expect(lexer.INT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		base = symtab.ArrayType{Elem: base, Count: int(countTok.IntVal)}
	}
	return base, nil
}

func (p *Parser) parseVarDecl() (*ast.VarDecl, error) {
	if _, err := p.expect(lexer.VAR); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	decl := &ast.VarDecl{Name: name.Text, Type: typ}
	if p.match(lexer.ASSIGN) {
		if p.check(lexer.LBRACE) {
			init, err := p.parseArrayInit()
			if err != nil {
				return nil, err
			}
			decl.Init = init
		} else {
			init, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			decl.Init = init
		}
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseArrayInit() (*ast.ArrayInit, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	init := &ast.ArrayInit{}
	for !p.check(lexer.RBRACE) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		init.Elements = append(init.Elements, e)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return init, nil
}

// parseConstDecl parses `const NAME := expr;`. expr must fold to a
// compile-time integer: a literal, or a previously declared constant.
func (p *Parser) parseConstDecl() (*ast.ConstDecl, error) {
	if _, err := p.expect(lexer.CONST); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseConstExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.ConstDecl{Name: name.Text, Value: value}, nil
}

func (p *Parser) parseConstExpr() (uint16, error) {
	if p.check(lexer.INT) {
		return p.advance().IntVal, nil
	}
	if p.check(lexer.IDENT) {
		name := p.advance().Text
		res := p.table.Lookup(name)
		if res.Kind != symtab.KindConst {
			return 0, p.errorf("%q is not a known constant", name)
		}
		return res.ConstValue, nil
	}
	return 0, p.errorf("expected a constant expression, got %s", p.cur().Type)
}

func (p *Parser) parseRecordDecl() (*ast.RecordDecl, error) {
	if _, err := p.expect(lexer.RECORD); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IS); err != nil {
		return nil, err
	}
	var fields []symtab.RecordField
	offset := 0
	for !p.check(lexer.END) {
		fname, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ftype, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		fields = append(fields, symtab.RecordField{Name: fname.Text, Type: ftype, Offset: offset})
		offset += symtab.BytesOf(ftype, p.table)
	}
	if _, err := p.expect(lexer.END); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.RecordDecl{Name: name.Text, Fields: fields}, nil
}

func (p *Parser) parseTypedefDecl() (*ast.TypedefDecl, error) {
	if _, err := p.expect(lexer.TYPE); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IS); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.TypedefDecl{Name: name.Text, Type: typ}, nil
}

// parseSubDecl parses a subroutine declaration or definition:
//
//	[extern] sub NAME ( params ) [: returns] [is Stmts end] ;
//
// A declaration with no `is ... end` body is a forward declaration:
// Body stays nil and no code is generated for it.
func (p *Parser) parseSubDecl() (*ast.SubDecl, error) {
	extern := p.match(lexer.EXTERN)
	if _, err := p.expect(lexer.SUB); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.SubDecl{Name: name.Text}
	if extern {
		decl.ExternName = name.Text
	}

	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	for !p.check(lexer.RPAREN) {
		pname, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ptyp, err := p.parseType()
		if err != nil {
			return nil, err
		}
		decl.Params = append(decl.Params, ast.Param{Name: pname.Text, Type: ptyp})
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}

	if p.match(lexer.COLON) {
		i := 0
		for {
			rtyp, err := p.parseType()
			if err != nil {
				return nil, err
			}
			decl.Returns = append(decl.Returns, ast.Param{Name: fmt.Sprintf("r%d", i), Type: rtyp})
			i++
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}

	if p.match(lexer.IS) {
		// Parameters and returns are visible to the body as plain
		// identifiers, the same as any other variable.
		p.table.DeclareSubroutine(&symtab.SubroutineSig{
			Name:       decl.Name,
			ExternName: decl.ExternName,
			Params:     toSymtabParams(decl.Params),
			Returns:    toSymtabParams(decl.Returns),
		})
		for _, param := range decl.Params {
			p.table.DeclareGlobal(param.Name, param.Type)
		}
		for _, ret := range decl.Returns {
			p.table.DeclareGlobal(ret.Name, ret.Type)
		}
		body, nested, err := p.parseStmtsWithNested()
		if err != nil {
			return nil, err
		}
		decl.Body = body
		decl.Nested = nested
		if _, err := p.expect(lexer.END); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseStmtsWithNested parses a statement list, splitting out any
// nested subroutine declarations it finds into a separate slice (per
// ast.SubDecl.Nested).
func (p *Parser) parseStmtsWithNested() ([]ast.Stmt, []*ast.SubDecl, error) {
	var body []ast.Stmt
	var nested []*ast.SubDecl
	for !blockEnd(p.cur().Type) {
		if p.check(lexer.SUB) || p.check(lexer.EXTERN) {
			sub, err := p.parseSubDecl()
			if err != nil {
				return nil, nil, err
			}
			nested = append(nested, sub)
			continue
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, nil, err
		}
		body = append(body, stmt)
	}
	return body, nested, nil
}

func blockEnd(tt lexer.TokenType) bool {
	switch tt {
	case lexer.END, lexer.ELSE, lexer.ELSEIF, lexer.WHEN, lexer.EOF:
		return true
	default:
		return false
	}
}

func (p *Parser) parseStmts() ([]ast.Stmt, error) {
	var body []ast.Stmt
	for !blockEnd(p.cur().Type) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return body, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur().Type {
	case lexer.VAR:
		decl, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		p.table.DeclareGlobal(decl.Name, decl.Type)
		return decl, nil
	case lexer.CONST:
		decl, err := p.parseConstDecl()
		if err != nil {
			return nil, err
		}
		p.table.DeclareConst(decl.Name, decl.Value)
		return decl, nil
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.LOOP:
		return p.parseLoop()
	case lexer.CASE:
		return p.parseCase()
	case lexer.ASM:
		return p.parseAsm()
	case lexer.BREAK:
		p.advance()
		_, err := p.expect(lexer.SEMI)
		return &ast.BreakStmt{}, err
	case lexer.CONTINUE:
		p.advance()
		_, err := p.expect(lexer.SEMI)
		return &ast.ContinueStmt{}, err
	case lexer.RETURN:
		p.advance()
		_, err := p.expect(lexer.SEMI)
		return &ast.ReturnStmt{}, err
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.THEN); err != nil {
		return nil, err
	}
	thenBody, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Condition: cond, ThenBody: thenBody}
	for p.check(lexer.ELSEIF) {
		p.advance()
		econd, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.THEN); err != nil {
			return nil, err
		}
		ebody, err := p.parseStmts()
		if err != nil {
			return nil, err
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Condition: econd, Body: ebody})
	}
	if p.match(lexer.ELSE) {
		ebody, err := p.parseStmts()
		if err != nil {
			return nil, err
		}
		stmt.ElseBody = ebody
	}
	if _, err := p.expect(lexer.END); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	p.advance() // while
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LOOP); err != nil {
		return nil, err
	}
	body, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.END); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Condition: cond, Body: body}, nil
}

func (p *Parser) parseLoop() (ast.Stmt, error) {
	p.advance() // loop
	body, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.END); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.LoopStmt{Body: body}, nil
}

func (p *Parser) parseCase() (ast.Stmt, error) {
	p.advance() // case
	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	stmt := &ast.CaseStmt{Target: target}
	for p.check(lexer.WHEN) {
		p.advance()
		var values []ast.Expr
		for {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if !p.match(lexer.COMMA) {
				break
			}
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		body, err := p.parseStmts()
		if err != nil {
			return nil, err
		}
		stmt.Whens = append(stmt.Whens, ast.WhenClause{Values: values, Body: body})
	}
	if p.match(lexer.ELSE) {
		body, err := p.parseStmts()
		if err != nil {
			return nil, err
		}
		stmt.Else = body
	}
	if _, err := p.expect(lexer.END); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseAsm parses `asm { fragment fragment ... };`. A fragment is
// either a bare identifier (substituted at lowering time) or any other
// single token, re-rendered as its own literal by its source text.
func (p *Parser) parseAsm() (ast.Stmt, error) {
	p.advance() // asm
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	stmt := &ast.AsmStmt{}
	for !p.check(lexer.RBRACE) {
		if p.check(lexer.IDENT) {
			stmt.Parts = append(stmt.Parts, ast.AsmPart{Ident: p.advance().Text})
			continue
		}
		tok := p.advance()
		switch tok.Type {
		case lexer.STRING, lexer.INT:
			stmt.Parts = append(stmt.Parts, ast.AsmPart{Literal: tok.Text})
		default:
			stmt.Parts = append(stmt.Parts, ast.AsmPart{Literal: tok.Type.String()})
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseAssignOrExprStmt covers plain assignment, multi-target
// assignment, and bare expression statements (almost always a call),
// disambiguated by what follows the first parsed expression.
func (p *Parser) parseAssignOrExprStmt() (ast.Stmt, error) {
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.match(lexer.COMMA) {
		targets := []ast.Expr{first}
		for {
			t, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
			if !p.match(lexer.COMMA) {
				break
			}
		}
		if _, err := p.expect(lexer.ASSIGN); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.MultiAssignment{Targets: targets, Value: value}, nil
	}
	if p.match(lexer.ASSIGN) {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.Assignment{Target: first, Value: value}, nil
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: first}, nil
}

// --- Expressions, precedence-climbing from loosest to tightest ---
//
//	or
//	and
//	not (prefix)
//	== != < > <= >=
//	| ^
//	&
//	<< >>
//	+ -
//	* / %
//	unary - ~
//	postfix: call, index, field access
//	primary

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.OR) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalOp{Op: ast.LogicalOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.AND) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalOp{Op: ast.LogicalAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.match(lexer.NOT) {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.UnaryNot, Operand: operand, ResolvedType: symtab.UInt8}, nil
	}
	return p.parseComparison()
}

var compareOps = map[lexer.TokenType]ast.BinOpKind{
	lexer.EQ: ast.OpEq, lexer.NE: ast.OpNe,
	lexer.LT: ast.OpLt, lexer.GT: ast.OpGt,
	lexer.LE: ast.OpLe, lexer.GE: ast.OpGe,
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	if op, ok := compareOps[p.cur().Type]; ok {
		p.advance()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		return &ast.BinOp{Op: op, Left: left, Right: right, ResolvedType: symtab.UInt8}, nil
	}
	return left, nil
}

func (p *Parser) parseBitOr() (ast.Expr, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOpKind
		switch p.cur().Type {
		case lexer.PIPE:
			op = ast.OpBitOr
		case lexer.CARET:
			op = ast.OpBitXor
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: op, Left: left, Right: right, ResolvedType: widerType(left, right)}
	}
}

func (p *Parser) parseBitAnd() (ast.Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.AMP) {
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: ast.OpBitAnd, Left: left, Right: right, ResolvedType: widerType(left, right)}
	}
	return left, nil
}

func (p *Parser) parseShift() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOpKind
		switch p.cur().Type {
		case lexer.SHL:
			op = ast.OpShl
		case lexer.SHR:
			op = ast.OpShr
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: op, Left: left, Right: right, ResolvedType: exprType(left)}
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOpKind
		switch p.cur().Type {
		case lexer.PLUS:
			op = ast.OpAdd
		case lexer.MINUS:
			op = ast.OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: op, Left: left, Right: right, ResolvedType: widerType(left, right)}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOpKind
		switch p.cur().Type {
		case lexer.STAR:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		case lexer.PERCENT:
			op = ast.OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Op: op, Left: left, Right: right, ResolvedType: widerType(left, right)}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.cur().Type {
	case lexer.MINUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.UnaryNeg, Operand: operand, ResolvedType: exprType(operand)}, nil
	case lexer.TILDE:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.UnaryBitNot, Operand: operand, ResolvedType: exprType(operand)}, nil
	case lexer.AMP:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.AddressOf{Operand: operand}, nil
	case lexer.STAR:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Dereference{Pointer: operand, ResolvedType: derefType(operand)}, nil
	case lexer.NEXT, lexer.PREV:
		forward := p.cur().Type == lexer.NEXT
		p.advance()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return &ast.PtrStep{Forward: forward, Pointer: operand, ResolvedType: exprType(operand)}, nil
	case lexer.SIZEOF:
		p.advance()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return &ast.SizeOf{Target: operand}, nil
	case lexer.BYTESOF:
		p.advance()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return &ast.BytesOf{Target: operand}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Type {
		case lexer.LPAREN:
			p.advance()
			var args []ast.Expr
			for !p.check(lexer.RPAREN) {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !p.match(lexer.COMMA) {
					break
				}
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			e = &ast.Call{Target: e, Args: args, ResolvedType: p.callReturnType(e)}
		case lexer.LBRACKET:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET); err != nil {
				return nil, err
			}
			e = &ast.ArrayAccess{Array: e, Index: idx, ResolvedType: elemTypeOf(e)}
		case lexer.DOT:
			p.advance()
			field, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			e = &ast.FieldAccess{Record: e, Field: field.Text, ResolvedType: p.fieldTypeOf(e, field.Text)}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		typ := symtab.Type(symtab.UInt16)
		if tok.IntVal <= 0xFF {
			typ = symtab.UInt8
		}
		return &ast.IntLiteral{Value: tok.IntVal, ResolvedType: typ}, nil
	case lexer.STRING:
		p.advance()
		return &ast.StringLiteral{Value: tok.Text}, nil
	case lexer.NIL:
		p.advance()
		return &ast.NilLiteral{ResolvedType: symtab.InterfaceType{}}, nil
	case lexer.IDENT:
		p.advance()
		return &ast.Ident{Name: tok.Text, ResolvedType: p.identType(tok.Text)}, nil
	case lexer.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, p.errorf("unexpected token %s in expression", tok.Type)
}

// --- Type-resolution helpers, used while parsing to stamp ResolvedType ---

func (p *Parser) identType(name string) symtab.Type {
	res := p.table.Lookup(name)
	switch res.Kind {
	case symtab.KindGlobalVar:
		return res.Global.Type
	case symtab.KindConst:
		return symtab.UInt16
	case symtab.KindSubroutine:
		return symtab.InterfaceType{}
	default:
		return nil
	}
}

func exprType(e ast.Expr) symtab.Type {
	switch v := e.(type) {
	case *ast.IntLiteral:
		return v.ResolvedType
	case *ast.Ident:
		return v.ResolvedType
	case *ast.BinOp:
		return v.ResolvedType
	case *ast.UnaryOp:
		return v.ResolvedType
	case *ast.Dereference:
		return v.ResolvedType
	case *ast.PtrStep:
		return v.ResolvedType
	case *ast.ArrayAccess:
		return v.ResolvedType
	case *ast.FieldAccess:
		return v.ResolvedType
	case *ast.Call:
		return v.ResolvedType
	case *ast.NilLiteral:
		return v.ResolvedType
	default:
		return nil
	}
}

// widerType picks the 2-byte type when either operand is 2 bytes wide,
// matching how the 8080 lowering widens mixed-width binary operands.
func widerType(left, right ast.Expr) symtab.Type {
	lt, rt := exprType(left), exprType(right)
	if lt != nil && lt.Size() == 2 {
		return lt
	}
	if rt != nil && rt.Size() == 2 {
		return rt
	}
	if lt != nil {
		return lt
	}
	return rt
}

func derefType(pointer ast.Expr) symtab.Type {
	t := exprType(pointer)
	if t == nil {
		return nil
	}
	elem, err := symtab.Elem(t)
	if err != nil {
		return nil
	}
	return elem
}

func elemTypeOf(arrayExpr ast.Expr) symtab.Type {
	t := exprType(arrayExpr)
	if t == nil {
		return nil
	}
	elem, err := symtab.Elem(t)
	if err != nil {
		return nil
	}
	return elem
}

func (p *Parser) fieldTypeOf(recordExpr ast.Expr, field string) symtab.Type {
	t := exprType(recordExpr)
	recName := ""
	switch rt := t.(type) {
	case symtab.RecordType:
		recName = rt.Name
	case symtab.PointerType:
		if inner, ok := rt.Elem.(symtab.RecordType); ok {
			recName = inner.Name
		}
	}
	if recName == "" {
		return nil
	}
	f, ok := p.table.Field(recName, field)
	if !ok {
		return nil
	}
	return f.Type
}

func (p *Parser) callReturnType(target ast.Expr) symtab.Type {
	id, ok := target.(*ast.Ident)
	if !ok {
		return nil
	}
	sig, ok := p.table.Subroutine(id.Name)
	if !ok || len(sig.Returns) == 0 {
		return nil
	}
	return sig.Returns[0].Type
}
