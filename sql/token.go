package sql

import "strings"

// TokenType enumerates the lexical tokens of the dialect: a small
// SELECT/WHERE/GROUP BY/HAVING/ORDER BY/LIMIT/OFFSET grammar with no JSON
// operators, no bitwise/shift operators, no regex match, and no
// IN/EXISTS — none of those appear in the dialect.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError

	TokenString
	TokenInteger
	TokenFloat
	TokenBoolean
	TokenNull

	TokenIdentifier
	TokenKeyword

	TokenEqual
	TokenNotEqual
	TokenLess
	TokenLessEqual
	TokenGreater
	TokenGreaterEqual

	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenDot
	TokenStar
)

func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "ERROR"
	case TokenString:
		return "STRING"
	case TokenInteger:
		return "INTEGER"
	case TokenFloat:
		return "FLOAT"
	case TokenBoolean:
		return "BOOLEAN"
	case TokenNull:
		return "NULL"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenKeyword:
		return "KEYWORD"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	case TokenStar:
		return "*"
	default:
		return "UNKNOWN"
	}
}

// Token is one lexeme plus its source position, for error messages that
// point at the offending character.
type Token struct {
	Type     TokenType
	Value    string
	Position int
	Line     int
	Column   int
}

// keywords is the dialect's reserved-word set, matched case-insensitively.
// Values that need their own TokenType (booleans, NULL) are special-cased
// in scanIdentifier; everything else stays TokenKeyword and the parser
// matches on the upper-cased Value.
var keywords = map[string]bool{
	"SELECT": true, "DISTINCT": true, "FROM": true, "WHERE": true,
	"GROUP": true, "BY": true, "HAVING": true, "ORDER": true,
	"ASC": true, "DESC": true, "LIMIT": true, "OFFSET": true,
	"AND": true, "OR": true, "NOT": true, "LIKE": true,
	"IS": true, "NULL": true, "TRUE": true, "FALSE": true, "AS": true,
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

func isKeyword(upper string) bool {
	return keywords[upper]
}

func upper(s string) string { return strings.ToUpper(s) }
