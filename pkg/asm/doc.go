// Package asm translates line-oriented assembly source into instruction
// words.
//
// Source is processed one line at a time. A '#' starts a comment that runs to
// the end of the line, and lines that are blank once comments and surrounding
// whitespace are removed are skipped. Every other line holds a mnemonic
// followed by whitespace-separated integer arguments:
//
//	# result[i] = vector[i] != 95
//	LOAD_CONST 3000
//	LOAD_CONST 2000
//	READ_MEM 0
//	WRITE_MEM
//	LOAD_CONST 3000
//	NOT_EQUAL 1000
//
// Mnemonics are case-sensitive. Each assembled line produces exactly one
// instruction word and one LogEntry. Assembly stops at the first error and
// returns no program; use Check to collect every diagnostic in a source.
package asm
