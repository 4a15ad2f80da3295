package cpu

import (
	"errors"

	"github.com/ezrec/intcode/translate"
)

var f = translate.From

var (
	// Decode errors
	ErrInvalidOpcode        = errors.New(f("invalid opcode"))
	ErrInvalidParameterMode = errors.New(f("invalid parameter mode"))
	ErrInvalidWriteTarget   = errors.New(f("invalid write target"))

	// Memory errors
	ErrAddressOutOfBounds = errors.New(f("address out of bounds"))
	ErrOutOfMemory        = errors.New(f("out of memory"))

	// Run errors
	ErrAlreadyHalted = errors.New(f("already halted"))
	ErrInputEmpty    = errors.New(f("input empty"))
	ErrTickLimit     = errors.New(f("tick limit reached"))

	// Program text errors
	ErrProgramSyntax = errors.New(f("program syntax"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrOperand tags which operand of an instruction was at fault.
var ErrOperand = [3]error{
	errors.New(f("operand 1")),
	errors.New(f("operand 2")),
	errors.New(f("operand 3")),
}

// ErrFault locates a fatal execution error.
type ErrFault struct {
	Ip   int64
	Code Code
	Err  error
}

func (err *ErrFault) Error() string {
	return f("fault at %v (word %v) %v", err.Ip, int64(err.Code), err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

// ErrParseNumber is a program cell that is not a decimal integer.
type ErrParseNumber struct {
	Index int
	Text  string
}

func (err ErrParseNumber) Error() string {
	return f("cell %v '%v' is not a number", err.Index, err.Text)
}

func (err ErrParseNumber) Is(target error) bool {
	return target == ErrProgramSyntax
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or label", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
