// Package cpu implements the Intcode machine.
//
// A Machine owns a flat memory of signed 64-bit cells, a program counter
// (Ip) and a relative base register. Instructions are variable width: the
// low two decimal digits of the instruction word select the opcode, and
// each higher digit selects the addressing mode of one operand (position,
// immediate or relative). Code and data share the same memory, so programs
// may rewrite their own instructions; nothing is cached between visits.
//
// Execution is resumable. Run returns to the caller when the program halts,
// when a caller-supplied output quota is reached, or when an input
// instruction finds no pending input. In the last two cases the machine
// state is left exactly where execution stopped, and a later Run continues
// from there.
package cpu
