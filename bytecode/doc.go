// Package bytecode provides immutable representations of compiled Sapphire
// code.
//
// This package defines the output of compilation: a finalized instruction
// sequence together with its constant pool, name tables and exception
// regions. A [Code] is created once by the compiler and may be shared safely
// across goroutines, cached, or serialized.
//
// # Key Types
//
//   - [Code]: an immutable compiled unit
//   - [ExceptionRegion]: a protected instruction range with its rescue
//     handlers or ensure handler (value type)
//   - [Handler]: one rescue clause entry within a region (value type)
//   - [InstructionIter]: decodes the flat instruction stream
//
// # Immutability Guarantees
//
//   - No mutation methods exist on any type
//   - All fields are unexported
//   - Constructors copy input slices to prevent caller mutation
//   - Accessors return values, never mutable internal slices
//
// Index-based access is used for all collections:
//
//	code.InstructionAt(0)
//	code.ConstantAt(i)
//	code.RegionAt(j)
//
// # Instruction Layout
//
// Instructions are stored as a flat []op.Code stream: each opcode is followed
// by the number of operands given by [op.GetInfo]. Jump operands hold
// absolute offsets into this stream. No symbolic label references remain in
// a finalized Code.
//
// # Verification
//
// [Verify] runs a dataflow pass over the stream and proves that every
// instruction is reached with a single operand stack depth. The compiler
// runs it when verification is enabled.
package bytecode
