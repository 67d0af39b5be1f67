package devices

// CommandWord is the single 32-bit NAND command register layout (§4.1,
// §9). This is the only place that knows the field layout; the Command
// Engine in the parent package never mutates individual bits, only calls
// PackCommand.
//
// Bit layout, LSB first: execute(1) generate_irq(1) has_error(1)
// address(5) opcode(8) wait(1) write_data(1) read_data(1)
// calculate_ecc(1) data_length(12).
type CommandWord uint32

const (
	bitExecute = 1 << 0
	bitIRQ     = 1 << 1
	bitError   = 1 << 2
	shiftAddr  = 3
	maskAddr   = 0x1F
	shiftOp    = 8
	maskOp     = 0xFF
	bitWait    = 1 << 16
	bitWrite   = 1 << 17
	bitRead    = 1 << 18
	bitECC     = 1 << 19
	shiftLen   = 20
	maskLen    = 0x0FFF
)

// CommandFlags carries the boolean control bits a submitted command may
// set; Execute is implicit and always 1 for a submitted command.
type CommandFlags struct {
	Wait          bool
	GenerateIRQ   bool
	CalculateECC  bool
	ReadData      bool
	WriteData     bool
}

// PackCommand assembles the 32-bit command word per §4.3: opcode,
// addr5&0x1F, dataLen&0x0FFF, and the boolean flags. Execute is always set.
func PackCommand(opcode uint8, addr5 uint8, flags CommandFlags, dataLen uint16) CommandWord {
	w := uint32(bitExecute)
	w |= (uint32(addr5) & maskAddr) << shiftAddr
	w |= (uint32(opcode) & maskOp) << shiftOp
	w |= (uint32(dataLen) & maskLen) << shiftLen
	if flags.Wait {
		w |= bitWait
	}
	if flags.GenerateIRQ {
		w |= bitIRQ
	}
	if flags.CalculateECC {
		w |= bitECC
	}
	if flags.ReadData {
		w |= bitRead
	}
	if flags.WriteData {
		w |= bitWrite
	}
	return CommandWord(w)
}

// ResetCommand builds the synthetic recovery reset command issued by the
// Completion Synchronizer's error-recovery sequence (§4.2): execute=1,
// wait=1, opcode=reset, no IRQ.
func ResetCommand(resetOpcode uint8) CommandWord {
	return PackCommand(resetOpcode, 0, CommandFlags{Wait: true}, 0)
}

func (c CommandWord) Execute() bool { return uint32(c)&bitExecute != 0 }
func (c CommandWord) HasError() bool { return uint32(c)&bitError != 0 }
