// Package rods models the control rod system: eight banks stepped by
// drive mechanisms in a fixed overlap sequence, with gravity drop on a
// reactor trip.
package rods

// Bank identifies one rod bank. The declaration order is the withdrawal
// order: shutdown banks first, then control banks D through A.
type Bank int

const (
	BankSA Bank = iota
	BankSB
	BankSC
	BankSD
	BankD
	BankC
	BankB
	BankA

	NumBanks = 8
)

var bankNames = [NumBanks]string{"SA", "SB", "SC", "SD", "D", "C", "B", "A"}

func (b Bank) String() string {
	if b < 0 || b >= NumBanks {
		return "??"
	}
	return bankNames[b]
}

// IsShutdown reports whether the bank belongs to the shutdown groups.
func (b Bank) IsShutdown() bool {
	return b >= BankSA && b <= BankSD
}

// IsControl reports whether the bank belongs to the control groups.
func (b Bank) IsControl() bool {
	return b >= BankD && b <= BankA
}

// Motion is the commanded drive state of a bank.
type Motion int

const (
	Stationary Motion = iota
	Withdrawing
	Inserting
)

func (m Motion) String() string {
	switch m {
	case Withdrawing:
		return "OUT"
	case Inserting:
		return "IN"
	default:
		return "HOLD"
	}
}
