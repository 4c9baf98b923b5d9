// Package txn builds Sui programmable transactions: typed inputs, a command
// list, and the BCS serialization of the whole TransactionData envelope that
// gets signed. Object inputs start out as bare ids and must be resolved to
// versioned references (or shared-object references) before encoding; the
// wallet layer does that against the live ledger.
package txn

import (
	"encoding/binary"
)

// ArgKind discriminates Argument.
type ArgKind int

const (
	KindGasCoin ArgKind = iota
	KindInput
	KindResult
	KindNestedResult
)

// Argument is a handle to a value inside the transaction: the gas coin, an
// input slot, or the result of an earlier command.
type Argument struct {
	Kind   ArgKind
	Index  uint16 // input index or command index
	Nested uint16 // result slot, for KindNestedResult
}

// Gas is the gas coin argument.
func Gas() Argument { return Argument{Kind: KindGasCoin} }

// ObjectArg is a resolved object input.
type ObjectArg struct {
	Shared               bool
	InitialSharedVersion uint64
	Mutable              bool
	Version              uint64
	Digest               string
}

// Input is one transaction input: either pure BCS bytes or an object
// reference.
type Input struct {
	Pure     []byte // non-nil for pure inputs
	ObjectID string // set for object inputs
	ReadOnly bool   // shared object referenced immutably
	Resolved *ObjectArg
}

// MoveCall invokes an entry function.
type MoveCall struct {
	Package  string
	Module   string
	Function string
	Args     []Argument
}

// SplitCoins splits amounts off a coin.
type SplitCoins struct {
	Coin    Argument
	Amounts []Argument
}

// Command is one programmable-transaction command; exactly one field is set.
type Command struct {
	MoveCall   *MoveCall
	SplitCoins *SplitCoins
}

// Transaction accumulates inputs and commands in submission order.
type Transaction struct {
	Inputs   []Input
	Commands []Command
}

// New returns an empty transaction.
func New() *Transaction { return &Transaction{} }

// PureU64 appends a pure u64 input and returns its argument handle.
func (t *Transaction) PureU64(v uint64) Argument {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	t.Inputs = append(t.Inputs, Input{Pure: b})
	return Argument{Kind: KindInput, Index: uint16(len(t.Inputs) - 1)}
}

// Object appends an object input referenced mutably, reusing an existing
// input for the same id. Mutable wins if the id was first added read-only.
func (t *Transaction) Object(id string) Argument {
	return t.object(id, false)
}

// ReadObject appends an object input referenced immutably. System objects
// like the clock and the randomness beacon are only valid as read-only
// shared references.
func (t *Transaction) ReadObject(id string) Argument {
	return t.object(id, true)
}

func (t *Transaction) object(id string, readOnly bool) Argument {
	for i := range t.Inputs {
		if t.Inputs[i].ObjectID == id {
			if !readOnly {
				t.Inputs[i].ReadOnly = false
			}
			return Argument{Kind: KindInput, Index: uint16(i)}
		}
	}
	t.Inputs = append(t.Inputs, Input{ObjectID: id, ReadOnly: readOnly})
	return Argument{Kind: KindInput, Index: uint16(len(t.Inputs) - 1)}
}

// SplitGas splits one amount off the gas coin and returns the handle of the
// split-off coin.
func (t *Transaction) SplitGas(amount Argument) Argument {
	t.Commands = append(t.Commands, Command{SplitCoins: &SplitCoins{
		Coin:    Gas(),
		Amounts: []Argument{amount},
	}})
	return Argument{Kind: KindNestedResult, Index: uint16(len(t.Commands) - 1), Nested: 0}
}

// MoveCall appends a move call command and returns its result handle.
func (t *Transaction) MoveCall(pkg, module, function string, args ...Argument) Argument {
	t.Commands = append(t.Commands, Command{MoveCall: &MoveCall{
		Package:  pkg,
		Module:   module,
		Function: function,
		Args:     args,
	}})
	return Argument{Kind: KindResult, Index: uint16(len(t.Commands) - 1)}
}

// ResolveObject fills in the ledger reference for every input with the
// given id. Returns false when the id is not an input.
func (t *Transaction) ResolveObject(id string, arg ObjectArg) bool {
	found := false
	for i := range t.Inputs {
		if t.Inputs[i].ObjectID == id {
			resolved := arg
			if resolved.Shared {
				resolved.Mutable = !t.Inputs[i].ReadOnly
			}
			t.Inputs[i].Resolved = &resolved
			found = true
		}
	}
	return found
}

// UnresolvedObjects lists the object-input ids still missing a reference.
func (t *Transaction) UnresolvedObjects() []string {
	var ids []string
	for _, in := range t.Inputs {
		if in.ObjectID != "" && in.Resolved == nil {
			ids = append(ids, in.ObjectID)
		}
	}
	return ids
}
