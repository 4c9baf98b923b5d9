package txn

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// GasRef pins the coin paying for gas.
type GasRef struct {
	ObjectID string
	Version  uint64
	Digest   string
}

// GasData is the gas section of the signed envelope.
type GasData struct {
	Payment []GasRef
	Owner   string
	Price   uint64
	Budget  uint64
}

// BCS enum tags for the shapes this builder emits. The numbering follows
// the on-chain TransactionData schema and is wire format, not style.
const (
	tagTransactionDataV1   = 0
	tagKindProgrammable    = 0
	tagCallArgPure         = 0
	tagCallArgObject       = 1
	tagObjectArgImmOrOwned = 0
	tagObjectArgShared     = 1
	tagCommandMoveCall     = 0
	tagCommandSplitCoins   = 2
	tagArgGasCoin          = 0
	tagArgInput            = 1
	tagArgResult           = 2
	tagArgNestedResult     = 3
	tagExpirationNone      = 0
)

// Encode serializes the transaction as BCS TransactionData::V1 ready for
// intent signing. Every object input must have been resolved first.
func (t *Transaction) Encode(sender string, gas GasData) ([]byte, error) {
	if ids := t.UnresolvedObjects(); len(ids) > 0 {
		return nil, errors.Errorf("unresolved object inputs: %s", strings.Join(ids, ", "))
	}
	e := &encoder{}
	e.byte(tagTransactionDataV1)

	// kind: ProgrammableTransaction { inputs, commands }
	e.byte(tagKindProgrammable)
	e.uleb(uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		e.callArg(in)
	}
	e.uleb(uint64(len(t.Commands)))
	for _, cmd := range t.Commands {
		e.command(cmd)
	}

	e.address(sender)
	e.uleb(uint64(len(gas.Payment)))
	for _, p := range gas.Payment {
		e.objectRef(p.ObjectID, p.Version, p.Digest)
	}
	e.address(gas.Owner)
	e.u64(gas.Price)
	e.u64(gas.Budget)

	e.byte(tagExpirationNone)

	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf bytes.Buffer
	err error
}

func (e *encoder) byte(b byte) { e.buf.WriteByte(b) }

func (e *encoder) uleb(v uint64) {
	for v >= 0x80 {
		e.buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	e.buf.WriteByte(byte(v))
}

func (e *encoder) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) bytes(b []byte) {
	e.uleb(uint64(len(b)))
	e.buf.Write(b)
}

func (e *encoder) str(s string) { e.bytes([]byte(s)) }

// address writes a 32-byte account or object id from its 0x hex form,
// left-padded the way short ids like 0x6 are.
func (e *encoder) address(addr string) {
	if e.err != nil {
		return
	}
	h := strings.TrimPrefix(addr, "0x")
	if len(h)%2 == 1 {
		h = "0" + h
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		e.err = errors.Wrapf(err, "bad address %q", addr)
		return
	}
	if len(raw) > 32 {
		e.err = errors.Errorf("address %q longer than 32 bytes", addr)
		return
	}
	var out [32]byte
	copy(out[32-len(raw):], raw)
	e.buf.Write(out[:])
}

// digest writes an object digest from its base58 form, length-prefixed.
func (e *encoder) digest(d string) {
	if e.err != nil {
		return
	}
	raw, err := base58.Decode(d)
	if err != nil {
		e.err = errors.Wrapf(err, "bad digest %q", d)
		return
	}
	e.bytes(raw)
}

func (e *encoder) objectRef(id string, version uint64, digest string) {
	e.address(id)
	e.u64(version)
	e.digest(digest)
}

func (e *encoder) callArg(in Input) {
	if in.Pure != nil {
		e.byte(tagCallArgPure)
		e.bytes(in.Pure)
		return
	}
	e.byte(tagCallArgObject)
	r := in.Resolved
	if r.Shared {
		e.byte(tagObjectArgShared)
		e.address(in.ObjectID)
		e.u64(r.InitialSharedVersion)
		if r.Mutable {
			e.byte(1)
		} else {
			e.byte(0)
		}
		return
	}
	e.byte(tagObjectArgImmOrOwned)
	e.objectRef(in.ObjectID, r.Version, r.Digest)
}

func (e *encoder) argument(a Argument) {
	switch a.Kind {
	case KindGasCoin:
		e.byte(tagArgGasCoin)
	case KindInput:
		e.byte(tagArgInput)
		e.u16(a.Index)
	case KindResult:
		e.byte(tagArgResult)
		e.u16(a.Index)
	case KindNestedResult:
		e.byte(tagArgNestedResult)
		e.u16(a.Index)
		e.u16(a.Nested)
	}
}

func (e *encoder) command(cmd Command) {
	switch {
	case cmd.MoveCall != nil:
		mc := cmd.MoveCall
		e.byte(tagCommandMoveCall)
		e.address(mc.Package)
		e.str(mc.Module)
		e.str(mc.Function)
		e.uleb(0) // no type arguments
		e.uleb(uint64(len(mc.Args)))
		for _, a := range mc.Args {
			e.argument(a)
		}
	case cmd.SplitCoins != nil:
		sc := cmd.SplitCoins
		e.byte(tagCommandSplitCoins)
		e.argument(sc.Coin)
		e.uleb(uint64(len(sc.Amounts)))
		for _, a := range sc.Amounts {
			e.argument(a)
		}
	default:
		if e.err == nil {
			e.err = errors.New("empty command")
		}
	}
}
