package models

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrMalformedRecord is returned when an on-chain object's field bag does
// not match the lottery schema. Callers treat it the same as "not found".
var ErrMalformedRecord = errors.New("malformed lottery record")

// Status is the persisted lottery state. The contract stores it as an
// integer; zero means open, anything else means the draw has happened.
type Status int

const (
	StatusOpen      Status = 0
	StatusCompleted Status = 1
)

func (s Status) String() string {
	if s == StatusOpen {
		return "open"
	}
	return "completed"
}

// Quorum is the minimum ticket count for a draw to be valid. Below it the
// lottery expires into the refund path instead.
const Quorum = 2

// Lottery is a read-only snapshot of one on-chain lottery object. It is
// reconstructed fresh on every query and never mutated in place.
type Lottery struct {
	ID           string   `json:"id"`
	TicketPrice  uint64   `json:"ticketPrice"`
	Balance      uint64   `json:"balance"`
	Participants []string `json:"participants"`
	Deadline     int64    `json:"deadline"` // ms since epoch
	Status       Status   `json:"status"`
	Winners      []string `json:"winners"`
	AdminFeeBps  uint32   `json:"adminFeeBps"`
}

// rawLottery mirrors the move object's field bag. The fullnode serializes
// u64 fields as JSON strings, smaller integers as numbers; jsonUint accepts
// both. Pointers distinguish absent fields from zero values.
type rawLottery struct {
	TicketPrice  *jsonUint `json:"ticket_price"`
	Balance      *jsonUint `json:"balance"`
	Participants []string  `json:"participants"`
	Deadline     *jsonUint `json:"deadline"`
	Status       *jsonUint `json:"status"`
	Winners      []string  `json:"winners"`
	AdminFeeBps  *jsonUint `json:"admin_fee_bps"`
}

type jsonUint uint64

func (u *jsonUint) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	var v uint64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*u = jsonUint(v)
	return nil
}

// ParseLottery builds a snapshot from a move object's fields. The id comes
// from the enclosing object envelope, not the field bag.
func ParseLottery(id string, fields json.RawMessage) (*Lottery, error) {
	var raw rawLottery
	if err := json.Unmarshal(fields, &raw); err != nil {
		return nil, errors.Wrap(ErrMalformedRecord, err.Error())
	}
	for _, f := range []struct {
		name  string
		value *jsonUint
	}{
		{"ticket_price", raw.TicketPrice},
		{"balance", raw.Balance},
		{"deadline", raw.Deadline},
		{"status", raw.Status},
		{"admin_fee_bps", raw.AdminFeeBps},
	} {
		if f.value == nil {
			return nil, errors.Wrapf(ErrMalformedRecord, "missing field %q", f.name)
		}
	}
	status := StatusOpen
	if *raw.Status != 0 {
		status = StatusCompleted
	}
	participants := raw.Participants
	if participants == nil {
		participants = []string{}
	}
	winners := raw.Winners
	if winners == nil {
		winners = []string{}
	}
	return &Lottery{
		ID:           id,
		TicketPrice:  uint64(*raw.TicketPrice),
		Balance:      uint64(*raw.Balance),
		Participants: participants,
		Deadline:     int64(*raw.Deadline),
		Status:       status,
		Winners:      winners,
		AdminFeeBps:  uint32(*raw.AdminFeeBps),
	}, nil
}

// IsActive reports whether the lottery is still open on chain.
func (l *Lottery) IsActive() bool { return l.Status == StatusOpen }

// IsExpired reports whether the deadline has passed. "Expired" is derived,
// never stored: an expired lottery may still be open on chain.
func (l *Lottery) IsExpired(now time.Time) bool {
	return l.Deadline <= now.UnixMilli()
}

// IsDrawable reports whether a draw would be accepted: open, past the
// deadline, and at quorum.
func (l *Lottery) IsDrawable(now time.Time) bool {
	return l.IsActive() && l.IsExpired(now) && l.Tickets() >= Quorum
}

// IsRefundable reports whether the given wallet can claim its stake back:
// the lottery expired below quorum with the wallet holding a ticket.
func (l *Lottery) IsRefundable(now time.Time, wallet string) bool {
	if !l.IsActive() || !l.IsExpired(now) || l.Tickets() >= Quorum {
		return false
	}
	return l.TicketsHeldBy(wallet) > 0
}

// Tickets is the number of tickets sold. Each participants entry is one
// ticket, so a multi-ticket buyer appears once per ticket.
func (l *Lottery) Tickets() int { return len(l.Participants) }

// UniquePlayers is the number of distinct buyer addresses.
func (l *Lottery) UniquePlayers() int {
	seen := make(map[string]struct{}, len(l.Participants))
	for _, p := range l.Participants {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// TicketsHeldBy counts the tickets bought by one address.
func (l *Lottery) TicketsHeldBy(addr string) int {
	n := 0
	for _, p := range l.Participants {
		if p == addr {
			n++
		}
	}
	return n
}

// ExpectedWinners is the winner count the current ticket sales would
// produce if the draw happened now.
func (l *Lottery) ExpectedWinners() int { return WinnerTier(l.Tickets()) }

// WinnerTier maps a ticket count to the number of winners the contract
// will select. The bands are part of the contract's public behavior and
// must match it exactly.
func WinnerTier(tickets int) int {
	switch {
	case tickets >= 100:
		return 5
	case tickets >= 10:
		return 3
	case tickets >= 6:
		return 2
	case tickets >= Quorum:
		return 1
	default:
		return 0
	}
}

// MistPerSui is the fixed-point conversion factor between the raw on-chain
// unit (MIST) and the display unit (SUI).
const MistPerSui = 1_000_000_000

// MistToSui converts a raw MIST amount to its display value. Display
// conversion is the only place fractional values appear; all accounting
// stays in integer MIST.
func MistToSui(mist uint64) decimal.Decimal {
	return decimal.NewFromUint64(mist).Shift(-9)
}

// SuiToMist converts a display amount entered by the user back to MIST,
// rounding to the nearest unit. Truncating here would systematically
// under-charge.
func SuiToMist(sui decimal.Decimal) uint64 {
	return sui.Shift(9).Round(0).BigInt().Uint64()
}

// TruncateAddress shortens a wallet address for display: 0xabcd...wxyz.
func TruncateAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
