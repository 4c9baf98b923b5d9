package sui

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Uint64 tolerates the fullnode's mixed integer encoding: u64 values arrive
// as JSON strings, smaller counters as numbers.
type Uint64 uint64

func (u *Uint64) UnmarshalJSON(b []byte) error {
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
	*u = Uint64(v)
	return nil
}

// Owner is the ownership sum type of a ledger object. Exactly one branch is
// set. The JSON form is either the bare string "Immutable" or an object
// keyed by the variant name.
type Owner struct {
	AddressOwner string
	ObjectOwner  string
	Shared       *SharedOwner
	Immutable    bool
}

// SharedOwner marks a shared-ownership object, mutable by any transaction
// authorized to reference it.
type SharedOwner struct {
	InitialSharedVersion Uint64 `json:"initial_shared_version"`
}

func (o *Owner) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s != "Immutable" {
			return errors.Errorf("unknown owner kind %q", s)
		}
		o.Immutable = true
		return nil
	}
	var raw struct {
		AddressOwner string       `json:"AddressOwner"`
		ObjectOwner  string       `json:"ObjectOwner"`
		Shared       *SharedOwner `json:"Shared"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	o.AddressOwner = raw.AddressOwner
	o.ObjectOwner = raw.ObjectOwner
	o.Shared = raw.Shared
	return nil
}

// ObjectRef pins an object at a version, as used in transaction inputs and
// effects.
type ObjectRef struct {
	ObjectID string `json:"objectId"`
	Version  Uint64 `json:"version"`
	Digest   string `json:"digest"`
}

// ObjectContent is the typed content of a live object. Fields is left raw
// for the domain layer to parse.
type ObjectContent struct {
	DataType string          `json:"dataType"`
	Type     string          `json:"type"`
	Fields   json.RawMessage `json:"fields"`
}

// ObjectData is one live object as returned by the read API.
type ObjectData struct {
	ObjectID string         `json:"objectId"`
	Version  Uint64         `json:"version"`
	Digest   string         `json:"digest"`
	Owner    *Owner         `json:"owner,omitempty"`
	Content  *ObjectContent `json:"content,omitempty"`
}

type objectResponse struct {
	Data  *ObjectData `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// Event is one entry from the event log.
type Event struct {
	ID struct {
		TxDigest string `json:"txDigest"`
		EventSeq Uint64 `json:"eventSeq"`
	} `json:"id"`
	Type       string          `json:"type"`
	ParsedJSON json.RawMessage `json:"parsedJson"`
}

type eventPage struct {
	Data        []Event `json:"data"`
	HasNextPage bool    `json:"hasNextPage"`
}

// Coin is one coin object owned by an address.
type Coin struct {
	CoinObjectID string `json:"coinObjectId"`
	Version      Uint64 `json:"version"`
	Digest       string `json:"digest"`
	Balance      Uint64 `json:"balance"`
}

type coinPage struct {
	Data []Coin `json:"data"`
}

// ExecutionStatus is the ledger's verdict on an executed transaction.
type ExecutionStatus struct {
	Status string `json:"status"` // "success" or "failure"
	Error  string `json:"error,omitempty"`
}

// OwnedObjectRef is an object touched by a transaction, with its
// post-transaction owner.
type OwnedObjectRef struct {
	Owner     *Owner    `json:"owner"`
	Reference ObjectRef `json:"reference"`
}

// TransactionEffects is the subset of effects this client inspects.
type TransactionEffects struct {
	Status  ExecutionStatus  `json:"status"`
	Created []OwnedObjectRef `json:"created,omitempty"`
}

// TransactionBlockResponse is the submit/read result for one transaction.
type TransactionBlockResponse struct {
	Digest  string              `json:"digest"`
	Effects *TransactionEffects `json:"effects,omitempty"`
}
