// Package wallet is the signing boundary: it turns a built transaction into
// signed bytes and pushes them through the ledger RPC. Account and key
// handling stop here; nothing above this package sees key material.
package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"suilotto/internal/sui"
	"suilotto/internal/sui/txn"
)

// ErrWalletUnavailable means no signer is configured; write operations are
// impossible until one is.
var ErrWalletUnavailable = errors.New("no connected signer")

// Wallet signs and submits transactions for one account.
type Wallet interface {
	// Address is the account's 0x-prefixed address.
	Address() string
	// SignAndExecute resolves, encodes, signs and submits the transaction.
	// A returned response does not imply on-chain success; callers must
	// inspect the effects status.
	SignAndExecute(ctx context.Context, tx *txn.Transaction) (*sui.TransactionBlockResponse, error)
}

const (
	// ed25519 signature scheme flag, for both address derivation and the
	// serialized signature.
	ed25519Flag = 0x00
	// signing intent: scope TransactionData, version 0, app id Sui.
	intentScope   = 0x00
	intentVersion = 0x00
	intentAppID   = 0x00
)

// KeyWallet signs with a local ed25519 key and submits through a fullnode
// client.
type KeyWallet struct {
	key       ed25519.PrivateKey
	address   string
	client    *sui.Client
	gasBudget uint64
}

// NewKeyWallet builds a wallet from a 32-byte ed25519 seed.
func NewKeyWallet(seed []byte, client *sui.Client, gasBudget uint64) (*KeyWallet, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	key := ed25519.NewKeyFromSeed(seed)
	return &KeyWallet{
		key:       key,
		address:   deriveAddress(key.Public().(ed25519.PublicKey)),
		client:    client,
		gasBudget: gasBudget,
	}, nil
}

// deriveAddress computes the Sui address: blake2b-256 over the scheme flag
// followed by the public key.
func deriveAddress(pub ed25519.PublicKey) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{ed25519Flag})
	h.Write(pub)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Address implements Wallet.
func (w *KeyWallet) Address() string { return w.address }

// SignAndExecute implements Wallet.
func (w *KeyWallet) SignAndExecute(ctx context.Context, tx *txn.Transaction) (*sui.TransactionBlockResponse, error) {
	if err := w.resolveObjects(ctx, tx); err != nil {
		return nil, err
	}
	gas, err := w.gasData(ctx)
	if err != nil {
		return nil, err
	}
	txBytes, err := tx.Encode(w.address, gas)
	if err != nil {
		return nil, errors.Wrap(err, "encode transaction")
	}
	sig := signIntent(w.key, txBytes)
	return w.client.ExecuteTransactionBlock(ctx,
		base64.StdEncoding.EncodeToString(txBytes),
		[]string{base64.StdEncoding.EncodeToString(sig)},
	)
}

// resolveObjects fills every object input with its live ledger reference:
// shared objects keep their initial shared version, owned objects are
// pinned at their current version and digest.
func (w *KeyWallet) resolveObjects(ctx context.Context, tx *txn.Transaction) error {
	for _, id := range tx.UnresolvedObjects() {
		data, err := w.client.GetObject(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "resolve object %s", id)
		}
		if data == nil {
			return errors.Errorf("object %s not found", id)
		}
		arg := txn.ObjectArg{Version: uint64(data.Version), Digest: data.Digest}
		if data.Owner != nil && data.Owner.Shared != nil {
			arg = txn.ObjectArg{
				Shared:               true,
				InitialSharedVersion: uint64(data.Owner.Shared.InitialSharedVersion),
			}
		}
		tx.ResolveObject(id, arg)
	}
	return nil
}

// gasData picks the account's largest gas coin and the current reference
// gas price. Affordability is the ledger's call, not ours.
func (w *KeyWallet) gasData(ctx context.Context) (txn.GasData, error) {
	coins, err := w.client.GetCoins(ctx, w.address)
	if err != nil {
		return txn.GasData{}, errors.Wrap(err, "list gas coins")
	}
	if len(coins) == 0 {
		return txn.GasData{}, errors.Errorf("account %s has no gas coins", w.address)
	}
	best := coins[0]
	for _, c := range coins[1:] {
		if c.Balance > best.Balance {
			best = c
		}
	}
	price, err := w.client.GetReferenceGasPrice(ctx)
	if err != nil {
		return txn.GasData{}, errors.Wrap(err, "reference gas price")
	}
	return txn.GasData{
		Payment: []txn.GasRef{{
			ObjectID: best.CoinObjectID,
			Version:  uint64(best.Version),
			Digest:   best.Digest,
		}},
		Owner:  w.address,
		Price:  price,
		Budget: w.gasBudget,
	}, nil
}

// signIntent signs blake2b-256(intent || txBytes) and serializes the
// signature as flag || sig || pubkey.
func signIntent(key ed25519.PrivateKey, txBytes []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{intentScope, intentVersion, intentAppID})
	h.Write(txBytes)
	digest := h.Sum(nil)

	sig := ed25519.Sign(key, digest)
	out := make([]byte, 0, 1+len(sig)+ed25519.PublicKeySize)
	out = append(out, ed25519Flag)
	out = append(out, sig...)
	out = append(out, key.Public().(ed25519.PublicKey)...)
	return out
}
