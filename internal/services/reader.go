package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/logger"

	"suilotto/internal/models"
	"suilotto/internal/sui"
)

// moveObject is the content dataType of a live typed object; anything else
// (packages, pruned content) is not a lottery.
const moveObject = "moveObject"

// StateReader assembles lottery snapshots from the ledger. It holds no
// state of its own: every call re-runs the event query and object fetch, so
// each result reflects the chain at fetch time and nothing older.
type StateReader struct {
	client    *sui.Client
	packageID string
}

// NewStateReader creates a reader bound to one lottery package.
func NewStateReader(client *sui.Client, packageID string) *StateReader {
	return &StateReader{client: client, packageID: packageID}
}

func (r *StateReader) creationEventType() string {
	return r.packageID + "::lottery::LotteryCreatedEvent"
}

// openLotteries is the shared primitive behind every list view: creation
// events (most recent first) -> referenced object ids -> batch fetch ->
// parse -> keep the ones still open. An object drawn between the event
// query and the fetch simply drops out here; that is the freshest answer
// the two queries can give.
func (r *StateReader) openLotteries(ctx context.Context) ([]*models.Lottery, error) {
	events, err := r.client.QueryEvents(ctx, r.creationEventType())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		var parsed struct {
			LotteryID string `json:"lottery_id"`
		}
		if err := json.Unmarshal(ev.ParsedJSON, &parsed); err != nil || parsed.LotteryID == "" {
			logger.Warningf("skipping creation event %s: no lottery_id", ev.ID.TxDigest)
			continue
		}
		if _, dup := seen[parsed.LotteryID]; dup {
			continue
		}
		seen[parsed.LotteryID] = struct{}{}
		ids = append(ids, parsed.LotteryID)
	}
	if len(ids) == 0 {
		return []*models.Lottery{}, nil
	}

	objects, err := r.client.MultiGetObjects(ctx, ids)
	if err != nil {
		return nil, err
	}
	lotteries := make([]*models.Lottery, 0, len(objects))
	for _, obj := range objects {
		lot := parseObject(obj)
		if lot == nil || !lot.IsActive() {
			continue
		}
		lotteries = append(lotteries, lot)
	}
	return lotteries, nil
}

// ActiveLotteries is the public listing: open and not yet expired.
func (r *StateReader) ActiveLotteries(ctx context.Context) ([]*models.Lottery, error) {
	all, err := r.openLotteries(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	active := make([]*models.Lottery, 0, len(all))
	for _, l := range all {
		if !l.IsExpired(now) {
			active = append(active, l)
		}
	}
	return active, nil
}

// AdminLotteries is every open lottery, expired ones included: drawing only
// becomes possible after expiry, so the admin needs the whole backlog.
func (r *StateReader) AdminLotteries(ctx context.Context) ([]*models.Lottery, error) {
	return r.openLotteries(ctx)
}

// RefundableLotteries lists the lotteries the given wallet can reclaim a
// stake from: expired below quorum while holding a ticket.
func (r *StateReader) RefundableLotteries(ctx context.Context, wallet string) ([]*models.Lottery, error) {
	all, err := r.openLotteries(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	refundable := make([]*models.Lottery, 0, len(all))
	for _, l := range all {
		if l.IsRefundable(now, wallet) {
			refundable = append(refundable, l)
		}
	}
	return refundable, nil
}

// Lottery fetches one lottery by id. A nil lottery with a nil error means
// the id does not resolve to a lottery object; a stale or mistyped id is a
// "not found" state for the caller, never a failure.
func (r *StateReader) Lottery(ctx context.Context, id string) (*models.Lottery, error) {
	obj, err := r.client.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	return parseObject(obj), nil
}

// parseObject turns an object read into a snapshot, or nil when the object
// is dead, not a move object, or malformed.
func parseObject(obj *sui.ObjectData) *models.Lottery {
	if obj == nil || obj.Content == nil || obj.Content.DataType != moveObject {
		return nil
	}
	lot, err := models.ParseLottery(obj.ObjectID, obj.Content.Fields)
	if err != nil {
		logger.Warningf("object %s: %v", obj.ObjectID, err)
		return nil
	}
	return lot
}
