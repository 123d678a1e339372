package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/meinhoongagan/trucktrack/utils"
)

// ProofUpload is a proof-of-delivery file submitted for a trip.
type ProofUpload struct {
	TripID   uint
	Filename string
	Body     io.Reader
	Notes    string
}

type ProofService struct {
	store storage.Store
	trips *TripService
	files utils.ProofStorage
	log   logging.Logger
	now   func() time.Time
}

func NewProofService(store storage.Store, trips *TripService, files utils.ProofStorage, log logging.Logger) *ProofService {
	return &ProofService{store: store, trips: trips, files: files, log: log, now: time.Now}
}

// Submit stores the file and records the proof. A driver submitting proof
// completes the trip in the same call.
func (p *ProofService) Submit(ctx context.Context, caller Caller, up ProofUpload) (*models.Proof, error) {
	if up.TripID == 0 {
		return nil, fmt.Errorf("%w: tripId is required", common.ErrValidation)
	}
	if up.Body == nil || up.Filename == "" {
		return nil, fmt.Errorf("%w: file is required", common.ErrValidation)
	}

	trip, err := p.trips.Get(ctx, caller, up.TripID)
	if err != nil {
		return nil, err
	}
	if caller.Role == models.RoleUser && !CanCompleteTrip(caller, trip) {
		return nil, common.ErrForbidden
	}

	location, err := p.files.Save(ctx, utils.ProofKey(trip.ID, up.Filename, p.now()), up.Body)
	if err != nil {
		return nil, fmt.Errorf("store proof file: %w", err)
	}

	if caller.Role == models.RoleUser {
		if _, err := p.trips.Complete(ctx, caller, trip.ID); err != nil {
			return nil, err
		}
	}

	proof := &models.Proof{
		TripID: trip.ID,
		UserID: caller.UserID,
		File:   location,
		Notes:  up.Notes,
	}
	if err := p.store.CreateProof(ctx, proof); err != nil {
		return nil, err
	}
	p.log.Info(ctx, "proof submitted", "trip_id", trip.ID, "proof_id", proof.ID, "user_id", caller.UserID)
	return proof, nil
}

// List returns every proof for admins and a user's own proofs otherwise.
func (p *ProofService) List(ctx context.Context, caller Caller) ([]models.Proof, error) {
	if caller.Role == models.RoleUser {
		id := caller.UserID
		return p.store.ListProofs(ctx, &id)
	}
	return p.store.ListProofs(ctx, nil)
}
