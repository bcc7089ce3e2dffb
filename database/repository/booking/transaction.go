package bookingRepo

import (
	"context"
	"errors"
	"fmt"

	"slotwise/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AttachConsent inserts the signed consent form and moves the booking from
// PENDING_CONSENT to CONFIRMED, both in one transaction. The conditional
// filter on the current status makes the flip a compare-and-set.
func (r *MongoBookingRepo) AttachConsent(ctx context.Context, bookingID string, form *models.ConsentForm) (*models.Booking, error) {
	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var updated models.Booking

	txnFn := func(sc mongo.SessionContext) error {
		if _, err := r.consentColl.InsertOne(sc, form); err != nil {
			return fmt.Errorf("insert consent form failed: %w", err)
		}

		filter := bson.M{"id": bookingID, "status": models.BookingPendingConsent}
		update := bson.M{"$set": bson.M{
			"status":          models.BookingConfirmed,
			"consent_form_id": form.ID,
		}}
		res, err := r.coll.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("confirm booking failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrStaleTransition
		}

		return r.coll.FindOne(sc, bson.M{"id": bookingID}).Decode(&updated)
	}

	if err := r.runTxn(ctx, sess, txnFn); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteWithConsent removes the booking row and any consent form attached to
// it as one atomic unit. Partial application would orphan a consent form or
// resurrect a freed slot, so both deletes commit or neither does.
func (r *MongoBookingRepo) DeleteWithConsent(ctx context.Context, bookingID string) error {
	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		res, err := r.coll.DeleteOne(sc, bson.M{"id": bookingID})
		if err != nil {
			return fmt.Errorf("delete booking failed: %w", err)
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		if _, err := r.consentColl.DeleteMany(sc, bson.M{"booking_id": bookingID}); err != nil {
			return fmt.Errorf("delete consent form failed: %w", err)
		}
		return nil
	}

	return r.runTxn(ctx, sess, txnFn)
}

func (r *MongoBookingRepo) runTxn(ctx context.Context, sess mongo.Session, txnFn func(mongo.SessionContext) error) error {
	err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStaleTransition) {
			return err
		}
		return fmt.Errorf("booking transaction failed: %w", err)
	}
	return nil
}
