package storage

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourname/snusquit/internal"
)

// newID returns a fresh ObjectID in hex form; every backend uses the same id shape.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a 24-character hex ObjectID.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// wrap annotates err and marks deadline and network failures as ErrStoreUnavailable.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", op, internal.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
