// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/modgate/internal/platform/apperr"
	"github.com/taibuivan/modgate/internal/platform/ctxutil"
	"github.com/taibuivan/modgate/internal/platform/dberr"
	"github.com/taibuivan/modgate/pkg/pointer"
)

// Service implements the verification use cases.
type Service struct {
	users UserRepository
	now   func() time.Time
}

// NewService constructs a new [Service].
func NewService(users UserRepository) *Service {
	return &Service{users: users, now: time.Now}
}

// VerifyInput holds a verification grant request.
type VerifyInput struct {
	UserID           string
	VerificationType string
	Reason           string
}

/*
VerifyUser grants a verification badge to an active user.

Parameters:
  - ctx: context.Context
  - actorID: ID of the administrator granting the badge
  - input: VerifyInput

Returns:
  - *User: The updated user
  - error: NOT_FOUND, BAD_REQUEST for non-active users, or storage errors
*/
func (service *Service) VerifyUser(ctx context.Context, actorID string, input VerifyInput) (*User, error) {
	user, err := service.findUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if !user.IsActive() {
		return nil, apperr.BadRequest("Cannot verify a non-active user")
	}

	verification := Verification{
		Type:       input.VerificationType,
		VerifiedBy: actorID,
		VerifiedAt: service.now().UTC(),
	}
	if err := service.users.SetVerification(ctx, user.ID, verification); err != nil {
		return nil, service.mapNotFound(err)
	}

	user.IsVerified = true
	user.VerificationType = verification.Type
	user.VerifiedBy = verification.VerifiedBy
	user.VerifiedAt = pointer.To(verification.VerifiedAt)

	ctxutil.GetLogger(ctx).InfoContext(ctx, "user_verified",
		slog.String("user_id", user.ID),
		slog.String("actor_id", actorID),
		slog.String("verification_type", verification.Type),
		slog.String("reason", strings.TrimSpace(input.Reason)),
	)

	return user, nil
}

// RevokeVerification removes a user's verification badge.
func (service *Service) RevokeVerification(ctx context.Context, actorID, userID, reason string) (*User, error) {
	user, err := service.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := service.users.ClearVerification(ctx, user.ID); err != nil {
		return nil, service.mapNotFound(err)
	}

	user.IsVerified = false
	user.VerificationType = ""
	user.VerifiedBy = ""
	user.VerifiedAt = nil

	ctxutil.GetLogger(ctx).InfoContext(ctx, "user_verification_revoked",
		slog.String("user_id", user.ID),
		slog.String("actor_id", actorID),
		slog.String("reason", strings.TrimSpace(reason)),
	)

	return user, nil
}

func (service *Service) findUser(ctx context.Context, userID string) (*User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return nil, service.mapNotFound(err)
	}
	return user, nil
}

func (service *Service) mapNotFound(err error) error {
	if dberr.IsNotFound(err) {
		return apperr.NotFound("User")
	}
	return err
}
