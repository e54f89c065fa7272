package validations

import (
	"context"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	pkgError "github.com/postflow/postflow/pkg/error"
	"github.com/postflow/postflow/scheduler/usecase"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func ValidateSchedulePost(ctx context.Context, request usecase.ScheduleRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.PostID, validation.Required),
		validation.Field(&request.AccountID, validation.Required),
		validation.Field(&request.ScheduledFor, validation.Required),
		validation.Field(&request.RecurrencePattern,
			validation.When(request.IsRecurring, validation.Required,
				validation.In("daily", "weekly", "biweekly", "monthly", "custom"))),
		validation.Field(&request.Frequency, validation.Min(0)),
		validation.Field(&request.CustomIntervalMs,
			validation.When(request.RecurrencePattern == "custom", validation.Required, validation.Min(int64(1)))),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateCreateQueue(ctx context.Context, request usecase.CreateQueueRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.AccountID, validation.Required),
		validation.Field(&request.Name, validation.Required, validation.Length(1, 120)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	for _, slot := range request.Slots {
		if err := ValidateSlot(ctx, slot.DayOfWeek, slot.Time); err != nil {
			return err
		}
	}
	return nil
}

func ValidateSlot(_ context.Context, dayOfWeek int, clock string) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return pkgError.ValidationError("day_of_week: must be between 0 (Sunday) and 6 (Saturday)")
	}
	if !clockPattern.MatchString(clock) {
		return pkgError.ValidationError("time: must be in HH:MM 24-hour format")
	}
	return nil
}
