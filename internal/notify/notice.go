package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/batch"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/validate"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

const (
	SuccessDismiss = 3 * time.Second
	ErrorDismiss   = 5 * time.Second
)

// Notice is a transient message shown to the operator and dismissed
// automatically after DismissAfter.
type Notice struct {
	Level        Level         `json:"level"`
	Message      string        `json:"message"`
	DismissAfter time.Duration `json:"-"`
	DismissMS    int64         `json:"dismiss_after_ms"`
}

func Success(msg string) Notice {
	return Notice{Level: LevelSuccess, Message: msg, DismissAfter: SuccessDismiss, DismissMS: SuccessDismiss.Milliseconds()}
}

func Failure(msg string) Notice {
	return Notice{Level: LevelError, Message: msg, DismissAfter: ErrorDismiss, DismissMS: ErrorDismiss.Milliseconds()}
}

var kindMessages = map[apiclient.Kind]string{
	apiclient.KindNetwork:      "Could not reach the server. Check your connection and try again.",
	apiclient.KindUnauthorized: "Your session is no longer valid. Please sign in again.",
	apiclient.KindForbidden:    "You do not have permission to perform this action.",
	apiclient.KindNotFound:     "The requested record was not found.",
	apiclient.KindConflict:     "The record cannot be changed because other records depend on it.",
	apiclient.KindValidation:   "The submitted data is not valid.",
	apiclient.KindServer:       "The server failed to process the request. Try again later.",
	apiclient.KindUnknown:      "Unexpected error.",
}

// Message is the operator-facing text for an error kind.
func Message(kind apiclient.Kind) string {
	if msg, ok := kindMessages[kind]; ok {
		return msg
	}
	return kindMessages[apiclient.KindUnknown]
}

// FromError turns any error into a failure notice. Batch failures are
// reported once, naming the item that stopped the batch.
func FromError(err error) Notice {
	if err == nil {
		return Success("Done.")
	}
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		return Failure(verr.Error())
	}
	msg := Message(apiclient.KindOf(err))
	var itemErr *batch.ItemError
	if errors.As(err, &itemErr) {
		msg = fmt.Sprintf("Batch stopped at item %d after %d processed: %s", itemErr.Index+1, itemErr.Completed(), msg)
	}
	return Failure(msg)
}
