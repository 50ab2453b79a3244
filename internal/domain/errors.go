package domain

import "errors"

// ErrNotFound is returned by repo functions when the requested snapshot does
// not exist in the cache.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing request body, non-positive dayNumber, malformed tool arguments).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrDayNotFound is returned by mutation operations that reference a dayNumber
// with no DayPlan in the draft. Days are never created implicitly.
// Handlers should map this to HTTP 404.
var ErrDayNotFound = errors.New("day not found")

// ErrIndexOutOfRange is returned by mutation operations whose activity index
// is not a valid position in the day's current activity list.
// Handlers should map this to HTTP 422.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrRemoteLoad is returned when fetching the itinerary from the remote sheet
// fails at the network or HTTP level. Recoverable: the last cached state stays.
// Handlers should map this to HTTP 502.
var ErrRemoteLoad = errors.New("remote load failure")

// ErrRemoteSave is returned when pushing the itinerary to the remote sheet fails
// or is not acknowledged. The draft is preserved unsaved.
// Handlers should map this to HTTP 502.
var ErrRemoteSave = errors.New("remote save failure")

// ErrBusy is returned when a load or save is in flight and the requested
// operation would race with it (mutation, revert, second save, second load).
// Handlers should map this to HTTP 409 Conflict.
var ErrBusy = errors.New("itinerary is busy")

// ErrConversation is returned when the language-model backend fails mid-turn.
var ErrConversation = errors.New("conversation failure")

// ErrUnparseableToolCall is returned when agent output cannot be interpreted as
// a tool invocation. The raw text is then forwarded as a conversational reply.
var ErrUnparseableToolCall = errors.New("unparseable tool call")
