package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrForbidden = errors.New("user does not have permission to access this resource")
var ErrValidation = errors.New("invalid request")
var ErrInvalidToken = errors.New("token not found or expired")

// ErrInvalidUnit indicates a quantity unit that neither the crop's own table
// nor the default table can convert to kilograms.
var ErrInvalidUnit = errors.New("unrecognized quantity unit")

// ErrNoRoutablePoints is returned when every requested stop lacks coordinates.
var ErrNoRoutablePoints = errors.New("no routable points")
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// ErrTransactionFailure wraps any store error that aborted an allocation batch.
// Everything the batch wrote has been rolled back when it is returned.
var ErrTransactionFailure = errors.New("allocation transaction failed")
var ErrInsufficientStock = errors.New("stock lot has insufficient quantity")

var ErrInvalidStatusTransition = errors.New("order status transition not allowed")

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}
