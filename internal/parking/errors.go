package parking

import "errors"

var (
	ErrInvalidInterval          = errors.New("invalid parking interval")
	ErrUnknownCategory          = errors.New("unknown parking type")
	ErrInvalidCategorySelection = errors.New("invalid parking type selection")
	ErrInvalidInput             = errors.New("invalid input")
	ErrNoOpenTicket             = errors.New("no open ticket for vehicle")
	ErrTicketNotClosed          = errors.New("unable to update ticket information")
	ErrSpotUpdateFailed         = errors.New("unable to update parking spot")
	ErrSpotNotFound             = errors.New("parking spot not found")
	ErrSpotTaken                = errors.New("parking spot already occupied")
	ErrTicketNotFound           = errors.New("ticket not found")
)
