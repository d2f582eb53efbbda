package lower

import (
	"errors"
	"fmt"

	"github.com/tinyrange/minic/internal/cast"
)

var (
	// ErrUnsupportedConstruct matches every UnsupportedConstructError.
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	// ErrInvalidTerminal matches every InvalidTerminalError.
	ErrInvalidTerminal = errors.New("invalid terminal value")
)

// UnsupportedConstructError reports a node outside the reduced dialect.
type UnsupportedConstructError struct {
	Kind   string
	Detail string // optional, e.g. which use of the node is rejected
	Coord  *cast.Coord
}

func (e *UnsupportedConstructError) Error() string {
	msg := "unsupported construct " + e.Kind
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Coord != nil {
		msg = e.Coord.String() + ": " + msg
	}
	return msg
}

func (e *UnsupportedConstructError) Is(target error) bool {
	return target == ErrUnsupportedConstruct
}

// InvalidTerminalError reports a leaf value that is not text, a number, a
// boolean or absent.
type InvalidTerminalError struct {
	Value any
	Coord *cast.Coord
}

func (e *InvalidTerminalError) Error() string {
	msg := fmt.Sprintf("unexpected type %T for terminal value %#v", e.Value, e.Value)
	if e.Coord != nil {
		msg = e.Coord.String() + ": " + msg
	}
	return msg
}

func (e *InvalidTerminalError) Is(target error) bool {
	return target == ErrInvalidTerminal
}

func unsupported(n cast.Node, detail string) error {
	return &UnsupportedConstructError{Kind: cast.KindOf(n), Detail: detail, Coord: n.Pos()}
}
