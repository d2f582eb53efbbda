package lower

import (
	"math"

	"github.com/tinyrange/minic/internal/cast"
	"github.com/tinyrange/minic/internal/minic"
)

// Terminal converts a parser terminal into a minic.Terminal. It accepts
// strings, Go integers, floats, booleans and nil; anything else is an
// InvalidTerminalError.
func Terminal(v cast.Value) (minic.Terminal, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return minic.Text(v), nil
	case bool:
		return minic.Boolean(v), nil
	case int:
		return minic.Integer(v), nil
	case int8:
		return minic.Integer(v), nil
	case int16:
		return minic.Integer(v), nil
	case int32:
		return minic.Integer(v), nil
	case int64:
		return minic.Integer(v), nil
	case uint8:
		return minic.Integer(v), nil
	case uint16:
		return minic.Integer(v), nil
	case uint32:
		return minic.Integer(v), nil
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return minic.Integer(v), nil
		}
	case uint64:
		if v <= math.MaxInt64 {
			return minic.Integer(v), nil
		}
	case float32:
		return minic.Real(v), nil
	case float64:
		return minic.Real(v), nil
	}
	return nil, &InvalidTerminalError{Value: v}
}

func (l *lowerer) terminal(owner cast.Node, v cast.Value) (minic.Terminal, error) {
	t, err := Terminal(v)
	if err != nil {
		err.(*InvalidTerminalError).Coord = owner.Pos()
		return nil, err
	}
	return t, nil
}

func (l *lowerer) terminals(owner cast.Node, vs []cast.Value) ([]minic.Terminal, error) {
	if vs == nil {
		return nil, nil
	}
	out := make([]minic.Terminal, len(vs))
	for i, v := range vs {
		t, err := l.terminal(owner, v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
