package minic

import "strconv"

// Terminal is a leaf value embedded in a node: one of Text, Integer, Real or
// Boolean. A nil Terminal means the value is absent.
type Terminal interface {
	isTerminal()
	String() string
}

type Text string

type Integer int64

type Real float64

type Boolean bool

func (Text) isTerminal()    {}
func (Integer) isTerminal() {}
func (Real) isTerminal()    {}
func (Boolean) isTerminal() {}

func (t Text) String() string    { return string(t) }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (r Real) String() string    { return strconv.FormatFloat(float64(r), 'g', -1, 64) }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

// TextOf returns the text of t, or "" when t is absent.
func TextOf(t Terminal) string {
	if t == nil {
		return ""
	}
	return t.String()
}
