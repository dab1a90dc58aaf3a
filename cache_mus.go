package lintbridge

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS codec for cached lint results. MUS is a compact binary format with
// varint length encoding; the serializers below are written by hand against
// the LintResult shape, sizes pre-calculated so each marshal is a single
// allocation.

// marshalLintResult serializes a LintResult to MUS bytes.
func marshalLintResult(r *LintResult) ([]byte, error) {
	buf := make([]byte, lintResultSize(r))
	n := marshalLintResultTo(r, buf)
	return buf[:n], nil
}

// unmarshalLintResult deserializes a LintResult from MUS bytes.
func unmarshalLintResult(data []byte) (*LintResult, error) {
	r, _, err := unmarshalLintResultFrom(data)
	return r, err
}

func lintResultSize(r *LintResult) int {
	size := varint.PositiveInt.Size(r.ErrorCount)
	size += varint.PositiveInt.Size(r.WarningCount)
	size += varint.Uint64.Size(uint64(len(r.Results)))
	for _, f := range r.Results {
		size += fileResultSize(f)
	}
	return size
}

func fileResultSize(f FileResult) int {
	size := ord.SizeString(f.FilePath, varint.PositiveInt)
	size += varint.PositiveInt.Size(f.ErrorCount)
	size += varint.PositiveInt.Size(f.WarningCount)
	size += ord.SizeString(f.Output, varint.PositiveInt)
	size += ord.SizeString(f.Source, varint.PositiveInt)
	size += varint.Uint64.Size(uint64(len(f.Messages)))
	for _, m := range f.Messages {
		size += messageSize(m)
	}
	return size
}

func messageSize(m Message) int {
	size := ord.SizeString(m.RuleID, varint.PositiveInt)
	size += varint.PositiveInt.Size(m.Severity)
	size += ord.SizeString(m.Message, varint.PositiveInt)
	size += varint.PositiveInt.Size(m.Line)
	size += varint.PositiveInt.Size(m.Column)
	size += varint.PositiveInt.Size(m.EndLine)
	size += varint.PositiveInt.Size(m.EndColumn)
	size += ord.Bool.Size(m.Fix != nil)
	if m.Fix != nil {
		size += varint.PositiveInt.Size(m.Fix.Range[0])
		size += varint.PositiveInt.Size(m.Fix.Range[1])
		size += ord.SizeString(m.Fix.Text, varint.PositiveInt)
	}
	return size
}

func marshalLintResultTo(r *LintResult, buf []byte) int {
	n := varint.PositiveInt.Marshal(r.ErrorCount, buf)
	n += varint.PositiveInt.Marshal(r.WarningCount, buf[n:])
	n += varint.Uint64.Marshal(uint64(len(r.Results)), buf[n:])
	for _, f := range r.Results {
		n += marshalFileResultTo(f, buf[n:])
	}
	return n
}

func marshalFileResultTo(f FileResult, buf []byte) int {
	n := ord.MarshalString(f.FilePath, varint.PositiveInt, buf)
	n += varint.PositiveInt.Marshal(f.ErrorCount, buf[n:])
	n += varint.PositiveInt.Marshal(f.WarningCount, buf[n:])
	n += ord.MarshalString(f.Output, varint.PositiveInt, buf[n:])
	n += ord.MarshalString(f.Source, varint.PositiveInt, buf[n:])
	n += varint.Uint64.Marshal(uint64(len(f.Messages)), buf[n:])
	for _, m := range f.Messages {
		n += marshalMessageTo(m, buf[n:])
	}
	return n
}

func marshalMessageTo(m Message, buf []byte) int {
	n := ord.MarshalString(m.RuleID, varint.PositiveInt, buf)
	n += varint.PositiveInt.Marshal(m.Severity, buf[n:])
	n += ord.MarshalString(m.Message, varint.PositiveInt, buf[n:])
	n += varint.PositiveInt.Marshal(m.Line, buf[n:])
	n += varint.PositiveInt.Marshal(m.Column, buf[n:])
	n += varint.PositiveInt.Marshal(m.EndLine, buf[n:])
	n += varint.PositiveInt.Marshal(m.EndColumn, buf[n:])
	n += ord.Bool.Marshal(m.Fix != nil, buf[n:])
	if m.Fix != nil {
		n += varint.PositiveInt.Marshal(m.Fix.Range[0], buf[n:])
		n += varint.PositiveInt.Marshal(m.Fix.Range[1], buf[n:])
		n += ord.MarshalString(m.Fix.Text, varint.PositiveInt, buf[n:])
	}
	return n
}

// readString unmarshals a varint-length-prefixed string.
func readString(data []byte) (string, int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(data)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read string length: %w", err)
	}
	if len(data[n:]) < length {
		return "", n, fmt.Errorf("buffer too small for string of length %d", length)
	}
	return string(data[n : n+length]), n + length, nil
}

func unmarshalLintResultFrom(buf []byte) (*LintResult, int, error) {
	var r LintResult
	var err error

	n := 0
	r.ErrorCount, n, err = varint.PositiveInt.Unmarshal(buf)
	if err != nil {
		return nil, n, fmt.Errorf("failed to unmarshal error count: %w", err)
	}

	wc, m, err := varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return nil, n, fmt.Errorf("failed to unmarshal warning count: %w", err)
	}
	r.WarningCount = wc
	n += m

	count, m, err := varint.Uint64.Unmarshal(buf[n:])
	if err != nil {
		return nil, n, fmt.Errorf("failed to unmarshal file count: %w", err)
	}
	n += m

	r.Results = make([]FileResult, count)
	for i := uint64(0); i < count; i++ {
		f, m, err := unmarshalFileResultFrom(buf[n:])
		if err != nil {
			return nil, n, fmt.Errorf("failed to unmarshal file result at index %d: %w", i, err)
		}
		r.Results[i] = f
		n += m
	}

	return &r, n, nil
}

func unmarshalFileResultFrom(buf []byte) (FileResult, int, error) {
	var f FileResult
	var n, m int
	var err error

	f.FilePath, n, err = readString(buf)
	if err != nil {
		return f, n, err
	}

	f.ErrorCount, m, err = varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return f, n, err
	}
	n += m

	f.WarningCount, m, err = varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return f, n, err
	}
	n += m

	f.Output, m, err = readString(buf[n:])
	if err != nil {
		return f, n, err
	}
	n += m

	f.Source, m, err = readString(buf[n:])
	if err != nil {
		return f, n, err
	}
	n += m

	count, m, err := varint.Uint64.Unmarshal(buf[n:])
	if err != nil {
		return f, n, err
	}
	n += m

	f.Messages = make([]Message, count)
	for i := uint64(0); i < count; i++ {
		msg, m, err := unmarshalMessageFrom(buf[n:])
		if err != nil {
			return f, n, err
		}
		f.Messages[i] = msg
		n += m
	}

	return f, n, nil
}

func unmarshalMessageFrom(buf []byte) (Message, int, error) {
	var msg Message
	var n, m int
	var err error

	msg.RuleID, n, err = readString(buf)
	if err != nil {
		return msg, n, err
	}

	msg.Severity, m, err = varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return msg, n, err
	}
	n += m

	msg.Message, m, err = readString(buf[n:])
	if err != nil {
		return msg, n, err
	}
	n += m

	msg.Line, m, err = varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return msg, n, err
	}
	n += m

	msg.Column, m, err = varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return msg, n, err
	}
	n += m

	msg.EndLine, m, err = varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return msg, n, err
	}
	n += m

	msg.EndColumn, m, err = varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return msg, n, err
	}
	n += m

	hasFix, m, err := ord.Bool.Unmarshal(buf[n:])
	if err != nil {
		return msg, n, err
	}
	n += m

	if hasFix {
		var fix Fix
		fix.Range[0], m, err = varint.PositiveInt.Unmarshal(buf[n:])
		if err != nil {
			return msg, n, err
		}
		n += m

		fix.Range[1], m, err = varint.PositiveInt.Unmarshal(buf[n:])
		if err != nil {
			return msg, n, err
		}
		n += m

		fix.Text, m, err = readString(buf[n:])
		if err != nil {
			return msg, n, err
		}
		n += m

		msg.Fix = &fix
	}

	return msg, n, nil
}
