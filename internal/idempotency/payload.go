package idempotency

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// ErrInvalidPayload is returned when a submission payload is not a single JSON document.
var ErrInvalidPayload = errors.New("payload is not valid JSON")

// PayloadsEqual reports whether two JSON documents have the same tree, ignoring key order
// and whitespace. Numbers compare by their literal text.
func PayloadsEqual(a, b string) (bool, error) {
	treeA, err := decodeTree(a)
	if err != nil {
		return false, err
	}
	treeB, err := decodeTree(b)
	if err != nil {
		return false, err
	}
	return reflect.DeepEqual(treeA, treeB), nil
}

func decodeTree(payload string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidPayload)
	}
	return tree, nil
}
