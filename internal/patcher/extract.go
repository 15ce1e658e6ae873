package patcher

import (
	"fmt"

	"github.com/tailscale/hujson"
)

// Extract decodes the records currently stored in the document's literal.
//
// The literal body is standardized with hujson first, so hand-edited
// literals with comments or trailing commas still decode. Literals that are
// not JSON-compatible at all (unquoted keys, single-quoted strings) fail with
// [ErrLiteralNotJSON]. Structural problems fail with the same errors as
// [Patch].
func Extract(doc string, opts ...Option) ([]Record, error) {
	o := newOptions(opts)

	reg, err := locate(doc, o)
	if err != nil {
		return nil, err
	}

	std, err := hujson.Standardize([]byte(doc[reg.open : reg.close+1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLiteralNotJSON, err)
	}

	records, err := DecodeRecords(std)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLiteralNotJSON, err)
	}
	return records, nil
}
