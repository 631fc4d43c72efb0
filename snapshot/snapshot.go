// Package snapshot persists query specifications in a compact binary form.
// Used to store a user's compiled query state (saved searches, session
// restore) without carrying the full URL parameter shape around.
//
// The payload is MessagePack-encoded and ZStandard-compressed. A Codec is
// created once and reused; it is safe for concurrent use.
package snapshot

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hugr-lab/queryspec-go"
	"github.com/hugr-lab/queryspec-go/filtertree"
	"github.com/hugr-lab/queryspec-go/schema"
)

// payload is the stored wire form of a specification. The filter tree is
// stored as its full parameter serialization (blanks and keys preserved) so
// the in-progress editing state survives the round trip.
type payload struct {
	Search     string            `msgpack:"search,omitempty"`
	Scopes     map[string]string `msgpack:"scopes,omitempty"`
	FilterForm map[string]any    `msgpack:"filter_form,omitempty"`
	Filters    map[string]any    `msgpack:"filters,omitempty"`
	OrderBy    []orderClause     `msgpack:"order_by,omitempty"`
	Limit      int               `msgpack:"limit,omitempty"`
	Offset     int               `msgpack:"offset,omitempty"`
}

type orderClause struct {
	Field     string `msgpack:"field"`
	Direction string `msgpack:"direction"`
}

// Codec encodes and decodes specification snapshots. Create once with
// NewCodec and reuse; EncodeAll/DecodeAll on the underlying zstd coders are
// goroutine-safe. Call Close when done to release resources.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec creates a reusable snapshot codec. Compression uses
// SpeedDefault for a balanced ratio and speed.
func NewCodec() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("snapshot: creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("snapshot: creating zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// Encode serializes a specification into the compressed snapshot form.
func (c *Codec) Encode(spec *queryspec.Specification) ([]byte, error) {
	p := payload{
		Search:  spec.Search,
		Scopes:  spec.Scopes,
		Filters: spec.Filters,
		Limit:   spec.Limit,
		Offset:  spec.Offset,
	}
	if spec.FilterTree != nil {
		form := spec.FilterTree.ParamsForQuery(filtertree.ParamsOptions{
			KeepBlanks: true,
			KeepKeys:   true,
		})
		if len(form) > 0 {
			p.FilterForm = form
		}
	}
	for _, clause := range spec.OrderBy {
		p.OrderBy = append(p.OrderBy, orderClause{
			Field:     clause.Field,
			Direction: string(clause.Direction),
		})
	}

	data, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encoding payload: %w", err)
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decode restores a specification from its snapshot form. The resource is
// needed to rebuild and revalidate the filter tree against the current
// schema; predicates that no longer resolve come back as invalid tree
// components, not as a decode error.
func (c *Codec) Decode(r schema.Resource, data []byte) (*queryspec.Specification, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("snapshot: empty snapshot data")
	}
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompressing: %w", err)
	}
	var p payload
	if err := msgpack.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("snapshot: decoding payload: %w", err)
	}

	spec := &queryspec.Specification{
		Search:  p.Search,
		Scopes:  p.Scopes,
		Filters: p.Filters,
		Limit:   p.Limit,
		Offset:  p.Offset,
	}
	if len(p.FilterForm) > 0 {
		spec.FilterTree = filtertree.New(r, p.FilterForm, filtertree.Options{})
	}
	for _, clause := range p.OrderBy {
		dir, ok := schema.ParseDirection(clause.Direction)
		if !ok {
			return nil, fmt.Errorf("snapshot: unknown sort direction %q", clause.Direction)
		}
		spec.OrderBy = append(spec.OrderBy, schema.OrderClause{Field: clause.Field, Direction: dir})
	}
	return spec, nil
}

// Close releases the codec's resources.
func (c *Codec) Close() error {
	if c.decoder != nil {
		c.decoder.Close()
	}
	if c.encoder != nil {
		return c.encoder.Close()
	}
	return nil
}
