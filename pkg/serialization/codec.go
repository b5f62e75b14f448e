// Package serialization provides the encode/compress/encrypt pipeline used
// when layout snapshots are written to a repository or exported to disk.
package serialization

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes snapshot payloads.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// JSONCodec keeps payloads human-readable; used for exported layout files.
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Decode(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (JSONCodec) Name() string { return "json" }

// MsgPackCodec is the compact binary codec used by the snapshot stores.
type MsgPackCodec struct{}

func (MsgPackCodec) Encode(v interface{}) ([]byte, error) { return msgpack.Marshal(v) }

func (MsgPackCodec) Decode(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }

func (MsgPackCodec) Name() string { return "msgpack" }
