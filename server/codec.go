package server

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec lets Connect carry plain Go structs. The built-in "json" codec
// only accepts protobuf messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// ClientOptions returns the options a Connect client needs to talk to this
// server.
func ClientOptions() []connect.ClientOption {
	return []connect.ClientOption{connect.WithCodec(jsonCodec{})}
}
