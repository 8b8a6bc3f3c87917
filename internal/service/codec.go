package service

import "encoding/json"

// jsonCodec carries plain Go message structs over Connect. It replaces the
// default protojson codec under the same "json" name, so clients send
// application/json (unary) or application/connect+json (streaming).
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

func (jsonCodec) Unmarshal(data []byte, msg any) error { return json.Unmarshal(data, msg) }
