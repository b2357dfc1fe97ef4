// Package codec serializes values for the byte-oriented cache.
//
// Package codec 为面向字节的缓存提供值的序列化和反序列化。
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Codec defines the interface for encoding and decoding cache values.
//
// Codec 定义了编码和解码缓存值的接口。
type Codec interface {
	// Marshal serializes a value into bytes.
	//
	// Marshal 将值序列化为字节。
	Marshal(value interface{}) ([]byte, error)

	// Unmarshal deserializes bytes into value, which must be a pointer.
	//
	// Unmarshal 将字节反序列化为值，value必须是指针。
	Unmarshal(data []byte, value interface{}) error

	// Name returns the name of this codec.
	//
	// Name 返回此编解码器的名称。
	Name() string
}

// JSONCodec implements Codec using encoding/json. Cached products keep the
// same shape as the HTTP responses.
//
// JSONCodec 使用JSON序列化实现Codec。
type JSONCodec struct{}

func (JSONCodec) Marshal(value interface{}) ([]byte, error) {
	return json.Marshal(value)
}

func (JSONCodec) Unmarshal(data []byte, value interface{}) error {
	return json.Unmarshal(data, value)
}

func (JSONCodec) Name() string { return "json" }

// GobCodec implements Codec using encoding/gob.
//
// GobCodec 使用Gob序列化实现Codec。
type GobCodec struct{}

func (GobCodec) Marshal(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobCodec) Unmarshal(data []byte, value interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func (GobCodec) Name() string { return "gob" }

// DefaultCodec returns the JSON codec.
//
// DefaultCodec 返回默认编解码器（JSON）。
func DefaultCodec() Codec {
	return JSONCodec{}
}

// GetCodec returns a codec by name.
// Supported names: "json", "gob".
//
// GetCodec 通过名称返回编解码器。
// 支持的名称："json"、"gob"。
//
// Parameters:
//   - name: The codec name, "" selects the default
//
// Returns:
//   - Codec: The requested codec
//   - error: An error if the codec name is unknown
func GetCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "gob":
		return GobCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}
