package teamplanv1

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// CodecName は content-subtype として使うコーデック名です。クライアントは grpc.CallContentSubtype(CodecName) を指定します。
const CodecName = "json"

// Codec は teamplan.v1 のメッセージを JSON で符号化する gRPC コーデックです。
type Codec struct{}

func init() {
	encoding.RegisterCodec(Codec{})
}

// Marshal は v を JSON に変換します。
func (Codec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("teamplanv1: marshal %T: %w", v, err)
	}
	return b, nil
}

// Unmarshal は JSON を v に復元します。空のペイロードはゼロ値のメッセージとして扱います。
func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("teamplanv1: unmarshal %T: %w", v, err)
	}
	return nil
}

// Name はコーデック名を返します。
func (Codec) Name() string {
	return CodecName
}

// requireJSON は JSON 以外の content-subtype で届いた呼び出しを復号前に Unimplemented で拒否します。
func requireJSON(ctx context.Context) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}
	for _, ct := range md.Get("content-type") {
		sub := contentSubtype(ct)
		if sub == CodecName {
			continue
		}
		if sub == "" {
			sub = "proto"
		}
		return status.Errorf(codes.Unimplemented,
			"teamplan.v1 accepts only content-subtype %q, got %q: call with grpc.CallContentSubtype(%q)", CodecName, sub, CodecName)
	}
	return nil
}

func contentSubtype(contentType string) string {
	rest, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/grpc")
	if !ok || len(rest) < 2 {
		return ""
	}
	// "+json" と ";json" のどちらも許可される。
	return rest[1:]
}
