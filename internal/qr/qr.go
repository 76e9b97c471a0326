// Package qr renders group invite links as QR code images.
package qr

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/mroshb/apex_bot/pkg/errors"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// JoinPayloadPrefix marks a /start deep-link payload that carries a join code.
const JoinPayloadPrefix = "join_"

const blockWidth = 8

// JoinLink is the t.me deep link that opens the bot and joins the group.
func JoinLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s%s", strings.TrimPrefix(botUsername, "@"), JoinPayloadPrefix, code)
}

// CodeFromPayload extracts the join code from a /start payload.
func CodeFromPayload(payload string) (string, bool) {
	if !strings.HasPrefix(payload, JoinPayloadPrefix) {
		return "", false
	}
	code := strings.TrimPrefix(payload, JoinPayloadPrefix)
	return code, code != ""
}

// PNG encodes content as a QR code PNG image.
func PNG(content string) ([]byte, error) {
	code, err := qrcode.New(content)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create qrcode")
	}

	var buf bytes.Buffer
	w := standard.NewWithWriter(nopWriteCloser{&buf},
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(blockWidth),
	)
	if err := code.Save(w); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to render qrcode")
	}
	return buf.Bytes(), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
