// Package web はブラウザ向けの静的ページを埋め込みで提供する。
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// Static はstatic/をルートとする静的ファイルのファイルシステムを返す。
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// 埋め込みパスはビルド時に固定されるため、ここに到達しない
		panic(err)
	}
	return sub
}
